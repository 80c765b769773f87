package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pondok-keuangan/internal/apperr"
)

func TestSisaSaldo(t *testing.T) {
	got := SisaSaldo(decimal.NewFromInt(1000000), decimal.NewFromInt(500000), decimal.NewFromInt(300000))
	assert.True(t, got.Equal(decimal.NewFromInt(1200000)), got.String())
}

func TestLPJFieldsApplyIgnoresClientSisaSaldo(t *testing.T) {
	saldo := decimal.NewFromInt(1000000)
	l := &LPJ{SisaSaldo: decimal.NewFromInt(999)}
	LPJFields{
		SaldoAwal:            &saldo,
		RealisasiPemasukan:   decimal.NewFromInt(500000),
		RealisasiPengeluaran: decimal.NewFromInt(300000),
	}.Apply(l, decimal.Zero)

	assert.True(t, l.SisaSaldo.Equal(decimal.NewFromInt(1200000)))
}

func TestLPJFieldsApplyFallsBackToRabSaldo(t *testing.T) {
	l := &LPJ{}
	LPJFields{
		RealisasiPemasukan:   decimal.NewFromInt(250000),
		RealisasiPengeluaran: decimal.NewFromInt(400000),
	}.Apply(l, decimal.NewFromInt(750000))

	assert.True(t, l.SaldoAwal.Equal(decimal.NewFromInt(750000)))
	assert.True(t, l.SisaSaldo.Equal(decimal.NewFromInt(600000)))
}

func TestSisaSaldoNoFloatDrift(t *testing.T) {
	got := SisaSaldo(decimal.RequireFromString("0.10"), decimal.RequireFromString("0.20"), decimal.Zero)
	assert.Equal(t, "0.3", got.String())
}

func TestFieldsRejectNegativeAmounts(t *testing.T) {
	err := RABFields{SaldoAwal: decimal.NewFromInt(-1)}.Validate()
	require.ErrorIs(t, err, apperr.ErrValidation)

	err = LPJFields{RealisasiPengeluaran: decimal.NewFromInt(-5)}.Validate()
	require.ErrorIs(t, err, apperr.ErrValidation)

	assert.NoError(t, RABFields{}.Validate())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"1000000", "1000000", true},
		{"Rp 1.500.000", "1500000", true},
		{"1.500.000,50", "1500000.5", true},
		{"Rp 10.000", "10000", true},
		{"Rp10.000", "10000", true},
		{"250.000", "250000", true},
		{"1.500", "1500", true},
		{"1500000,50", "1500000.5", true},
		{"0,5", "0.5", true},
		{"2500.75", "2500.75", true}, // not a thousands group, so a decimal point
		{"1.50.000", "", false},
		{"1.500,5,0", "", false},
		{"1500.000.00", "", false},
		{"sejuta", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount("saldo_awal", tt.raw)
			if !tt.ok {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	opt, err := ParseOptionalAmount("saldo_awal", " ")
	assert.NoError(t, err)
	assert.Nil(t, opt)
}
