package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pondok-keuangan/internal/apperr"
)

var wib = time.FixedZone("WIB", 7*60*60)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestPeriodeID(t *testing.T) {
	assert.Equal(t, "202505", PeriodeID(2025, 5))
	assert.Equal(t, "202512", PeriodeID(2025, 12))
}

func TestIsWithinWindow(t *testing.T) {
	start := mustParse(t, "2025-05-01T00:00:00Z")
	end := mustParse(t, "2025-05-10T23:59:59Z")

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"inside", mustParse(t, "2025-05-05T12:00:00Z"), true},
		{"at start", start, true},
		{"at end", end, true},
		{"before start", start.Add(-time.Second), false},
		{"after end", end.Add(time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinWindow(tt.now, start, end))
		})
	}
}

func TestInvertedWindowIsNeverOpen(t *testing.T) {
	start := mustParse(t, "2025-05-10T00:00:00Z")
	end := mustParse(t, "2025-05-01T00:00:00Z")

	for _, now := range []time.Time{start, end, mustParse(t, "2025-05-05T00:00:00Z")} {
		assert.False(t, IsWithinWindow(now, start, end))
	}
}

func TestRabAndLpjWindowsAreIndependent(t *testing.T) {
	p := &Periode{
		ID:       "202505",
		AwalRAB:  mustParse(t, "2025-05-01T00:00:00Z"),
		AkhirRAB: mustParse(t, "2025-05-10T23:59:59Z"),
		AwalLPJ:  mustParse(t, "2025-05-25T00:00:00Z"),
		AkhirLPJ: mustParse(t, "2025-06-05T23:59:59Z"),
	}

	now := mustParse(t, "2025-05-05T12:00:00Z")
	assert.True(t, p.IsRabOpen(now))
	assert.False(t, p.IsLpjOpen(now))

	now = mustParse(t, "2025-05-15T00:00:00Z")
	assert.False(t, p.IsRabOpen(now))
	assert.False(t, p.IsLpjOpen(now))
	assert.False(t, p.IsOpen(KindRAB, now))

	now = mustParse(t, "2025-06-01T00:00:00Z")
	assert.True(t, p.IsOpen(KindLPJ, now))

	status := p.StatusAt(now)
	assert.False(t, status.RabOpen)
	assert.True(t, status.LpjOpen)
}

func TestParseWindowTime(t *testing.T) {
	start, err := ParseWindowTime("awal_rab", "2025-05-01", false, wib)
	require.NoError(t, err)
	assert.Equal(t, mustParse(t, "2025-04-30T17:00:00Z"), start)

	end, err := ParseWindowTime("akhir_rab", "2025-05-10", true, wib)
	require.NoError(t, err)
	assert.Equal(t, mustParse(t, "2025-05-10T16:59:59Z"), end.Truncate(time.Second))

	exact, err := ParseWindowTime("akhir_rab", "2025-05-10T12:00:00+07:00", true, wib)
	require.NoError(t, err)
	assert.Equal(t, mustParse(t, "2025-05-10T05:00:00Z"), exact)

	_, err = ParseWindowTime("awal_lpj", "10/05/2025", false, wib)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = ParseWindowTime("awal_lpj", "  ", false, wib)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPeriodeRequestToPeriode(t *testing.T) {
	req := PeriodeRequest{
		Tahun: 2025, Bulan: 5,
		AwalRAB: "2025-05-01", AkhirRAB: "2025-05-10",
		AwalLPJ: "2025-05-25", AkhirLPJ: "2025-06-05",
	}

	p, err := req.ToPeriode(wib)
	require.NoError(t, err)
	assert.Equal(t, "202505", p.ID)
	assert.True(t, p.IsRabOpen(mustParse(t, "2025-05-10T23:00:00+07:00")))
	assert.False(t, p.IsRabOpen(mustParse(t, "2025-05-11T00:00:00+07:00")))
}

func TestPeriodeRequestRejectsInvertedWindow(t *testing.T) {
	req := PeriodeRequest{
		Tahun: 2025, Bulan: 5,
		AwalRAB: "2025-05-10", AkhirRAB: "2025-05-01",
		AwalLPJ: "2025-05-25", AkhirLPJ: "2025-06-05",
	}

	_, err := req.ToPeriode(wib)
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "akhir_rab", e.Fields[0].Field)
}

func TestPeriodeValidateMonth(t *testing.T) {
	p := &Periode{Tahun: 2025, Bulan: 13}
	err := p.Validate()
	require.ErrorIs(t, err, apperr.ErrValidation)
}
