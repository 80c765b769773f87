package models

import "github.com/shopspring/decimal"

// LPJ (laporan pertanggungjawaban) is a pondok's realization report for one
// periode. It requires an approved RAB for the same pondok and periode.
type LPJ struct {
	Dokumen
	RealisasiPemasukan   decimal.Decimal `db:"realisasi_pemasukan" json:"realisasi_pemasukan"`
	RealisasiPengeluaran decimal.Decimal `db:"realisasi_pengeluaran" json:"realisasi_pengeluaran"`
	SisaSaldo            decimal.Decimal `db:"sisa_saldo" json:"sisa_saldo"`

	DocumentRelations
}

// SisaSaldo is saldo_awal + pemasukan - pengeluaran.
func SisaSaldo(saldoAwal, pemasukan, pengeluaran decimal.Decimal) decimal.Decimal {
	return saldoAwal.Add(pemasukan).Sub(pengeluaran)
}

// RecomputeSisaSaldo overwrites sisa_saldo from the other amounts. Any value
// supplied by a client is discarded.
func (l *LPJ) RecomputeSisaSaldo() {
	l.SisaSaldo = SisaSaldo(l.SaldoAwal, l.RealisasiPemasukan, l.RealisasiPengeluaran)
}

// LPJFields are the amounts a pondok submits for its LPJ. A nil SaldoAwal
// takes the opening balance of the approved RAB.
type LPJFields struct {
	SaldoAwal            *decimal.Decimal `json:"saldo_awal"`
	RealisasiPemasukan   decimal.Decimal  `json:"realisasi_pemasukan"`
	RealisasiPengeluaran decimal.Decimal  `json:"realisasi_pengeluaran"`
}

func (f LPJFields) Validate() error {
	amounts := []namedAmount{
		{"realisasi_pemasukan", f.RealisasiPemasukan},
		{"realisasi_pengeluaran", f.RealisasiPengeluaran},
	}
	if f.SaldoAwal != nil {
		amounts = append(amounts, namedAmount{"saldo_awal", *f.SaldoAwal})
	}
	return validateAmounts(amounts...)
}

// Apply copies the submitted amounts onto the record and recomputes
// sisa_saldo. rabSaldoAwal is used when no opening balance was submitted.
func (f LPJFields) Apply(l *LPJ, rabSaldoAwal decimal.Decimal) {
	saldo := rabSaldoAwal
	if f.SaldoAwal != nil {
		saldo = *f.SaldoAwal
	}
	l.SaldoAwal = saldo.Round(2)
	l.RealisasiPemasukan = f.RealisasiPemasukan.Round(2)
	l.RealisasiPengeluaran = f.RealisasiPengeluaran.Round(2)
	l.RecomputeSisaSaldo()
}
