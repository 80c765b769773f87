package models

import "github.com/shopspring/decimal"

// RAB (rencana anggaran biaya) is a pondok's budget plan for one periode.
type RAB struct {
	Dokumen
	RencanaPemasukan   decimal.Decimal `db:"rencana_pemasukan" json:"rencana_pemasukan"`
	RencanaPengeluaran decimal.Decimal `db:"rencana_pengeluaran" json:"rencana_pengeluaran"`

	DocumentRelations
}

// RABFields are the amounts a pondok submits for its RAB.
type RABFields struct {
	SaldoAwal          decimal.Decimal `json:"saldo_awal"`
	RencanaPemasukan   decimal.Decimal `json:"rencana_pemasukan"`
	RencanaPengeluaran decimal.Decimal `json:"rencana_pengeluaran"`
}

func (f RABFields) Validate() error {
	return validateAmounts(
		namedAmount{"saldo_awal", f.SaldoAwal},
		namedAmount{"rencana_pemasukan", f.RencanaPemasukan},
		namedAmount{"rencana_pengeluaran", f.RencanaPengeluaran},
	)
}

// Apply copies the submitted amounts onto the record.
func (f RABFields) Apply(r *RAB) {
	r.SaldoAwal = f.SaldoAwal.Round(2)
	r.RencanaPemasukan = f.RencanaPemasukan.Round(2)
	r.RencanaPengeluaran = f.RencanaPengeluaran.Round(2)
}
