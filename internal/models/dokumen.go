package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dokumen holds the columns shared by RAB and LPJ: ownership, review state
// and the evidence attachment.
type Dokumen struct {
	ID          string          `db:"id" json:"id"`
	PondokID    string          `db:"pondok_id" json:"pondok_id"`
	PeriodeID   string          `db:"periode_id" json:"periode_id"`
	Status      DocumentStatus  `db:"status" json:"status"`
	SaldoAwal   decimal.Decimal `db:"saldo_awal" json:"saldo_awal"`
	DokumenPath *string         `db:"dokumen_path" json:"dokumen_path"`
	SubmittedAt time.Time       `db:"submitted_at" json:"submitted_at"`
	AcceptedAt  *time.Time      `db:"accepted_at" json:"accepted_at"`
	PesanRevisi *string         `db:"pesan_revisi" json:"pesan_revisi"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Header returns the shared columns. It is promoted to RAB and LPJ so both
// satisfy Document.
func (d Dokumen) Header() Dokumen {
	return d
}

// Document is implemented by RAB and LPJ.
type Document interface {
	Header() Dokumen
}

// DocumentRelations are the records attached by joined reads.
type DocumentRelations struct {
	Pondok     *PondokSummary `db:"-" json:"pondok,omitempty"`
	Periode    *Periode       `db:"-" json:"periode,omitempty"`
	DokumenURL string         `db:"-" json:"dokumen_url,omitempty"`
}

// DocumentFilter narrows document listings. Empty fields match everything.
type DocumentFilter struct {
	PondokID  string
	PeriodeID string
	Status    DocumentStatus
	Limit     int
	Offset    int
}
