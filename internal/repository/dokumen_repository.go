package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

const dokumenColumns = `d.id, d.pondok_id, d.periode_id, d.status, d.saldo_awal, d.dokumen_path,
	d.submitted_at, d.accepted_at, d.pesan_revisi, d.created_at, d.updated_at`

// relationColumns attach the owning pondok and periode to a document row.
const relationColumns = `p.nama AS pondok_nama, p.jenis AS pondok_jenis,
	pr.tahun AS periode_tahun, pr.bulan AS periode_bulan,
	pr.awal_rab AS periode_awal_rab, pr.akhir_rab AS periode_akhir_rab,
	pr.awal_lpj AS periode_awal_lpj, pr.akhir_lpj AS periode_akhir_lpj`

const relationJoins = `JOIN pondok p ON p.id = d.pondok_id
	JOIN periode pr ON pr.id = d.periode_id`

type relationRow struct {
	PondokNama      string             `db:"pondok_nama"`
	PondokJenis     models.PondokJenis `db:"pondok_jenis"`
	PeriodeTahun    int                `db:"periode_tahun"`
	PeriodeBulan    int                `db:"periode_bulan"`
	PeriodeAwalRAB  time.Time          `db:"periode_awal_rab"`
	PeriodeAkhirRAB time.Time          `db:"periode_akhir_rab"`
	PeriodeAwalLPJ  time.Time          `db:"periode_awal_lpj"`
	PeriodeAkhirLPJ time.Time          `db:"periode_akhir_lpj"`
}

func (row relationRow) attach(d models.Dokumen, rel *models.DocumentRelations) {
	rel.Pondok = &models.PondokSummary{ID: d.PondokID, Nama: row.PondokNama, Jenis: row.PondokJenis}
	rel.Periode = &models.Periode{
		ID:       d.PeriodeID,
		Tahun:    row.PeriodeTahun,
		Bulan:    row.PeriodeBulan,
		AwalRAB:  row.PeriodeAwalRAB,
		AkhirRAB: row.PeriodeAkhirRAB,
		AwalLPJ:  row.PeriodeAwalLPJ,
		AkhirLPJ: row.PeriodeAkhirLPJ,
	}
}

// dokumenTable implements DokumenStore for one of the document tables.
type dokumenTable struct {
	db    sqlx.ExtContext
	table string
}

func (t dokumenTable) FindDokumen(ctx context.Context, id string) (*models.Dokumen, error) {
	var d models.Dokumen
	query := fmt.Sprintf("SELECT %s FROM %s d WHERE d.id = ? LIMIT 1", dokumenColumns, t.table)
	if err := sqlx.GetContext(ctx, t.db, &d, query, id); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (t dokumenTable) UpdateStatus(ctx context.Context, d *models.Dokumen, expected time.Time) error {
	updatedAt := nextUpdatedAt(expected)
	query := fmt.Sprintf(`UPDATE %s SET status = ?, accepted_at = ?, pesan_revisi = ?, updated_at = ?
	          WHERE id = ? AND updated_at = ?`, t.table)
	res, err := t.db.ExecContext(ctx, query,
		d.Status, utcPtr(d.AcceptedAt), d.PesanRevisi, updatedAt, d.ID, expected.UTC())
	if err != nil {
		return translate(err)
	}
	if err := checkAffected(res, apperr.ErrOptimisticLock); err != nil {
		return err
	}
	d.UpdatedAt = updatedAt
	return nil
}

func (t dokumenTable) filter(f models.DocumentFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.PondokID != "" {
		conds = append(conds, "d.pondok_id = ?")
		args = append(args, f.PondokID)
	}
	if f.PeriodeID != "" {
		conds = append(conds, "d.periode_id = ?")
		args = append(args, f.PeriodeID)
	}
	if f.Status != "" {
		conds = append(conds, "d.status = ?")
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (t dokumenTable) count(ctx context.Context, where string, args []interface{}) (int, error) {
	var total int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s d %s", t.table, where)
	if err := sqlx.GetContext(ctx, t.db, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func pageClause(f models.DocumentFilter, args []interface{}) (string, []interface{}) {
	if f.Limit <= 0 {
		return "", args
	}
	return " LIMIT ? OFFSET ?", append(args, f.Limit, f.Offset)
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
