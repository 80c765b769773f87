package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

const rabColumns = dokumenColumns + `, d.rencana_pemasukan, d.rencana_pengeluaran`

type rabRow struct {
	models.RAB
	relationRow
}

type rabRepository struct {
	dokumenTable
}

func NewRABRepository(db sqlx.ExtContext) RABRepository {
	return &rabRepository{dokumenTable{db: db, table: "rab"}}
}

func (r *rabRepository) Create(ctx context.Context, rab *models.RAB) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rab.CreatedAt, rab.UpdatedAt = now, now
	query := `INSERT INTO rab (id, pondok_id, periode_id, status, saldo_awal, rencana_pemasukan,
	          rencana_pengeluaran, dokumen_path, submitted_at, accepted_at, pesan_revisi, created_at, updated_at)
	          VALUES (:id, :pondok_id, :periode_id, :status, :saldo_awal, :rencana_pemasukan,
	          :rencana_pengeluaran, :dokumen_path, :submitted_at, :accepted_at, :pesan_revisi, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, rab)
	return translate(err)
}

func (r *rabRepository) Resubmit(ctx context.Context, rab *models.RAB, expected time.Time) error {
	updatedAt := nextUpdatedAt(expected)
	query := `UPDATE rab SET status = ?, saldo_awal = ?, rencana_pemasukan = ?, rencana_pengeluaran = ?,
	          dokumen_path = ?, submitted_at = ?, accepted_at = ?, pesan_revisi = ?, updated_at = ?
	          WHERE id = ? AND updated_at = ?`
	res, err := r.db.ExecContext(ctx, query,
		rab.Status, rab.SaldoAwal, rab.RencanaPemasukan, rab.RencanaPengeluaran,
		rab.DokumenPath, rab.SubmittedAt.UTC(), utcPtr(rab.AcceptedAt), rab.PesanRevisi, updatedAt,
		rab.ID, expected.UTC())
	if err != nil {
		return translate(err)
	}
	if err := checkAffected(res, apperr.ErrOptimisticLock); err != nil {
		return err
	}
	rab.UpdatedAt = updatedAt
	return nil
}

func (r *rabRepository) FindByID(ctx context.Context, id string) (*models.RAB, error) {
	var row rabRow
	query := fmt.Sprintf("SELECT %s, %s FROM rab d %s WHERE d.id = ? LIMIT 1", rabColumns, relationColumns, relationJoins)
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (r *rabRepository) FindByPondokPeriode(ctx context.Context, pondokID, periodeID string) (*models.RAB, error) {
	var rab models.RAB
	query := fmt.Sprintf("SELECT %s FROM rab d WHERE d.pondok_id = ? AND d.periode_id = ? LIMIT 1", rabColumns)
	if err := sqlx.GetContext(ctx, r.db, &rab, query, pondokID, periodeID); err != nil {
		return nil, translate(err)
	}
	return &rab, nil
}

func (r *rabRepository) FindAll(ctx context.Context, f models.DocumentFilter) ([]models.RAB, int, error) {
	where, args := r.filter(f)
	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	page, args := pageClause(f, args)
	query := fmt.Sprintf("SELECT %s, %s FROM rab d %s %s ORDER BY d.submitted_at DESC%s",
		rabColumns, relationColumns, relationJoins, where, page)
	var rows []rabRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	rabs := make([]models.RAB, 0, len(rows))
	for i := range rows {
		rabs = append(rabs, *rows[i].toModel())
	}
	return rabs, total, nil
}

func (row *rabRow) toModel() *models.RAB {
	rab := row.RAB
	row.relationRow.attach(rab.Dokumen, &rab.DocumentRelations)
	return &rab
}
