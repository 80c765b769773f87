package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

const lpjColumns = dokumenColumns + `, d.realisasi_pemasukan, d.realisasi_pengeluaran, d.sisa_saldo`

type lpjRow struct {
	models.LPJ
	relationRow
}

type lpjRepository struct {
	dokumenTable
}

func NewLPJRepository(db sqlx.ExtContext) LPJRepository {
	return &lpjRepository{dokumenTable{db: db, table: "lpj"}}
}

func (r *lpjRepository) Create(ctx context.Context, lpj *models.LPJ) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	lpj.CreatedAt, lpj.UpdatedAt = now, now
	query := `INSERT INTO lpj (id, pondok_id, periode_id, status, saldo_awal, realisasi_pemasukan,
	          realisasi_pengeluaran, sisa_saldo, dokumen_path, submitted_at, accepted_at, pesan_revisi,
	          created_at, updated_at)
	          VALUES (:id, :pondok_id, :periode_id, :status, :saldo_awal, :realisasi_pemasukan,
	          :realisasi_pengeluaran, :sisa_saldo, :dokumen_path, :submitted_at, :accepted_at, :pesan_revisi,
	          :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, lpj)
	return translate(err)
}

func (r *lpjRepository) Resubmit(ctx context.Context, lpj *models.LPJ, expected time.Time) error {
	updatedAt := nextUpdatedAt(expected)
	query := `UPDATE lpj SET status = ?, saldo_awal = ?, realisasi_pemasukan = ?, realisasi_pengeluaran = ?,
	          sisa_saldo = ?, dokumen_path = ?, submitted_at = ?, accepted_at = ?, pesan_revisi = ?, updated_at = ?
	          WHERE id = ? AND updated_at = ?`
	res, err := r.db.ExecContext(ctx, query,
		lpj.Status, lpj.SaldoAwal, lpj.RealisasiPemasukan, lpj.RealisasiPengeluaran, lpj.SisaSaldo,
		lpj.DokumenPath, lpj.SubmittedAt.UTC(), utcPtr(lpj.AcceptedAt), lpj.PesanRevisi, updatedAt,
		lpj.ID, expected.UTC())
	if err != nil {
		return translate(err)
	}
	if err := checkAffected(res, apperr.ErrOptimisticLock); err != nil {
		return err
	}
	lpj.UpdatedAt = updatedAt
	return nil
}

func (r *lpjRepository) FindByID(ctx context.Context, id string) (*models.LPJ, error) {
	var row lpjRow
	query := fmt.Sprintf("SELECT %s, %s FROM lpj d %s WHERE d.id = ? LIMIT 1", lpjColumns, relationColumns, relationJoins)
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (r *lpjRepository) FindByPondokPeriode(ctx context.Context, pondokID, periodeID string) (*models.LPJ, error) {
	var lpj models.LPJ
	query := fmt.Sprintf("SELECT %s FROM lpj d WHERE d.pondok_id = ? AND d.periode_id = ? LIMIT 1", lpjColumns)
	if err := sqlx.GetContext(ctx, r.db, &lpj, query, pondokID, periodeID); err != nil {
		return nil, translate(err)
	}
	return &lpj, nil
}

func (r *lpjRepository) FindAll(ctx context.Context, f models.DocumentFilter) ([]models.LPJ, int, error) {
	where, args := r.filter(f)
	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	page, args := pageClause(f, args)
	query := fmt.Sprintf("SELECT %s, %s FROM lpj d %s %s ORDER BY d.submitted_at DESC%s",
		lpjColumns, relationColumns, relationJoins, where, page)
	var rows []lpjRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	lpjs := make([]models.LPJ, 0, len(rows))
	for i := range rows {
		lpjs = append(lpjs, *rows[i].toModel())
	}
	return lpjs, total, nil
}

func (row *lpjRow) toModel() *models.LPJ {
	lpj := row.LPJ
	row.relationRow.attach(lpj.Dokumen, &lpj.DocumentRelations)
	return &lpj
}
