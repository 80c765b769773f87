package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

const periodeColumns = `id, tahun, bulan, awal_rab, akhir_rab, awal_lpj, akhir_lpj, created_at, updated_at`

type periodeRepository struct {
	db sqlx.ExtContext
}

func NewPeriodeRepository(db sqlx.ExtContext) PeriodeRepository {
	return &periodeRepository{db: db}
}

func (r *periodeRepository) Create(ctx context.Context, p *models.Periode) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now
	query := `INSERT INTO periode (` + periodeColumns + `)
	          VALUES (:id, :tahun, :bulan, :awal_rab, :akhir_rab, :awal_lpj, :akhir_lpj, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, p)
	return translate(err)
}

func (r *periodeRepository) Update(ctx context.Context, p *models.Periode) error {
	p.UpdatedAt = nextUpdatedAt(p.UpdatedAt)
	query := `UPDATE periode SET awal_rab = :awal_rab, akhir_rab = :akhir_rab,
	          awal_lpj = :awal_lpj, akhir_lpj = :akhir_lpj, updated_at = :updated_at
	          WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, query, p)
	if err != nil {
		return translate(err)
	}
	return checkAffected(res, apperr.ErrRecordNotFound)
}

func (r *periodeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM periode WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	return checkAffected(res, apperr.ErrRecordNotFound)
}

func (r *periodeRepository) FindByID(ctx context.Context, id string) (*models.Periode, error) {
	var p models.Periode
	query := "SELECT " + periodeColumns + " FROM periode WHERE id = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, r.db, &p, query, id); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *periodeRepository) FindAll(ctx context.Context, limit, offset int) ([]models.Periode, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, "SELECT COUNT(*) FROM periode"); err != nil {
		return nil, 0, err
	}

	periodes := []models.Periode{}
	query := "SELECT " + periodeColumns + " FROM periode ORDER BY tahun DESC, bulan DESC LIMIT ? OFFSET ?"
	if err := sqlx.SelectContext(ctx, r.db, &periodes, query, limit, offset); err != nil {
		return nil, 0, err
	}
	return periodes, total, nil
}

func (r *periodeRepository) CountDocuments(ctx context.Context, id string) (int, error) {
	var count int
	query := `SELECT (SELECT COUNT(*) FROM rab WHERE periode_id = ?) + (SELECT COUNT(*) FROM lpj WHERE periode_id = ?)`
	if err := sqlx.GetContext(ctx, r.db, &count, query, id, id); err != nil {
		return 0, err
	}
	return count, nil
}
