package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

const pondokColumns = `id, nama, jenis, telepon, alamat, provinsi, kota, kecamatan, kelurahan, kode_pos,
	accepted_at, created_at, updated_at`

type pondokRepository struct {
	db sqlx.ExtContext
}

func NewPondokRepository(db sqlx.ExtContext) PondokRepository {
	return &pondokRepository{db: db}
}

func (r *pondokRepository) Create(ctx context.Context, p *models.Pondok) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now
	query := `INSERT INTO pondok (` + pondokColumns + `)
	          VALUES (:id, :nama, :jenis, :telepon, :alamat, :provinsi, :kota, :kecamatan, :kelurahan, :kode_pos,
	                  :accepted_at, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, p)
	return translate(err)
}

func (r *pondokRepository) Update(ctx context.Context, p *models.Pondok) error {
	p.UpdatedAt = nextUpdatedAt(p.UpdatedAt)
	query := `UPDATE pondok SET nama = :nama, jenis = :jenis, telepon = :telepon, alamat = :alamat,
	          provinsi = :provinsi, kota = :kota, kecamatan = :kecamatan, kelurahan = :kelurahan,
	          kode_pos = :kode_pos, updated_at = :updated_at
	          WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, query, p)
	if err != nil {
		return translate(err)
	}
	return checkAffected(res, apperr.ErrRecordNotFound)
}

func (r *pondokRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM pondok WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	return checkAffected(res, apperr.ErrRecordNotFound)
}

func (r *pondokRepository) Verify(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE pondok SET accepted_at = ?, updated_at = ? WHERE id = ?",
		at.UTC(), nextUpdatedAt(time.Time{}), id)
	if err != nil {
		return translate(err)
	}
	return checkAffected(res, apperr.ErrRecordNotFound)
}

func (r *pondokRepository) FindByID(ctx context.Context, id string) (*models.Pondok, error) {
	var p models.Pondok
	query := "SELECT " + pondokColumns + " FROM pondok WHERE id = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, r.db, &p, query, id); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *pondokRepository) FindAll(ctx context.Context, limit, offset int, search string) ([]models.Pondok, int, error) {
	var total int

	// Build query with search
	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE nama LIKE ? OR kota LIKE ? OR provinsi LIKE ?"
		searchPattern := "%" + search + "%"
		args = append(args, searchPattern, searchPattern, searchPattern)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM pondok %s", whereClause)
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	pondoks := []models.Pondok{}
	query := fmt.Sprintf("SELECT %s FROM pondok %s ORDER BY nama LIMIT ? OFFSET ?", pondokColumns, whereClause)
	args = append(args, limit, offset)
	if err := sqlx.SelectContext(ctx, r.db, &pondoks, query, args...); err != nil {
		return nil, 0, err
	}
	return pondoks, total, nil
}

func (r *pondokRepository) ListAll(ctx context.Context) ([]models.Pondok, error) {
	pondoks := []models.Pondok{}
	query := "SELECT " + pondokColumns + " FROM pondok ORDER BY nama"
	if err := sqlx.SelectContext(ctx, r.db, &pondoks, query); err != nil {
		return nil, err
	}
	return pondoks, nil
}

type pengurusRepository struct {
	db sqlx.ExtContext
}

func NewPengurusRepository(db sqlx.ExtContext) PengurusRepository {
	return &pengurusRepository{db: db}
}

func (r *pengurusRepository) CreateBatch(ctx context.Context, items []models.Pengurus) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := range items {
		items[i].CreatedAt, items[i].UpdatedAt = now, now
	}
	query := `INSERT INTO pengurus (id, pondok_id, nama, jabatan, nomor_telepon, created_at, updated_at)
	          VALUES (:id, :pondok_id, :nama, :jabatan, :nomor_telepon, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, items)
	return translate(err)
}

func (r *pengurusRepository) FindByPondokID(ctx context.Context, pondokID string) ([]models.Pengurus, error) {
	items := []models.Pengurus{}
	query := `SELECT id, pondok_id, nama, jabatan, nomor_telepon, created_at, updated_at
	          FROM pengurus WHERE pondok_id = ?
	          ORDER BY FIELD(jabatan, 'ketua', 'wakil_ketua', 'sekretaris', 'bendahara', 'pengurus_lain'), nama`
	if err := sqlx.SelectContext(ctx, r.db, &items, query, pondokID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *pengurusRepository) ReplaceForPondok(ctx context.Context, pondokID string, items []models.Pengurus) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM pengurus WHERE pondok_id = ?", pondokID); err != nil {
		return translate(err)
	}
	return r.CreateBatch(ctx, items)
}
