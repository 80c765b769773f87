package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pondok-keuangan/internal/models"
)

const userProfileColumns = `id, nama, email, nomor_telepon, role, pondok_id, password_hash, created_at, updated_at`

type userProfileRepository struct {
	db sqlx.ExtContext
}

func NewUserProfileRepository(db sqlx.ExtContext) UserProfileRepository {
	return &userProfileRepository{db: db}
}

func (r *userProfileRepository) Create(ctx context.Context, u *models.UserProfile) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	u.CreatedAt, u.UpdatedAt = now, now
	query := `INSERT INTO user_profile (` + userProfileColumns + `)
	          VALUES (:id, :nama, :email, :nomor_telepon, :role, :pondok_id, :password_hash, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, u)
	return translate(err)
}

func (r *userProfileRepository) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var u models.UserProfile
	query := "SELECT " + userProfileColumns + " FROM user_profile WHERE id = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, r.db, &u, query, id); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userProfileRepository) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var u models.UserProfile
	query := "SELECT " + userProfileColumns + " FROM user_profile WHERE email = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, r.db, &u, query, email); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
