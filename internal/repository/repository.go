package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

// ErrDuplicateKey is returned when an insert violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

type PeriodeRepository interface {
	Create(ctx context.Context, p *models.Periode) error
	Update(ctx context.Context, p *models.Periode) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Periode, error)
	FindAll(ctx context.Context, limit, offset int) ([]models.Periode, int, error)
	// CountDocuments returns how many RAB and LPJ rows reference the periode.
	CountDocuments(ctx context.Context, id string) (int, error)
}

type PondokRepository interface {
	Create(ctx context.Context, p *models.Pondok) error
	Update(ctx context.Context, p *models.Pondok) error
	Delete(ctx context.Context, id string) error
	Verify(ctx context.Context, id string, at time.Time) error
	FindByID(ctx context.Context, id string) (*models.Pondok, error)
	FindAll(ctx context.Context, limit, offset int, search string) ([]models.Pondok, int, error)
	ListAll(ctx context.Context) ([]models.Pondok, error)
}

type PengurusRepository interface {
	CreateBatch(ctx context.Context, items []models.Pengurus) error
	FindByPondokID(ctx context.Context, pondokID string) ([]models.Pengurus, error)
	ReplaceForPondok(ctx context.Context, pondokID string, items []models.Pengurus) error
}

type UserProfileRepository interface {
	Create(ctx context.Context, u *models.UserProfile) error
	FindByID(ctx context.Context, id string) (*models.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*models.UserProfile, error)
}

// DokumenStore is the part of the RAB and LPJ repositories that only touches
// the shared review columns.
type DokumenStore interface {
	FindDokumen(ctx context.Context, id string) (*models.Dokumen, error)
	// UpdateStatus writes status, accepted_at and pesan_revisi when the row's
	// updated_at still equals expected. It returns apperr.ErrOptimisticLock
	// when another write got there first.
	UpdateStatus(ctx context.Context, d *models.Dokumen, expected time.Time) error
}

type RABRepository interface {
	DokumenStore
	Create(ctx context.Context, r *models.RAB) error
	Resubmit(ctx context.Context, r *models.RAB, expected time.Time) error
	FindByID(ctx context.Context, id string) (*models.RAB, error)
	FindByPondokPeriode(ctx context.Context, pondokID, periodeID string) (*models.RAB, error)
	FindAll(ctx context.Context, filter models.DocumentFilter) ([]models.RAB, int, error)
}

type LPJRepository interface {
	DokumenStore
	Create(ctx context.Context, l *models.LPJ) error
	Resubmit(ctx context.Context, l *models.LPJ, expected time.Time) error
	FindByID(ctx context.Context, id string) (*models.LPJ, error)
	FindByPondokPeriode(ctx context.Context, pondokID, periodeID string) (*models.LPJ, error)
	FindAll(ctx context.Context, filter models.DocumentFilter) ([]models.LPJ, int, error)
}

// Repository groups the table repositories. Transact runs a function against
// copies bound to a single database transaction.
type Repository struct {
	Periode     PeriodeRepository
	Pondok      PondokRepository
	Pengurus    PengurusRepository
	UserProfile UserProfileRepository
	RAB         RABRepository
	LPJ         LPJRepository

	db  *sqlx.DB
	mem *memoryStore
}

func New(db *sqlx.DB) *Repository {
	r := bind(db)
	r.db = db
	return r
}

func bind(db sqlx.ExtContext) *Repository {
	return &Repository{
		Periode:     NewPeriodeRepository(db),
		Pondok:      NewPondokRepository(db),
		Pengurus:    NewPengurusRepository(db),
		UserProfile: NewUserProfileRepository(db),
		RAB:         NewRABRepository(db),
		LPJ:         NewLPJRepository(db),
	}
}

// Transact commits when fn returns nil and rolls back otherwise. The
// in-memory Repository restores a snapshot of its tables on failure.
func (r *Repository) Transact(ctx context.Context, fn func(tx *Repository) error) error {
	if r.mem != nil {
		return r.mem.transact(func() error { return fn(r) })
	}
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(bind(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Ping reports whether the backing database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrRecordNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, myErr.Message)
	}
	return err
}

// nextUpdatedAt returns a timestamp at the column's microsecond precision
// that differs from prev, so a compare-and-swap on updated_at always sees a
// change.
func nextUpdatedAt(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func checkAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
