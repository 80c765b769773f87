package models

import "time"

// UserProfile is the application profile of an identity account. PondokID
// is nil for admin_pusat.
type UserProfile struct {
	ID           string    `db:"id" json:"id"`
	Nama         string    `db:"nama" json:"nama"`
	Email        string    `db:"email" json:"email"`
	NomorTelepon string    `db:"nomor_telepon" json:"nomor_telepon"`
	Role         UserRole  `db:"role" json:"role"`
	PondokID     *string   `db:"pondok_id" json:"pondok_id"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (u *UserProfile) Caller() Caller {
	return Caller{UserID: u.ID, Role: u.Role, PondokID: u.PondokID}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest adds an account. PondokID is required for admin_pondok
// and must be empty for admin_pusat.
type CreateUserRequest struct {
	Nama         string   `json:"nama" validate:"required,max=150"`
	Email        string   `json:"email" validate:"required,email"`
	NomorTelepon string   `json:"nomor_telepon" validate:"omitempty,max=30"`
	Password     string   `json:"password" validate:"required,min=8"`
	Role         UserRole `json:"role" validate:"required,oneof=admin_pusat admin_pondok"`
	PondokID     *string  `json:"pondok_id"`
}
