package models

import "time"

type Pondok struct {
	ID         string      `db:"id" json:"id"`
	Nama       string      `db:"nama" json:"nama"`
	Jenis      PondokJenis `db:"jenis" json:"jenis"`
	Telepon    string      `db:"telepon" json:"telepon"`
	Alamat     string      `db:"alamat" json:"alamat"`
	Provinsi   string      `db:"provinsi" json:"provinsi"`
	Kota       string      `db:"kota" json:"kota"`
	Kecamatan  string      `db:"kecamatan" json:"kecamatan"`
	Kelurahan  string      `db:"kelurahan" json:"kelurahan"`
	KodePos    string      `db:"kode_pos" json:"kode_pos"`
	AcceptedAt *time.Time  `db:"accepted_at" json:"accepted_at"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`

	Pengurus []Pengurus `db:"-" json:"pengurus,omitempty"`
}

// IsVerified is false while the pondok is pending verification by pusat.
func (p *Pondok) IsVerified() bool {
	return p.AcceptedAt != nil
}

// PondokSummary is the slice of a pondok attached to document reads.
type PondokSummary struct {
	ID    string      `json:"id"`
	Nama  string      `json:"nama"`
	Jenis PondokJenis `json:"jenis"`
}

type Pengurus struct {
	ID           string    `db:"id" json:"id"`
	PondokID     string    `db:"pondok_id" json:"pondok_id"`
	Nama         string    `db:"nama" json:"nama"`
	Jabatan      Jabatan   `db:"jabatan" json:"jabatan"`
	NomorTelepon string    `db:"nomor_telepon" json:"nomor_telepon"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type PengurusRequest struct {
	Nama         string  `json:"nama" validate:"required,max=150"`
	Jabatan      Jabatan `json:"jabatan" validate:"required,oneof=ketua wakil_ketua sekretaris bendahara pengurus_lain"`
	NomorTelepon string  `json:"nomor_telepon" validate:"omitempty,max=30"`
}

// PondokRequest carries the editable pondok fields.
type PondokRequest struct {
	Nama      string      `json:"nama" validate:"required,max=200"`
	Jenis     PondokJenis `json:"jenis" validate:"required,oneof=ppm pppm boarding"`
	Telepon   string      `json:"telepon" validate:"omitempty,max=30"`
	Alamat    string      `json:"alamat" validate:"omitempty,max=500"`
	Provinsi  string      `json:"provinsi" validate:"omitempty,max=100"`
	Kota      string      `json:"kota" validate:"omitempty,max=100"`
	Kecamatan string      `json:"kecamatan" validate:"omitempty,max=100"`
	Kelurahan string      `json:"kelurahan" validate:"omitempty,max=100"`
	KodePos   string      `json:"kode_pos" validate:"omitempty,max=10"`
}

// AdminAccountRequest is the admin_pondok login created with a new pondok.
type AdminAccountRequest struct {
	Nama         string `json:"nama" validate:"required,max=150"`
	Email        string `json:"email" validate:"required,email"`
	NomorTelepon string `json:"nomor_telepon" validate:"omitempty,max=30"`
	Password     string `json:"password" validate:"required,min=8"`
}

// CreatePondokRequest registers a pondok together with its pengurus and admin.
type CreatePondokRequest struct {
	PondokRequest
	Pengurus []PengurusRequest    `json:"pengurus" validate:"dive"`
	Admin    *AdminAccountRequest `json:"admin" validate:"omitempty"`
}

func (r PondokRequest) Apply(p *Pondok) {
	p.Nama = r.Nama
	p.Jenis = r.Jenis
	p.Telepon = r.Telepon
	p.Alamat = r.Alamat
	p.Provinsi = r.Provinsi
	p.Kota = r.Kota
	p.Kecamatan = r.Kecamatan
	p.Kelurahan = r.Kelurahan
	p.KodePos = r.KodePos
}
