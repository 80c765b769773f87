package models

// DocumentStatus is the review state of an RAB or LPJ.
type DocumentStatus string

const (
	StatusDiajukan DocumentStatus = "diajukan"
	StatusDiterima DocumentStatus = "diterima"
	StatusRevisi   DocumentStatus = "revisi"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDiajukan, StatusDiterima, StatusRevisi:
		return true
	}
	return false
}

// DocumentKind distinguishes the two submittable documents.
type DocumentKind string

const (
	KindRAB DocumentKind = "rab"
	KindLPJ DocumentKind = "lpj"
)

func (k DocumentKind) Valid() bool {
	return k == KindRAB || k == KindLPJ
}

// EvidenceBucket is the object-store bucket holding the kind's attachments.
func (k DocumentKind) EvidenceBucket() string {
	return "bukti_" + string(k)
}

type UserRole string

const (
	RoleAdminPusat  UserRole = "admin_pusat"
	RoleAdminPondok UserRole = "admin_pondok"
)

func (r UserRole) Valid() bool {
	return r == RoleAdminPusat || r == RoleAdminPondok
}

type PondokJenis string

const (
	JenisPPM      PondokJenis = "ppm"
	JenisPPPM     PondokJenis = "pppm"
	JenisBoarding PondokJenis = "boarding"
)

func (j PondokJenis) Valid() bool {
	switch j {
	case JenisPPM, JenisPPPM, JenisBoarding:
		return true
	}
	return false
}

type Jabatan string

const (
	JabatanKetua        Jabatan = "ketua"
	JabatanWakilKetua   Jabatan = "wakil_ketua"
	JabatanSekretaris   Jabatan = "sekretaris"
	JabatanBendahara    Jabatan = "bendahara"
	JabatanPengurusLain Jabatan = "pengurus_lain"
)

func (j Jabatan) Valid() bool {
	switch j {
	case JabatanKetua, JabatanWakilKetua, JabatanSekretaris, JabatanBendahara, JabatanPengurusLain:
		return true
	}
	return false
}
