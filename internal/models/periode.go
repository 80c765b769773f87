package models

import (
	"fmt"
	"strings"
	"time"

	"pondok-keuangan/internal/apperr"
)

// Periode is one reporting month with its RAB and LPJ submission windows.
type Periode struct {
	ID        string    `db:"id" json:"id"`
	Tahun     int       `db:"tahun" json:"tahun"`
	Bulan     int       `db:"bulan" json:"bulan"`
	AwalRAB   time.Time `db:"awal_rab" json:"awal_rab"`
	AkhirRAB  time.Time `db:"akhir_rab" json:"akhir_rab"`
	AwalLPJ   time.Time `db:"awal_lpj" json:"awal_lpj"`
	AkhirLPJ  time.Time `db:"akhir_lpj" json:"akhir_lpj"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PeriodeID formats the identifier of a periode, e.g. 2025/5 -> "202505".
func PeriodeID(tahun, bulan int) string {
	return fmt.Sprintf("%d%02d", tahun, bulan)
}

// IsWithinWindow reports start <= now <= end. Both bounds are inclusive, so a
// window whose start is after its end is never open.
func IsWithinWindow(now, start, end time.Time) bool {
	return !now.Before(start) && !now.After(end)
}

func (p *Periode) IsRabOpen(now time.Time) bool {
	return IsWithinWindow(now, p.AwalRAB, p.AkhirRAB)
}

func (p *Periode) IsLpjOpen(now time.Time) bool {
	return IsWithinWindow(now, p.AwalLPJ, p.AkhirLPJ)
}

// IsOpen evaluates the window belonging to kind.
func (p *Periode) IsOpen(kind DocumentKind, now time.Time) bool {
	if kind == KindLPJ {
		return p.IsLpjOpen(now)
	}
	return p.IsRabOpen(now)
}

// Validate checks the month and both window orderings.
func (p *Periode) Validate() error {
	var fields []apperr.FieldError
	if p.Bulan < 1 || p.Bulan > 12 {
		fields = append(fields, apperr.FieldError{Field: "bulan", Error: "must be between 1 and 12"})
	}
	if p.Tahun < 2000 || p.Tahun > 2100 {
		fields = append(fields, apperr.FieldError{Field: "tahun", Error: "must be between 2000 and 2100"})
	}
	if p.AwalRAB.After(p.AkhirRAB) {
		fields = append(fields, apperr.FieldError{Field: "akhir_rab", Error: "must not be before awal_rab"})
	}
	if p.AwalLPJ.After(p.AkhirLPJ) {
		fields = append(fields, apperr.FieldError{Field: "akhir_lpj", Error: "must not be before awal_lpj"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid_periode", "periode is invalid", fields...)
	}
	return nil
}

const dateLayout = "2006-01-02"

// ParseWindowTime parses a window boundary given either as a date
// (2006-01-02) or as RFC3339. A date is read in loc; when endOfDay is set it
// resolves to the last nanosecond of that day so the whole day is covered.
func ParseWindowTime(field, value string, endOfDay bool, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperr.Validation("invalid_window", field+" is required",
			apperr.FieldError{Field: field, Error: "required"})
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	d, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_window", field+" is not a valid date",
			apperr.FieldError{Field: field, Error: "expected YYYY-MM-DD or RFC3339"})
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return d.UTC(), nil
}

// PeriodeRequest is the create/update payload for a periode.
type PeriodeRequest struct {
	Tahun    int    `json:"tahun" validate:"required,min=2000,max=2100"`
	Bulan    int    `json:"bulan" validate:"required,min=1,max=12"`
	AwalRAB  string `json:"awal_rab" validate:"required"`
	AkhirRAB string `json:"akhir_rab" validate:"required"`
	AwalLPJ  string `json:"awal_lpj" validate:"required"`
	AkhirLPJ string `json:"akhir_lpj" validate:"required"`
}

// ToPeriode parses the window boundaries and validates the result.
func (r PeriodeRequest) ToPeriode(loc *time.Location) (*Periode, error) {
	p := &Periode{
		ID:    PeriodeID(r.Tahun, r.Bulan),
		Tahun: r.Tahun,
		Bulan: r.Bulan,
	}
	var err error
	if p.AwalRAB, err = ParseWindowTime("awal_rab", r.AwalRAB, false, loc); err != nil {
		return nil, err
	}
	if p.AkhirRAB, err = ParseWindowTime("akhir_rab", r.AkhirRAB, true, loc); err != nil {
		return nil, err
	}
	if p.AwalLPJ, err = ParseWindowTime("awal_lpj", r.AwalLPJ, false, loc); err != nil {
		return nil, err
	}
	if p.AkhirLPJ, err = ParseWindowTime("akhir_lpj", r.AkhirLPJ, true, loc); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WindowStatus is the open/closed state of both windows at a point in time.
type WindowStatus struct {
	PeriodeID string    `json:"periode_id"`
	RabOpen   bool      `json:"rab_open"`
	LpjOpen   bool      `json:"lpj_open"`
	At        time.Time `json:"at"`
}

func (p *Periode) StatusAt(now time.Time) WindowStatus {
	return WindowStatus{
		PeriodeID: p.ID,
		RabOpen:   p.IsRabOpen(now),
		LpjOpen:   p.IsLpjOpen(now),
		At:        now,
	}
}
