package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/storage"
)

var wib = time.FixedZone("WIB", 7*60*60)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func pusat() models.Caller {
	return models.Caller{UserID: "pusat-1", Role: models.RoleAdminPusat}
}

func pondokAdmin(pondokID string) models.Caller {
	id := pondokID
	return models.Caller{UserID: "admin-" + pondokID, Role: models.RoleAdminPondok, PondokID: &id}
}

func evidence(name string) *storage.File {
	body := "%PDF-1.4 bukti " + name
	return &storage.File{
		Name:        name,
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

// recordingCleaner collects scheduled cleanups instead of enqueueing them.
type recordingCleaner struct {
	mu    sync.Mutex
	paths []string
}

func (c *recordingCleaner) ScheduleCleanup(_ context.Context, bucket, objectPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, bucket+"/"+objectPath)
	return nil
}

func (c *recordingCleaner) scheduled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

// failingRAB makes writes of the wrapped repository fail.
type failingRAB struct {
	repository.RABRepository
	createErr error
	updateErr error
}

func (f failingRAB) Create(ctx context.Context, r *models.RAB) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.RABRepository.Create(ctx, r)
}

func (f failingRAB) UpdateStatus(ctx context.Context, d *models.Dokumen, expected time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.RABRepository.UpdateStatus(ctx, d, expected)
}

var errStoreDown = errors.New("connection refused")

// seedPeriode stores periode 202505: RAB window 1-15 April, LPJ window
// 1-15 May, both in WIB.
func seedPeriode(ctx context.Context, repo *repository.Repository) (*models.Periode, error) {
	p, err := models.PeriodeRequest{
		Tahun:    2025,
		Bulan:    5,
		AwalRAB:  "2025-04-01",
		AkhirRAB: "2025-04-15",
		AwalLPJ:  "2025-05-01",
		AkhirLPJ: "2025-05-15",
	}.ToPeriode(wib)
	if err != nil {
		return nil, err
	}
	return p, repo.Periode.Create(ctx, p)
}

func seedPondok(ctx context.Context, repo *repository.Repository, id, nama string, verified bool) (*models.Pondok, error) {
	p := &models.Pondok{ID: id, Nama: nama, Jenis: models.JenisPPM}
	if verified {
		at := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
		p.AcceptedAt = &at
	}
	return p, repo.Pondok.Create(ctx, p)
}

func reasonOf(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Reason
	}
	return ""
}
