package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
)

type PeriodeService struct {
	repo   *repository.Repository
	logger *logrus.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewPeriodeService parses date-only window boundaries in loc.
func NewPeriodeService(repo *repository.Repository, loc *time.Location, logger *logrus.Logger) *PeriodeService {
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodeService{repo: repo, logger: logger, loc: loc, now: time.Now}
}

func (s *PeriodeService) CreatePeriode(ctx context.Context, caller models.Caller, req models.PeriodeRequest) (*models.Periode, error) {
	if !caller.IsPusat() {
		return nil, apperr.Forbidden("pusat_only", "only admin pusat can manage periode")
	}
	p, err := req.ToPeriode(s.loc)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Periode.FindByID(ctx, p.ID); err == nil {
		return nil, periodeExists(p.ID)
	} else if !errors.Is(err, apperr.ErrRecordNotFound) {
		s.logger.WithError(err).WithField("id", p.ID).Error("Failed to check periode")
		return nil, apperr.Persistence("load_periode", err)
	}

	if err := s.repo.Periode.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, periodeExists(p.ID)
		}
		s.logger.WithError(err).WithField("id", p.ID).Error("Failed to create periode")
		return nil, apperr.Persistence("create_periode", err)
	}

	s.logger.WithField("id", p.ID).Info("Periode created successfully")
	return p, nil
}

// UpdatePeriode replaces the four window boundaries. Tahun and bulan are
// part of the id and cannot change.
func (s *PeriodeService) UpdatePeriode(ctx context.Context, caller models.Caller, id string, req models.PeriodeRequest) (*models.Periode, error) {
	if !caller.IsPusat() {
		return nil, apperr.Forbidden("pusat_only", "only admin pusat can manage periode")
	}
	existing, err := s.GetPeriode(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Tahun, req.Bulan = existing.Tahun, existing.Bulan
	p, err := req.ToPeriode(s.loc)
	if err != nil {
		return nil, err
	}

	existing.AwalRAB, existing.AkhirRAB = p.AwalRAB, p.AkhirRAB
	existing.AwalLPJ, existing.AkhirLPJ = p.AwalLPJ, p.AkhirLPJ
	if err := s.repo.Periode.Update(ctx, existing); err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, apperr.NotFound("periode", id)
		}
		s.logger.WithError(err).WithField("id", id).Error("Failed to update periode")
		return nil, apperr.Persistence("update_periode", err)
	}

	s.logger.WithField("id", id).Info("Periode updated successfully")
	return existing, nil
}

// DeletePeriode refuses while any RAB or LPJ still references the periode.
func (s *PeriodeService) DeletePeriode(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsPusat() {
		return apperr.Forbidden("pusat_only", "only admin pusat can manage periode")
	}
	if _, err := s.GetPeriode(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.Periode.CountDocuments(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Error("Failed to count periode documents")
		return apperr.Persistence("count_documents", err)
	}
	if n > 0 {
		return apperr.Validation("periode_in_use",
			fmt.Sprintf("periode %s is referenced by %d document(s)", id, n))
	}

	if err := s.repo.Periode.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return apperr.NotFound("periode", id)
		}
		s.logger.WithError(err).WithField("id", id).Error("Failed to delete periode")
		return apperr.Persistence("delete_periode", err)
	}

	s.logger.WithField("id", id).Info("Periode deleted successfully")
	return nil
}

func (s *PeriodeService) GetPeriode(ctx context.Context, id string) (*models.Periode, error) {
	p, err := s.repo.Periode.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, apperr.NotFound("periode", id)
		}
		s.logger.WithError(err).WithField("id", id).Error("Failed to get periode")
		return nil, apperr.Persistence("load_periode", err)
	}
	return p, nil
}

func (s *PeriodeService) ListPeriode(ctx context.Context, limit, offset int) ([]models.Periode, int, error) {
	periodes, total, err := s.repo.Periode.FindAll(ctx, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list periode")
		return nil, 0, apperr.Persistence("list_periode", err)
	}
	return periodes, total, nil
}

// WindowStatus evaluates both windows against the current time.
func (s *PeriodeService) WindowStatus(ctx context.Context, id string) (*models.WindowStatus, error) {
	p, err := s.GetPeriode(ctx, id)
	if err != nil {
		return nil, err
	}
	status := p.StatusAt(s.now())
	return &status, nil
}

func periodeExists(id string) error {
	return apperr.Validation("periode_exists", fmt.Sprintf("periode %s already exists", id),
		apperr.FieldError{Field: "bulan", Error: "periode already exists"})
}
