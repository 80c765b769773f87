package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
)

// Rekap is one periode's roster joined against its RAB and LPJ documents.
type Rekap struct {
	Periode *models.Periode                     `json:"periode"`
	RAB     []RosterEntry[models.RAB]           `json:"rab,omitempty"`
	LPJ     []RosterEntry[models.LPJ]           `json:"lpj,omitempty"`
	Counts  map[models.DocumentKind]StatusCount `json:"counts"`
}

// DashboardStats is what the dashboard charts for one document kind.
type DashboardStats struct {
	Kind   models.DocumentKind `json:"kind"`
	Counts StatusCount         `json:"counts"`
	Total  int                 `json:"total"`
	Trend  []TrendPoint        `json:"trend"`
}

type RekapService struct {
	repo        *repository.Repository
	excel       *ExcelService
	logger      *logrus.Logger
	loc         *time.Location
	trendMonths int
	now         func() time.Time
}

func NewRekapService(repo *repository.Repository, excel *ExcelService, loc *time.Location, trendMonths int, logger *logrus.Logger) *RekapService {
	if loc == nil {
		loc = time.UTC
	}
	if trendMonths <= 0 {
		trendMonths = DefaultTrendMonths
	}
	return &RekapService{
		repo:        repo,
		excel:       excel,
		logger:      logger,
		loc:         loc,
		trendMonths: trendMonths,
		now:         time.Now,
	}
}

// PeriodeRekap builds the roster join for a periode. kind limits the result
// to one document kind; an empty kind returns both.
func (s *RekapService) PeriodeRekap(ctx context.Context, caller models.Caller, periodeID string, kind models.DocumentKind) (*Rekap, error) {
	if !caller.IsPusat() {
		return nil, apperr.Forbidden("pusat_only", "only admin pusat can view the rekap")
	}
	if kind != "" && !kind.Valid() {
		return nil, apperr.Validation("unknown_kind", "kind must be rab or lpj",
			apperr.FieldError{Field: "kind", Error: "must be rab or lpj"})
	}

	periode, err := s.repo.Periode.FindByID(ctx, periodeID)
	if err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, apperr.NotFound("periode", periodeID)
		}
		return nil, s.fail("load_periode", err)
	}
	pondoks, err := s.repo.Pondok.ListAll(ctx)
	if err != nil {
		return nil, s.fail("list_pondok", err)
	}

	rekap := &Rekap{Periode: periode, Counts: map[models.DocumentKind]StatusCount{}}
	filter := models.DocumentFilter{PeriodeID: periodeID}
	if kind == "" || kind == models.KindRAB {
		rabs, _, err := s.repo.RAB.FindAll(ctx, filter)
		if err != nil {
			return nil, s.fail("list_rab", err)
		}
		rekap.RAB = CombineWithRoster(pondoks, rabs)
		rekap.Counts[models.KindRAB] = StatusCounts(rabs)
	}
	if kind == "" || kind == models.KindLPJ {
		lpjs, _, err := s.repo.LPJ.FindAll(ctx, filter)
		if err != nil {
			return nil, s.fail("list_lpj", err)
		}
		rekap.LPJ = CombineWithRoster(pondoks, lpjs)
		rekap.Counts[models.KindLPJ] = StatusCounts(lpjs)
	}
	return rekap, nil
}

// ExportRekap renders the full rekap of a periode as an xlsx workbook.
func (s *RekapService) ExportRekap(ctx context.Context, caller models.Caller, periodeID string) (*bytes.Buffer, error) {
	rekap, err := s.PeriodeRekap(ctx, caller, periodeID, "")
	if err != nil {
		return nil, err
	}
	buf, err := s.excel.ExportRekap(rekap, s.loc)
	if err != nil {
		return nil, s.fail("export_rekap", err)
	}
	s.logger.WithFields(logrus.Fields{
		"periode_id": periodeID,
		"pondok":     len(rekap.RAB),
	}).Info("Rekap exported")
	return buf, nil
}

// Stats returns status counts and the monthly submission trend for kind.
// Pusat sees every pondok, a pondok admin only their own documents.
func (s *RekapService) Stats(ctx context.Context, caller models.Caller, kind models.DocumentKind, months int) (*DashboardStats, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("unknown_kind", "kind must be rab or lpj",
			apperr.FieldError{Field: "kind", Error: "must be rab or lpj"})
	}
	if months <= 0 {
		months = s.trendMonths
	}
	if months > 36 {
		return nil, apperr.Validation("invalid_months", "months must be at most 36",
			apperr.FieldError{Field: "months", Error: "max 36"})
	}
	filter, err := scopeFilter(caller, models.DocumentFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	stats := &DashboardStats{Kind: kind}
	switch kind {
	case models.KindRAB:
		docs, _, err := s.repo.RAB.FindAll(ctx, filter)
		if err != nil {
			return nil, s.fail("list_rab", err)
		}
		stats.Counts, stats.Trend = StatusCounts(docs), MonthlyTrend(docs, months, now)
	case models.KindLPJ:
		docs, _, err := s.repo.LPJ.FindAll(ctx, filter)
		if err != nil {
			return nil, s.fail("list_lpj", err)
		}
		stats.Counts, stats.Trend = StatusCounts(docs), MonthlyTrend(docs, months, now)
	}
	stats.Total = stats.Counts.Total()
	return stats, nil
}

func (s *RekapService) fail(op string, err error) error {
	s.logger.WithError(err).WithField("op", op).Error("Rekap query failed")
	return apperr.Persistence(op, err)
}
