package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/metrics"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/storage"
)

// SubmitGuard serialises concurrent submits of the same document.
type SubmitGuard interface {
	// Acquire returns an empty token when the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key, token string) error
}

// OrphanCleaner removes evidence objects that no record points to.
type OrphanCleaner interface {
	ScheduleCleanup(ctx context.Context, bucket, objectPath string) error
}

type DokumenOptions struct {
	GuardTTL      time.Duration
	MaxUploadSize int64
	Now           func() time.Time
}

// DokumenService runs the RAB and LPJ commands: submit, approve and request
// revision, plus the reads that go with them.
type DokumenService struct {
	repo    *repository.Repository
	store   storage.EvidenceStore
	guard   SubmitGuard
	cleaner OrphanCleaner
	metrics *metrics.Metrics
	logger  *logrus.Logger
	opts    DokumenOptions
}

func NewDokumenService(repo *repository.Repository, store storage.EvidenceStore, guard SubmitGuard, cleaner OrphanCleaner, m *metrics.Metrics, logger *logrus.Logger, opts DokumenOptions) *DokumenService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GuardTTL <= 0 {
		opts.GuardTTL = 2 * time.Minute
	}
	return &DokumenService{
		repo:    repo,
		store:   store,
		guard:   guard,
		cleaner: cleaner,
		metrics: m,
		logger:  logger,
		opts:    opts,
	}
}

// SubmitRAB creates the RAB of a pondok for a periode, or replaces it when it
// is in revisi. The evidence file is optional; without one a resubmission
// keeps the previous attachment.
func (s *DokumenService) SubmitRAB(ctx context.Context, caller models.Caller, pondokID, periodeID string, fields models.RABFields, file *storage.File) (*models.RAB, error) {
	kind := models.KindRAB
	if err := fields.Validate(); err != nil {
		return nil, s.reject(kind, err)
	}
	if file != nil {
		if err := storage.Validate(file, s.opts.MaxUploadSize); err != nil {
			return nil, s.reject(kind, err)
		}
	}

	now := s.opts.Now()
	release, err := s.begin(ctx, caller, kind, pondokID, periodeID, now)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.repo.RAB.FindByPondokPeriode(ctx, pondokID, periodeID)
	if err != nil && !errors.Is(err, apperr.ErrRecordNotFound) {
		return nil, s.fail(kind, "load_rab", err)
	}

	rab := &models.RAB{Dokumen: models.Dokumen{ID: uuid.NewString(), PondokID: pondokID, PeriodeID: periodeID}}
	var expected time.Time
	var previous *string
	if existing != nil {
		rab, expected, previous = existing, existing.UpdatedAt, existing.DokumenPath
	}
	if err := rab.Submit(now); err != nil {
		return nil, s.reject(kind, err)
	}
	fields.Apply(rab)

	err = s.persist(ctx, kind, &rab.Dokumen, file, previous, func() error {
		if existing != nil {
			return s.repo.RAB.Resubmit(ctx, rab, expected)
		}
		return s.repo.RAB.Create(ctx, rab)
	})
	if err != nil {
		return nil, err
	}

	s.submitted(kind, &rab.Dokumen, existing != nil)
	return rab, nil
}

// SubmitLPJ creates or replaces the LPJ of a pondok for a periode. It needs
// an evidence file and a diterima RAB for the same pondok and periode;
// sisa_saldo is always recomputed.
func (s *DokumenService) SubmitLPJ(ctx context.Context, caller models.Caller, pondokID, periodeID string, fields models.LPJFields, file *storage.File) (*models.LPJ, error) {
	kind := models.KindLPJ
	if err := fields.Validate(); err != nil {
		return nil, s.reject(kind, err)
	}
	if err := storage.Validate(file, s.opts.MaxUploadSize); err != nil {
		return nil, s.reject(kind, err)
	}

	now := s.opts.Now()
	release, err := s.begin(ctx, caller, kind, pondokID, periodeID, now)
	if err != nil {
		return nil, err
	}
	defer release()

	rab, err := s.repo.RAB.FindByPondokPeriode(ctx, pondokID, periodeID)
	switch {
	case errors.Is(err, apperr.ErrRecordNotFound):
		return nil, s.reject(kind, apperr.PrerequisiteMissing(
			fmt.Sprintf("no RAB has been submitted for periode %s", periodeID)))
	case err != nil:
		return nil, s.fail(kind, "load_rab", err)
	case rab.Status != models.StatusDiterima:
		return nil, s.reject(kind, apperr.PrerequisiteMissing(
			fmt.Sprintf("the RAB for periode %s is %s, it must be diterima first", periodeID, rab.Status)))
	}

	existing, err := s.repo.LPJ.FindByPondokPeriode(ctx, pondokID, periodeID)
	if err != nil && !errors.Is(err, apperr.ErrRecordNotFound) {
		return nil, s.fail(kind, "load_lpj", err)
	}

	lpj := &models.LPJ{Dokumen: models.Dokumen{ID: uuid.NewString(), PondokID: pondokID, PeriodeID: periodeID}}
	var expected time.Time
	var previous *string
	if existing != nil {
		lpj, expected, previous = existing, existing.UpdatedAt, existing.DokumenPath
	}
	if err := lpj.Submit(now); err != nil {
		return nil, s.reject(kind, err)
	}
	fields.Apply(lpj, rab.SaldoAwal)

	err = s.persist(ctx, kind, &lpj.Dokumen, file, previous, func() error {
		if existing != nil {
			return s.repo.LPJ.Resubmit(ctx, lpj, expected)
		}
		return s.repo.LPJ.Create(ctx, lpj)
	})
	if err != nil {
		return nil, err
	}

	s.submitted(kind, &lpj.Dokumen, existing != nil)
	return lpj, nil
}

// ApproveDocument moves a diajukan document to diterima.
func (s *DokumenService) ApproveDocument(ctx context.Context, caller models.Caller, kind models.DocumentKind, id string) (*models.Dokumen, error) {
	return s.review(ctx, caller, kind, id, string(models.StatusDiterima), func(d *models.Dokumen) error {
		return d.Approve(s.opts.Now())
	})
}

// RequestDocumentRevision sends a diajukan document back to the pondok with
// a message.
func (s *DokumenService) RequestDocumentRevision(ctx context.Context, caller models.Caller, kind models.DocumentKind, id, message string) (*models.Dokumen, error) {
	return s.review(ctx, caller, kind, id, string(models.StatusRevisi), func(d *models.Dokumen) error {
		return d.RequestRevision(message)
	})
}

// GetRAB returns one RAB with its pondok, periode and evidence URL.
func (s *DokumenService) GetRAB(ctx context.Context, caller models.Caller, id string) (*models.RAB, error) {
	rab, err := s.repo.RAB.FindByID(ctx, id)
	if err != nil {
		return nil, s.readError("rab", id, err)
	}
	if !caller.CanView(rab.PondokID) {
		return nil, apperr.NotFound("rab", id)
	}
	rab.DokumenURL = s.evidenceURL(ctx, models.KindRAB, rab.DokumenPath)
	return rab, nil
}

func (s *DokumenService) GetLPJ(ctx context.Context, caller models.Caller, id string) (*models.LPJ, error) {
	lpj, err := s.repo.LPJ.FindByID(ctx, id)
	if err != nil {
		return nil, s.readError("lpj", id, err)
	}
	if !caller.CanView(lpj.PondokID) {
		return nil, apperr.NotFound("lpj", id)
	}
	lpj.DokumenURL = s.evidenceURL(ctx, models.KindLPJ, lpj.DokumenPath)
	return lpj, nil
}

// ListRAB lists RABs. Pondok admins only ever see their own pondok.
func (s *DokumenService) ListRAB(ctx context.Context, caller models.Caller, filter models.DocumentFilter) ([]models.RAB, int, error) {
	filter, err := scopeFilter(caller, filter)
	if err != nil {
		return nil, 0, err
	}
	rabs, total, err := s.repo.RAB.FindAll(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list rab")
		return nil, 0, apperr.Persistence("list_rab", err)
	}
	return rabs, total, nil
}

func (s *DokumenService) ListLPJ(ctx context.Context, caller models.Caller, filter models.DocumentFilter) ([]models.LPJ, int, error) {
	filter, err := scopeFilter(caller, filter)
	if err != nil {
		return nil, 0, err
	}
	lpjs, total, err := s.repo.LPJ.FindAll(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list lpj")
		return nil, 0, apperr.Persistence("list_lpj", err)
	}
	return lpjs, total, nil
}

func scopeFilter(caller models.Caller, filter models.DocumentFilter) (models.DocumentFilter, error) {
	if caller.IsPusat() {
		return filter, nil
	}
	if caller.PondokID == nil {
		return filter, apperr.Forbidden("no_pondok", "account is not linked to a pondok")
	}
	filter.PondokID = *caller.PondokID
	return filter, nil
}

// begin checks the caller and the submit preconditions in order (window
// open, pondok verified) and takes the submit guard. The returned func
// releases the guard.
func (s *DokumenService) begin(ctx context.Context, caller models.Caller, kind models.DocumentKind, pondokID, periodeID string, now time.Time) (func(), error) {
	if !caller.OwnsPondok(pondokID) {
		return nil, s.reject(kind, apperr.Forbidden("not_pondok_admin",
			"only the admin of this pondok can submit its documents"))
	}

	periode, err := s.repo.Periode.FindByID(ctx, periodeID)
	if err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, s.reject(kind, apperr.NotFound("periode", periodeID))
		}
		return nil, s.fail(kind, "load_periode", err)
	}
	if !periode.IsOpen(kind, now) {
		return nil, s.reject(kind, apperr.PeriodClosed(string(kind), periodeID))
	}

	pondok, err := s.repo.Pondok.FindByID(ctx, pondokID)
	if err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, s.reject(kind, apperr.NotFound("pondok", pondokID))
		}
		return nil, s.fail(kind, "load_pondok", err)
	}
	if !pondok.IsVerified() {
		return nil, s.reject(kind, apperr.PondokNotVerified(pondokID))
	}

	return s.acquire(ctx, kind, pondokID, periodeID)
}

func (s *DokumenService) acquire(ctx context.Context, kind models.DocumentKind, pondokID, periodeID string) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("%s:%s:%s", kind, pondokID, periodeID)
	token, err := s.guard.Acquire(ctx, key, s.opts.GuardTTL)
	if err != nil {
		// The unique index on (pondok_id, periode_id) still rejects duplicates.
		s.logger.WithError(err).WithField("key", key).Warn("Submit guard unavailable, continuing without it")
		return func() {}, nil
	}
	if token == "" {
		return nil, s.reject(kind, apperr.Conflict("submit_in_progress",
			"another submission of this document is in progress"))
	}
	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to release submit guard")
		}
	}, nil
}

// persist uploads the evidence (if any), then runs save. When save fails the
// fresh upload is handed to the cleaner; when it succeeds a replaced
// attachment is.
func (s *DokumenService) persist(ctx context.Context, kind models.DocumentKind, doc *models.Dokumen, file *storage.File, previous *string, save func() error) error {
	bucket := kind.EvidenceBucket()
	uploaded := ""
	if file != nil {
		started := time.Now()
		path, err := s.store.Upload(ctx, bucket, storage.ObjectPath(doc.PeriodeID, doc.PondokID, file.Name), *file)
		s.metrics.ObserveUpload(bucket, time.Since(started))
		if err != nil {
			return s.fail(kind, "upload_evidence", err)
		}
		uploaded = path
		doc.DokumenPath = &uploaded
	}

	if err := save(); err != nil {
		if uploaded != "" {
			s.discard(ctx, bucket, uploaded)
		}
		switch {
		case errors.Is(err, apperr.ErrOptimisticLock):
			return s.reject(kind, apperr.Conflict("document_modified",
				"the document was changed by another request, reload and try again"))
		case errors.Is(err, repository.ErrDuplicateKey):
			return s.reject(kind, apperr.InvalidTransition("document_already_submitted",
				"a document for this pondok and periode already exists"))
		}
		return s.fail(kind, "save_"+string(kind), err)
	}

	if uploaded != "" && previous != nil && *previous != uploaded {
		s.discard(ctx, bucket, *previous)
	}
	return nil
}

func (s *DokumenService) discard(ctx context.Context, bucket, objectPath string) {
	if s.cleaner == nil {
		return
	}
	if err := s.cleaner.ScheduleCleanup(context.WithoutCancel(ctx), bucket, objectPath); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"bucket": bucket,
			"path":   objectPath,
		}).Error("Failed to schedule evidence cleanup")
		return
	}
	s.metrics.IncOrphanCleanup()
}

func (s *DokumenService) review(ctx context.Context, caller models.Caller, kind models.DocumentKind, id, outcome string, apply func(d *models.Dokumen) error) (*models.Dokumen, error) {
	if !caller.IsPusat() {
		return nil, s.reject(kind, apperr.Forbidden("pusat_only", "only admin pusat can review documents"))
	}
	docs := s.dokumenStore(kind)
	if docs == nil {
		return nil, apperr.Validation("unknown_kind", fmt.Sprintf("unknown document kind %q", kind))
	}

	d, err := docs.FindDokumen(ctx, id)
	if err != nil {
		return nil, s.readError(string(kind), id, err)
	}
	expected := d.UpdatedAt
	if err := apply(d); err != nil {
		return nil, s.reject(kind, err)
	}
	if err := docs.UpdateStatus(ctx, d, expected); err != nil {
		if errors.Is(err, apperr.ErrOptimisticLock) {
			return nil, s.reject(kind, apperr.Conflict("document_modified",
				"the document was changed by another request, reload and try again"))
		}
		return nil, s.fail(kind, "update_status", err)
	}

	s.metrics.IncReview(string(kind), outcome)
	s.logger.WithFields(logrus.Fields{
		"kind":     kind,
		"id":       id,
		"status":   d.Status,
		"reviewer": caller.UserID,
	}).Info("Document reviewed")
	return d, nil
}

func (s *DokumenService) dokumenStore(kind models.DocumentKind) repository.DokumenStore {
	switch kind {
	case models.KindRAB:
		return s.repo.RAB
	case models.KindLPJ:
		return s.repo.LPJ
	}
	return nil
}

func (s *DokumenService) evidenceURL(ctx context.Context, kind models.DocumentKind, path *string) string {
	if path == nil || *path == "" || s.store == nil {
		return ""
	}
	url, err := s.store.URL(ctx, kind.EvidenceBucket(), *path)
	if err != nil {
		s.logger.WithError(err).WithField("path", *path).Warn("Failed to resolve evidence URL")
		return ""
	}
	return url
}

func (s *DokumenService) submitted(kind models.DocumentKind, d *models.Dokumen, resubmit bool) {
	mode := "new"
	if resubmit {
		mode = "resubmit"
	}
	s.metrics.IncSubmission(string(kind), mode)
	s.logger.WithFields(logrus.Fields{
		"kind":       kind,
		"id":         d.ID,
		"pondok_id":  d.PondokID,
		"periode_id": d.PeriodeID,
		"mode":       mode,
	}).Info("Document submitted")
}

// reject records a rule violation and returns it unchanged.
func (s *DokumenService) reject(kind models.DocumentKind, err error) error {
	if e, ok := apperr.As(err); ok {
		s.metrics.IncRejection(string(kind), e.Reason)
		s.logger.WithFields(logrus.Fields{"kind": kind, "reason": e.Reason}).Info("Document command rejected")
	}
	return err
}

func (s *DokumenService) fail(kind models.DocumentKind, op string, err error) error {
	s.logger.WithError(err).WithFields(logrus.Fields{"kind": kind, "op": op}).Error("Document command failed")
	return apperr.Persistence(op, err)
}

func (s *DokumenService) readError(entity, id string, err error) error {
	if errors.Is(err, apperr.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	s.logger.WithError(err).WithField("id", id).Error("Failed to load " + entity)
	return apperr.Persistence("load_"+entity, err)
}
