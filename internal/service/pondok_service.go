package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/utils"
)

type PondokService struct {
	repo    *repository.Repository
	cleaner OrphanCleaner
	logger  *logrus.Logger
	now     func() time.Time
}

func NewPondokService(repo *repository.Repository, cleaner OrphanCleaner, logger *logrus.Logger) *PondokService {
	return &PondokService{repo: repo, cleaner: cleaner, logger: logger, now: time.Now}
}

// CreatePondok registers a pondok pending verification, together with its
// pengurus and, when given, its admin_pondok account. Everything is written
// in one transaction.
func (s *PondokService) CreatePondok(ctx context.Context, caller models.Caller, req models.CreatePondokRequest) (*models.Pondok, error) {
	if !caller.IsPusat() {
		return nil, apperr.Forbidden("pusat_only", "only admin pusat can register a pondok")
	}

	pondok := &models.Pondok{ID: uuid.NewString()}
	req.PondokRequest.Apply(pondok)
	pengurus := buildPengurus(pondok.ID, req.Pengurus)

	var admin *models.UserProfile
	if req.Admin != nil {
		hash, err := utils.HashPassword(req.Admin.Password)
		if err != nil {
			s.logger.WithError(err).Error("Failed to hash admin password")
			return nil, apperr.Persistence("hash_password", err)
		}
		pondokID := pondok.ID
		admin = &models.UserProfile{
			ID:           uuid.NewString(),
			Nama:         req.Admin.Nama,
			Email:        strings.ToLower(strings.TrimSpace(req.Admin.Email)),
			NomorTelepon: req.Admin.NomorTelepon,
			Role:         models.RoleAdminPondok,
			PondokID:     &pondokID,
			PasswordHash: hash,
		}
	}

	err := s.repo.Transact(ctx, func(tx *repository.Repository) error {
		if err := tx.Pondok.Create(ctx, pondok); err != nil {
			return err
		}
		if err := tx.Pengurus.CreateBatch(ctx, pengurus); err != nil {
			return err
		}
		if admin != nil {
			return tx.UserProfile.Create(ctx, admin)
		}
		return nil
	})
	if err != nil {
		if admin != nil && errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Validation("email_taken", "admin email is already registered",
				apperr.FieldError{Field: "admin.email", Error: "already registered"})
		}
		s.logger.WithError(err).WithField("nama", pondok.Nama).Error("Failed to create pondok")
		return nil, apperr.Persistence("create_pondok", err)
	}

	pondok.Pengurus = pengurus
	s.logger.WithFields(logrus.Fields{
		"id":       pondok.ID,
		"pengurus": len(pengurus),
		"admin":    admin != nil,
	}).Info("Pondok created successfully")
	return pondok, nil
}

// UpdatePondok edits the contact and address fields. Pusat can edit any
// pondok, a pondok admin only their own.
func (s *PondokService) UpdatePondok(ctx context.Context, caller models.Caller, id string, req models.PondokRequest) (*models.Pondok, error) {
	if !caller.CanView(id) {
		return nil, apperr.Forbidden("not_pondok_admin", "you cannot edit this pondok")
	}
	pondok, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(pondok)
	if err := s.repo.Pondok.Update(ctx, pondok); err != nil {
		return nil, s.writeError("update_pondok", id, err)
	}
	s.logger.WithField("id", id).Info("Pondok updated successfully")
	return pondok, nil
}

// ReplacePengurus swaps the whole pengurus list of a pondok.
func (s *PondokService) ReplacePengurus(ctx context.Context, caller models.Caller, id string, reqs []models.PengurusRequest) ([]models.Pengurus, error) {
	if !caller.CanView(id) {
		return nil, apperr.Forbidden("not_pondok_admin", "you cannot edit this pondok")
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	items := buildPengurus(id, reqs)
	err := s.repo.Transact(ctx, func(tx *repository.Repository) error {
		return tx.Pengurus.ReplaceForPondok(ctx, id, items)
	})
	if err != nil {
		return nil, s.writeError("replace_pengurus", id, err)
	}
	s.logger.WithFields(logrus.Fields{"id": id, "pengurus": len(items)}).Info("Pengurus replaced successfully")
	return items, nil
}

// VerifyPondok sets accepted_at, which allows the pondok to submit.
// Verifying an already verified pondok keeps the original timestamp.
func (s *PondokService) VerifyPondok(ctx context.Context, caller models.Caller, id string) (*models.Pondok, error) {
	if !caller.IsPusat() {
		return nil, apperr.Forbidden("pusat_only", "only admin pusat can verify a pondok")
	}
	pondok, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if pondok.IsVerified() {
		return pondok, nil
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	if err := s.repo.Pondok.Verify(ctx, id, at); err != nil {
		return nil, s.writeError("verify_pondok", id, err)
	}
	pondok.AcceptedAt = &at
	s.logger.WithFields(logrus.Fields{"id": id, "by": caller.UserID}).Info("Pondok verified")
	return pondok, nil
}

// DeletePondok removes the pondok with everything that references it. The
// evidence files of its RAB and LPJ are handed to the cleaner afterwards.
func (s *PondokService) DeletePondok(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsPusat() {
		return apperr.Forbidden("pusat_only", "only admin pusat can delete a pondok")
	}
	objects, err := s.evidenceOf(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Error("Failed to list pondok documents")
		return apperr.Persistence("load_documents", err)
	}
	if err := s.repo.Pondok.Delete(ctx, id); err != nil {
		return s.writeError("delete_pondok", id, err)
	}

	for _, obj := range objects {
		s.discard(ctx, obj.bucket, obj.path)
	}
	s.logger.WithFields(logrus.Fields{"id": id, "evidence": len(objects)}).Info("Pondok deleted successfully")
	return nil
}

type evidenceObject struct {
	bucket string
	path   string
}

func (s *PondokService) evidenceOf(ctx context.Context, pondokID string) ([]evidenceObject, error) {
	filter := models.DocumentFilter{PondokID: pondokID}
	var out []evidenceObject

	rabs, _, err := s.repo.RAB.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, r := range rabs {
		if r.DokumenPath != nil && *r.DokumenPath != "" {
			out = append(out, evidenceObject{models.KindRAB.EvidenceBucket(), *r.DokumenPath})
		}
	}

	lpjs, _, err := s.repo.LPJ.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, l := range lpjs {
		if l.DokumenPath != nil && *l.DokumenPath != "" {
			out = append(out, evidenceObject{models.KindLPJ.EvidenceBucket(), *l.DokumenPath})
		}
	}
	return out, nil
}

func (s *PondokService) discard(ctx context.Context, bucket, objectPath string) {
	if s.cleaner == nil {
		return
	}
	if err := s.cleaner.ScheduleCleanup(context.WithoutCancel(ctx), bucket, objectPath); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"bucket": bucket,
			"path":   objectPath,
		}).Error("Failed to schedule evidence cleanup")
	}
}

// GetPondok returns the pondok with its pengurus.
func (s *PondokService) GetPondok(ctx context.Context, caller models.Caller, id string) (*models.Pondok, error) {
	if !caller.CanView(id) {
		return nil, apperr.NotFound("pondok", id)
	}
	pondok, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	pengurus, err := s.repo.Pengurus.FindByPondokID(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Error("Failed to load pengurus")
		return nil, apperr.Persistence("load_pengurus", err)
	}
	pondok.Pengurus = pengurus
	return pondok, nil
}

// ListPondok pages through all pondok for pusat. A pondok admin gets only
// their own pondok.
func (s *PondokService) ListPondok(ctx context.Context, caller models.Caller, limit, offset int, search string) ([]models.Pondok, int, error) {
	if !caller.IsPusat() {
		if caller.PondokID == nil {
			return []models.Pondok{}, 0, nil
		}
		pondok, err := s.find(ctx, *caller.PondokID)
		if err != nil {
			return nil, 0, err
		}
		return []models.Pondok{*pondok}, 1, nil
	}

	pondoks, total, err := s.repo.Pondok.FindAll(ctx, limit, offset, search)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list pondok")
		return nil, 0, apperr.Persistence("list_pondok", err)
	}
	return pondoks, total, nil
}

func (s *PondokService) find(ctx context.Context, id string) (*models.Pondok, error) {
	pondok, err := s.repo.Pondok.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, apperr.NotFound("pondok", id)
		}
		s.logger.WithError(err).WithField("id", id).Error("Failed to get pondok")
		return nil, apperr.Persistence("load_pondok", err)
	}
	return pondok, nil
}

func (s *PondokService) writeError(op, id string, err error) error {
	if errors.Is(err, apperr.ErrRecordNotFound) {
		return apperr.NotFound("pondok", id)
	}
	s.logger.WithError(err).WithField("id", id).Error("Failed to " + strings.ReplaceAll(op, "_", " "))
	return apperr.Persistence(op, err)
}

func buildPengurus(pondokID string, reqs []models.PengurusRequest) []models.Pengurus {
	items := make([]models.Pengurus, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, models.Pengurus{
			ID:           uuid.NewString(),
			PondokID:     pondokID,
			Nama:         strings.TrimSpace(r.Nama),
			Jabatan:      r.Jabatan,
			NomorTelepon: r.NomorTelepon,
		})
	}
	return items
}
