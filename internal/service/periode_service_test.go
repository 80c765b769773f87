package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
)

func newPeriodeService(repo *repository.Repository, now time.Time) *PeriodeService {
	s := NewPeriodeService(repo, wib, quietLogger())
	s.now = func() time.Time { return now }
	return s
}

func mayRequest() models.PeriodeRequest {
	return models.PeriodeRequest{
		Tahun:    2025,
		Bulan:    5,
		AwalRAB:  "2025-04-01",
		AkhirRAB: "2025-04-15",
		AwalLPJ:  "2025-05-01",
		AkhirLPJ: "2025-05-15",
	}
}

func TestCreatePeriode(t *testing.T) {
	ctx := context.Background()
	svc := newPeriodeService(repository.NewMemory(), time.Now())

	p, err := svc.CreatePeriode(ctx, pusat(), mayRequest())
	require.NoError(t, err)
	assert.Equal(t, "202505", p.ID)
	assert.True(t, p.AkhirRAB.Equal(time.Date(2025, 4, 16, 0, 0, 0, 0, wib).Add(-time.Nanosecond)))

	_, err = svc.CreatePeriode(ctx, pusat(), mayRequest())
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Reason: "periode_exists"})
}

func TestCreatePeriodeRejectsInvertedWindow(t *testing.T) {
	req := mayRequest()
	req.AwalLPJ, req.AkhirLPJ = "2025-05-15", "2025-05-01"

	_, err := newPeriodeService(repository.NewMemory(), time.Now()).CreatePeriode(context.Background(), pusat(), req)

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreatePeriodeRequiresPusat(t *testing.T) {
	_, err := newPeriodeService(repository.NewMemory(), time.Now()).
		CreatePeriode(context.Background(), pondokAdmin("p1"), mayRequest())

	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdatePeriodeKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	svc := newPeriodeService(repository.NewMemory(), time.Now())
	_, err := svc.CreatePeriode(ctx, pusat(), mayRequest())
	require.NoError(t, err)

	req := mayRequest()
	req.Tahun, req.Bulan = 2030, 1
	req.AkhirRAB = "2025-04-20"
	p, err := svc.UpdatePeriode(ctx, pusat(), "202505", req)
	require.NoError(t, err)

	assert.Equal(t, "202505", p.ID)
	assert.Equal(t, 2025, p.Tahun)
	assert.Equal(t, "2025-04-20", p.AkhirRAB.In(wib).Format("2006-01-02"))

	_, err = svc.UpdatePeriode(ctx, pusat(), "209901", req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeletePeriodeBlockedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	svc := newPeriodeService(repo, time.Now())
	_, err := svc.CreatePeriode(ctx, pusat(), mayRequest())
	require.NoError(t, err)
	_, err = seedPondok(ctx, repo, "p1", "PPM Al Ikhlas", true)
	require.NoError(t, err)
	require.NoError(t, repo.RAB.Create(ctx, &models.RAB{Dokumen: models.Dokumen{
		ID: "rab-1", PondokID: "p1", PeriodeID: "202505", Status: models.StatusDiajukan,
	}}))

	err = svc.DeletePeriode(ctx, pusat(), "202505")
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Reason: "periode_in_use"})

	_, err = svc.GetPeriode(ctx, "202505")
	assert.NoError(t, err)
}

func TestDeletePeriode(t *testing.T) {
	ctx := context.Background()
	svc := newPeriodeService(repository.NewMemory(), time.Now())
	_, err := svc.CreatePeriode(ctx, pusat(), mayRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeletePeriode(ctx, pusat(), "202505"))

	_, err = svc.GetPeriode(ctx, "202505")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestWindowStatus(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	_, err := seedPeriode(ctx, repo)
	require.NoError(t, err)

	status, err := newPeriodeService(repo, time.Date(2025, 4, 10, 0, 0, 0, 0, wib)).WindowStatus(ctx, "202505")
	require.NoError(t, err)
	assert.True(t, status.RabOpen)
	assert.False(t, status.LpjOpen)

	status, err = newPeriodeService(repo, time.Date(2025, 5, 15, 23, 0, 0, 0, wib)).WindowStatus(ctx, "202505")
	require.NoError(t, err)
	assert.False(t, status.RabOpen)
	assert.True(t, status.LpjOpen)
}

func TestListPeriode(t *testing.T) {
	ctx := context.Background()
	svc := newPeriodeService(repository.NewMemory(), time.Now())
	for _, bulan := range []int{3, 4, 5} {
		req := mayRequest()
		req.Bulan = bulan
		_, err := svc.CreatePeriode(ctx, pusat(), req)
		require.NoError(t, err)
	}

	list, total, err := svc.ListPeriode(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "202505", list[0].ID)
}
