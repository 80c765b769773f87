package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"pondok-keuangan/internal/cache"
	"pondok-keuangan/internal/config"
	"pondok-keuangan/internal/metrics"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/storage"
	"pondok-keuangan/internal/utils"
	"pondok-keuangan/internal/worker"
)

var wib = time.FixedZone("WIB", 7*60*60)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind   string `json:"kind"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type APISuite struct {
	suite.Suite
	app        *fiber.App
	repo       *repository.Repository
	filesRoot  string
	pusatToken string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.repo = repository.NewMemory()
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpire: time.Hour}
	s.filesRoot = s.T().TempDir()
	store := storage.NewLocalStore(s.filesRoot, "http://localhost/files")
	guard := cache.NewMemoryStore()
	reg := prometheus.NewRegistry()
	cleaner := worker.NewDirectCleaner(store, logger)

	svc := Services{
		Auth:    service.NewAuthService(s.repo, guard, cfg, logger),
		Periode: service.NewPeriodeService(s.repo, wib, logger),
		Pondok:  service.NewPondokService(s.repo, cleaner, logger),
		Dokumen: service.NewDokumenService(s.repo, store, guard, cleaner,
			metrics.New(reg), logger, service.DokumenOptions{MaxUploadSize: 1 << 20}),
		Rekap: service.NewRekapService(s.repo, service.NewExcelService(), wib, 6, logger),
	}

	s.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Setup(s.app, svc, Options{AppName: "test", Ping: s.repo.Ping, Gatherer: reg, FilesRoot: s.filesRoot})

	hash, err := utils.HashPassword("pusat-rahasia")
	s.Require().NoError(err)
	s.Require().NoError(s.repo.UserProfile.Create(context.Background(), &models.UserProfile{
		ID:           "pusat-1",
		Nama:         "Admin Pusat",
		Email:        "pusat@pondok.id",
		Role:         models.RoleAdminPusat,
		PasswordHash: hash,
	}))
	s.pusatToken = s.login("pusat@pondok.id", "pusat-rahasia")
}

func (s *APISuite) do(req *http.Request, token string) (int, apiResponse, *http.Response) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var body apiResponse
	if resp.Header.Get(fiber.HeaderContentType) == fiber.MIMEApplicationJSON {
		s.Require().NoError(json.Unmarshal(raw, &body), string(raw))
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp.StatusCode, body, resp
}

func (s *APISuite) doJSON(method, path, token string, payload interface{}) (int, apiResponse) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	status, resp, _ := s.do(req, token)
	return status, resp
}

func (s *APISuite) doForm(path, token string, fields map[string]string, fileName string) (int, apiResponse) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		s.Require().NoError(w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		s.Require().NoError(err)
		_, err = part.Write([]byte("%PDF-1.4 bukti"))
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	status, resp, _ := s.do(req, token)
	return status, resp
}

func (s *APISuite) login(email, password string) string {
	status, resp := s.doJSON(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: email, Password: password})
	s.Require().Equal(fiber.StatusOK, status, resp.Message)
	var session struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &session))
	return session.AccessToken
}

func (s *APISuite) decode(resp apiResponse, v interface{}) {
	s.Require().NoError(json.Unmarshal(resp.Data, v))
}

// openPeriode creates this month's periode with both windows covering today.
func (s *APISuite) openPeriode() string {
	now := time.Now().In(wib)
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.AddDate(0, 0, 1).Format("2006-01-02")
	status, resp := s.doJSON(http.MethodPost, "/api/v1/periode", s.pusatToken, models.PeriodeRequest{
		Tahun: now.Year(), Bulan: int(now.Month()),
		AwalRAB: from, AkhirRAB: to, AwalLPJ: from, AkhirLPJ: to,
	})
	s.Require().Equal(fiber.StatusCreated, status, resp.Message)
	return models.PeriodeID(now.Year(), int(now.Month()))
}

// registerPondok creates a pondok with an admin account and returns its id
// and the admin's token.
func (s *APISuite) registerPondok(email string) (string, string) {
	req := models.CreatePondokRequest{
		PondokRequest: models.PondokRequest{Nama: "PPM Al Ikhlas", Jenis: models.JenisPPM, Kota: "Kediri"},
		Pengurus: []models.PengurusRequest{
			{Nama: "Ust. Ahmad", Jabatan: models.JabatanKetua},
		},
		Admin: &models.AdminAccountRequest{Nama: "Admin Ikhlas", Email: email, Password: "rahasia123"},
	}
	status, resp := s.doJSON(http.MethodPost, "/api/v1/pondok", s.pusatToken, req)
	s.Require().Equal(fiber.StatusCreated, status, resp.Message)
	var p models.Pondok
	s.decode(resp, &p)
	return p.ID, s.login(email, "rahasia123")
}

func (s *APISuite) TestHealth() {
	status, _, resp := s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
	s.Equal(fiber.StatusOK, status)

	raw, _ := io.ReadAll(resp.Body)
	s.Contains(string(raw), `"status":"ok"`)
}

func (s *APISuite) TestMetricsExposed() {
	status, _, resp := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	s.Equal(fiber.StatusOK, status)
	s.NotEmpty(resp.Header.Get(fiber.HeaderContentType))
}

func (s *APISuite) TestAuthRequired() {
	status, resp := s.doJSON(http.MethodGet, "/api/v1/periode", "", nil)
	s.Equal(fiber.StatusUnauthorized, status)
	s.False(resp.Success)

	status, _ = s.doJSON(http.MethodGet, "/api/v1/periode", "not-a-token", nil)
	s.Equal(fiber.StatusUnauthorized, status)
}

func (s *APISuite) TestLoginRejectsBadPassword() {
	status, resp := s.doJSON(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "pusat@pondok.id", Password: "salah"})
	s.Equal(fiber.StatusUnauthorized, status)
	s.Require().NotNil(resp.Error)
	s.Equal("invalid_credentials", resp.Error.Reason)
}

func (s *APISuite) TestLoginValidatesBody() {
	status, resp := s.doJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "bukan-email"})
	s.Equal(fiber.StatusBadRequest, status)
	s.Require().NotNil(resp.Error)
	s.Equal("validation", resp.Error.Kind)
}

func (s *APISuite) TestMeAndLogout() {
	status, resp := s.doJSON(http.MethodGet, "/api/v1/auth/me", s.pusatToken, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var me models.UserProfile
	s.decode(resp, &me)
	s.Equal("pusat-1", me.ID)
	s.Equal(models.RoleAdminPusat, me.Role)

	status, _ = s.doJSON(http.MethodPost, "/api/v1/auth/logout", s.pusatToken, nil)
	s.Equal(fiber.StatusOK, status)

	status, _ = s.doJSON(http.MethodGet, "/api/v1/auth/me", s.pusatToken, nil)
	s.Equal(fiber.StatusUnauthorized, status)
}

func (s *APISuite) TestPeriodeCRUD() {
	id := s.openPeriode()

	status, resp := s.doJSON(http.MethodGet, "/api/v1/periode/"+id+"/status", s.pusatToken, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var ws models.WindowStatus
	s.decode(resp, &ws)
	s.True(ws.RabOpen)
	s.True(ws.LpjOpen)

	status, resp = s.doJSON(http.MethodGet, "/api/v1/periode?page=1&limit=10", s.pusatToken, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var list []models.Periode
	s.decode(resp, &list)
	s.Len(list, 1)

	status, _ = s.doJSON(http.MethodDelete, "/api/v1/periode/"+id, s.pusatToken, nil)
	s.Equal(fiber.StatusOK, status)

	status, resp = s.doJSON(http.MethodGet, "/api/v1/periode/"+id, s.pusatToken, nil)
	s.Equal(fiber.StatusNotFound, status)
	s.Equal("not_found", resp.Error.Kind)
}

func (s *APISuite) TestPeriodeRejectsReversedWindow() {
	status, resp := s.doJSON(http.MethodPost, "/api/v1/periode", s.pusatToken, models.PeriodeRequest{
		Tahun: 2025, Bulan: 5,
		AwalRAB: "2025-04-15", AkhirRAB: "2025-04-01",
		AwalLPJ: "2025-05-01", AkhirLPJ: "2025-05-15",
	})
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal("invalid_periode", resp.Error.Reason)
}

func (s *APISuite) TestPondokAdminCannotManage() {
	_, token := s.registerPondok("admin@ikhlas.id")

	status, _ := s.doJSON(http.MethodPost, "/api/v1/periode", token, models.PeriodeRequest{
		Tahun: 2025, Bulan: 6, AwalRAB: "2025-05-01", AkhirRAB: "2025-05-10", AwalLPJ: "2025-06-01", AkhirLPJ: "2025-06-10",
	})
	s.Equal(fiber.StatusForbidden, status)

	status, _ = s.doJSON(http.MethodGet, "/api/v1/periode/202506/rekap", token, nil)
	s.Equal(fiber.StatusForbidden, status)
}

func (s *APISuite) TestPusatCannotSubmit() {
	periodeID := s.openPeriode()
	pondokID, _ := s.registerPondok("admin@ikhlas.id")

	status, _ := s.doForm("/api/v1/rab", s.pusatToken, map[string]string{
		"pondok_id": pondokID, "periode_id": periodeID,
		"saldo_awal": "0", "rencana_pemasukan": "0", "rencana_pengeluaran": "0",
	}, "")
	s.Equal(fiber.StatusForbidden, status)
}

func (s *APISuite) TestSubmissionWorkflow() {
	periodeID := s.openPeriode()
	pondokID, token := s.registerPondok("admin@ikhlas.id")

	rabForm := map[string]string{
		"periode_id":          periodeID,
		"saldo_awal":          "1.000.000",
		"rencana_pemasukan":   "500000",
		"rencana_pengeluaran": "300000",
	}

	// Not yet verified.
	status, resp := s.doForm("/api/v1/rab", token, rabForm, "rab.pdf")
	s.Require().Equal(fiber.StatusUnprocessableEntity, status)
	s.Equal("pondok_not_verified", resp.Error.Kind)

	status, _ = s.doJSON(http.MethodPost, "/api/v1/pondok/"+pondokID+"/verify", s.pusatToken, nil)
	s.Require().Equal(fiber.StatusOK, status)

	status, resp = s.doForm("/api/v1/rab", token, rabForm, "rab.pdf")
	s.Require().Equal(fiber.StatusCreated, status, resp.Message)
	var rab models.RAB
	s.decode(resp, &rab)
	s.Equal(models.StatusDiajukan, rab.Status)
	s.Equal("1000000", rab.SaldoAwal.String())
	s.Require().NotNil(rab.DokumenPath)

	// A second submit while diajukan is not allowed.
	status, resp = s.doForm("/api/v1/rab", token, rabForm, "")
	s.Equal(fiber.StatusConflict, status)
	s.Equal("invalid_transition", resp.Error.Kind)

	// LPJ needs the RAB approved first.
	lpjForm := map[string]string{
		"periode_id":            periodeID,
		"realisasi_pemasukan":   "450000",
		"realisasi_pengeluaran": "250000",
	}
	status, resp = s.doForm("/api/v1/lpj", token, lpjForm, "lpj.pdf")
	s.Equal(fiber.StatusUnprocessableEntity, status)
	s.Equal("prerequisite_document_missing", resp.Error.Kind)

	status, _ = s.doJSON(http.MethodPost, "/api/v1/rab/"+rab.ID+"/revisi", s.pusatToken, map[string]string{})
	s.Equal(fiber.StatusBadRequest, status)

	status, resp = s.doJSON(http.MethodPost, "/api/v1/rab/"+rab.ID+"/approve", s.pusatToken, nil)
	s.Require().Equal(fiber.StatusOK, status, resp.Message)
	var reviewed models.Dokumen
	s.decode(resp, &reviewed)
	s.Equal(models.StatusDiterima, reviewed.Status)
	s.NotNil(reviewed.AcceptedAt)

	status, resp = s.doForm("/api/v1/lpj", token, lpjForm, "lpj.pdf")
	s.Require().Equal(fiber.StatusCreated, status, resp.Message)
	var lpj models.LPJ
	s.decode(resp, &lpj)
	s.Equal("1200000", lpj.SisaSaldo.String())

	status, resp = s.doJSON(http.MethodGet, "/api/v1/lpj/"+lpj.ID, token, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var fetched models.LPJ
	s.decode(resp, &fetched)
	s.NotEmpty(fetched.DokumenURL)

	status, resp = s.doJSON(http.MethodGet, "/api/v1/rab?status=diterima", token, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var rabs []models.RAB
	s.decode(resp, &rabs)
	s.Len(rabs, 1)

	status, resp = s.doJSON(http.MethodGet, "/api/v1/dashboard/stats?kind=lpj", s.pusatToken, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var stats service.DashboardStats
	s.decode(resp, &stats)
	s.Equal(1, stats.Counts.Diajukan)
	s.Len(stats.Trend, 6)
}

func (s *APISuite) TestListRejectsUnknownStatus() {
	status, resp := s.doJSON(http.MethodGet, "/api/v1/rab?status=ditolak", s.pusatToken, nil)
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal("unknown_status", resp.Error.Reason)
}

func (s *APISuite) TestSubmitRejectsBadAmount() {
	periodeID := s.openPeriode()
	_, token := s.registerPondok("admin@ikhlas.id")

	status, resp := s.doForm("/api/v1/rab", token, map[string]string{
		"periode_id": periodeID, "saldo_awal": "sejuta", "rencana_pemasukan": "0", "rencana_pengeluaran": "0",
	}, "")
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal("invalid_amount", resp.Error.Reason)
}

func (s *APISuite) TestRekapExport() {
	periodeID := s.openPeriode()
	s.registerPondok("admin@ikhlas.id")

	status, resp := s.doJSON(http.MethodGet, "/api/v1/periode/"+periodeID+"/rekap?kind=rab", s.pusatToken, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var rekap struct {
		RAB []json.RawMessage `json:"rab"`
	}
	s.decode(resp, &rekap)
	s.Len(rekap.RAB, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/periode/"+periodeID+"/rekap/export", nil)
	status, _, httpResp := s.do(req, s.pusatToken)
	s.Require().Equal(fiber.StatusOK, status)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", httpResp.Header.Get(fiber.HeaderContentType))
	s.Contains(httpResp.Header.Get(fiber.HeaderContentDisposition), fmt.Sprintf("rekap_%s.xlsx", periodeID))
}

func (s *APISuite) TestPondokScopedToAdmin() {
	ownID, token := s.registerPondok("admin@ikhlas.id")
	otherID, _ := s.registerPondok("admin@lain.id")

	status, _ := s.doJSON(http.MethodGet, "/api/v1/pondok/"+otherID, token, nil)
	s.Equal(fiber.StatusNotFound, status)

	status, resp := s.doJSON(http.MethodGet, "/api/v1/pondok", token, nil)
	s.Require().Equal(fiber.StatusOK, status)
	var list []models.Pondok
	s.decode(resp, &list)
	s.Require().Len(list, 1)
	s.Equal(ownID, list[0].ID)

	status, resp = s.doJSON(http.MethodPut, "/api/v1/pondok/"+ownID+"/pengurus", token, map[string]interface{}{
		"pengurus": []models.PengurusRequest{{Nama: "Bendahara Baru", Jabatan: models.JabatanBendahara}},
	})
	s.Require().Equal(fiber.StatusOK, status, resp.Message)
}

func (s *APISuite) TestEvidenceFilesNeedOwnerOrPusat() {
	ownID, token := s.registerPondok("admin@ikhlas.id")
	_, otherToken := s.registerPondok("admin@lain.id")

	dir := filepath.Join(s.filesRoot, models.KindRAB.EvidenceBucket(), "202505", ownID)
	s.Require().NoError(os.MkdirAll(dir, 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "bukti.pdf"), []byte("%PDF-1.4 bukti"), 0o644))
	path := "/files/" + models.KindRAB.EvidenceBucket() + "/202505/" + ownID + "/bukti.pdf"

	status, _, _ := s.do(httptest.NewRequest(http.MethodGet, path, nil), "")
	s.Equal(fiber.StatusUnauthorized, status)

	status, _, _ = s.do(httptest.NewRequest(http.MethodGet, path, nil), otherToken)
	s.Equal(fiber.StatusNotFound, status)

	status, _, resp := s.do(httptest.NewRequest(http.MethodGet, path, nil), token)
	s.Require().Equal(fiber.StatusOK, status)
	raw, _ := io.ReadAll(resp.Body)
	s.Equal("%PDF-1.4 bukti", string(raw))

	status, _, _ = s.do(httptest.NewRequest(http.MethodGet, path, nil), s.pusatToken)
	s.Equal(fiber.StatusOK, status)
}

func (s *APISuite) TestCreateUserIsPusatOnly() {
	pondokID, token := s.registerPondok("admin@ikhlas.id")
	req := models.CreateUserRequest{
		Nama:     "Admin Pusat Dua",
		Email:    "pusat2@pondok.id",
		Password: "rahasia123",
		Role:     models.RoleAdminPusat,
	}

	status, _ := s.doJSON(http.MethodPost, "/api/v1/users", token, req)
	s.Equal(fiber.StatusForbidden, status)

	status, resp := s.doJSON(http.MethodPost, "/api/v1/users", s.pusatToken, req)
	s.Require().Equal(fiber.StatusCreated, status, resp.Message)
	var user models.UserProfile
	s.decode(resp, &user)
	s.Equal(models.RoleAdminPusat, user.Role)
	s.NotEmpty(s.login("pusat2@pondok.id", "rahasia123"))

	status, resp = s.doJSON(http.MethodPost, "/api/v1/users", s.pusatToken, req)
	s.Equal(fiber.StatusBadRequest, status)
	s.Require().NotNil(resp.Error)
	s.Equal("email_taken", resp.Error.Reason)

	second := models.CreateUserRequest{
		Nama: "Bendahara Ikhlas", Email: "bendahara@ikhlas.id", Password: "rahasia123",
		Role: models.RoleAdminPondok, PondokID: &pondokID,
	}
	status, resp = s.doJSON(http.MethodPost, "/api/v1/users", s.pusatToken, second)
	s.Require().Equal(fiber.StatusCreated, status, resp.Message)
	s.NotEmpty(s.login("bendahara@ikhlas.id", "rahasia123"))
}
