package repository

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/models"
)

// memoryStore keeps every table in process. It backs the service tests and
// lets the web server start without MySQL in development.
type memoryStore struct {
	txMu     sync.Mutex
	mu       sync.RWMutex
	periode  map[string]models.Periode
	pondok   map[string]models.Pondok
	pengurus map[string][]models.Pengurus
	users    map[string]models.UserProfile
	rab      map[string]models.RAB
	lpj      map[string]models.LPJ
}

// NewMemory returns a Repository whose tables live in memory. Transact rolls
// back by restoring a copy of the tables taken when it started, which also
// drops writes other callers made outside a transaction meanwhile.
func NewMemory() *Repository {
	s := &memoryStore{
		periode:  map[string]models.Periode{},
		pondok:   map[string]models.Pondok{},
		pengurus: map[string][]models.Pengurus{},
		users:    map[string]models.UserProfile{},
		rab:      map[string]models.RAB{},
		lpj:      map[string]models.LPJ{},
	}
	return &Repository{
		Periode:     &memPeriode{s},
		Pondok:      &memPondok{s},
		Pengurus:    &memPengurus{s},
		UserProfile: &memUsers{s},
		RAB:         &memRAB{s},
		LPJ:         &memLPJ{s},
		mem:         s,
	}
}

// transact serializes transactions against each other and undoes fn's
// writes when it fails.
func (s *memoryStore) transact(fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	periode  map[string]models.Periode
	pondok   map[string]models.Pondok
	pengurus map[string][]models.Pengurus
	users    map[string]models.UserProfile
	rab      map[string]models.RAB
	lpj      map[string]models.LPJ
}

func (s *memoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pengurus := make(map[string][]models.Pengurus, len(s.pengurus))
	for k, v := range s.pengurus {
		pengurus[k] = append([]models.Pengurus(nil), v...)
	}
	return memorySnapshot{
		periode:  maps.Clone(s.periode),
		pondok:   maps.Clone(s.pondok),
		pengurus: pengurus,
		users:    maps.Clone(s.users),
		rab:      maps.Clone(s.rab),
		lpj:      maps.Clone(s.lpj),
	}
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periode = snap.periode
	s.pondok = snap.pondok
	s.pengurus = snap.pengurus
	s.users = snap.users
	s.rab = snap.rab
	s.lpj = snap.lpj
}

func stamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memPeriode struct{ s *memoryStore }

func (m *memPeriode) Create(_ context.Context, p *models.Periode) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.periode[p.ID]; ok {
		return ErrDuplicateKey
	}
	now := stamp()
	p.CreatedAt, p.UpdatedAt = now, now
	m.s.periode[p.ID] = *p
	return nil
}

func (m *memPeriode) Update(_ context.Context, p *models.Periode) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.periode[p.ID]; !ok {
		return apperr.ErrRecordNotFound
	}
	p.UpdatedAt = nextUpdatedAt(p.UpdatedAt)
	m.s.periode[p.ID] = *p
	return nil
}

func (m *memPeriode) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.periode[id]; !ok {
		return apperr.ErrRecordNotFound
	}
	delete(m.s.periode, id)
	return nil
}

func (m *memPeriode) FindByID(_ context.Context, id string) (*models.Periode, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	p, ok := m.s.periode[id]
	if !ok {
		return nil, apperr.ErrRecordNotFound
	}
	return &p, nil
}

func (m *memPeriode) FindAll(_ context.Context, limit, offset int) ([]models.Periode, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	all := make([]models.Periode, 0, len(m.s.periode))
	for _, p := range m.s.periode {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, limit, offset), len(all), nil
}

func (m *memPeriode) CountDocuments(_ context.Context, id string) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n := 0
	for _, r := range m.s.rab {
		if r.PeriodeID == id {
			n++
		}
	}
	for _, l := range m.s.lpj {
		if l.PeriodeID == id {
			n++
		}
	}
	return n, nil
}

type memPondok struct{ s *memoryStore }

func (m *memPondok) Create(_ context.Context, p *models.Pondok) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.pondok[p.ID]; ok {
		return ErrDuplicateKey
	}
	now := stamp()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.Pengurus = nil
	m.s.pondok[p.ID] = stored
	return nil
}

func (m *memPondok) Update(_ context.Context, p *models.Pondok) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.pondok[p.ID]
	if !ok {
		return apperr.ErrRecordNotFound
	}
	p.UpdatedAt = nextUpdatedAt(p.UpdatedAt)
	stored := *p
	stored.AcceptedAt = existing.AcceptedAt
	stored.Pengurus = nil
	m.s.pondok[p.ID] = stored
	return nil
}

func (m *memPondok) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.pondok[id]; !ok {
		return apperr.ErrRecordNotFound
	}
	delete(m.s.pondok, id)
	delete(m.s.pengurus, id)
	for k, r := range m.s.rab {
		if r.PondokID == id {
			delete(m.s.rab, k)
		}
	}
	for k, l := range m.s.lpj {
		if l.PondokID == id {
			delete(m.s.lpj, k)
		}
	}
	for k, u := range m.s.users {
		if u.PondokID != nil && *u.PondokID == id {
			delete(m.s.users, k)
		}
	}
	return nil
}

func (m *memPondok) Verify(_ context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.pondok[id]
	if !ok {
		return apperr.ErrRecordNotFound
	}
	at = at.UTC()
	p.AcceptedAt = &at
	p.UpdatedAt = nextUpdatedAt(p.UpdatedAt)
	m.s.pondok[id] = p
	return nil
}

func (m *memPondok) FindByID(_ context.Context, id string) (*models.Pondok, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	p, ok := m.s.pondok[id]
	if !ok {
		return nil, apperr.ErrRecordNotFound
	}
	return &p, nil
}

func (m *memPondok) FindAll(ctx context.Context, limit, offset int, search string) ([]models.Pondok, int, error) {
	all, _ := m.ListAll(ctx)
	if search != "" {
		needle := strings.ToLower(search)
		filtered := all[:0]
		for _, p := range all {
			if strings.Contains(strings.ToLower(p.Nama+" "+p.Kota+" "+p.Provinsi), needle) {
				filtered = append(filtered, p)
			}
		}
		all = filtered
	}
	return paginate(all, limit, offset), len(all), nil
}

func (m *memPondok) ListAll(_ context.Context) ([]models.Pondok, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	all := make([]models.Pondok, 0, len(m.s.pondok))
	for _, p := range m.s.pondok {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Nama < all[j].Nama })
	return all, nil
}

type memPengurus struct{ s *memoryStore }

func (m *memPengurus) CreateBatch(_ context.Context, items []models.Pengurus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	now := stamp()
	for i := range items {
		items[i].CreatedAt, items[i].UpdatedAt = now, now
		m.s.pengurus[items[i].PondokID] = append(m.s.pengurus[items[i].PondokID], items[i])
	}
	return nil
}

func (m *memPengurus) FindByPondokID(_ context.Context, pondokID string) ([]models.Pengurus, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return append([]models.Pengurus{}, m.s.pengurus[pondokID]...), nil
}

func (m *memPengurus) ReplaceForPondok(ctx context.Context, pondokID string, items []models.Pengurus) error {
	m.s.mu.Lock()
	delete(m.s.pengurus, pondokID)
	m.s.mu.Unlock()
	return m.CreateBatch(ctx, items)
}

type memUsers struct{ s *memoryStore }

func (m *memUsers) Create(_ context.Context, u *models.UserProfile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateKey
		}
	}
	now := stamp()
	u.CreatedAt, u.UpdatedAt = now, now
	m.s.users[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.UserProfile, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, apperr.ErrRecordNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.ErrRecordNotFound
}

// relations mirrors the joined read of the SQL repositories. Callers hold
// the read lock.
func (s *memoryStore) relations(d models.Dokumen) models.DocumentRelations {
	var rel models.DocumentRelations
	if p, ok := s.pondok[d.PondokID]; ok {
		rel.Pondok = &models.PondokSummary{ID: p.ID, Nama: p.Nama, Jenis: p.Jenis}
	}
	if pr, ok := s.periode[d.PeriodeID]; ok {
		rel.Periode = &pr
	}
	return rel
}

func matches(d models.Dokumen, f models.DocumentFilter) bool {
	return (f.PondokID == "" || d.PondokID == f.PondokID) &&
		(f.PeriodeID == "" || d.PeriodeID == f.PeriodeID) &&
		(f.Status == "" || d.Status == f.Status)
}

func casStatus(current *models.Dokumen, d *models.Dokumen, expected time.Time) error {
	if !current.UpdatedAt.Equal(expected) {
		return apperr.ErrOptimisticLock
	}
	current.Status = d.Status
	current.AcceptedAt = d.AcceptedAt
	current.PesanRevisi = d.PesanRevisi
	current.UpdatedAt = nextUpdatedAt(expected)
	d.UpdatedAt = current.UpdatedAt
	return nil
}

type memRAB struct{ s *memoryStore }

func (m *memRAB) Create(_ context.Context, r *models.RAB) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.rab {
		if existing.PondokID == r.PondokID && existing.PeriodeID == r.PeriodeID {
			return ErrDuplicateKey
		}
	}
	now := stamp()
	r.CreatedAt, r.UpdatedAt = now, now
	stored := *r
	stored.DocumentRelations = models.DocumentRelations{}
	m.s.rab[r.ID] = stored
	return nil
}

func (m *memRAB) Resubmit(_ context.Context, r *models.RAB, expected time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	current, ok := m.s.rab[r.ID]
	if !ok || !current.UpdatedAt.Equal(expected) {
		return apperr.ErrOptimisticLock
	}
	r.UpdatedAt = nextUpdatedAt(expected)
	stored := *r
	stored.CreatedAt = current.CreatedAt
	stored.DocumentRelations = models.DocumentRelations{}
	m.s.rab[r.ID] = stored
	return nil
}

func (m *memRAB) FindDokumen(_ context.Context, id string) (*models.Dokumen, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	r, ok := m.s.rab[id]
	if !ok {
		return nil, apperr.ErrRecordNotFound
	}
	d := r.Dokumen
	return &d, nil
}

func (m *memRAB) UpdateStatus(_ context.Context, d *models.Dokumen, expected time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.rab[d.ID]
	if !ok {
		return apperr.ErrOptimisticLock
	}
	if err := casStatus(&r.Dokumen, d, expected); err != nil {
		return err
	}
	m.s.rab[d.ID] = r
	return nil
}

func (m *memRAB) FindByID(_ context.Context, id string) (*models.RAB, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	r, ok := m.s.rab[id]
	if !ok {
		return nil, apperr.ErrRecordNotFound
	}
	r.DocumentRelations = m.s.relations(r.Dokumen)
	return &r, nil
}

func (m *memRAB) FindByPondokPeriode(_ context.Context, pondokID, periodeID string) (*models.RAB, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, r := range m.s.rab {
		if r.PondokID == pondokID && r.PeriodeID == periodeID {
			return &r, nil
		}
	}
	return nil, apperr.ErrRecordNotFound
}

func (m *memRAB) FindAll(_ context.Context, f models.DocumentFilter) ([]models.RAB, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	all := []models.RAB{}
	for _, r := range m.s.rab {
		if matches(r.Dokumen, f) {
			r.DocumentRelations = m.s.relations(r.Dokumen)
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmittedAt.After(all[j].SubmittedAt) })
	return paginate(all, f.Limit, f.Offset), len(all), nil
}

type memLPJ struct{ s *memoryStore }

func (m *memLPJ) Create(_ context.Context, l *models.LPJ) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.lpj {
		if existing.PondokID == l.PondokID && existing.PeriodeID == l.PeriodeID {
			return ErrDuplicateKey
		}
	}
	now := stamp()
	l.CreatedAt, l.UpdatedAt = now, now
	stored := *l
	stored.DocumentRelations = models.DocumentRelations{}
	m.s.lpj[l.ID] = stored
	return nil
}

func (m *memLPJ) Resubmit(_ context.Context, l *models.LPJ, expected time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	current, ok := m.s.lpj[l.ID]
	if !ok || !current.UpdatedAt.Equal(expected) {
		return apperr.ErrOptimisticLock
	}
	l.UpdatedAt = nextUpdatedAt(expected)
	stored := *l
	stored.CreatedAt = current.CreatedAt
	stored.DocumentRelations = models.DocumentRelations{}
	m.s.lpj[l.ID] = stored
	return nil
}

func (m *memLPJ) FindDokumen(_ context.Context, id string) (*models.Dokumen, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	l, ok := m.s.lpj[id]
	if !ok {
		return nil, apperr.ErrRecordNotFound
	}
	d := l.Dokumen
	return &d, nil
}

func (m *memLPJ) UpdateStatus(_ context.Context, d *models.Dokumen, expected time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l, ok := m.s.lpj[d.ID]
	if !ok {
		return apperr.ErrOptimisticLock
	}
	if err := casStatus(&l.Dokumen, d, expected); err != nil {
		return err
	}
	m.s.lpj[d.ID] = l
	return nil
}

func (m *memLPJ) FindByID(_ context.Context, id string) (*models.LPJ, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	l, ok := m.s.lpj[id]
	if !ok {
		return nil, apperr.ErrRecordNotFound
	}
	l.DocumentRelations = m.s.relations(l.Dokumen)
	return &l, nil
}

func (m *memLPJ) FindByPondokPeriode(_ context.Context, pondokID, periodeID string) (*models.LPJ, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, l := range m.s.lpj {
		if l.PondokID == pondokID && l.PeriodeID == periodeID {
			return &l, nil
		}
	}
	return nil, apperr.ErrRecordNotFound
}

func (m *memLPJ) FindAll(_ context.Context, f models.DocumentFilter) ([]models.LPJ, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	all := []models.LPJ{}
	for _, l := range m.s.lpj {
		if matches(l.Dokumen, f) {
			l.DocumentRelations = m.s.relations(l.Dokumen)
			all = append(all, l)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmittedAt.After(all[j].SubmittedAt) })
	return paginate(all, f.Limit, f.Offset), len(all), nil
}
