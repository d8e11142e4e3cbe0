package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vaccert/vaccination-server/internal/database/queries"
	"github.com/vaccert/vaccination-server/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	_ AdminStore   = (*MockAdminStore)(nil)
	_ PatientStore = (*MockPatientStore)(nil)
	_ PatientStore = (*memPatientStore)(nil)
)

// MockAdminStore is a function-field implementation of AdminStore
type MockAdminStore struct {
	GetAdminByUsernameFunc func(ctx context.Context, username string) (*models.Admin, error)
	CountAdminsFunc        func(ctx context.Context) (int, error)
	CreateAdminFunc        func(ctx context.Context, username, passwordHash string) (*models.Admin, error)
}

func (m *MockAdminStore) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if m.GetAdminByUsernameFunc != nil {
		return m.GetAdminByUsernameFunc(ctx, username)
	}
	return nil, sql.ErrNoRows
}

func (m *MockAdminStore) CountAdmins(ctx context.Context) (int, error) {
	if m.CountAdminsFunc != nil {
		return m.CountAdminsFunc(ctx)
	}
	return 0, nil
}

func (m *MockAdminStore) CreateAdmin(ctx context.Context, username, passwordHash string) (*models.Admin, error) {
	if m.CreateAdminFunc != nil {
		return m.CreateAdminFunc(ctx, username, passwordHash)
	}
	return nil, errors.New("CreateAdminFunc not implemented in mock")
}

// MockPatientStore is a function-field implementation of PatientStore used
// for failure paths
type MockPatientStore struct {
	CreatePatientFunc    func(ctx context.Context, slug string, fields models.PatientFields) (int64, error)
	GetPatientBySlugFunc func(ctx context.Context, slug string) (*models.Patient, error)
	ListPatientsFunc     func(ctx context.Context, limit, offset int) ([]models.Patient, error)
	CountPatientsFunc    func(ctx context.Context) (int, error)
	UpdatePatientFunc    func(ctx context.Context, slug string, fields models.PatientFields) (int64, error)
	DeletePatientFunc    func(ctx context.Context, id int64) (string, error)
}

func (m *MockPatientStore) CreatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error) {
	if m.CreatePatientFunc != nil {
		return m.CreatePatientFunc(ctx, slug, fields)
	}
	return 0, errors.New("CreatePatientFunc not implemented in mock")
}

func (m *MockPatientStore) GetPatientBySlug(ctx context.Context, slug string) (*models.Patient, error) {
	if m.GetPatientBySlugFunc != nil {
		return m.GetPatientBySlugFunc(ctx, slug)
	}
	return nil, sql.ErrNoRows
}

func (m *MockPatientStore) ListPatients(ctx context.Context, limit, offset int) ([]models.Patient, error) {
	if m.ListPatientsFunc != nil {
		return m.ListPatientsFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockPatientStore) CountPatients(ctx context.Context) (int, error) {
	if m.CountPatientsFunc != nil {
		return m.CountPatientsFunc(ctx)
	}
	return 0, nil
}

func (m *MockPatientStore) UpdatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error) {
	if m.UpdatePatientFunc != nil {
		return m.UpdatePatientFunc(ctx, slug, fields)
	}
	return 0, nil
}

func (m *MockPatientStore) DeletePatient(ctx context.Context, id int64) (string, error) {
	if m.DeletePatientFunc != nil {
		return m.DeletePatientFunc(ctx, id)
	}
	return "", nil
}

// memPatientStore behaves like the patients table: serial ids that are
// never reused and a unique slug constraint
type memPatientStore struct {
	mu         sync.Mutex
	rows       map[string]*models.Patient
	nextID     int64
	clock      time.Time
	duplicates int
}

func newMemPatientStore() *memPatientStore {
	return &memPatientStore{
		rows:  map[string]*models.Patient{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memPatientStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[slug]
	return ok, nil
}

func (m *memPatientStore) CreatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[slug]; ok {
		m.duplicates++
		return 0, queries.ErrDuplicateSlug
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	m.rows[slug] = &models.Patient{ID: m.nextID, Slug: slug, PatientFields: fields, CreatedAt: m.clock}
	return m.nextID, nil
}

func (m *memPatientStore) GetPatientBySlug(ctx context.Context, slug string) (*models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[slug]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *row
	return &cp, nil
}

func (m *memPatientStore) ListPatients(ctx context.Context, limit, offset int) ([]models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]models.Patient, 0, len(m.rows))
	for _, row := range m.rows {
		all = append(all, *row)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []models.Patient{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memPatientStore) CountPatients(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memPatientStore) UpdatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[slug]
	if !ok {
		return 0, nil
	}
	row.PatientFields = fields
	return 1, nil
}

func (m *memPatientStore) DeletePatient(ctx context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slug, row := range m.rows {
		if row.ID == id {
			delete(m.rows, slug)
			return slug, nil
		}
	}
	return "", nil
}

// scriptedSlugs returns its slugs in order, ignoring the store
type scriptedSlugs struct {
	mu    sync.Mutex
	slugs []string
	err   error
}

func (s *scriptedSlugs) Generate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if len(s.slugs) == 0 {
		return "", ErrSlugExhausted
	}
	next := s.slugs[0]
	s.slugs = s.slugs[1:]
	return next, nil
}

// mapCache is an in-memory RecordCache with per-slug generations that
// counts hits
type mapCache struct {
	mu    sync.Mutex
	items map[string]models.Patient
	gens  map[string]int64
	hits  int
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string]models.Patient{}, gens: map[string]int64{}}
}

func (c *mapCache) Get(ctx context.Context, slug string) (*models.Patient, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[slug]
	if !ok {
		return nil, c.gens[slug], nil
	}
	c.hits++
	return &p, c.gens[slug], nil
}

func (c *mapCache) Fill(ctx context.Context, patient *models.Patient, gen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[patient.Slug] != gen {
		return nil
	}
	c.items[patient.Slug] = *patient
	return nil
}

func (c *mapCache) Invalidate(ctx context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[slug]++
	delete(c.items, slug)
	return nil
}

// hookedStore runs beforeReturn once, between reading a record and handing
// it back, to interleave a concurrent change with a read
type hookedStore struct {
	*memPatientStore
	beforeReturn func()
}

func (h *hookedStore) GetPatientBySlug(ctx context.Context, slug string) (*models.Patient, error) {
	p, err := h.memPatientStore.GetPatientBySlug(ctx, slug)
	if hook := h.beforeReturn; hook != nil {
		h.beforeReturn = nil
		hook()
	}
	return p, err
}

func newTestHasher() *PasswordHasher {
	return &PasswordHasher{algo: HashBcrypt, bcryptCost: bcrypt.MinCost}
}

func strPtr(s string) *string { return &s }

func sampleFields(name string) models.PatientFields {
	return models.PatientFields{
		Name:                   name,
		Address:                "Jl. Merdeka 1, Jakarta",
		BirthDate:              models.NewDate(1990, time.May, 17),
		Sex:                    "Female",
		Nationality:            "Indonesia",
		NationalID:             strPtr("3171234567890001"),
		DoctorName:             "dr. Sari",
		VaccineType:            "Yellow Fever",
		VaccineDate:            models.NewDate(2025, time.March, 2),
		ValidUntil:             models.NewNullDate(models.NewDate(2035, time.March, 2)),
		AdministrationLocation: "KKP Soekarno-Hatta",
	}
}

var testLogger = zap.NewNop()
