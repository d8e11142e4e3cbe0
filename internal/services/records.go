package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vaccert/vaccination-server/internal/database/queries"
	"github.com/vaccert/vaccination-server/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is used when the client sends no usable limit
	DefaultPageSize = 10
	// DefaultMaxPageSize caps the limit a client may ask for
	DefaultMaxPageSize = 100

	// maxInsertAttempts bounds retries after losing a slug race on insert
	maxInsertAttempts = 5
)

// PatientStore is the record store used by RecordService
type PatientStore interface {
	CreatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error)
	GetPatientBySlug(ctx context.Context, slug string) (*models.Patient, error)
	ListPatients(ctx context.Context, limit, offset int) ([]models.Patient, error)
	CountPatients(ctx context.Context) (int, error)
	UpdatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error)
	DeletePatient(ctx context.Context, id int64) (string, error)
}

// SlugGenerator hands out candidate slugs for new records
type SlugGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// RecordCache holds public records by slug. Get reports a miss as a nil
// record and returns the slug's generation. Fill must not store the record
// if Invalidate ran for its slug after that generation was read.
type RecordCache interface {
	Get(ctx context.Context, slug string) (*models.Patient, int64, error)
	Fill(ctx context.Context, patient *models.Patient, gen int64) error
	Invalidate(ctx context.Context, slug string) error
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*models.Patient, int64, error) { return nil, 0, nil }
func (noCache) Fill(context.Context, *models.Patient, int64) error          { return nil }
func (noCache) Invalidate(context.Context, string) error                    { return nil }

// RecordService manages patient vaccination records
type RecordService struct {
	store       PatientStore
	slugs       SlugGenerator
	cache       RecordCache
	qr          *QRRenderer
	log         *zap.Logger
	maxPageSize int
}

// NewRecordService wires the record service. cache may be nil.
func NewRecordService(store PatientStore, slugs SlugGenerator, cache RecordCache, qr *QRRenderer, log *zap.Logger, maxPageSize int) *RecordService {
	if cache == nil {
		cache = noCache{}
	}
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &RecordService{
		store:       store,
		slugs:       slugs,
		cache:       cache,
		qr:          qr,
		log:         log,
		maxPageSize: maxPageSize,
	}
}

// Create stores a new record under a fresh slug. Losing a slug race to a
// concurrent insert is retried with a new slug.
func (s *RecordService) Create(ctx context.Context, fields models.PatientFields) (models.CreatedPatient, error) {
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		slug, err := s.slugs.Generate(ctx)
		if errors.Is(err, ErrSlugExhausted) {
			return models.CreatedPatient{}, err
		}
		if err != nil {
			return models.CreatedPatient{}, fmt.Errorf("%w: generate slug: %w", ErrPersistence, err)
		}

		id, err := s.store.CreatePatient(ctx, slug, fields)
		if errors.Is(err, queries.ErrDuplicateSlug) {
			s.log.Warn("slug collision on insert, retrying", zap.String("slug", slug), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return models.CreatedPatient{}, fmt.Errorf("%w: create patient: %w", ErrPersistence, err)
		}

		return models.CreatedPatient{ID: id, Slug: slug}, nil
	}
	return models.CreatedPatient{}, ErrSlugExhausted
}

// Normalize applies defaults and bounds to requested paging
func (s *RecordService) Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return page, limit
}

// List returns one page of records, newest first
func (s *RecordService) List(ctx context.Context, page, limit int) (models.PatientPage, error) {
	page, limit = s.Normalize(page, limit)

	total, err := s.store.CountPatients(ctx)
	if err != nil {
		return models.PatientPage{}, fmt.Errorf("%w: count patients: %w", ErrPersistence, err)
	}

	patients, err := s.store.ListPatients(ctx, limit, (page-1)*limit)
	if err != nil {
		return models.PatientPage{}, fmt.Errorf("%w: list patients: %w", ErrPersistence, err)
	}

	return models.PatientPage{
		Patients:   patients,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetBySlug returns the public record under slug
func (s *RecordService) GetBySlug(ctx context.Context, slug string) (*models.Patient, error) {
	cached, gen, err := s.cache.Get(ctx, slug)
	fill := err == nil
	if err != nil {
		s.log.Warn("record cache read failed", zap.String("slug", slug), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	patient, err := s.store.GetPatientBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get patient: %w", ErrPersistence, err)
	}

	if fill {
		if err := s.cache.Fill(ctx, patient, gen); err != nil {
			s.log.Warn("record cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return patient, nil
}

// Update replaces every mutable field of the record under slug
func (s *RecordService) Update(ctx context.Context, slug string, fields models.PatientFields) error {
	affected, err := s.store.UpdatePatient(ctx, slug, fields)
	if err != nil {
		return fmt.Errorf("%w: update patient: %w", ErrPersistence, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.invalidate(ctx, slug)
	return nil
}

// Delete removes the record with id. Deleting a missing id succeeds.
func (s *RecordService) Delete(ctx context.Context, id int64) error {
	slug, err := s.store.DeletePatient(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: delete patient: %w", ErrPersistence, err)
	}
	if slug != "" {
		s.invalidate(ctx, slug)
	}
	return nil
}

// QRCode renders a PNG QR code linking to the public view of slug
func (s *RecordService) QRCode(ctx context.Context, slug string, size int) ([]byte, error) {
	if _, err := s.GetBySlug(ctx, slug); err != nil {
		return nil, err
	}
	return s.qr.PNG(slug, size)
}

func (s *RecordService) invalidate(ctx context.Context, slug string) {
	if err := s.cache.Invalidate(ctx, slug); err != nil {
		s.log.Warn("record cache invalidation failed", zap.String("slug", slug), zap.Error(err))
	}
}
