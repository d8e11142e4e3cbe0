package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/vaccert/vaccination-server/internal/models"
)

// ErrDuplicateSlug is returned when an insert collides with an existing slug
var ErrDuplicateSlug = errors.New("duplicate patient slug")

const (
	uniqueViolation    = pq.ErrorCode("23505")
	slugConstraintName = "patients_slug_key"
)

const patientColumns = `
	id, slug, name, address, birth_date, sex, nationality, national_id,
	doctor_name, vaccine_type, vaccine_date, valid_until, administration_location,
	vaccine_batch_number, disease_targeted, disease_date, manufacture_brand_batch,
	next_booster_date, official_stamp_signature, created_at`

type PatientQueries struct {
	db *sqlx.DB
}

func NewPatientQueries(db *sqlx.DB) *PatientQueries {
	return &PatientQueries{db: db}
}

// SlugExists reports whether any record already uses slug
func (q *PatientQueries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM patients WHERE slug = $1)`
	if err := q.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, err
	}
	return exists, nil
}

// CreatePatient inserts a record under slug and returns its id
func (q *PatientQueries) CreatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error) {
	row := &models.Patient{Slug: slug, PatientFields: fields}
	query, args, err := sqlx.Named(`
		INSERT INTO patients (
			slug, name, address, birth_date, sex, nationality, national_id,
			doctor_name, vaccine_type, vaccine_date, valid_until, administration_location,
			vaccine_batch_number, disease_targeted, disease_date, manufacture_brand_batch,
			next_booster_date, official_stamp_signature
		) VALUES (
			:slug, :name, :address, :birth_date, :sex, :nationality, :national_id,
			:doctor_name, :vaccine_type, :vaccine_date, :valid_until, :administration_location,
			:vaccine_batch_number, :disease_targeted, :disease_date, :manufacture_brand_batch,
			:next_booster_date, :official_stamp_signature
		)
		RETURNING id
	`, row)
	if err != nil {
		return 0, fmt.Errorf("failed to bind patient insert: %w", err)
	}

	var id int64
	if err := q.db.QueryRowxContext(ctx, q.db.Rebind(query), args...).Scan(&id); err != nil {
		if isSlugViolation(err) {
			return 0, ErrDuplicateSlug
		}
		return 0, err
	}
	return id, nil
}

// GetPatientBySlug retrieves a record by its public slug
func (q *PatientQueries) GetPatientBySlug(ctx context.Context, slug string) (*models.Patient, error) {
	var patient models.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE slug = $1`
	if err := q.db.GetContext(ctx, &patient, query, slug); err != nil {
		return nil, err
	}
	return &patient, nil
}

// ListPatients returns one page of records, newest first
func (q *PatientQueries) ListPatients(ctx context.Context, limit, offset int) ([]models.Patient, error) {
	patients := []models.Patient{}
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	if err := q.db.SelectContext(ctx, &patients, query, limit, offset); err != nil {
		return nil, err
	}
	return patients, nil
}

// CountPatients returns the total number of records
func (q *PatientQueries) CountPatients(ctx context.Context) (int, error) {
	var count int
	err := q.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM patients`)
	return count, err
}

// UpdatePatient replaces every mutable field of the record under slug and
// returns the number of rows touched
func (q *PatientQueries) UpdatePatient(ctx context.Context, slug string, fields models.PatientFields) (int64, error) {
	row := &models.Patient{Slug: slug, PatientFields: fields}
	result, err := q.db.NamedExecContext(ctx, `
		UPDATE patients SET
			name = :name, address = :address, birth_date = :birth_date, sex = :sex,
			nationality = :nationality, national_id = :national_id, doctor_name = :doctor_name,
			vaccine_type = :vaccine_type, vaccine_date = :vaccine_date, valid_until = :valid_until,
			administration_location = :administration_location,
			vaccine_batch_number = :vaccine_batch_number, disease_targeted = :disease_targeted,
			disease_date = :disease_date, manufacture_brand_batch = :manufacture_brand_batch,
			next_booster_date = :next_booster_date, official_stamp_signature = :official_stamp_signature
		WHERE slug = :slug
	`, row)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeletePatient removes the record with id. It returns the deleted slug, or
// "" when no row matched.
func (q *PatientQueries) DeletePatient(ctx context.Context, id int64) (string, error) {
	var slug string
	err := q.db.QueryRowxContext(ctx, `DELETE FROM patients WHERE id = $1 RETURNING slug`, id).Scan(&slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return slug, nil
}

func isSlugViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && pqErr.Constraint == slugConstraintName
}
