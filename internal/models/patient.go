package models

import (
	"strings"
	"time"
)

// PatientFields holds every field of a vaccination record that an admin can edit
type PatientFields struct {
	Name                   string   `json:"name" db:"name"`
	Address                string   `json:"address" db:"address"`
	BirthDate              Date     `json:"birth_date" db:"birth_date"`
	Sex                    string   `json:"sex" db:"sex"`
	Nationality            string   `json:"nationality" db:"nationality"`
	NationalID             *string  `json:"national_id" db:"national_id"`
	DoctorName             string   `json:"doctor_name" db:"doctor_name"`
	VaccineType            string   `json:"vaccine_type" db:"vaccine_type"`
	VaccineDate            Date     `json:"vaccine_date" db:"vaccine_date"`
	ValidUntil             NullDate `json:"valid_until" db:"valid_until"`
	AdministrationLocation string   `json:"administration_location" db:"administration_location"`
	VaccineBatchNumber     *string  `json:"vaccine_batch_number" db:"vaccine_batch_number"`
	DiseaseTargeted        *string  `json:"disease_targeted" db:"disease_targeted"`
	DiseaseDate            NullDate `json:"disease_date" db:"disease_date"`
	ManufactureBrandBatch  *string  `json:"manufacture_brand_batch" db:"manufacture_brand_batch"`
	NextBoosterDate        NullDate `json:"next_booster_date" db:"next_booster_date"`
	OfficialStampSignature *string  `json:"official_stamp_signature" db:"official_stamp_signature"`
}

// Patient is a stored vaccination record. Slug is the public identifier
// and never changes after insert.
type Patient struct {
	ID   int64  `json:"id" db:"id"`
	Slug string `json:"slug" db:"slug"`
	PatientFields
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreatedPatient identifies a freshly inserted record
type CreatedPatient struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

// PatientRequest is the payload for creating or replacing a record
type PatientRequest struct {
	Name                   string `json:"name" binding:"required,notblank"`
	Address                string `json:"address" binding:"required,notblank"`
	BirthDate              string `json:"birth_date" binding:"required,datetime=2006-01-02"`
	Sex                    string `json:"sex" binding:"required,notblank"`
	Nationality            string `json:"nationality" binding:"required,notblank"`
	NationalID             string `json:"national_id"`
	DoctorName             string `json:"doctor_name" binding:"required,notblank"`
	VaccineType            string `json:"vaccine_type" binding:"required,notblank"`
	VaccineDate            string `json:"vaccine_date" binding:"required,datetime=2006-01-02"`
	ValidUntil             string `json:"valid_until" binding:"omitempty,datetime=2006-01-02"`
	AdministrationLocation string `json:"administration_location" binding:"required,notblank"`
	VaccineBatchNumber     string `json:"vaccine_batch_number"`
	DiseaseTargeted        string `json:"disease_targeted"`
	DiseaseDate            string `json:"disease_date" binding:"omitempty,datetime=2006-01-02"`
	ManufactureBrandBatch  string `json:"manufacture_brand_batch"`
	NextBoosterDate        string `json:"next_booster_date" binding:"omitempty,datetime=2006-01-02"`
	OfficialStampSignature string `json:"official_stamp_signature"`
}

// Fields converts a bound request into storable fields. Blank optional
// values become NULL.
func (r PatientRequest) Fields() (PatientFields, error) {
	birthDate, err := ParseDate(r.BirthDate)
	if err != nil {
		return PatientFields{}, err
	}
	vaccineDate, err := ParseDate(r.VaccineDate)
	if err != nil {
		return PatientFields{}, err
	}
	validUntil, err := ParseNullDate(r.ValidUntil)
	if err != nil {
		return PatientFields{}, err
	}
	diseaseDate, err := ParseNullDate(r.DiseaseDate)
	if err != nil {
		return PatientFields{}, err
	}
	nextBooster, err := ParseNullDate(r.NextBoosterDate)
	if err != nil {
		return PatientFields{}, err
	}

	return PatientFields{
		Name:                   strings.TrimSpace(r.Name),
		Address:                strings.TrimSpace(r.Address),
		BirthDate:              birthDate,
		Sex:                    strings.TrimSpace(r.Sex),
		Nationality:            strings.TrimSpace(r.Nationality),
		NationalID:             optional(r.NationalID),
		DoctorName:             strings.TrimSpace(r.DoctorName),
		VaccineType:            strings.TrimSpace(r.VaccineType),
		VaccineDate:            vaccineDate,
		ValidUntil:             validUntil,
		AdministrationLocation: strings.TrimSpace(r.AdministrationLocation),
		VaccineBatchNumber:     optional(r.VaccineBatchNumber),
		DiseaseTargeted:        optional(r.DiseaseTargeted),
		DiseaseDate:            diseaseDate,
		ManufactureBrandBatch:  optional(r.ManufactureBrandBatch),
		NextBoosterDate:        nextBooster,
		OfficialStampSignature: optional(r.OfficialStampSignature),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
