package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientRequestFields(t *testing.T) {
	req := PatientRequest{
		Name:                   "  Siti Rahma ",
		Address:                "Jl. Merdeka 1",
		BirthDate:              "1990-05-17",
		Sex:                    "Female",
		Nationality:            "Indonesia",
		NationalID:             "   ",
		DoctorName:             "dr. Sari",
		VaccineType:            "Yellow Fever",
		VaccineDate:            "2025-03-02",
		ValidUntil:             "2035-03-02",
		AdministrationLocation: "KKP Soekarno-Hatta",
		VaccineBatchNumber:     "YF-001",
	}

	fields, err := req.Fields()
	require.NoError(t, err)
	assert.Equal(t, "Siti Rahma", fields.Name)
	assert.Equal(t, NewDate(1990, time.May, 17), fields.BirthDate)
	assert.Nil(t, fields.NationalID)
	require.NotNil(t, fields.VaccineBatchNumber)
	assert.Equal(t, "YF-001", *fields.VaccineBatchNumber)
	assert.Equal(t, NewNullDate(NewDate(2035, time.March, 2)), fields.ValidUntil)
	assert.False(t, fields.DiseaseDate.Valid)
	assert.Nil(t, fields.OfficialStampSignature)
}

func TestPatientRequestFieldsBadDate(t *testing.T) {
	req := PatientRequest{BirthDate: "1990-05-17", VaccineDate: "2025-02-30"}
	_, err := req.Fields()
	assert.Error(t, err)
}

func TestPatientJSONIsFlat(t *testing.T) {
	p := Patient{
		ID:   1,
		Slug: "E-AB12C",
		PatientFields: PatientFields{
			Name:        "Siti Rahma",
			BirthDate:   NewDate(1990, time.May, 17),
			VaccineDate: NewDate(2025, time.March, 2),
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "E-AB12C", out["slug"])
	assert.Equal(t, "Siti Rahma", out["name"])
	assert.Equal(t, "1990-05-17", out["birth_date"])
	assert.Contains(t, out, "valid_until")
	assert.Nil(t, out["valid_until"])
	assert.NotContains(t, out, "PatientFields")
}

func TestAdminHidesPasswordHash(t *testing.T) {
	data, err := json.Marshal(Admin{ID: 1, Username: "admin", PasswordHash: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}
