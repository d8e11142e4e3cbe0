package models

// Pagination summarises one page of a listing
type Pagination struct {
	CurrentPage    int  `json:"currentPage"`
	TotalPages     int  `json:"totalPages"`
	TotalRecords   int  `json:"totalRecords"`
	RecordsPerPage int  `json:"recordsPerPage"`
	HasNextPage    bool `json:"hasNextPage"`
	HasPrevPage    bool `json:"hasPrevPage"`
}

// NewPagination computes the summary for page of size limit over total rows.
// limit must be positive.
func NewPagination(page, limit, total int) Pagination {
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return Pagination{
		CurrentPage:    page,
		TotalPages:     totalPages,
		TotalRecords:   total,
		RecordsPerPage: limit,
		HasNextPage:    page < totalPages,
		HasPrevPage:    page > 1,
	}
}

// PatientPage is one page of records, newest first
type PatientPage struct {
	Patients   []Patient  `json:"patients"`
	Pagination Pagination `json:"pagination"`
}
