package queries

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/vaccert/vaccination-server/internal/models"
)

type AdminQueries struct {
	db *sqlx.DB
}

func NewAdminQueries(db *sqlx.DB) *AdminQueries {
	return &AdminQueries{db: db}
}

// CreateAdmin inserts an admin with an already hashed password. An existing
// username is left untouched and reported as sql.ErrNoRows.
func (q *AdminQueries) CreateAdmin(ctx context.Context, username, passwordHash string) (*models.Admin, error) {
	query := `
		INSERT INTO admins (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
		RETURNING id, username, password_hash, created_at
	`

	var admin models.Admin
	if err := q.db.GetContext(ctx, &admin, query, username, passwordHash); err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetAdminByUsername retrieves an admin by username
func (q *AdminQueries) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	query := `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`
	if err := q.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, err
	}
	return &admin, nil
}

// CountAdmins returns the number of admin accounts
func (q *AdminQueries) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := q.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM admins`)
	return count, err
}
