// Package companies provides PostgreSQL and in-memory repositories for
// owner-scoped company records.
package companies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

// PostgresRepository implements company storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByUser returns the companies of userID ordered by creation time.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Company, error) {
	query := `
		SELECT id, user_id, name, registration_code, vat_number, address, email, created_at, updated_at
		FROM companies
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Company{}
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.RegistrationCode, &c.VATNumber, &c.Address, &c.Email,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Company, error) {
	query := `
		SELECT id, user_id, name, registration_code, vat_number, address, email, created_at, updated_at
		FROM companies
		WHERE id = $1 AND user_id = $2
	`
	var c models.Company
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.RegistrationCode, &c.VATNumber, &c.Address, &c.Email,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, company *models.Company) (*models.Company, error) {
	query := `
		INSERT INTO companies (user_id, name, registration_code, vat_number, address, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		company.UserID, company.Name, company.RegistrationCode, company.VATNumber, company.Address, company.Email,
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return company, nil
}

// Update rewrites the mutable fields of company; the row must belong to
// company.UserID.
func (r *PostgresRepository) Update(ctx context.Context, company *models.Company) (*models.Company, error) {
	query := `
		UPDATE companies
		SET name = $3, registration_code = $4, vat_number = $5, address = $6, email = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		company.ID, company.UserID, company.Name, company.RegistrationCode, company.VATNumber, company.Address, company.Email,
	).Scan(&company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return company, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM companies
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
