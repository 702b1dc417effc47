package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation          = "23505"
	emailConstraint          = "users_email_key"
	personalIDCodeConstraint = "users_personal_id_code_key"
)

const userColumns = `id, name, surname, personal_id_code, email, password_hash,
		 is_verified, action_token, action_purpose, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var token sql.NullString
	var purpose string
	err := row.Scan(&user.ID, &user.Name, &user.Surname, &user.PersonalIDCode, &user.Email, &user.PasswordHash,
		&user.IsVerified, &token, &purpose, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if token.Valid {
		user.ActionToken = &token.String
	}
	user.ActionPurpose = models.ActionPurpose(purpose)
	return user, nil
}

func nullableToken(token *string) sql.NullString {
	if token == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *token, Valid: true}
}

// mapWriteError translates unique violations into domain errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return common.ErrDuplicateEmail
		case personalIDCodeConstraint:
			return common.ErrDuplicatePersonalID
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (name, surname, personal_id_code, email, password_hash, is_verified, action_token, action_purpose)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Surname, user.PersonalIDCode, user.Email, user.PasswordHash,
		user.IsVerified, nullableToken(user.ActionToken), string(user.ActionPurpose),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, mapWriteError(err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users
		 SET name = $2, surname = $3, personal_id_code = $4, email = $5, password_hash = $6,
		     is_verified = $7, action_token = $8, action_purpose = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Surname, user.PersonalIDCode, user.Email, user.PasswordHash,
		user.IsVerified, nullableToken(user.ActionToken), string(user.ActionPurpose),
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}

	return user, nil
}
