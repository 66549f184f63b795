package account

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/storefront/accounts/internal/shared"
)

type dbtx interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}

const userColumns = `id, email, username, phone_number, address, password_hash, created_at, updated_at`

// PGRepository implements UserStore using PostgreSQL.
type PGRepository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL repository. db is usually a *pgxpool.Pool.
func NewRepository(db dbtx) *PGRepository {
	return &PGRepository{db: db}
}

// Create inserts a user. A unique violation on email yields shared.ErrDuplicateAccount.
func (r *PGRepository) Create(ctx context.Context, in NewUser) (*User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, username, phone_number, address, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		in.Email, in.Username, in.PhoneNumber, in.Address, in.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// Update applies patch to the user identified by id. Nil patch fields are kept.
func (r *PGRepository) Update(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE users SET
			username     = COALESCE($2, username),
			email        = COALESCE($3, email),
			phone_number = COALESCE($4, phone_number),
			address      = COALESCE($5, address),
			updated_at   = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, optionalText(patch.Username), optionalText(patch.Email), optionalText(patch.PhoneNumber), optionalText(patch.Address))
	user, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PhoneNumber,
		&user.Address,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func optionalText(value *string) pgtype.Text {
	if value == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *value, Valid: true}
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
		return shared.ErrDuplicateAccount
	}
	return err
}

var _ UserStore = (*PGRepository)(nil)
