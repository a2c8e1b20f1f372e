package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/postgres"
	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// DB is the database surface the store needs. [*postgres.Client]
// implements it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Health(ctx context.Context) error
}

var _ DB = (*postgres.Client)(nil)

const schemaSQL = `CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT        NOT NULL,
	email         TEXT        NOT NULL UNIQUE,
	password_hash TEXT        NOT NULL,
	role          TEXT        NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectColumns = `SELECT id, name, email, password_hash, role, created_at, updated_at FROM users`

	findByIDSQL    = selectColumns + ` WHERE id = $1`
	findByEmailSQL = selectColumns + ` WHERE email = $1`

	insertSQL = `INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`
)

// PostgresStore persists users in the "users" table. Emails are stored
// lower-cased so the unique constraint is case-insensitive.
type PostgresStore struct {
	db DB
}

var _ auth.UserStore = (*PostgresStore)(nil)

// NewPostgresStore returns a store over db. Call [PostgresStore.Migrate]
// once before first use.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the users table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return sserr.Wrap(err, sserr.CodeInternalDatabase, "users: migration failed")
	}
	return nil
}

// FindByID returns the user with id.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (auth.User, error) {
	return s.findOne(ctx, findByIDSQL, id)
}

// FindByEmail returns the user registered with email, ignoring case.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.findOne(ctx, findByEmailSQL, emailKey(email))
}

func (s *PostgresStore) findOne(ctx context.Context, sql string, arg any) (auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := s.db.QueryRow(ctx, sql, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, sserr.New(sserr.CodeNotFoundUser, "users: no matching user")
		}
		return auth.User{}, postgres.WrapError(err, "users: lookup failed")
	}
	u.Role = auth.Role(role)
	return u, nil
}

// Create inserts user and returns it with the generated id and timestamps.
// A duplicate email yields [sserr.CodeConflictAlreadyExists].
func (s *PostgresStore) Create(ctx context.Context, user auth.User) (auth.User, error) {
	user.Email = emailKey(user.Email)
	err := s.db.QueryRow(ctx, insertSQL, user.Name, user.Email, user.PasswordHash, string(user.Role)).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return auth.User{}, sserr.Wrap(err, sserr.CodeConflictAlreadyExists, "users: email already registered")
		}
		return auth.User{}, postgres.WrapError(err, "users: insert failed")
	}
	return user, nil
}

// Health reports whether the database is reachable.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}
