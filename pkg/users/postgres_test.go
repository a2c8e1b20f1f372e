package users

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StricklySoft/stricklysoft-auth/internal/testutil"
	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/postgres"
	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

var userColumns = []string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}

var stamp = time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewPostgresStore(postgres.NewFromPool(mock, &postgres.Config{Database: "auth"})), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.Migrate(context.Background()))
}

func TestPostgresStore_MigrateFailure(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied for schema public"))

	err := store.Migrate(context.Background())
	testutil.RequireErrorCode(t, err, sserr.CodeInternalDatabase)
}

func TestPostgresStore_FindByID(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(findByIDSQL)).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(int64(42), "Ada Lovelace", "ada@example.com", "$2a$10$hash", "ADMIN", stamp, stamp))

	u, err := store.FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, auth.User{
		ID:           42,
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         auth.RoleAdmin,
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
	}, u)
}

func TestPostgresStore_FindByEmailNormalizes(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(findByEmailSQL)).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(int64(1), "Ada", "ada@example.com", "h", "USER", stamp, stamp))

	u, err := store.FindByEmail(context.Background(), " Ada@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}

func TestPostgresStore_NotFound(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(findByIDSQL)).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.FindByID(context.Background(), 9)
	testutil.RequireErrorCode(t, err, sserr.CodeNotFoundUser)
}

func TestPostgresStore_LookupFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want sserr.Code
	}{
		{"connection lost", errors.New("unexpected EOF"), sserr.CodeInternalDatabase},
		{"deadline", context.DeadlineExceeded, sserr.CodeTimeoutDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery(regexp.QuoteMeta(findByEmailSQL)).
				WithArgs("ada@example.com").
				WillReturnError(tt.err)

			_, err := store.FindByEmail(context.Background(), "ada@example.com")
			testutil.RequireErrorCode(t, err, tt.want)
			assert.False(t, sserr.IsNotFound(err))
		})
	}
}

func TestPostgresStore_Create(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WithArgs("Grace", "grace@example.com", "hash", "USER").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), stamp, stamp))

	u, err := store.Create(context.Background(), auth.User{
		Name:         "Grace",
		Email:        "Grace@Example.com",
		PasswordHash: "hash",
		Role:         auth.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "grace@example.com", u.Email)
	assert.Equal(t, stamp, u.CreatedAt)
}

func TestPostgresStore_CreateDuplicate(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WithArgs("Ada", "ada@example.com", "hash", "USER").
		WillReturnError(&pgconn.PgError{Code: postgres.UniqueViolation, ConstraintName: "users_email_key"})

	_, err := store.Create(context.Background(), auth.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", Role: auth.RoleUser})
	testutil.RequireErrorCode(t, err, sserr.CodeConflictAlreadyExists)
}

func TestPostgresStore_Health(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := store.Health(context.Background())
	testutil.RequireErrorCode(t, err, sserr.CodeUnavailableDependency)
}
