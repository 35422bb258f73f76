package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/semprecheio/auth-api/internal/domain"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when creating an account with an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// AccountFilter narrows List results. Nil fields are ignored.
type AccountFilter struct {
	Active *bool
	Role   *domain.Role
}

// AccountRepository defines persistence access for accounts.
//
//go:generate mockgen -source=account_repository.go -destination=../mock/account_repository_mock.go -package=mock
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByEmail matches the email exactly (case-sensitive).
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)
}

// DBTX is the subset of pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var accountColumns = []string{
	"id", "name", "email", "password_hash", "COALESCE(role, '')", "service_type", "active", "created_at", "updated_at",
}

type accountRepository struct {
	db DBTX
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (name, email, password_hash, role, service_type, active)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.ServiceType,
		account.Active,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return mapPgError(err)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET name=$1, email=$2, password_hash=$3, role=NULLIF($4, ''), service_type=$5, active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.ServiceType,
		account.Active,
		account.ID,
	).Scan(&account.UpdatedAt)
	return mapPgError(err)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	// ids are UUIDs; anything else cannot match a row.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query, args, err := psql.Select(accountColumns...).From("accounts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanAccount(r.db.QueryRow(ctx, query, args...))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query, args, err := psql.Select(accountColumns...).From("accounts").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanAccount(r.db.QueryRow(ctx, query, args...))
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error) {
	builder := psql.Select(accountColumns...).From("accounts").OrderBy("created_at DESC")
	if filter.Active != nil {
		builder = builder.Where(sq.Eq{"active": *filter.Active})
	}
	if filter.Role != nil {
		builder = builder.Where(sq.Eq{"COALESCE(role, '')": string(*filter.Role)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		role    string
	)
	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.ServiceType,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	account.Role = domain.Role(role)
	return &account, nil
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrEmailTaken
	}
	return err
}
