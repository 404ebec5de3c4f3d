package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountRepositoryInterface defines the contract for account repository operations
type AccountRepositoryInterface interface {
	Create(ctx context.Context, account Account) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	ListByUser(ctx context.Context, userID string) ([]Account, error)
	FirstForUser(ctx context.Context, userID string) (*Account, error)
	InsertDefaultIfAbsent(ctx context.Context, userID, name, platform string) (*Account, bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	Exists(ctx context.Context, userID, id string) (bool, error)
}

// Compile-time check that AccountRepository implements AccountRepositoryInterface
var _ AccountRepositoryInterface = (*AccountRepository)(nil)

// ErrDefaultExists is returned by Create when the user already owns a default account
var ErrDefaultExists = errors.New("user already has a default account")

// accountsColumns must match scanAccount
const accountsColumns = `id, user_id, name, platform, is_default, created_at`

// AccountRepository handles account database operations
type AccountRepository struct {
	ledgerDB *sql.DB // ledger.db - accounts table
	log      zerolog.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(ledgerDB *sql.DB, log zerolog.Logger) *AccountRepository {
	return &AccountRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "account").Logger(),
	}
}

// Create inserts a new account. Empty ids are generated.
func (r *AccountRepository) Create(ctx context.Context, account Account) (*Account, error) {
	if strings.TrimSpace(account.UserID) == "" {
		return nil, fmt.Errorf("failed to create account: user id is required")
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO accounts (id, user_id, name, platform, is_default, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.ExecContext(ctx, query,
		account.ID,
		account.UserID,
		account.Name,
		account.Platform,
		boolToInt(account.IsDefault),
		account.CreatedAt.Unix(),
	)
	if err != nil {
		if account.IsDefault && isUniqueViolation(err) {
			return nil, ErrDefaultExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	r.log.Info().
		Str("account_id", account.ID).
		Str("user_id", account.UserID).
		Bool("is_default", account.IsDefault).
		Msg("Account created")

	return &account, nil
}

// GetByID retrieves an account by id. Returns nil if not found.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts WHERE id = ?"

	account, err := scanAccount(r.ledgerDB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListByUser returns every account owned by userID, default first then oldest first
func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]Account, error) {
	query := "SELECT " + accountsColumns + ` FROM accounts
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at ASC, rowid ASC`

	rows, err := r.ledgerDB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// FirstForUser returns the account trades default to: the user's default
// account if any, otherwise the oldest one. Returns nil if the user has none.
func (r *AccountRepository) FirstForUser(ctx context.Context, userID string) (*Account, error) {
	query := "SELECT " + accountsColumns + ` FROM accounts
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at ASC, rowid ASC
		LIMIT 1`

	account, err := scanAccount(r.ledgerDB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first account: %w", err)
	}
	return &account, nil
}

// InsertDefaultIfAbsent atomically creates the user's default account.
// When another caller won the race the existing default is read back and
// created is false.
func (r *AccountRepository) InsertDefaultIfAbsent(ctx context.Context, userID, name, platform string) (*Account, bool, error) {
	candidate := Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Platform:  platform,
		IsDefault: true,
		CreatedAt: time.Now(),
	}

	// idx_accounts_one_default turns the second insert into a no-op
	query := `
		INSERT INTO accounts (id, user_id, name, platform, is_default, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT DO NOTHING
	`
	result, err := r.ledgerDB.ExecContext(ctx, query,
		candidate.ID, candidate.UserID, candidate.Name, candidate.Platform, candidate.CreatedAt.Unix())
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert default account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 1 {
		r.log.Info().
			Str("account_id", candidate.ID).
			Str("user_id", userID).
			Msg("Default account created")
		return &candidate, true, nil
	}

	existing, err := r.getDefault(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("default account insert was skipped but no default exists for user %s", userID)
	}
	return existing, false, nil
}

func (r *AccountRepository) getDefault(ctx context.Context, userID string) (*Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts WHERE user_id = ? AND is_default = 1"

	account, err := scanAccount(r.ledgerDB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default account: %w", err)
	}
	return &account, nil
}

// Delete removes an account owned by userID. Trades booked against it become orphans.
func (r *AccountRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.ledgerDB.ExecContext(ctx, "DELETE FROM accounts WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		r.log.Info().Str("account_id", id).Str("user_id", userID).Msg("Account deleted")
	}
	return affected > 0, nil
}

// Exists reports whether userID owns an account with the given id
func (r *AccountRepository) Exists(ctx context.Context, userID, id string) (bool, error) {
	var exists int
	err := r.ledgerDB.QueryRowContext(ctx,
		"SELECT 1 FROM accounts WHERE id = ? AND user_id = ? LIMIT 1", id, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(s scanner) (Account, error) {
	var (
		account   Account
		platform  sql.NullString
		isDefault int
		createdAt int64
	)

	if err := s.Scan(&account.ID, &account.UserID, &account.Name, &platform, &isDefault, &createdAt); err != nil {
		return Account{}, err
	}

	account.Platform = platform.String
	account.IsDefault = isDefault == 1
	account.CreatedAt = time.Unix(createdAt, 0).UTC()
	return account, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation matches the constraint error text of both SQLite drivers
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
