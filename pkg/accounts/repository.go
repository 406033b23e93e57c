package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountsRepository defines the persistence contract for linked accounts.
// Nothing above this layer touches storage directly, and uniqueness of
// (user, reddit username) is enforced here.
type AccountsRepository interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Account, error)
	FindByUserAndUsername(ctx context.Context, userID uuid.UUID, redditUsername string) (Account, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, sealedPassword string) error
	UpdateKarma(ctx context.Context, id uuid.UUID, karmaCount int) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	ListUsersWithAccounts(ctx context.Context) ([]UserOverview, error)
}

// ErrNotFound is the repository-level absence signal, translated to
// ErrAccountNotFound by the service.
var ErrNotFound = errors.New("record not found")

// PostgresAccountsRepository implements AccountsRepository over pgx.
type PostgresAccountsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountsRepository(pool *pgxpool.Pool) *PostgresAccountsRepository {
	return &PostgresAccountsRepository{pool: pool}
}

const accountColumns = `id, user_id, reddit_username, access_token, refresh_token, token_expires, karma_count, password, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var password *string
	err := row.Scan(&a.ID, &a.UserID, &a.RedditUsername, &a.AccessToken, &a.RefreshToken,
		&a.TokenExpires, &a.KarmaCount, &password, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	if password != nil {
		a.Password = *password
	}
	return a, nil
}

func (r *PostgresAccountsRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reddit_account (id, user_id, reddit_username, access_token, refresh_token, token_expires, karma_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+accountColumns,
		uuid.New(), params.UserID, params.RedditUsername, params.AccessToken,
		params.RefreshToken, params.TokenExpires, params.KarmaCount)

	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: the unique (user_id, reddit_username) constraint settles
		// duplicate-creation races.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateAccount{RedditUsername: params.RedditUsername}
		}
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountsRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM reddit_account
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *PostgresAccountsRepository) FindByUserAndUsername(ctx context.Context, userID uuid.UUID, redditUsername string) (Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM reddit_account
		WHERE user_id = $1 AND reddit_username = $2`, userID, redditUsername)
	return scanAccount(row)
}

func (r *PostgresAccountsRepository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM reddit_account
		WHERE id = $1 AND user_id = $2`, id, userID)
	return scanAccount(row)
}

func (r *PostgresAccountsRepository) UpdatePassword(ctx context.Context, id uuid.UUID, sealedPassword string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reddit_account
		SET password = $2, updated_at = now()
		WHERE id = $1`, id, sealedPassword)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountsRepository) UpdateKarma(ctx context.Context, id uuid.UUID, karmaCount int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reddit_account
		SET karma_count = $2, updated_at = now()
		WHERE id = $1`, id, karmaCount)
	if err != nil {
		return fmt.Errorf("failed to update karma: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountsRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reddit_account WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountsRepository) ListUsersWithAccounts(ctx context.Context) ([]UserOverview, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
		       a.id, a.reddit_username, a.karma_count,
		       COALESCE(a.password, '') <> '', a.token_expires, a.created_at
		FROM users u
		JOIN reddit_account a ON a.user_id = u.id
		ORDER BY u.email, a.karma_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with accounts: %w", err)
	}
	defer rows.Close()

	var overviews []UserOverview
	index := map[string]int{}
	for rows.Next() {
		var userID, accountID uuid.UUID
		var overview UserOverview
		var model AccountModel
		err := rows.Scan(&userID, &overview.Email, &overview.FirstName, &overview.LastName,
			&accountID, &model.RedditUsername, &model.KarmaCount,
			&model.HasPassword, &model.TokenExpires, &model.CreatedAt)
		if err != nil {
			return nil, err
		}
		overview.UserID = userID.String()
		model.ID = accountID.String()

		if i, ok := index[overview.UserID]; ok {
			overviews[i].Accounts = append(overviews[i].Accounts, model)
			continue
		}
		overview.Accounts = []AccountModel{model}
		overviews = append(overviews, overview)
		index[overview.UserID] = len(overviews) - 1
	}
	return overviews, rows.Err()
}
