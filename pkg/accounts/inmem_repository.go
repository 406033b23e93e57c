package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemAccountsRepository is an in-memory AccountsRepository used by tests
// and local development.
type InMemAccountsRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	users    map[uuid.UUID]overviewUser
}

type overviewUser struct {
	Email     string
	FirstName string
	LastName  string
}

func NewInMemAccountsRepository() *InMemAccountsRepository {
	return &InMemAccountsRepository{
		accounts: make(map[uuid.UUID]Account),
		users:    make(map[uuid.UUID]overviewUser),
	}
}

// RegisterUser records user details for the admin overview.
func (r *InMemAccountsRepository) RegisterUser(id uuid.UUID, email, firstName, lastName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = overviewUser{Email: email, FirstName: firstName, LastName: lastName}
}

func (r *InMemAccountsRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.UserID == params.UserID && a.RedditUsername == params.RedditUsername {
			return Account{}, ErrDuplicateAccount{RedditUsername: params.RedditUsername}
		}
	}

	now := time.Now().UTC()
	account := Account{
		ID:             uuid.New(),
		UserID:         params.UserID,
		RedditUsername: params.RedditUsername,
		AccessToken:    params.AccessToken,
		RefreshToken:   params.RefreshToken,
		TokenExpires:   params.TokenExpires,
		KarmaCount:     params.KarmaCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.accounts[account.ID] = account
	return account, nil
}

func (r *InMemAccountsRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var accounts []Account
	for _, a := range r.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *InMemAccountsRepository) FindByUserAndUsername(ctx context.Context, userID uuid.UUID, redditUsername string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.UserID == userID && a.RedditUsername == redditUsername {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *InMemAccountsRepository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok || account.UserID != userID {
		return Account{}, ErrNotFound
	}
	return account, nil
}

func (r *InMemAccountsRepository) UpdatePassword(ctx context.Context, id uuid.UUID, sealedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.Password = sealedPassword
	account.UpdatedAt = time.Now().UTC()
	r.accounts[id] = account
	return nil
}

func (r *InMemAccountsRepository) UpdateKarma(ctx context.Context, id uuid.UUID, karmaCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.KarmaCount = karmaCount
	account.UpdatedAt = time.Now().UTC()
	r.accounts[id] = account
	return nil
}

func (r *InMemAccountsRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *InMemAccountsRepository) ListUsersWithAccounts(ctx context.Context) ([]UserOverview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	grouped := map[uuid.UUID][]Account{}
	for _, a := range r.accounts {
		grouped[a.UserID] = append(grouped[a.UserID], a)
	}

	var overviews []UserOverview
	for userID, accounts := range grouped {
		sort.Slice(accounts, func(i, j int) bool {
			return accounts[i].KarmaCount > accounts[j].KarmaCount
		})
		models := make([]AccountModel, len(accounts))
		for i, a := range accounts {
			models[i] = toModel(a)
		}
		overview := UserOverview{UserID: userID.String(), Accounts: models}
		if user, ok := r.users[userID]; ok {
			overview.Email = user.Email
			overview.FirstName = user.FirstName
			overview.LastName = user.LastName
		}
		overviews = append(overviews, overview)
	}
	sort.Slice(overviews, func(i, j int) bool {
		return overviews[i].Email < overviews[j].Email
	})
	return overviews, nil
}
