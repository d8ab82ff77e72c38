package store_test

import (
	"context"
	"sync"

	"github.com/lib/pq"

	"github.com/perical/identity-postgres/entity"
)

// memDB emulates the relational backing tables, including the uniqueness
// constraints and the all-or-nothing fan-out of the owning update.
type memDB struct {
	mu sync.Mutex

	accounts   map[string]entity.Account[string]
	claims     map[string][]entity.AccountClaim[string]
	logins     map[string][]entity.ExternalLogin[string]
	tokens     map[string][]entity.AccountToken[string]
	roles      map[string]entity.Role[string]
	roleClaims map[string][]entity.RoleClaim[string]
	members    map[string][]string // accountID -> roleIDs

	// failChildWrites makes any update carrying materialized child sets fail
	// before touching state, emulating a constraint violation inside the
	// transaction followed by a clean rollback.
	failChildWrites bool
}

func newMemDB() *memDB {
	return &memDB{
		accounts:   make(map[string]entity.Account[string]),
		claims:     make(map[string][]entity.AccountClaim[string]),
		logins:     make(map[string][]entity.ExternalLogin[string]),
		tokens:     make(map[string][]entity.AccountToken[string]),
		roles:      make(map[string]entity.Role[string]),
		roleClaims: make(map[string][]entity.RoleClaim[string]),
		members:    make(map[string][]string),
	}
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

type fakeAccountsTable struct{ db *memDB }

func (f *fakeAccountsTable) Create(_ context.Context, a *entity.Account[string]) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.accounts[a.ID]; ok {
		return false, uniqueViolation()
	}
	for _, existing := range f.db.accounts {
		if existing.NormalizedUserName == a.NormalizedUserName {
			return false, uniqueViolation()
		}
		if existing.NormalizedEmail != nil && a.NormalizedEmail != nil && *existing.NormalizedEmail == *a.NormalizedEmail {
			return false, uniqueViolation()
		}
	}
	// only columns are stored: the handle buffer never reaches the table
	stored := *a
	stored.ClearPending()
	f.db.accounts[a.ID] = stored
	return true, nil
}

func (f *fakeAccountsTable) FindByID(_ context.Context, id string) (*entity.Account[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if a, ok := f.db.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeAccountsTable) FindByName(_ context.Context, normalized string) (*entity.Account[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range f.db.accounts {
		if a.NormalizedUserName == normalized {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountsTable) FindByEmail(_ context.Context, normalized string) (*entity.Account[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range f.db.accounts {
		if a.NormalizedEmail != nil && *a.NormalizedEmail == normalized {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountsTable) All(_ context.Context) ([]entity.Account[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]entity.Account[string], 0, len(f.db.accounts))
	for _, a := range f.db.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccountsTable) Update(_ context.Context, a *entity.Account[string], ch *entity.Changes[string]) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.accounts[a.ID]; !ok {
		return false, nil
	}
	if f.db.failChildWrites && !ch.Empty() {
		// nothing applied: the whole transaction rolls back
		return false, uniqueViolation()
	}
	stored := *a
	stored.ClearPending()
	f.db.accounts[a.ID] = stored
	if ch.ClaimsLoaded {
		f.db.claims[a.ID] = append([]entity.AccountClaim[string](nil), ch.Claims...)
	}
	if ch.LoginsLoaded {
		f.db.logins[a.ID] = append([]entity.ExternalLogin[string](nil), ch.Logins...)
	}
	if ch.RolesLoaded {
		ids := make([]string, 0, len(ch.Roles))
		for _, role := range ch.Roles {
			ids = append(ids, role.ID)
		}
		f.db.members[a.ID] = ids
	}
	if ch.TokensLoaded {
		f.db.tokens[a.ID] = append([]entity.AccountToken[string](nil), ch.Tokens...)
	}
	return true, nil
}

func (f *fakeAccountsTable) Delete(_ context.Context, id string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.accounts[id]; !ok {
		return false, nil
	}
	delete(f.db.accounts, id)
	delete(f.db.claims, id)
	delete(f.db.logins, id)
	delete(f.db.tokens, id)
	delete(f.db.members, id)
	return true, nil
}

type fakeAccountClaimsTable struct{ db *memDB }

func (f *fakeAccountClaimsTable) ForAccount(_ context.Context, accountID string) ([]entity.AccountClaim[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return append([]entity.AccountClaim[string](nil), f.db.claims[accountID]...), nil
}

func (f *fakeAccountClaimsTable) AccountsForClaim(_ context.Context, claimType, claimValue string) ([]entity.Account[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []entity.Account[string]
	for id, claims := range f.db.claims {
		for _, c := range claims {
			if c.ClaimType == claimType && c.ClaimValue == claimValue {
				out = append(out, f.db.accounts[id])
				break
			}
		}
	}
	return out, nil
}

type fakeExternalLoginsTable struct{ db *memDB }

func (f *fakeExternalLoginsTable) ForAccount(_ context.Context, accountID string) ([]entity.ExternalLogin[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return append([]entity.ExternalLogin[string](nil), f.db.logins[accountID]...), nil
}

func (f *fakeExternalLoginsTable) FindAccountID(_ context.Context, provider, key string) (string, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for id, logins := range f.db.logins {
		for _, l := range logins {
			if l.LoginProvider == provider && l.ProviderKey == key {
				return id, true, nil
			}
		}
	}
	return "", false, nil
}

type fakeAccountTokensTable struct{ db *memDB }

func (f *fakeAccountTokensTable) ForAccount(_ context.Context, accountID string) ([]entity.AccountToken[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return append([]entity.AccountToken[string](nil), f.db.tokens[accountID]...), nil
}

type fakeAccountRolesTable struct{ db *memDB }

func (f *fakeAccountRolesTable) RolesForAccount(_ context.Context, accountID string) ([]entity.Role[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []entity.Role[string]
	for _, roleID := range f.db.members[accountID] {
		out = append(out, f.db.roles[roleID])
	}
	return out, nil
}

func (f *fakeAccountRolesTable) AccountsInRole(_ context.Context, normalizedRoleName string) ([]entity.Account[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var roleID string
	for id, role := range f.db.roles {
		if role.NormalizedName == normalizedRoleName {
			roleID = id
			break
		}
	}
	var out []entity.Account[string]
	for accountID, roleIDs := range f.db.members {
		for _, id := range roleIDs {
			if id == roleID && roleID != "" {
				out = append(out, f.db.accounts[accountID])
				break
			}
		}
	}
	return out, nil
}

type fakeRolesTable struct{ db *memDB }

func (f *fakeRolesTable) Create(_ context.Context, role *entity.Role[string]) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.roles[role.ID]; ok {
		return false, uniqueViolation()
	}
	for _, existing := range f.db.roles {
		if existing.NormalizedName == role.NormalizedName {
			return false, uniqueViolation()
		}
	}
	stored := *role
	stored.ClearPending()
	f.db.roles[role.ID] = stored
	return true, nil
}

func (f *fakeRolesTable) FindByID(_ context.Context, id string) (*entity.Role[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if role, ok := f.db.roles[id]; ok {
		return &role, nil
	}
	return nil, nil
}

func (f *fakeRolesTable) FindByName(_ context.Context, normalized string) (*entity.Role[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, role := range f.db.roles {
		if role.NormalizedName == normalized {
			out := role
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRolesTable) All(_ context.Context) ([]entity.Role[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]entity.Role[string], 0, len(f.db.roles))
	for _, role := range f.db.roles {
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeRolesTable) Update(_ context.Context, role *entity.Role[string], ch *entity.RoleChanges[string]) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.roles[role.ID]; !ok {
		return false, nil
	}
	if f.db.failChildWrites && !ch.Empty() {
		return false, uniqueViolation()
	}
	stored := *role
	stored.ClearPending()
	f.db.roles[role.ID] = stored
	if ch.ClaimsLoaded {
		f.db.roleClaims[role.ID] = append([]entity.RoleClaim[string](nil), ch.Claims...)
	}
	return true, nil
}

func (f *fakeRolesTable) Delete(_ context.Context, id string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.roles[id]; !ok {
		return false, nil
	}
	delete(f.db.roles, id)
	delete(f.db.roleClaims, id)
	return true, nil
}

type fakeRoleClaimsTable struct{ db *memDB }

func (f *fakeRoleClaimsTable) ForRole(_ context.Context, roleID string) ([]entity.RoleClaim[string], error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return append([]entity.RoleClaim[string](nil), f.db.roleClaims[roleID]...), nil
}
