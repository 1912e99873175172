package repository

import (
	"strings"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/utils"
)

// Credential is a configured login for one of the fixed operator accounts.
type Credential struct {
	Username    string
	Password    string
	DisplayName string
	Role        string
}

// UserRepo holds the two operator accounts.  The set is fixed at startup
// and never mutated, so no lock is needed.
type UserRepo struct {
	byName map[string]model.User
	byID   map[uint64]model.User
}

// NewUserRepo hashes the configured passwords with bcrypt at the given
// cost and indexes the accounts by normalized username.
func NewUserRepo(creds []Credential, cost int) (*UserRepo, error) {
	r := &UserRepo{byName: make(map[string]model.User), byID: make(map[uint64]model.User)}
	for i, c := range creds {
		hash, err := utils.HashPassword(c.Password, cost)
		if err != nil {
			return nil, err
		}
		u := model.User{
			ID:           uint64(i + 1),
			Username:     normalizeUsername(c.Username),
			DisplayName:  c.DisplayName,
			PasswordHash: hash,
			Role:         c.Role,
		}
		r.byName[u.Username] = u
		r.byID[u.ID] = u
	}
	return r, nil
}

func normalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(username string) (model.User, error) {
	u, ok := r.byName[normalizeUsername(username)]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(id uint64) (model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}
