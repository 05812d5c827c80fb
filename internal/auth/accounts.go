package auth

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned when the email is unknown or the
// password does not match.
var ErrBadCredentials = errors.New("invalid email or password")

// Account is a portal user with a bcrypt password hash.
type Account struct {
	UserID       string
	Email        string
	Role         string
	PasswordHash string
}

// AccountStore resolves login credentials to accounts. Lookups are by
// lowercased email.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewAccountStore creates a store from a list of accounts.
func NewAccountStore(accounts []Account) *AccountStore {
	s := &AccountStore{}
	s.Replace(accounts)
	return s
}

// Replace swaps the account set, e.g. after a config reload.
func (s *AccountStore) Replace(accounts []Account) {
	byEmail := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byEmail[strings.ToLower(a.Email)] = a
	}

	s.mu.Lock()
	s.accounts = byEmail
	s.mu.Unlock()
}

// Authenticate verifies the password against the stored bcrypt hash.
// Unknown emails and wrong passwords return the same error.
func (s *AccountStore) Authenticate(email, password string) (*Account, error) {
	s.mu.RLock()
	account, ok := s.accounts[strings.ToLower(email)]
	s.mu.RUnlock()

	if !ok {
		// Burn a comparison anyway to keep timing uniform.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	return &account, nil
}

// Len returns the number of accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// dummyHash is a bcrypt hash of an arbitrary string, compared against
// when the email is unknown.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
