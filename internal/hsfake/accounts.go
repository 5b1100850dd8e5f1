package hsfake

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/users"
)

// Account is a dashboard user known to the fake backend.
type Account struct {
	User          users.UserInfo
	PasswordHash  string
	TOTPSecret    string // empty means no second factor
	RecoveryCodes []string
	Merchants     map[string]string // merchant id to its default profile id
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (a *Account) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.PasswordHash)
}

// ProfileFor returns the profile id to use for merchantID and whether the account may use it.
func (a *Account) ProfileFor(merchantID string) (string, bool) {
	if merchantID == a.User.MerchantID {
		return a.User.ProfileID, true
	}
	profileID, ok := a.Merchants[merchantID]
	return profileID, ok
}

// useRecoveryCode consumes code; every code works once.
func (a *Account) useRecoveryCode(code string) bool {
	for i, c := range a.RecoveryCodes {
		if c == code {
			a.RecoveryCodes = append(a.RecoveryCodes[:i], a.RecoveryCodes[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Account) clone() Account {
	c := *a
	c.RecoveryCodes = append([]string(nil), a.RecoveryCodes...)
	c.User.Roles = append([]users.Role(nil), a.User.Roles...)
	c.Merchants = make(map[string]string, len(a.Merchants))
	for k, v := range a.Merchants {
		c.Merchants[k] = v
	}
	return c
}

type accountRepo struct {
	accounts map[string]*Account
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*Account),
		emailIds: make(map[string]string),
	}
}

func (ar *accountRepo) Upsert(account *Account) {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	if account.User.ID == "" {
		account.User.ID = uuid.New().String()
	}
	ar.accounts[account.User.ID] = account
	ar.emailIds[account.User.Email] = account.User.ID
}

// GetByEmail returns a copy; changes go through Update.
func (ar *accountRepo) GetByEmail(email string) (Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.emailIds[email]
	if !ok {
		return Account{}, internalerrors.ErrNotFound
	}
	return ar.accounts[id].clone(), nil
}

func (ar *accountRepo) GetByID(id string) (Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	account, ok := ar.accounts[id]
	if !ok {
		return Account{}, internalerrors.ErrNotFound
	}
	return account.clone(), nil
}

// Update applies fn to the account under the write lock.
func (ar *accountRepo) Update(id string, fn func(*Account)) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return internalerrors.ErrNotFound
	}
	fn(account)
	return nil
}

func (ar *accountRepo) Emails() []string {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	emails := make([]string, 0, len(ar.emailIds))
	for email := range ar.emailIds {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}
