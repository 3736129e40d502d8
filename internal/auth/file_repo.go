package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type state struct {
	AccountsByEmail      map[string]Account      `json:"accountsByEmail"`
	VerificationsByEmail map[string]Verification `json:"verificationsByEmail"`
}

func newState() state {
	return state{
		AccountsByEmail:      map[string]Account{},
		VerificationsByEmail: map[string]Verification{},
	}
}

// FileRepo persists auth state as one JSON file under the data directory.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    state
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{
		path: filepath.Join(dataDir, "auth.json"),
		s:    newState(),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.s = newState()
			return nil
		}
		return err
	}
	var loaded state
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded.AccountsByEmail == nil {
		loaded.AccountsByEmail = map[string]Account{}
	}
	if loaded.VerificationsByEmail == nil {
		loaded.VerificationsByEmail = map[string]Verification{}
	}
	r.s = loaded
	return nil
}

func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, b, 0o644)
}

func (r *FileRepo) PutVerification(v Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.VerificationsByEmail[v.Email] = v
	return r.saveLocked()
}

func (r *FileRepo) GetVerification(email string) (Verification, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.s.VerificationsByEmail[email]
	return v, ok
}

func (r *FileRepo) DeleteVerification(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.s.VerificationsByEmail, email)
	return r.saveLocked()
}

// TouchAccount records a successful login, creating the account on first
// contact.
func (r *FileRepo) TouchAccount(email string, now time.Time) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.s.AccountsByEmail[email]
	if !ok {
		a = Account{Email: email, CreatedAt: now}
	}
	a.LastLogin = now
	r.s.AccountsByEmail[email] = a
	if err := r.saveLocked(); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *FileRepo) GetAccount(email string) (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.s.AccountsByEmail[email]
	return a, ok
}
