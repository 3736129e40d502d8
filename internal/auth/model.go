package auth

import "time"

// Account is an identity that has completed a code exchange at least once.
type Account struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// Verification is a pending code challenge. Only the hash of the code is
// kept at rest.
type Verification struct {
	Email       string    `json:"email"`
	CodeHash    string    `json:"codeHash"`
	RequestedAt time.Time `json:"requestedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Attempts    int       `json:"attempts"`
}
