package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrResendCooldown    = errors.New("verification code already sent, wait a moment before resending")
	ErrInvalidCodeFormat = errors.New("verification code must be 6 digits")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrTooManyAttempts   = errors.New("too many invalid attempts, request a new code")
)

// Mailer delivers a verification code to an address. The default
// implementation logs the code, which is enough for local setups.
type Mailer interface {
	SendCode(email, code string) error
}

// LogMailer writes the code to the log instead of sending mail.
type LogMailer struct {
	Logger zerolog.Logger
}

func (m LogMailer) SendCode(email, code string) error {
	m.Logger.Info().Str("email", email).Str("code", code).Msg("verification code issued")
	return nil
}

type Service struct {
	repo   *FileRepo
	mailer Mailer
	logger zerolog.Logger

	codeTTL        time.Duration
	resendCooldown time.Duration
	maxAttempts    int
	now            func() time.Time
}

type ServiceOptions struct {
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	Mailer         Mailer
}

func NewService(repo *FileRepo, logger zerolog.Logger, opts ServiceOptions) *Service {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 10 * time.Minute
	}
	if opts.ResendCooldown <= 0 {
		opts.ResendCooldown = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Mailer == nil {
		opts.Mailer = LogMailer{Logger: logger}
	}
	return &Service{
		repo:           repo,
		mailer:         opts.Mailer,
		logger:         logger,
		codeTTL:        opts.CodeTTL,
		resendCooldown: opts.ResendCooldown,
		maxAttempts:    opts.MaxAttempts,
		now:            time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}
	if strings.ToLower(addr.Address) != email {
		return ErrInvalidEmail
	}
	return nil
}

func validateCode(code string) error {
	if len(code) != 6 {
		return ErrInvalidCodeFormat
	}
	for _, ch := range code {
		if ch < '0' || ch > '9' {
			return ErrInvalidCodeFormat
		}
	}
	return nil
}

func hashCode(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SendVerify issues a fresh code for the email and hands it to the
// mailer. Repeat requests inside the resend cool-down are rejected.
func (s *Service) SendVerify(email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	now := s.now()

	if prev, ok := s.repo.GetVerification(email); ok {
		if now.Sub(prev.RequestedAt) < s.resendCooldown {
			return ErrResendCooldown
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	v := Verification{
		Email:       email,
		CodeHash:    hashCode(email, code),
		RequestedAt: now,
		ExpiresAt:   now.Add(s.codeTTL),
	}
	if err := s.repo.PutVerification(v); err != nil {
		return fmt.Errorf("persist verification: %w", err)
	}
	if err := s.mailer.SendCode(email, code); err != nil {
		return fmt.Errorf("deliver code: %w", err)
	}
	return nil
}

// Login checks the code against the pending verification. A correct code
// consumes the verification and records the login on the account.
func (s *Service) Login(email, code string) (Account, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return Account{}, err
	}
	if err := validateCode(code); err != nil {
		return Account{}, err
	}
	now := s.now()

	v, ok := s.repo.GetVerification(email)
	if !ok {
		return Account{}, ErrInvalidCode
	}
	if now.After(v.ExpiresAt) {
		_ = s.repo.DeleteVerification(email)
		return Account{}, ErrCodeExpired
	}
	if v.Attempts >= s.maxAttempts {
		_ = s.repo.DeleteVerification(email)
		return Account{}, ErrTooManyAttempts
	}
	if hashCode(email, code) != v.CodeHash {
		v.Attempts++
		if v.Attempts >= s.maxAttempts {
			_ = s.repo.DeleteVerification(email)
			return Account{}, ErrTooManyAttempts
		}
		_ = s.repo.PutVerification(v)
		return Account{}, ErrInvalidCode
	}

	if err := s.repo.DeleteVerification(email); err != nil {
		return Account{}, fmt.Errorf("consume verification: %w", err)
	}
	a, err := s.repo.TouchAccount(email, now)
	if err != nil {
		return Account{}, fmt.Errorf("record login: %w", err)
	}
	s.logger.Info().Str("email", email).Msg("login succeeded")
	return a, nil
}
