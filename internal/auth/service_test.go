package auth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	emails []string
	codes  []string
}

func (m *captureMailer) SendCode(email, code string) error {
	m.emails = append(m.emails, email)
	m.codes = append(m.codes, code)
	return nil
}

func newServiceForTests(t *testing.T) (*Service, *captureMailer, *time.Time) {
	t.Helper()
	repo, err := NewFileRepo(t.TempDir())
	require.NoError(t, err)

	mailer := &captureMailer{}
	svc := NewService(repo, zerolog.Nop(), ServiceOptions{
		CodeTTL:        10 * time.Minute,
		ResendCooldown: time.Minute,
		MaxAttempts:    3,
		Mailer:         mailer,
	})

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })
	return svc, mailer, &now
}

func TestSendVerify_RejectsInvalidEmail(t *testing.T) {
	svc, mailer, _ := newServiceForTests(t)

	for _, email := range []string{"", "not-an-email"} {
		err := svc.SendVerify(email)
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
	assert.Empty(t, mailer.codes, "invalid addresses must not receive codes")
}

func TestSendVerify_NormalizesAndDelivers(t *testing.T) {
	svc, mailer, _ := newServiceForTests(t)

	require.NoError(t, svc.SendVerify("  A@Example.com  "))
	require.Len(t, mailer.emails, 1)
	assert.Equal(t, "a@example.com", mailer.emails[0])
	assert.Len(t, mailer.codes[0], 6)
}

func TestSendVerify_ResendCooldown(t *testing.T) {
	svc, mailer, now := newServiceForTests(t)

	require.NoError(t, svc.SendVerify("a@example.com"))
	assert.ErrorIs(t, svc.SendVerify("a@example.com"), ErrResendCooldown)
	assert.Len(t, mailer.codes, 1)

	*now = now.Add(2 * time.Minute)
	require.NoError(t, svc.SendVerify("a@example.com"))
	assert.Len(t, mailer.codes, 2)
}

func TestLogin_HappyPathCreatesAccount(t *testing.T) {
	svc, mailer, _ := newServiceForTests(t)
	require.NoError(t, svc.SendVerify("a@example.com"))

	a, err := svc.Login("a@example.com", mailer.codes[0])
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", a.Email)
	assert.False(t, a.LastLogin.IsZero())

	// The code is single-use.
	_, err = svc.Login("a@example.com", mailer.codes[0])
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestLogin_CodeFormat(t *testing.T) {
	svc, _, _ := newServiceForTests(t)

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		_, err := svc.Login("a@example.com", code)
		assert.ErrorIs(t, err, ErrInvalidCodeFormat, code)
	}
}

func TestLogin_ExpiredCode(t *testing.T) {
	svc, mailer, now := newServiceForTests(t)
	require.NoError(t, svc.SendVerify("a@example.com"))

	*now = now.Add(11 * time.Minute)
	_, err := svc.Login("a@example.com", mailer.codes[0])
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestLogin_AttemptCap(t *testing.T) {
	svc, mailer, _ := newServiceForTests(t)
	require.NoError(t, svc.SendVerify("a@example.com"))

	wrong := "000000"
	if mailer.codes[0] == wrong {
		wrong = "000001"
	}

	_, err := svc.Login("a@example.com", wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = svc.Login("a@example.com", wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = svc.Login("a@example.com", wrong)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// The real code no longer works once the cap is hit.
	_, err = svc.Login("a@example.com", mailer.codes[0])
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestFileRepo_SurvivesReload(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepo(dir)
	require.NoError(t, err)

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	_, err = repo.TouchAccount("a@example.com", now)
	require.NoError(t, err)
	require.NoError(t, repo.PutVerification(Verification{
		Email:     "b@example.com",
		CodeHash:  "abc",
		ExpiresAt: now.Add(time.Minute),
	}))

	reloaded, err := NewFileRepo(dir)
	require.NoError(t, err)

	a, ok := reloaded.GetAccount("a@example.com")
	require.True(t, ok)
	assert.Equal(t, now, a.LastLogin.UTC())

	v, ok := reloaded.GetVerification("b@example.com")
	require.True(t, ok)
	assert.Equal(t, "abc", v.CodeHash)
}
