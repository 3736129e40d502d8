package main

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fribble186/todos/internal/config"
	"github.com/fribble186/todos/internal/remote"
	"github.com/fribble186/todos/internal/serverapp"
	"github.com/fribble186/todos/internal/storage"
	"github.com/fribble186/todos/internal/store"
	"github.com/fribble186/todos/internal/window"
)

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendCode(email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[email] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func newBackend(t *testing.T) (*httptest.Server, *captureMailer) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.DataDir = t.TempDir()

	mailer := &captureMailer{}
	app, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: zerolog.Nop(),
		Mailer: mailer,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	return srv, mailer
}

func newLocalClient(t *testing.T, baseURL string) (*store.Store, *remote.Client) {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	st, err := store.New(kv, zerolog.Nop())
	require.NoError(t, err)

	client := remote.NewClient(remote.Options{
		BaseURL:  baseURL,
		Debounce: 10 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})
	client.SetStore(st)
	st.SetSyncer(client)
	return st, client
}

func TestServer_HealthProbes(t *testing.T) {
	srv, _ := newBackend(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"), path)
	}
}

func TestServer_VerifyLoginSyncFlow(t *testing.T) {
	srv, mailer := newBackend(t)
	st, client := newLocalClient(t, srv.URL)

	// Work offline first.
	added := st.Add("write report", window.Day)
	st.MarkDone(added.ID)

	// Verify and log in with the delivered code.
	require.NoError(t, client.SendVerify("a@example.com"))
	code := mailer.code("a@example.com")
	require.Len(t, code, 6)
	require.NoError(t, client.Login("a@example.com", code))
	assert.Equal(t, "a@example.com", st.Email())

	// Login schedules one push; the echo settles without an error.
	require.Eventually(t, func() bool {
		loading, err := client.State()
		return !loading && err == nil && len(st.Tasks()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A mutation while logged in syncs too.
	st.Add("water plants", window.All)
	require.Eventually(t, func() bool {
		loading, err := client.State()
		return !loading && err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, st.Tasks(), 2)
}

func TestServer_LoginRejectsWrongCode(t *testing.T) {
	srv, mailer := newBackend(t)
	_, client := newLocalClient(t, srv.URL)

	require.NoError(t, client.SendVerify("a@example.com"))
	wrong := "000000"
	if mailer.code("a@example.com") == wrong {
		wrong = "000001"
	}
	err := client.Login("a@example.com", wrong)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verification code")
}

func TestServer_SecondDeviceReplaces(t *testing.T) {
	srv, mailer := newBackend(t)

	first, firstClient := newLocalClient(t, srv.URL)
	require.NoError(t, firstClient.SendVerify("a@example.com"))
	require.NoError(t, firstClient.Login("a@example.com", mailer.code("a@example.com")))
	first.Add("from first device", window.All)
	require.Eventually(t, func() bool {
		loading, err := firstClient.State()
		return !loading && err == nil
	}, 2*time.Second, 10*time.Millisecond)

	// The second device pushes its own collection; last write wins.
	second, secondClient := newLocalClient(t, srv.URL)
	require.NoError(t, second.SetEmail("a@example.com"))
	second.Add("from second device", window.All)
	require.Eventually(t, func() bool {
		loading, err := secondClient.State()
		return !loading && err == nil
	}, 2*time.Second, 10*time.Millisecond)

	tasks := second.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "from second device", tasks[0].Content)
}
