// Package remote pushes the full local task collection to the backend
// and applies the authoritative echo back through the store's write
// path. Pushes are debounced: bursts of mutations collapse to one
// network call carrying the latest collection.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fribble186/todos/internal/model"
)

// ErrVerifyCooldown rejects a resend attempted before the cool-down
// elapses. No network call is made.
var ErrVerifyCooldown = errors.New("verification code already sent, wait a moment before resending")

// Store is the slice of the local store the client needs: applying sync
// echoes and managing the persisted identity.
type Store interface {
	ApplyRemote(tasks []model.Task)
	Tasks() []model.Task
	Email() string
	SetEmail(email string) error
}

type Options struct {
	BaseURL string
	// Debounce is the trailing-edge delay coalescing push bursts.
	Debounce time.Duration
	// VerifyCooldown is the minimum gap between sendVerify calls.
	VerifyCooldown time.Duration
	HTTPClient     *http.Client
	Logger         zerolog.Logger
}

type Client struct {
	baseURL  string
	debounce time.Duration
	cooldown time.Duration
	http     *http.Client
	logger   zerolog.Logger

	mu      sync.Mutex
	store   Store
	timer   *time.Timer
	pending *pushPayload
	nextSeq uint64
	// latestSeq stamps the most recently dispatched request; responses
	// carrying an older stamp are discarded so a slow echo can never
	// overwrite state pushed by a newer request.
	latestSeq  uint64
	loading    bool
	lastErr    error
	lastVerify time.Time
}

type pushPayload struct {
	env   model.Envelope
	email string
}

func NewClient(opts Options) *Client {
	if opts.Debounce <= 0 {
		opts.Debounce = 800 * time.Millisecond
	}
	if opts.VerifyCooldown <= 0 {
		opts.VerifyCooldown = 60 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:  opts.BaseURL,
		debounce: opts.Debounce,
		cooldown: opts.VerifyCooldown,
		http:     opts.HTTPClient,
		logger:   opts.Logger,
	}
}

// SetStore connects the local store for echo application and identity.
func (c *Client) SetStore(store Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = store
}

// State exposes the in-flight flag and the last error as observable
// fields. The error is retained until the next dispatch completes; the
// caller decides whether to re-trigger.
func (c *Client) State() (loading bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading, c.lastErr
}

// Push schedules a debounced sync carrying the given collection.
// Repeated calls within the debounce window collapse to one call with
// the latest arguments; superseded payloads are simply dropped.
func (c *Client) Push(env model.Envelope, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = &pushPayload{env: env, email: email}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, c.flush)
		return
	}
	c.timer.Reset(c.debounce)
}

// StartupSync pushes once at startup when a remote identity is already
// persisted. A logged-out store stays local.
func (c *Client) StartupSync() {
	c.mu.Lock()
	store := c.store
	c.mu.Unlock()
	if store == nil {
		return
	}
	email := store.Email()
	if email == "" {
		return
	}
	c.Push(model.Envelope{Data: store.Tasks()}, email)
}

// Flush dispatches any pending push immediately, bypassing the
// debounce, and blocks until the call completes. Used on shutdown so a
// short-lived process does not exit with a scheduled push undelivered.
func (c *Client) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	hasPending := c.pending != nil
	c.mu.Unlock()
	if hasPending {
		c.flush()
	}
}

func (c *Client) flush() {
	c.mu.Lock()
	payload := c.pending
	c.pending = nil
	c.timer = nil
	if payload == nil {
		c.mu.Unlock()
		return
	}
	c.nextSeq++
	seq := c.nextSeq
	c.latestSeq = seq
	c.loading = true
	store := c.store
	c.mu.Unlock()

	tasks, err := c.doSync(payload)

	c.mu.Lock()
	if seq != c.latestSeq {
		// A newer request has been dispatched since; this response is
		// stale either way.
		c.mu.Unlock()
		c.logger.Debug().Uint64("seq", seq).Msg("discarding superseded sync response")
		return
	}
	c.loading = false
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Msg("sync failed, local state remains authoritative")
		return
	}
	if store != nil {
		store.ApplyRemote(tasks)
	}
}

type syncResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    []model.Task `json:"data,omitempty"`
}

func (c *Client) doSync(payload *pushPayload) ([]model.Task, error) {
	body := struct {
		Data  model.Envelope `json:"data"`
		Email string         `json:"email"`
	}{Data: payload.env, Email: payload.email}

	raw, err := c.postJSON("/api/todo/sync", body)
	if err != nil {
		return nil, err
	}

	// The sync response is string-encoded JSON nested once more on the
	// wire; unwrap the outer string before reading the payload.
	inner := raw
	var outer string
	if err := json.Unmarshal(raw, &outer); err == nil {
		inner = []byte(outer)
	}

	var resp syncResponse
	if err := json.Unmarshal(inner, &resp); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}
	if !resp.Success {
		if resp.Message != "" {
			return nil, errors.New(resp.Message)
		}
		return nil, errors.New("sync rejected")
	}
	return resp.Data, nil
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SendVerify requests a verification code for the email. Resends inside
// the cool-down are rejected locally before any network call.
func (c *Client) SendVerify(email string) error {
	c.mu.Lock()
	if !c.lastVerify.IsZero() && time.Since(c.lastVerify) < c.cooldown {
		c.mu.Unlock()
		return ErrVerifyCooldown
	}
	c.mu.Unlock()

	body := struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}{}
	body.Data.Email = email

	raw, err := c.postJSON("/api/verify/sendVerify", body)
	if err != nil {
		return err
	}
	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode verify response: %w", err)
	}
	if !resp.Success {
		if resp.Message != "" {
			return errors.New(resp.Message)
		}
		return errors.New("verification request rejected")
	}

	c.mu.Lock()
	c.lastVerify = time.Now()
	c.mu.Unlock()
	return nil
}

// Login exchanges email and code for an authenticated identity. On
// success the identity is persisted and one sync is triggered.
func (c *Client) Login(email, code string) error {
	body := struct {
		Data struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		} `json:"data"`
	}{}
	body.Data.Email = email
	body.Data.Code = code

	raw, err := c.postJSON("/api/user/login", body)
	if err != nil {
		return err
	}
	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if !resp.Success {
		if resp.Message != "" {
			return errors.New(resp.Message)
		}
		return errors.New("login rejected")
	}

	c.mu.Lock()
	store := c.store
	c.mu.Unlock()
	if store != nil {
		if err := store.SetEmail(email); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
		c.Push(model.Envelope{Data: store.Tasks()}, email)
	}
	return nil
}

func (c *Client) postJSON(path string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return raw, nil
}
