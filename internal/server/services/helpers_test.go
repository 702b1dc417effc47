package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/notify"
	"github.com/dmitrijs2005/bookkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentEmail struct {
	to, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	n.sent = append(n.sent, sentEmail{to: to, subject: subject, body: body})
	return "id", nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fixture struct {
	clock    *fakeClock
	codec    *auth.Codec
	store    *credentials.Store
	notifier *recordingNotifier
	sessions *SessionService
	accounts *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	codec := auth.NewCodec(auth.Config{
		AccessSecret:  []byte("access"),
		RefreshSecret: []byte("refresh"),
		ActionSecret:  []byte("access"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		ActionTTL:     time.Hour,
		Now:           clock.Now,
	})
	store := credentials.NewStore(repomanager.NewMemoryRepositoryManager(), dbx.NoTx{}, passwords.NewHasher(bcrypt.MinCost))
	n := &recordingNotifier{}
	log := logging.Nop{}

	return &fixture{
		clock:    clock,
		codec:    codec,
		store:    store,
		notifier: n,
		sessions: NewSessionService(store, codec, log),
		accounts: NewAccountService(store, codec, n, notify.NewTemplates("http://localhost:8080", "1h"), log),
	}
}

func signupInput() SignupInput {
	return SignupInput{
		Email: "alice@example.com", Password: "Secret1!",
		Name: "Alice", Surname: "Smith", PersonalIDCode: "39001010000",
	}
}

// verifiedUser signs a user up and verifies the email.
func (f *fixture) verifiedUser(t *testing.T) *models.User {
	t.Helper()
	ctx := context.Background()

	_, err := f.accounts.Signup(ctx, signupInput())
	require.NoError(t, err)
	u := f.user(t, "alice@example.com")
	require.NoError(t, f.accounts.VerifyEmail(ctx, *u.ActionToken))
	return f.user(t, "alice@example.com")
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.store.FindUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}
