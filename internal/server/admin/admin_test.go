package admin

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server"
	"github.com/dmitrijs2005/bookkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/bookkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// seeded returns memory storage holding bob@example.com with two sessions.
func seeded(t *testing.T) (*server.Storage, *credentials.Store) {
	t.Helper()
	ctx := context.Background()

	st := &server.Storage{Repos: repomanager.NewMemoryRepositoryManager(), Tx: dbx.NoTx{}}
	store := credentials.NewStore(st.Repos, st.Tx, passwords.NewHasher(bcrypt.MinCost))

	u, err := store.CreateUser(ctx, credentials.NewUser{
		Name: "Bob", Surname: "Stone", PersonalIDCode: "38001010000",
		Email: "bob@example.com", Password: "Original1!",
	})
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour)
	_, err = store.CreateRefreshToken(ctx, "rt-1", u.ID, exp)
	require.NoError(t, err)
	_, err = store.CreateRefreshToken(ctx, "rt-2", u.ID, exp)
	require.NoError(t, err)

	return st, store
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(answers) {
			return nil, errors.New("no more input")
		}
		i++
		return []byte(answers[i-1]), nil
	}
}

func stubStorage(t *testing.T, st *server.Storage) {
	t.Helper()
	orig := openStorage
	t.Cleanup(func() { openStorage = orig })
	openStorage = func(context.Context, string) (*server.Storage, error) { return st, nil }
}

func TestAdmin_SetPassword(t *testing.T) {
	_, store := seeded(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, New(store, &out).SetPassword(ctx, "BOB@example.com", "Replaced2@"))
	assert.Contains(t, out.String(), "2 session(s) revoked")

	u, err := store.FindUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, store.ComparePassword(u.PasswordHash, "Replaced2@"))
	assert.False(t, store.ComparePassword(u.PasswordHash, "Original1!"))

	_, err = store.FindActiveRefreshToken(ctx, "rt-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAdmin_SetPassword_Errors(t *testing.T) {
	_, store := seeded(t)
	ctx := context.Background()
	a := New(store, &bytes.Buffer{})

	assert.ErrorIs(t, a.SetPassword(ctx, "ghost@example.com", "Replaced2@"), common.ErrUserNotFound)
	assert.ErrorIs(t, a.SetPassword(ctx, "bob@example.com", "weak"), common.ErrValidation)

	_, err := store.FindActiveRefreshToken(ctx, "rt-1")
	assert.NoError(t, err, "sessions survive a rejected password")
}

func TestAdmin_RevokeSessions(t *testing.T) {
	_, store := seeded(t)
	ctx := context.Background()
	a := New(store, &bytes.Buffer{})

	n, err := a.RevokeSessions(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = a.RevokeSessions(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = a.RevokeSessions(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestPromptNewPassword(t *testing.T) {
	stubPasswords(t, "Replaced2@", "Replaced2@")
	var out bytes.Buffer
	pw, err := PromptNewPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "Replaced2@", pw)
	assert.Contains(t, out.String(), "Repeat password")

	stubPasswords(t, "Replaced2@", "Different3#")
	_, err = PromptNewPassword(&bytes.Buffer{})
	assert.ErrorIs(t, err, errPasswordMismatch)

	stubPasswords(t)
	_, err = PromptNewPassword(&bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_SetPassword(t *testing.T) {
	st, store := seeded(t)
	stubStorage(t, st)
	stubPasswords(t, "Replaced2@", "Replaced2@")

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"-d", "memory", "-k", "4", "set-password", "-email", "bob@example.com"}, &out))

	u, err := store.FindUserByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.True(t, store.ComparePassword(u.PasswordHash, "Replaced2@"))
}

func TestRun_RevokeSessions(t *testing.T) {
	st, _ := seeded(t)
	stubStorage(t, st)

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"revoke-sessions", "-email", "bob@example.com"}, &out))
	assert.Contains(t, out.String(), "2 session(s) revoked")
}

func TestRun_Usage(t *testing.T) {
	st, _ := seeded(t)
	stubStorage(t, st)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"drop-everything"}},
		{"missing email", []string{"revoke-sessions"}},
		{"bad flag", []string{"-x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(context.Background(), tt.args, &bytes.Buffer{})
			assert.ErrorIs(t, err, errUsage)
		})
	}
}
