package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/validation"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := newUserService(t, store)

	sess, err := s.Register(ctx, RegisterInput{Email: "  alice@x.com ", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, "alice@x.com", sess.User.Email)
	id, err := uuid.Parse(sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	assert.Equal(t, sess.User.ID, sess.Claims.UserID())
	assert.Equal(t, "alice@x.com", sess.Claims.Email)
	assert.Equal(t, 24*time.Hour, sess.Claims.ExpiresAt.Sub(sess.Claims.IssuedAt.Time))

	claims, err := newIssuer().Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID())

	stored, err := store.Users().GetUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "secret1")
	ok, err := newHashPool(t).Verify(ctx, "secret1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newUserService(t, newStore(t))

	_, err := s.Register(ctx, RegisterInput{Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = s.Register(ctx, RegisterInput{Email: "alice@x.com", Password: "another"})
	assert.ErrorIs(t, err, common.ErrEmailTaken)

	// Emails are compared as stored.
	_, err = s.Register(ctx, RegisterInput{Email: "Alice@x.com", Password: "another"})
	assert.NoError(t, err)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	s := newUserService(t, newStore(t))

	const n = 6
	var (
		wg    sync.WaitGroup
		ok    atomic.Int32
		taken atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Register(context.Background(), RegisterInput{Email: "race@x.com", Password: "secret1"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrEmailTaken):
				taken.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, taken.Load())
}

func TestRegister_Validation(t *testing.T) {
	s := newUserService(t, &fakeManager{users: &fakeUsersRepo{}})

	tests := []struct {
		name string
		in   RegisterInput
		want []common.FieldIssue
	}{
		{
			name: "bad email",
			in:   RegisterInput{Email: "not-an-email", Password: "secret1"},
			want: []common.FieldIssue{{Path: "email", Message: "Invalid email format"}},
		},
		{
			name: "blank email",
			in:   RegisterInput{Email: "   ", Password: "secret1"},
			want: []common.FieldIssue{{Path: "email", Message: "Invalid email format"}},
		},
		{
			name: "short password",
			in:   RegisterInput{Email: "a@x.com", Password: "12345"},
			want: []common.FieldIssue{{Path: "password", Message: "Password must be at least 6 characters"}},
		},
		{
			name: "both",
			in:   RegisterInput{Email: "x", Password: ""},
			want: []common.FieldIssue{
				{Path: "email", Message: "Invalid email format"},
				{Path: "password", Message: "Password is required"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.in)
			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			if diff := cmp.Diff(tt.want, verr.Issues); diff != "" {
				t.Fatalf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegister_PasswordTooLongForBcrypt(t *testing.T) {
	s := newUserService(t, &fakeManager{users: &fakeUsersRepo{getErr: common.ErrNotFound}})

	_, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: strings.Repeat("p", 73)})
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Issues[0].Path)
}

func TestRegister_StoreErrors(t *testing.T) {
	t.Run("lookup fails", func(t *testing.T) {
		s := newUserService(t, &fakeManager{users: &fakeUsersRepo{getErr: errors.New("db down")}})
		_, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret1"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrEmailTaken)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("constraint wins after pre-check", func(t *testing.T) {
		s := newUserService(t, &fakeManager{users: &fakeUsersRepo{getErr: common.ErrNotFound, createErr: common.ErrEmailTaken}})
		_, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret1"})
		assert.ErrorIs(t, err, common.ErrEmailTaken)
	})

	t.Run("create fails", func(t *testing.T) {
		s := newUserService(t, &fakeManager{users: &fakeUsersRepo{getErr: common.ErrNotFound, createErr: errors.New("disk full")}})
		_, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret1"})
		assert.ErrorContains(t, err, "error creating user: disk full")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s := newUserService(t, newStore(t))

	reg, err := s.Register(ctx, RegisterInput{Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		sess, err := s.Login(ctx, LoginInput{Email: "alice@x.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, sess.User.ID)
		assert.NotEmpty(t, sess.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, LoginInput{Email: "alice@x.com", Password: "wrong"})
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.Login(ctx, LoginInput{Email: "bob@x.com", Password: "secret1"})
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := s.Login(ctx, LoginInput{Email: "alice@x.com"})
		var verr *common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []common.FieldIssue{{Path: "password", Message: "Password is required"}}, verr.Issues)
	})

	t.Run("short password is only checked against the hash", func(t *testing.T) {
		_, err := s.Login(ctx, LoginInput{Email: "alice@x.com", Password: "abc"})
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})
}

func TestLogin_VerifiesHashesOfEitherScheme(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	argon, err := auth.NewArgon2Hasher().Hash("secret1")
	require.NoError(t, err)
	_, err = store.Users().Create(ctx, &models.User{
		ID: uuid.NewString(), Email: "old@x.com", PasswordHash: argon, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	s := NewUserService(store, newHashPool(t), newIssuer(), validation.New())
	_, err = s.Login(ctx, LoginInput{Email: "old@x.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestLogin_LookupError(t *testing.T) {
	s := newUserService(t, &fakeManager{users: &fakeUsersRepo{getErr: errors.New("db down")}})

	_, err := s.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_CancelledWhileWaitingForHashSlot(t *testing.T) {
	h, err := auth.NewPasswordHasher("bcrypt", 4)
	require.NoError(t, err)
	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	repo := &fakeUsersRepo{getOut: &models.User{ID: "u", Email: "a@x.com", PasswordHash: hash}}
	s := NewUserService(&fakeManager{users: repo}, auth.NewHashPool(h, 1), newIssuer(), validation.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, context.Canceled)
}
