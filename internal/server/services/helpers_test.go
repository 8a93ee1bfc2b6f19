package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/decisions"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/validation"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newStore(t *testing.T) repomanager.RepositoryManager {
	t.Helper()
	ctx := context.Background()

	m, err := repomanager.OpenSQLite(ctx, filepath.Join(t.TempDir(), "dk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	if err := m.RunMigrations(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return m
}

func newHashPool(t *testing.T) *auth.HashPool {
	t.Helper()
	h, err := auth.NewPasswordHasher("bcrypt", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	return auth.NewHashPool(h, 4)
}

func newIssuer() *auth.Issuer {
	return auth.NewIssuer([]byte("test-secret"), 24*time.Hour)
}

func newUserService(t *testing.T, m repomanager.RepositoryManager) *UserService {
	t.Helper()
	return NewUserService(m, newHashPool(t), newIssuer(), validation.New())
}

// steppingClock returns a clock advancing by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}

type fakeManager struct {
	users     users.Repository
	decisions decisions.Repository
}

func (f *fakeManager) RunMigrations(context.Context) error { return nil }
func (f *fakeManager) Users() users.Repository             { return f.users }
func (f *fakeManager) Decisions() decisions.Repository     { return f.decisions }
func (f *fakeManager) Ping(context.Context) error          { return nil }
func (f *fakeManager) Close() error                        { return nil }

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(context.Context, string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetUserByID(context.Context, string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

// failingDecisionsRepo fails the test when touched, or returns err.
type failingDecisionsRepo struct {
	t   *testing.T
	err error
}

func (f *failingDecisionsRepo) fail() error {
	if f.err != nil {
		return f.err
	}
	f.t.Helper()
	f.t.Fatal("decisions repository must not be called")
	return nil
}

func (f *failingDecisionsRepo) ListByUser(context.Context, string) ([]*models.Decision, error) {
	return nil, f.fail()
}

func (f *failingDecisionsRepo) Create(context.Context, *models.Decision) (*models.Decision, error) {
	return nil, f.fail()
}

func (f *failingDecisionsRepo) Get(context.Context, string, string) (*models.Decision, error) {
	return nil, f.fail()
}

func (f *failingDecisionsRepo) Update(context.Context, string, string, models.DecisionPatch) (*models.Decision, error) {
	return nil, f.fail()
}

func (f *failingDecisionsRepo) Delete(context.Context, string, string) error {
	return f.fail()
}
