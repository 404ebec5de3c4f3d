package accounts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	testingpkg "github.com/aristath/tradejournal/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo lets tests control store behaviour
type stubRepo struct {
	AccountRepositoryInterface
	first   func(ctx context.Context, userID string) (*Account, error)
	insert  func(ctx context.Context, userID, name, platform string) (*Account, bool, error)
	lookups atomic.Int32
}

func (s *stubRepo) FirstForUser(ctx context.Context, userID string) (*Account, error) {
	s.lookups.Add(1)
	return s.first(ctx, userID)
}

func (s *stubRepo) InsertDefaultIfAbsent(ctx context.Context, userID, name, platform string) (*Account, bool, error) {
	return s.insert(ctx, userID, name, platform)
}

func newResolver(repo AccountRepositoryInterface, timeout time.Duration) *Resolver {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewResolver(repo, ResolverConfig{
		DefaultName:     "Default Account",
		DefaultPlatform: "import",
		StoreTimeout:    timeout,
	}, events.NewManager(events.NewBus(log), log), log)
}

func TestResolve_ExplicitAccountReturnedUnchanged(t *testing.T) {
	repo := &stubRepo{
		first: func(context.Context, string) (*Account, error) {
			t.Fatal("store must not be consulted for an explicit account")
			return nil, nil
		},
	}
	resolver := newResolver(repo, time.Second)

	id, err := resolver.Resolve(context.Background(), "u1", "acct-that-may-not-exist")
	require.NoError(t, err)
	assert.Equal(t, "acct-that-may-not-exist", id)
}

func TestResolve_RequiresUser(t *testing.T) {
	resolver := newResolver(&stubRepo{}, time.Second)

	_, err := resolver.Resolve(context.Background(), " ", "")
	assert.True(t, errors.Is(err, domain.ErrAccountCreationFailed))
}

func TestResolve_CreatesDefaultOnce(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewAccountRepository(db.Conn(), log)
	resolver := newResolver(repo, time.Second)

	var created []events.Event
	resolver.eventManager.Bus().Subscribe(events.AccountCreated, func(e events.Event) {
		created = append(created, e)
	})

	ctx := context.Background()
	first, err := resolver.Resolve(ctx, "u1", "")
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, "u1", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, "Default Account", list[0].Name)
	assert.Len(t, created, 1)
}

func TestResolve_PrefersExistingAccount(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewAccountRepository(db.Conn(), log)
	existing, err := repo.Create(context.Background(), Account{UserID: "u1", Name: "Manual"})
	require.NoError(t, err)

	id, err := newResolver(repo, time.Second).Resolve(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, id)

	list, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1, "no default is created when an account exists")
}

func TestResolve_ConcurrentCallersCreateOneAccount(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewAccountRepository(db.Conn(), log)

	// Separate resolvers do not share a singleflight group, so only the
	// store's unique index keeps them from creating two defaults
	resolvers := []*Resolver{newResolver(repo, 5*time.Second), newResolver(repo, 5*time.Second)}

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = resolvers[i%2].Resolve(context.Background(), "u1", "")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM accounts WHERE user_id = 'u1'").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestResolve_SingleflightSharesLookup(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	repo := &stubRepo{
		first: func(ctx context.Context, userID string) (*Account, error) {
			once.Do(func() { close(entered) })
			<-release
			return &Account{ID: "acct-1", UserID: userID}, nil
		},
	}
	resolver := newResolver(repo, time.Second)

	var wg sync.WaitGroup
	results := make([]string, 4)
	resolve := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = resolver.Resolve(context.Background(), "u1", "")
		}()
	}

	resolve(0)
	<-entered
	for i := 1; i < len(results); i++ {
		resolve(i)
	}

	// The lookup is parked, so the later callers can only join it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, id := range results {
		assert.Equal(t, "acct-1", id)
	}
	assert.Equal(t, int32(1), repo.lookups.Load())
}

func TestResolve_StoreFailures(t *testing.T) {
	testCases := []struct {
		name string
		repo *stubRepo
		kind *domain.Error
	}{
		{
			name: "lookup error",
			repo: &stubRepo{first: func(context.Context, string) (*Account, error) {
				return nil, errors.New("disk I/O error")
			}},
			kind: domain.ErrAccountCreationFailed,
		},
		{
			name: "insert error",
			repo: &stubRepo{
				first: func(context.Context, string) (*Account, error) { return nil, nil },
				insert: func(context.Context, string, string, string) (*Account, bool, error) {
					return nil, false, errors.New("readonly database")
				},
			},
			kind: domain.ErrAccountCreationFailed,
		},
		{
			name: "lookup exceeds store timeout",
			repo: &stubRepo{first: func(ctx context.Context, _ string) (*Account, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}},
			kind: domain.ErrTimeout,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newResolver(tc.repo, 20*time.Millisecond).Resolve(context.Background(), "u1", "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestResolve_CallerCancellation(t *testing.T) {
	repo := &stubRepo{first: func(ctx context.Context, _ string) (*Account, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	resolver := newResolver(repo, 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := resolver.Resolve(ctx, "u1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
