package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ghinsight/ghinsight/pkg/cache"
	"github.com/ghinsight/ghinsight/pkg/domain"
	"github.com/ghinsight/ghinsight/pkg/gateway"
	"github.com/ghinsight/ghinsight/pkg/ratelimit"
)

// fakeGateway implements gateway.AccountGateway with canned responses, call
// counting, and a real in-memory cache behind the cache operations. The
// mutex keeps it safe under the concurrent profile fan-out.
type fakeGateway struct {
	mu sync.Mutex

	account    domain.Account
	accountErr error
	findCalls  int
	lastLogin  string

	// onFind runs inside FindByID/FindRepositories, before returning.
	// Tests use it to issue a superseding request mid-flight.
	onFind func()

	repos        []domain.Repository
	reposErr     error
	repoCalls    int
	lastListOpts gateway.ListOptions

	searchAccounts []domain.Account
	searchTotal    int
	searchErr      error
	searchCalls    int

	exists bool

	store *cache.Store
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{store: cache.NewStore()}
}

func (f *fakeGateway) FindByID(ctx context.Context, login string) (domain.Account, error) {
	f.mu.Lock()
	f.findCalls++
	f.lastLogin = login
	hook := f.onFind
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.account, f.accountErr
}

func (f *fakeGateway) FindRepositories(ctx context.Context, login string, opts gateway.ListOptions) ([]domain.Repository, error) {
	f.mu.Lock()
	f.repoCalls++
	f.lastLogin = login
	f.lastListOpts = opts
	hook := f.onFind
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.repos, f.reposErr
}

func (f *fakeGateway) SearchAccounts(ctx context.Context, query string, opts gateway.SearchOptions) ([]domain.Account, int, error) {
	f.mu.Lock()
	f.searchCalls++
	hook := f.onFind
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.searchAccounts, f.searchTotal, f.searchErr
}

func (f *fakeGateway) Exists(ctx context.Context, login string) bool {
	f.mu.Lock()
	f.lastLogin = login
	f.mu.Unlock()
	return f.exists
}

func (f *fakeGateway) RateLimit(ctx context.Context) (ratelimit.State, error) {
	return ratelimit.State{Limit: 5000, Remaining: 4999}, nil
}

func (f *fakeGateway) CacheValue(key cache.Key, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	f.store.Set(key.String(), data, ttl)
}

func (f *fakeGateway) CachedValue(key cache.Key, out any) bool {
	data, ok := f.store.Get(key.String())
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (f *fakeGateway) Invalidate(login string) {
	f.store.Flush()
}

func (f *fakeGateway) InvalidateAll() {
	f.store.Flush()
}
