package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghinsight/ghinsight/internal/testutil"
	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/cache"
	"github.com/ghinsight/ghinsight/pkg/domain"
	"github.com/ghinsight/ghinsight/pkg/ratelimit"
	"github.com/ghinsight/ghinsight/pkg/transport"
)

// setupGateway wires a gateway against a mock API with fast retries.
func setupGateway(t *testing.T) (*Gateway, *testutil.MockAPI, *cache.Store) {
	t.Helper()

	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)

	cfg := transport.DefaultConfig(mock.URL())
	cfg.RetryDelay = 1 * time.Millisecond

	tracker := ratelimit.NewTracker()
	client, err := transport.New(cfg, tracker)
	require.NoError(t, err)

	store := cache.NewStore()
	gw, err := New(client, store, tracker)
	require.NoError(t, err)

	return gw, mock, store
}

func TestFindByID(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetAccount("octocat", testutil.AccountFixture("octocat"))

	account, err := gw.FindByID(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, "octocat", account.Login)
	assert.Equal(t, int64(583231), account.ID)
	assert.Equal(t, 4000, account.Followers)
	assert.True(t, account.RecentlyActive())
}

func TestFindByID_NotFound(t *testing.T) {
	gw, mock, _ := setupGateway(t)

	_, err := gw.FindByID(context.Background(), "nobody")
	var nf *apierr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nobody", nf.Identifier)

	// A 404 is fatal: exactly one remote call.
	assert.Equal(t, 1, mock.RequestCount())
}

func TestFindByID_MalformedPayload(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetAccount("octocat", `{"name": "no identity fields"}`)

	_, err := gw.FindByID(context.Background(), "octocat")
	var te *apierr.TransportError
	require.ErrorAs(t, err, &te, "malformed remote payload must surface as a transport concern")
}

func TestFindRepositories(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetRepositories("octocat", fmt.Sprintf("[%s,%s]",
		testutil.RepositoryFixture(1, "hello-world", "Go", 250, false),
		testutil.RepositoryFixture(2, "boysenberry-repo", "Ruby", 12, true),
	))

	repos, err := gw.FindRepositories(context.Background(), "octocat", ListOptions{
		Page: 1, PerPage: 30, Sort: "updated", Direction: "desc",
	})
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Equal(t, "hello-world", repos[0].Name)
	assert.Equal(t, "octocat", repos[0].Owner)
	assert.True(t, repos[1].Fork)
}

func TestFindRepositories_QueryParameters(t *testing.T) {
	gw, mock, _ := setupGateway(t)

	var gotQuery string
	mock.SetHandler("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	})

	_, err := gw.FindRepositories(context.Background(), "octocat", ListOptions{
		Page: 2, PerPage: 50, Sort: "created", Direction: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, "direction=asc&page=2&per_page=50&sort=created", gotQuery)
}

func TestFindRepositories_NonArrayBody(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetRepositories("octocat", `{"message": "unexpected shape"}`)

	repos, err := gw.FindRepositories(context.Background(), "octocat", ListOptions{})
	require.NoError(t, err, "non-array body is a warning, not an error")
	assert.Empty(t, repos)
}

func TestFindRepositories_SkipsInvalidEntries(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetRepositories("octocat", fmt.Sprintf(`[%s, {"name": "missing-everything"}]`,
		testutil.RepositoryFixture(1, "hello-world", "Go", 5, false)))

	repos, err := gw.FindRepositories(context.Background(), "octocat", ListOptions{})
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "hello-world", repos[0].Name)
}

func TestSearchAccounts(t *testing.T) {
	gw, mock, _ := setupGateway(t)

	var gotQuery string
	mock.SetHandler("/search/users", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"total_count": 42, "items": [
			{"id": 1, "login": "octocat"},
			{"id": 2, "login": "octodog"},
			{"login": "missing-id"}
		]}`))
	})

	accounts, total, err := gw.SearchAccounts(context.Background(), "octo", SearchOptions{
		Page: 1, PerPage: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 42, total)
	require.Len(t, accounts, 2, "invalid entries are skipped")
	assert.Equal(t, "octocat", accounts[0].Login)

	// Best-match ordering: sort omitted from the remote call.
	assert.NotContains(t, gotQuery, "sort=")
	assert.Contains(t, gotQuery, "q=octo")
}

func TestExists(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetAccount("octocat", testutil.AccountFixture("octocat"))

	assert.True(t, gw.Exists(context.Background(), "octocat"))
	assert.False(t, gw.Exists(context.Background(), "nobody"))
}

func TestExists_BestEffortOnServerError(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetResponse("/users/flaky", testutil.MockResponse{StatusCode: http.StatusInternalServerError})

	// Existence checks never throw, even when the failure is not a 404.
	assert.False(t, gw.Exists(context.Background(), "flaky"))
}

func TestRateLimit_ProbesEndpoint(t *testing.T) {
	gw, mock, _ := setupGateway(t)

	state, err := gw.RateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000, state.Limit)
	assert.Equal(t, 1, mock.PathCount("/rate_limit"))
}

func TestRateLimit_ServesFreshSnapshot(t *testing.T) {
	gw, mock, _ := setupGateway(t)
	mock.SetAccount("octocat", testutil.AccountFixture("octocat"))

	// A regular request populates the tracker from response headers.
	_, err := gw.FindByID(context.Background(), "octocat")
	require.NoError(t, err)

	state, err := gw.RateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4999, state.Remaining)
	assert.Zero(t, mock.PathCount("/rate_limit"), "fresh snapshot must not trigger a probe")
}

func TestCacheRoundTrip(t *testing.T) {
	gw, _, _ := setupGateway(t)

	account := domain.Account{ID: 1, Login: "octocat", Followers: 10}
	gw.CacheValue(AccountKey("octocat"), account, time.Minute)

	var got domain.Account
	require.True(t, gw.CachedValue(AccountKey("octocat"), &got))
	assert.Equal(t, account, got)
}

func TestCachedValue_DropsCorruptEntry(t *testing.T) {
	gw, _, store := setupGateway(t)
	store.Set(AccountKey("octocat").String(), []byte(`{not json`), time.Minute)

	var got domain.Account
	assert.False(t, gw.CachedValue(AccountKey("octocat"), &got))

	_, stillThere := store.Get(AccountKey("octocat").String())
	assert.False(t, stillThere, "corrupt entry must be dropped")
}

func TestInvalidate(t *testing.T) {
	gw, _, store := setupGateway(t)

	gw.CacheValue(AccountKey("octocat"), domain.Account{Login: "octocat"}, 0)
	gw.CacheValue(RepositoriesKey("octocat", map[string]string{"page": "1"}), []string{}, 0)
	gw.CacheValue(AccountKey("other"), domain.Account{Login: "other"}, 0)

	gw.Invalidate(" Octocat ")

	assert.Equal(t, 1, store.StoreStats().Size, "only the other login survives")
	var untouched domain.Account
	assert.True(t, gw.CachedValue(AccountKey("other"), &untouched))
}

func TestInvalidateAll(t *testing.T) {
	gw, _, store := setupGateway(t)
	gw.CacheValue(AccountKey("a"), domain.Account{}, 0)
	gw.CacheValue(AccountKey("b"), domain.Account{}, 0)

	gw.InvalidateAll()
	assert.Zero(t, store.StoreStats().Size)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, cache.NewStore(), ratelimit.NewTracker())
	assert.Error(t, err)

	var notTyped *apierr.ValidationError
	assert.False(t, errors.As(err, &notTyped), "constructor errors are plain errors")
}
