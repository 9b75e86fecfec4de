package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"api_transactions/internal/sales"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const samplePayload = `[
  {"id":1,"title":"Fjallraven Backpack","price":329.85,"description":"Your perfect pack","category":"men's clothing","image":"https://example.com/1.jpg","sold":false,"dateOfSale":"2023-03-27T20:29:54+05:30"},
  {"id":2,"title":"Slim Fit T-Shirt","price":150,"description":"Slim-fitting style","category":"men's clothing","sold":true,"dateOfSale":"2023-03-01T00:00:00Z"},
  {"id":3,"title":"No price","description":"missing fields","category":"electronics","dateOfSale":"2023-04-02T10:00:00Z"}
]`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestLoader(t *testing.T, storage sales.Storage, opts Options) *Loader {
	t.Helper()
	l := NewLoader(storage, zaptest.NewLogger(t), opts)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

type brokenStorage struct {
	sales.Storage
}

func (brokenStorage) InsertMany(context.Context, []*sales.Transaction) (int, error) {
	return 0, errors.New("store error: insert refused")
}

func TestInitialize_InsertsEveryRecord(t *testing.T) {
	srv := serve(t, http.StatusOK, samplePayload)
	storage := sales.NewLocalStorage()
	l := newTestLoader(t, storage, Options{URL: srv.URL, Timeout: 5 * time.Second})

	res, err := l.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Zero(t, res.Deleted)

	march, err := sales.ResolveMonth("3", 2023)
	require.NoError(t, err)
	txs, err := storage.Find(context.Background(), sales.ListFilter{Range: march})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	first := txs[0]
	assert.Equal(t, "Fjallraven Backpack", first.Title)
	require.NotNil(t, first.Price)
	assert.Equal(t, 329.85, *first.Price)
	require.NotNil(t, first.Sold)
	assert.False(t, *first.Sold)
	assert.Equal(t, time.UTC, first.DateOfSale.Location())
	assert.True(t, time.Date(2023, time.March, 27, 14, 59, 54, 0, time.UTC).Equal(first.DateOfSale), "got %v", first.DateOfSale)

	april, err := sales.ResolveMonth("4", 2023)
	require.NoError(t, err)
	txs, err = storage.Find(context.Background(), sales.ListFilter{Range: april})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].Price)
	assert.Nil(t, txs[0].Sold)
}

func TestInitialize_IsAdditiveByDefault(t *testing.T) {
	srv := serve(t, http.StatusOK, samplePayload)
	storage := sales.NewLocalStorage()
	l := newTestLoader(t, storage, Options{URL: srv.URL})

	_, err := l.Initialize(context.Background())
	require.NoError(t, err)
	_, err = l.Initialize(context.Background())
	require.NoError(t, err)

	march, _ := sales.ResolveMonth("3", 2023)
	txs, err := storage.Find(context.Background(), sales.ListFilter{Range: march})
	require.NoError(t, err)
	assert.Len(t, txs, 4)
}

func TestInitialize_ReplaceDropsPreviousLoad(t *testing.T) {
	srv := serve(t, http.StatusOK, samplePayload)
	storage := sales.NewLocalStorage()
	l := newTestLoader(t, storage, Options{URL: srv.URL, Replace: true})

	_, err := l.Initialize(context.Background())
	require.NoError(t, err)
	res, err := l.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Deleted)
	assert.Equal(t, 3, res.Inserted)

	march, _ := sales.ResolveMonth("3", 2023)
	txs, err := storage.Find(context.Background(), sales.ListFilter{Range: march})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

// flakyStorage rejects inserts once fail is set.
type flakyStorage struct {
	*sales.LocalStorage
	fail bool
}

func (f *flakyStorage) InsertMany(ctx context.Context, txs []*sales.Transaction) (int, error) {
	if f.fail {
		return 0, errors.New("store error: insert refused")
	}
	return f.LocalStorage.InsertMany(ctx, txs)
}

func TestInitialize_ReplaceKeepsPreviousDataWhenInsertFails(t *testing.T) {
	srv := serve(t, http.StatusOK, samplePayload)
	storage := &flakyStorage{LocalStorage: sales.NewLocalStorage()}
	l := newTestLoader(t, storage, Options{URL: srv.URL, Replace: true})

	_, err := l.Initialize(context.Background())
	require.NoError(t, err)

	storage.fail = true
	_, err = l.Initialize(context.Background())
	require.Error(t, err)

	march, _ := sales.ResolveMonth("3", 2023)
	txs, err := storage.Find(context.Background(), sales.ListFilter{Range: march})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestInitialize_NonSuccessStatusIsFetchError(t *testing.T) {
	srv := serve(t, http.StatusForbidden, `<Error>AccessDenied</Error>`)
	l := newTestLoader(t, sales.NewLocalStorage(), Options{URL: srv.URL})

	_, err := l.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sales.ErrFetch), "got %v", err)
}

func TestInitialize_UnreachableSourceIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	l := newTestLoader(t, sales.NewLocalStorage(), Options{URL: url, Timeout: 2 * time.Second})
	_, err := l.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sales.ErrFetch), "got %v", err)
}

func TestInitialize_MalformedPayloadIsValidationError(t *testing.T) {
	for name, body := range map[string]string{
		"object":    `{"title":"not an array"}`,
		"truncated": `[{"title":"x"`,
		"null item": `[null]`,
		"bad date":  `[{"title":"x","dateOfSale":"yesterday"}]`,
		"bad price": `[{"title":"x","price":"cheap"}]`,
		"empty":     ``,
	} {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, body)
			storage := sales.NewLocalStorage()
			l := newTestLoader(t, storage, Options{URL: srv.URL})

			_, err := l.Initialize(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, sales.ErrValidation), "got %v", err)
		})
	}
}

func TestInitialize_StoreErrorPropagates(t *testing.T) {
	srv := serve(t, http.StatusOK, samplePayload)
	l := newTestLoader(t, brokenStorage{}, Options{URL: srv.URL})

	_, err := l.Initialize(context.Background())
	assert.EqualError(t, err, "store error: insert refused")
}

func TestNewLoader_DefaultsURL(t *testing.T) {
	l := newTestLoader(t, sales.NewLocalStorage(), Options{})
	assert.Equal(t, DefaultURL, l.opts.URL)
}
