// Package catalog fetches the external product-sale catalog and loads it into the record store.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"api_transactions/internal/sales"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"resty.dev/v3"
)

// DefaultURL is the public catalog the service was built against.
const DefaultURL = "https://s3.amazonaws.com/roxiler.com/product_transaction.json"

// Options configures a Loader.
type Options struct {
	URL     string
	Timeout time.Duration
	// Replace removes the previously stored records once the new batch is
	// inserted; otherwise loads are additive.
	Replace bool
}

// Result reports what one Initialize call did.
type Result struct {
	Inserted int
	Deleted  int64
}

// Loader performs the one-shot catalog import.
type Loader struct {
	client  *resty.Client
	storage sales.Storage
	logger  *zap.Logger
	opts    Options
}

// record mirrors one catalog entry. Fields the store does not keep (id, image) are ignored.
type record struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       *float64   `json:"price"`
	Category    string     `json:"category"`
	DateOfSale  *time.Time `json:"dateOfSale"`
	Sold        *bool      `json:"sold"`
}

// NewLoader creates a new Loader.
func NewLoader(storage sales.Storage, logger *zap.Logger, opts Options) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &Loader{
		client:  client,
		storage: storage,
		logger:  logger,
		opts:    opts,
	}
}

// Close releases the HTTP client.
func (l *Loader) Close() error {
	return l.client.Close()
}

// Initialize fetches the catalog and inserts every record into the store.
func (l *Loader) Initialize(ctx context.Context) (Result, error) {
	body, err := l.fetch(ctx)
	if err != nil {
		l.logger.Error("failed to fetch catalog", zap.String("url", l.opts.URL), zap.Error(err))
		return Result{}, err
	}

	txs, err := decode(body)
	if err != nil {
		l.logger.Error("catalog payload rejected", zap.String("url", l.opts.URL), zap.Error(err))
		return Result{}, err
	}

	// Ids are assigned up front so a replace load can keep exactly this batch.
	ids := make([]primitive.ObjectID, 0, len(txs))
	for _, t := range txs {
		t.ID = primitive.NewObjectID()
		ids = append(ids, t.ID)
	}

	var res Result
	if res.Inserted, err = l.storage.InsertMany(ctx, txs); err != nil {
		l.logger.Error("failed to insert catalog", zap.Int("records", len(txs)), zap.Error(err))
		return Result{}, err
	}

	if l.opts.Replace {
		if res.Deleted, err = l.storage.DeleteExcept(ctx, ids); err != nil {
			l.logger.Error("failed to remove previous catalog", zap.Int("inserted", res.Inserted), zap.Error(err))
			return Result{}, err
		}
	}

	l.logger.Info("catalog loaded",
		zap.String("url", l.opts.URL),
		zap.Int("inserted", res.Inserted),
		zap.Int64("deleted", res.Deleted),
	)
	return res, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(l.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sales.ErrFetch, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("%w: catalog source answered %d", sales.ErrFetch, code)
	}
	return []byte(resp.String()), nil
}

func decode(body []byte) ([]*sales.Transaction, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("%w: catalog payload is not a JSON array", sales.ErrValidation)
	}

	var recs []*record
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("%w: malformed catalog payload: %v", sales.ErrValidation, err)
	}

	txs := make([]*sales.Transaction, 0, len(recs))
	for i, r := range recs {
		if r == nil {
			return nil, fmt.Errorf("%w: catalog entry %d is null", sales.ErrValidation, i)
		}
		t := &sales.Transaction{
			Title:       r.Title,
			Description: r.Description,
			Price:       r.Price,
			Category:    r.Category,
			Sold:        r.Sold,
		}
		if r.DateOfSale != nil {
			t.DateOfSale = r.DateOfSale.UTC()
		}
		txs = append(txs, t)
	}
	return txs, nil
}
