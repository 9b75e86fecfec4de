package sales

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage is the main interface for our record store layer.
// Every method is a single round trip against the backing store.
type Storage interface {
	InsertMany(ctx context.Context, txs []*Transaction) (int, error)
	DeleteExcept(ctx context.Context, keep []primitive.ObjectID) (int64, error)
	Find(ctx context.Context, f ListFilter) ([]*Transaction, error)
	CountBySold(ctx context.Context, r MonthRange, sold bool) (int64, error)
	SumSoldPrice(ctx context.Context, r MonthRange) (float64, error)
	PriceHistogram(ctx context.Context, r MonthRange) ([]PriceBucket, error)
	CategoryBreakdown(ctx context.Context, r MonthRange) ([]CategoryCount, error)
}

// LocalStorage provides an in-memory implementation of Storage.
// Records are kept in insertion order, which is also the listing order.
type LocalStorage struct {
	mu  sync.RWMutex
	txs []*Transaction
}

// NewLocalStorage instantiates a new, empty LocalStorage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// InsertMany appends all transactions or none of them.
func (l *LocalStorage) InsertMany(_ context.Context, txs []*Transaction) (int, error) {
	batch := make([]*Transaction, 0, len(txs))
	for i, t := range txs {
		if t == nil {
			return 0, fmt.Errorf("%w: record %d is empty", ErrStore, i)
		}
		c := *t
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		batch = append(batch, &c)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = append(l.txs, batch...)
	return len(batch), nil
}

// DeleteExcept removes every stored record whose id is not in keep.
func (l *LocalStorage) DeleteExcept(_ context.Context, keep []primitive.ObjectID) (int64, error) {
	kept := make(map[primitive.ObjectID]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.txs[:0]
	for _, t := range l.txs {
		if _, ok := kept[t.ID]; ok {
			out = append(out, t)
		}
	}
	n := int64(len(l.txs) - len(out))
	for i := len(out); i < len(l.txs); i++ {
		l.txs[i] = nil
	}
	l.txs = out
	return n, nil
}

// Find returns copies of the matching records after skipping f.Skip of them.
// A zero Limit means no limit.
func (l *LocalStorage) Find(_ context.Context, f ListFilter) ([]*Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Transaction, 0)
	var skipped int64
	for _, t := range l.txs {
		if !f.Range.Contains(t.DateOfSale) || !matchesSearch(t, f.Search) {
			continue
		}
		if skipped < f.Skip {
			skipped++
			continue
		}
		c := *t
		out = append(out, &c)
		if f.Limit > 0 && int64(len(out)) >= f.Limit {
			break
		}
	}
	return out, nil
}

// CountBySold counts in-range records whose sold flag equals sold. Records without a flag are not counted.
func (l *LocalStorage) CountBySold(_ context.Context, r MonthRange, sold bool) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var n int64
	for _, t := range l.txs {
		if r.Contains(t.DateOfSale) && t.Sold != nil && *t.Sold == sold {
			n++
		}
	}
	return n, nil
}

// SumSoldPrice sums the price of sold in-range records.
func (l *LocalStorage) SumSoldPrice(_ context.Context, r MonthRange) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, t := range l.txs {
		if r.Contains(t.DateOfSale) && t.Sold != nil && *t.Sold && t.Price != nil {
			total += *t.Price
		}
	}
	return total, nil
}

// PriceHistogram counts in-range records with a price per fixed bucket, omitting empty buckets.
func (l *LocalStorage) PriceHistogram(_ context.Context, r MonthRange) ([]PriceBucket, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var counts [bucketCount + 1]int64
	for _, t := range l.txs {
		if r.Contains(t.DateOfSale) && t.Price != nil {
			counts[bucketIndex(*t.Price)]++
		}
	}

	out := make([]PriceBucket, 0, len(counts))
	for i, n := range counts {
		if n > 0 {
			out = append(out, bucketAt(i, n))
		}
	}
	return out, nil
}

// CategoryBreakdown counts in-range records per category, sorted by label.
func (l *LocalStorage) CategoryBreakdown(_ context.Context, r MonthRange) ([]CategoryCount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int64)
	for _, t := range l.txs {
		if r.Contains(t.DateOfSale) {
			counts[t.Category]++
		}
	}

	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// matchesSearch applies the listing text predicate: a case-insensitive substring of
// title or description, or a substring of the decimal rendering of price.
func matchesSearch(t *Transaction, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.Title), needle) || strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	return t.Price != nil && strings.Contains(formatPrice(*t.Price), needle)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
