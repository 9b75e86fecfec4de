package sales

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// DefaultReferenceYear is the year every month query is resolved in.
const DefaultReferenceYear = 2023

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Service answers month-scoped listing and aggregate queries on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
	year    int
}

// ListParams are the inputs of a listing query.
type ListParams struct {
	Month   string
	Search  string
	Page    int
	PerPage int
}

// NewService creates a new Service. A zero year selects DefaultReferenceYear.
func NewService(storage Storage, logger *zap.Logger, year int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if year == 0 {
		year = DefaultReferenceYear
	}
	return &Service{
		storage: storage,
		logger:  logger,
		year:    year,
	}
}

// Year returns the reference year months are resolved in.
func (s *Service) Year() int { return s.year }

// ListTransactions returns one page of the month's records matching Search.
func (s *Service) ListTransactions(ctx context.Context, p ListParams) ([]*Transaction, error) {
	r, err := ResolveMonth(p.Month, s.year)
	if err != nil {
		return nil, err
	}
	if p.Page < 1 {
		return nil, fmt.Errorf("%w: page must be a positive integer, got %d", ErrValidation, p.Page)
	}
	if p.PerPage < 1 {
		return nil, fmt.Errorf("%w: perPage must be a positive integer, got %d", ErrValidation, p.PerPage)
	}
	if int64(p.Page-1) > math.MaxInt64/int64(p.PerPage) {
		return nil, fmt.Errorf("%w: page %d is too large for perPage %d", ErrValidation, p.Page, p.PerPage)
	}

	txs, err := s.storage.Find(ctx, ListFilter{
		Range:  r,
		Search: p.Search,
		Skip:   int64(p.Page-1) * int64(p.PerPage),
		Limit:  int64(p.PerPage),
	})
	if err != nil {
		s.logger.Error("failed to list transactions", zap.String("month", p.Month), zap.String("search", p.Search), zap.Error(err))
		return nil, err
	}

	s.logger.Debug("transactions listed",
		zap.String("month", p.Month),
		zap.String("search", p.Search),
		zap.Int("page", p.Page),
		zap.Int("per_page", p.PerPage),
		zap.Int("results_count", len(txs)),
	)
	return txs, nil
}

// Statistics computes the month's sold count, unsold count and sold revenue.
func (s *Service) Statistics(ctx context.Context, month string) (Statistics, error) {
	r, err := ResolveMonth(month, s.year)
	if err != nil {
		return Statistics{}, err
	}

	var stats Statistics
	if stats.TotalSoldItems, err = s.storage.CountBySold(ctx, r, true); err != nil {
		s.logger.Error("failed to count sold items", zap.String("month", month), zap.Error(err))
		return Statistics{}, err
	}
	if stats.TotalNotSoldItems, err = s.storage.CountBySold(ctx, r, false); err != nil {
		s.logger.Error("failed to count unsold items", zap.String("month", month), zap.Error(err))
		return Statistics{}, err
	}
	if stats.TotalSaleAmount, err = s.storage.SumSoldPrice(ctx, r); err != nil {
		s.logger.Error("failed to sum sale amount", zap.String("month", month), zap.Error(err))
		return Statistics{}, err
	}
	return stats, nil
}

// PriceHistogram returns the month's non-empty price buckets in ascending order.
func (s *Service) PriceHistogram(ctx context.Context, month string) ([]PriceBucket, error) {
	r, err := ResolveMonth(month, s.year)
	if err != nil {
		return nil, err
	}
	buckets, err := s.storage.PriceHistogram(ctx, r)
	if err != nil {
		s.logger.Error("failed to build price histogram", zap.String("month", month), zap.Error(err))
		return nil, err
	}
	return buckets, nil
}

// CategoryBreakdown returns the month's record count per category, sorted by category.
func (s *Service) CategoryBreakdown(ctx context.Context, month string) ([]CategoryCount, error) {
	r, err := ResolveMonth(month, s.year)
	if err != nil {
		return nil, err
	}
	cats, err := s.storage.CategoryBreakdown(ctx, r)
	if err != nil {
		s.logger.Error("failed to build category breakdown", zap.String("month", month), zap.Error(err))
		return nil, err
	}
	return cats, nil
}
