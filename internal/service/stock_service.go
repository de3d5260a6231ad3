package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/events"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

// SummaryCache stores the last computed stock summary. Every Invalidate
// advances the generation, and a summary stored under an older generation
// is never returned by Get.
type SummaryCache interface {
	Get(ctx context.Context) (*domain.StockSummary, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, generation int64, summary *domain.StockSummary) error
	Invalidate(ctx context.Context) error
}

// CacheRecorder receives summary cache hits and misses.
type CacheRecorder interface {
	RecordCache(hit bool)
}

// StockService derives aggregate stock figures from the registry.
type StockService struct {
	assets     repository.AssetRepository
	cache      SummaryCache
	dispatcher events.Dispatcher
	metrics    CacheRecorder
	logger     *zap.Logger
}

// StockDependencies bundles collaborators for the stock service. Cache and
// Metrics are optional.
type StockDependencies struct {
	Assets     repository.AssetRepository
	Cache      SummaryCache
	Dispatcher events.Dispatcher
	Metrics    CacheRecorder
	Logger     *zap.Logger
}

// NewStockService constructs the service.
func NewStockService(deps StockDependencies) *StockService {
	return &StockService{
		assets:     deps.Assets,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger),
	}
}

// Summarize returns the stock summary, served from cache when possible.
// Cache failures are logged and fall through to the database. The generation
// is read before the registry so a summary computed across an invalidation
// is stored under the stale generation and ignored.
func (s *StockService) Summarize(ctx context.Context) (*domain.StockSummary, error) {
	cacheable := false
	var generation int64
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("stock summary cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCache(ok)
		}
		if ok {
			return cached, nil
		}
		if generation, err = s.cache.Generation(ctx); err != nil {
			s.logger.Warn("stock summary cache generation read failed", zap.Error(err))
		} else {
			cacheable = true
		}
	}

	buckets, err := s.assets.StockBuckets(ctx)
	if err != nil {
		return nil, err
	}
	summary := SummarizeBuckets(buckets)

	if cacheable {
		if err := s.cache.Set(ctx, generation, summary); err != nil {
			s.logger.Warn("stock summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// RegisterHandlers drops the cached summary whenever the registry changes.
func (s *StockService) RegisterHandlers() {
	if s.dispatcher == nil || s.cache == nil {
		return
	}
	for _, eventType := range events.RegistryEvents {
		s.dispatcher.Subscribe(eventType, s.invalidate)
	}
}

func (s *StockService) invalidate(ctx context.Context, event events.Event) error {
	s.logger.Debug("invalidating stock summary", zap.String("event_type", string(event.Type)))
	return s.cache.Invalidate(ctx)
}

// SummarizeBuckets reduces grouped registry rows into a StockSummary. The
// status breakdown follows domain.AssetStatuses order; categories and
// branches are sorted by name. Every sum starts at zero.
func SummarizeBuckets(buckets []domain.StockBucket) *domain.StockSummary {
	summary := &domain.StockSummary{
		TotalValue: decimal.Zero,
		ByStatus:   []domain.StatusCount{},
		ByCategory: []domain.CategoryStock{},
		ByBranch:   []domain.BranchStock{},
	}

	statusCounts := map[domain.AssetStatus]int{}
	categories := map[string]*domain.CategoryStock{}
	branches := map[string]*domain.BranchStock{}

	for _, b := range buckets {
		summary.TotalAssets += b.Count
		summary.TotalValue = summary.TotalValue.Add(b.TotalValue)
		statusCounts[b.Status] += b.Count

		category, ok := categories[b.CategoryID]
		if !ok {
			category = &domain.CategoryStock{CategoryID: b.CategoryID, CategoryName: b.CategoryName, TotalValue: decimal.Zero}
			categories[b.CategoryID] = category
		}
		category.Count += b.Count
		category.TotalValue = category.TotalValue.Add(b.TotalValue)

		branch, ok := branches[b.Branch]
		if !ok {
			branch = &domain.BranchStock{Branch: b.Branch, TotalValue: decimal.Zero}
			branches[b.Branch] = branch
		}
		branch.Count += b.Count
		branch.TotalValue = branch.TotalValue.Add(b.TotalValue)
	}

	summary.AvailableAssets = statusCounts[domain.AssetStatusAvailable]
	summary.AssignedAssets = statusCounts[domain.AssetStatusAssigned]

	for _, status := range domain.AssetStatuses {
		if count := statusCounts[status]; count > 0 {
			summary.ByStatus = append(summary.ByStatus, domain.StatusCount{Status: status, Count: count})
		}
	}
	for _, category := range categories {
		summary.ByCategory = append(summary.ByCategory, *category)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.CategoryName != b.CategoryName {
			return a.CategoryName < b.CategoryName
		}
		return a.CategoryID < b.CategoryID
	})
	for _, branch := range branches {
		summary.ByBranch = append(summary.ByBranch, *branch)
	}
	sort.Slice(summary.ByBranch, func(i, j int) bool {
		return summary.ByBranch[i].Branch < summary.ByBranch[j].Branch
	})
	return summary
}
