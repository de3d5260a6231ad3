package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/events"
	"github.com/spec-kit/asset-tracker/internal/repository"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

// TransitionRecorder receives committed lifecycle transitions.
type TransitionRecorder interface {
	RecordTransition(action, status string)
}

// LifecycleService is the only writer of Asset.Status outside manual repair
// completion. Every transition updates the asset and appends one history
// record inside a single transaction.
type LifecycleService struct {
	store      *repository.Store
	tx         repository.TxRunner
	dispatcher events.Dispatcher
	metrics    TransitionRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Store      *repository.Store
	Tx         repository.TxRunner
	Dispatcher events.Dispatcher
	Metrics    TransitionRecorder
	Logger     *zap.Logger
}

// IssueInput describes an issue request.
type IssueInput struct {
	AssetID    string
	EmployeeID string
	Condition  *domain.AssetCondition
	Notes      *string
}

// ReturnInput describes a return request.
type ReturnInput struct {
	AssetID   string
	Condition *domain.AssetCondition
	Reason    *string
	Notes     *string
}

// ScrapInput describes a scrap request.
type ScrapInput struct {
	AssetID string
	Reason  string
	Notes   *string
}

// HistoryQuery filters the audit trail.
type HistoryQuery struct {
	AssetID    *string
	EmployeeID *string
	Action     *domain.HistoryAction
	StartDate  *time.Time
	EndDate    *time.Time
	PageRequest
}

// HistoryPage is one page of history entries.
type HistoryPage struct {
	Entries []domain.HistoryEntry
	Total   int
	Page    int
	Pages   int
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		store:      deps.Store,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// transition is the committed outcome of one lifecycle operation.
type transition struct {
	entry *domain.HistoryEntry
	from  domain.AssetStatus
	to    domain.AssetStatus
}

// Issue assigns an Available asset to an active employee.
func (s *LifecycleService) Issue(ctx context.Context, actorID string, input IssueInput) (*domain.HistoryEntry, error) {
	if err := requireID("assetId", input.AssetID); err != nil {
		return nil, err
	}
	if err := requireID("employeeId", input.EmployeeID); err != nil {
		return nil, err
	}
	if err := validateCondition(input.Condition); err != nil {
		return nil, err
	}

	var result transition
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		asset, err := st.Assets.LockByID(ctx, input.AssetID)
		if err != nil {
			return notFoundAs(err, "asset")
		}
		if asset.Status != domain.AssetStatusAvailable {
			return apperrors.NewInvalidState("asset is not available for issue",
				map[string]any{"status": asset.Status})
		}

		employee, err := st.Employees.GetByID(ctx, input.EmployeeID)
		if err != nil {
			return notFoundAs(err, "employee")
		}
		if employee.Status != domain.StatusActive {
			return apperrors.NewInvalidState("employee is inactive",
				map[string]any{"employeeId": employee.ID})
		}

		condition := asset.Condition
		if input.Condition != nil {
			condition = *input.Condition
		}

		result, err = s.apply(ctx, st, asset, domain.AssetStatusAssigned, &domain.AssetHistory{
			AssetID:     asset.ID,
			EmployeeID:  &employee.ID,
			Action:      domain.ActionIssue,
			Condition:   &condition,
			PerformedBy: &actorID,
			Notes:       optionalText(input.Notes),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.EventAssetIssued, actorID, result)
	return result.entry, nil
}

// Return takes an Assigned asset back. The asset goes to Under Repair when
// the supplied condition is Poor or the reason mentions repair, otherwise it
// becomes Available again.
func (s *LifecycleService) Return(ctx context.Context, actorID string, input ReturnInput) (*domain.HistoryEntry, error) {
	if err := requireID("assetId", input.AssetID); err != nil {
		return nil, err
	}
	if err := validateCondition(input.Condition); err != nil {
		return nil, err
	}
	reason := optionalText(input.Reason)

	var result transition
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		asset, err := st.Assets.LockByID(ctx, input.AssetID)
		if err != nil {
			return notFoundAs(err, "asset")
		}
		if asset.Status != domain.AssetStatusAssigned {
			return apperrors.NewInvalidState("asset is not currently assigned",
				map[string]any{"status": asset.Status})
		}

		var employeeID *string
		lastIssue, err := st.History.LatestByAction(ctx, asset.ID, domain.ActionIssue)
		switch {
		case err == nil:
			employeeID = lastIssue.EmployeeID
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		condition := asset.Condition
		if input.Condition != nil {
			condition = *input.Condition
		}

		result, err = s.apply(ctx, st, asset, ReturnStatus(input.Condition, reason), &domain.AssetHistory{
			AssetID:     asset.ID,
			EmployeeID:  employeeID,
			Action:      domain.ActionReturn,
			Condition:   &condition,
			Reason:      reason,
			PerformedBy: &actorID,
			Notes:       optionalText(input.Notes),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.EventAssetReturned, actorID, result)
	return result.entry, nil
}

// ReturnStatus decides where a returned asset goes. Only a condition supplied
// with the return counts; the asset's previous condition does not.
func ReturnStatus(condition *domain.AssetCondition, reason *string) domain.AssetStatus {
	if condition != nil && *condition == domain.ConditionPoor {
		return domain.AssetStatusUnderRepair
	}
	if reason != nil && strings.Contains(strings.ToLower(*reason), "repair") {
		return domain.AssetStatusUnderRepair
	}
	return domain.AssetStatusAvailable
}

// Scrap retires an asset that is not assigned. The condition is forced to Poor.
func (s *LifecycleService) Scrap(ctx context.Context, actorID string, input ScrapInput) (*domain.HistoryEntry, error) {
	if err := requireID("assetId", input.AssetID); err != nil {
		return nil, err
	}
	reason, err := requiredText("reason", input.Reason)
	if err != nil {
		return nil, err
	}

	var result transition
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		asset, err := st.Assets.LockByID(ctx, input.AssetID)
		if err != nil {
			return notFoundAs(err, "asset")
		}
		switch asset.Status {
		case domain.AssetStatusAssigned:
			return apperrors.NewInvalidState("assigned asset must be returned before scrapping",
				map[string]any{"status": asset.Status})
		case domain.AssetStatusScrapped:
			return apperrors.NewInvalidState("asset is already scrapped",
				map[string]any{"status": asset.Status})
		}

		condition := domain.ConditionPoor
		result, err = s.apply(ctx, st, asset, domain.AssetStatusScrapped, &domain.AssetHistory{
			AssetID:     asset.ID,
			Action:      domain.ActionScrap,
			Condition:   &condition,
			Reason:      &reason,
			PerformedBy: &actorID,
			Notes:       optionalText(input.Notes),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.EventAssetScrapped, actorID, result)
	return result.entry, nil
}

// apply writes the new status and the history record, then loads the joined
// entry, all on the transaction-bound store.
func (s *LifecycleService) apply(ctx context.Context, st *repository.Store, asset *domain.Asset, to domain.AssetStatus, record *domain.AssetHistory) (transition, error) {
	if err := st.Assets.SetStatus(ctx, asset.ID, to, *record.Condition); err != nil {
		return transition{}, err
	}
	record.ActionDate = s.now()
	if err := st.History.Create(ctx, record); err != nil {
		return transition{}, err
	}
	entry, err := st.History.GetEntry(ctx, record.ID)
	if err != nil {
		return transition{}, err
	}
	return transition{entry: entry, from: asset.Status, to: to}, nil
}

func (s *LifecycleService) committed(ctx context.Context, eventType events.EventType, actorID string, t transition) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(t.entry.Action), string(t.to))
	}
	s.logger.Info("asset lifecycle transition",
		zap.String("asset_id", t.entry.AssetID),
		zap.String("action", string(t.entry.Action)),
		zap.String("from", string(t.from)),
		zap.String("to", string(t.to)),
		zap.String("performed_by", actorID),
	)
	publish(ctx, s.dispatcher, s.logger, events.New(eventType, t.entry.AssetID, actorID, events.TransitionPayload{
		HistoryID:  t.entry.ID,
		Action:     t.entry.Action,
		FromStatus: t.from,
		ToStatus:   t.to,
		EmployeeID: t.entry.EmployeeID,
		Reason:     t.entry.Reason,
	}))
}

// Timeline returns every history record of one asset, newest first.
func (s *LifecycleService) Timeline(ctx context.Context, assetID string) ([]domain.HistoryEntry, error) {
	if err := requireID("assetId", assetID); err != nil {
		return nil, err
	}
	if _, err := s.store.Assets.GetByID(ctx, assetID); err != nil {
		return nil, notFoundAs(err, "asset")
	}
	return s.store.History.Timeline(ctx, assetID)
}

// ListHistory returns one page of the filtered audit trail.
func (s *LifecycleService) ListHistory(ctx context.Context, query HistoryQuery) (*HistoryPage, error) {
	filter, err := historyFilter(query)
	if err != nil {
		return nil, err
	}
	page, limit, offset := query.normalize(20)
	filter.Limit, filter.Offset = limit, offset

	entries, err := s.store.History.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.store.History.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Entries: entries, Total: total, Page: page, Pages: PageCount(total, limit)}, nil
}

// ReportEntries returns every history record matching query, newest first,
// ignoring pagination.
func (s *LifecycleService) ReportEntries(ctx context.Context, query HistoryQuery) ([]domain.HistoryEntry, error) {
	filter, err := historyFilter(query)
	if err != nil {
		return nil, err
	}
	filter.All = true
	return s.store.History.List(ctx, filter)
}

func historyFilter(query HistoryQuery) (repository.HistoryFilter, error) {
	if query.AssetID != nil {
		if err := requireID("assetId", *query.AssetID); err != nil {
			return repository.HistoryFilter{}, err
		}
	}
	if query.EmployeeID != nil {
		if err := requireID("employeeId", *query.EmployeeID); err != nil {
			return repository.HistoryFilter{}, err
		}
	}
	if query.Action != nil && !query.Action.Valid() {
		return repository.HistoryFilter{}, apperrors.NewValidationError("invalid action",
			map[string]any{"field": "action", "value": *query.Action})
	}
	if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
		return repository.HistoryFilter{}, apperrors.NewValidationError("endDate is before startDate",
			map[string]any{"field": "endDate"})
	}
	return repository.HistoryFilter{
		AssetID:    query.AssetID,
		EmployeeID: query.EmployeeID,
		Action:     query.Action,
		StartDate:  query.StartDate,
		EndDate:    query.EndDate,
	}, nil
}

func validateCondition(condition *domain.AssetCondition) error {
	if condition != nil && !condition.Valid() {
		return apperrors.NewValidationError("invalid condition",
			map[string]any{"field": "condition", "value": *condition})
	}
	return nil
}
