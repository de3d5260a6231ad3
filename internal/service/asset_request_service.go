package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/events"
	"github.com/spec-kit/asset-tracker/internal/repository"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

// AssetRequestService runs the request, review and fulfilment workflow.
type AssetRequestService struct {
	store      *repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AssetRequestDependencies bundles collaborators for the request service.
type AssetRequestDependencies struct {
	Store      *repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// AssetRequestInput describes a new request.
type AssetRequestInput struct {
	CategoryID    *string
	AssetType     string
	Justification string
	Priority      *domain.RequestPriority
}

// ReviewInput describes a reviewer decision.
type ReviewInput struct {
	Status          domain.RequestStatus
	ReviewNotes     *string
	AssignedAssetID *string
}

// NewAssetRequestService constructs the service.
func NewAssetRequestService(deps AssetRequestDependencies) *AssetRequestService {
	return &AssetRequestService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create files a request on behalf of the employee whose email matches the
// caller's account.
func (s *AssetRequestService) Create(ctx context.Context, actor *domain.User, input AssetRequestInput) (*domain.AssetRequestEntry, error) {
	assetType, err := requiredText("assetType", input.AssetType)
	if err != nil {
		return nil, err
	}
	justification, err := requiredText("justification", input.Justification)
	if err != nil {
		return nil, err
	}
	priority := domain.PriorityMedium
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority"})
		}
		priority = *input.Priority
	}
	categoryID := optionalText(input.CategoryID)
	if categoryID != nil {
		if err := requireID("categoryId", *categoryID); err != nil {
			return nil, err
		}
		if _, err := s.store.Categories.GetByID(ctx, *categoryID); err != nil {
			return nil, notFoundAs(err, "category")
		}
	}

	employee, err := s.store.Employees.GetByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee record for this account", nil)
		}
		return nil, err
	}

	request := &domain.AssetRequest{
		EmployeeID:    employee.ID,
		RequestedBy:   actor.ID,
		CategoryID:    categoryID,
		AssetType:     assetType,
		Justification: justification,
		Priority:      priority,
		Status:        domain.RequestPending,
	}
	if err := s.store.Requests.Create(ctx, request); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAssetRequestCreated, request.ID, actor.ID,
		events.RequestCreatedPayload{EmployeeID: employee.ID, AssetType: assetType, Priority: priority}))
	return s.store.Requests.GetEntry(ctx, request.ID)
}

// List returns requests newest first. Employees only see their own.
func (s *AssetRequestService) List(ctx context.Context, actor *domain.User, status *domain.RequestStatus) ([]domain.AssetRequestEntry, error) {
	filter := repository.AssetRequestFilter{Status: status}
	if !actor.Role.Privileged() {
		filter.RequestedBy = &actor.ID
	}
	return s.store.Requests.List(ctx, filter)
}

// Get loads one request. Employees may only read their own.
func (s *AssetRequestService) Get(ctx context.Context, actor *domain.User, id string) (*domain.AssetRequestEntry, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	entry, err := s.store.Requests.GetEntry(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "asset request")
	}
	if !actor.Role.Privileged() && entry.RequestedBy != actor.ID {
		return nil, apperrors.NewForbidden("not allowed to view this request")
	}
	return entry, nil
}

// Review records a reviewer decision on a Pending request. A request is
// reviewed at most once.
func (s *AssetRequestService) Review(ctx context.Context, actor *domain.User, id string, input ReviewInput) (*domain.AssetRequestEntry, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if !input.Status.IsReviewOutcome() {
		return nil, apperrors.NewValidationError("status must be Approved, Rejected or Fulfilled",
			map[string]any{"field": "status"})
	}
	assignedAssetID := optionalText(input.AssignedAssetID)
	if assignedAssetID != nil {
		if err := requireID("assignedAssetId", *assignedAssetID); err != nil {
			return nil, err
		}
	}

	request, err := s.store.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "asset request")
	}
	if request.Status != domain.RequestPending {
		return nil, apperrors.NewInvalidState("request has already been reviewed",
			map[string]any{"status": request.Status})
	}
	if assignedAssetID != nil {
		if _, err := s.store.Assets.GetByID(ctx, *assignedAssetID); err != nil {
			return nil, notFoundAs(err, "asset")
		}
	}

	reviewedAt := s.now()
	request.Status = input.Status
	request.ReviewedBy = &actor.ID
	request.ReviewDate = &reviewedAt
	request.ReviewNotes = optionalText(input.ReviewNotes)
	request.AssignedAssetID = assignedAssetID
	if err := s.store.Requests.Review(ctx, request); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidState("request has already been reviewed", nil)
		}
		return nil, err
	}

	s.logger.Info("asset request reviewed",
		zap.String("request_id", id),
		zap.String("status", string(input.Status)),
		zap.String("reviewed_by", actor.ID),
	)
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAssetRequestReviewed, id, actor.ID,
		events.RequestReviewedPayload{Status: input.Status, RequestedBy: request.RequestedBy, AssignedAssetID: assignedAssetID}))
	return s.store.Requests.GetEntry(ctx, id)
}

// Delete removes a request. Requesters may delete their own while Pending;
// Admin and Manager may delete any request.
func (s *AssetRequestService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	request, err := s.store.Requests.GetByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "asset request")
	}
	if !actor.Role.Privileged() {
		if request.RequestedBy != actor.ID {
			return apperrors.NewForbidden("not allowed to delete this request")
		}
		if request.Status != domain.RequestPending {
			return apperrors.NewInvalidState("only pending requests can be deleted",
				map[string]any{"status": request.Status})
		}
		// A review may land between the read above and the delete.
		if err := s.store.Requests.DeletePending(ctx, id, actor.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewInvalidState("only pending requests can be deleted", nil)
			}
			return err
		}
		return nil
	}
	if err := s.store.Requests.Delete(ctx, id); err != nil {
		return notFoundAs(err, "asset request")
	}
	return nil
}

// PendingCount returns the number of requests awaiting review.
func (s *AssetRequestService) PendingCount(ctx context.Context) (int, error) {
	return s.store.Requests.CountByStatus(ctx, domain.RequestPending)
}
