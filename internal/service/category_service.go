package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/events"
	"github.com/spec-kit/asset-tracker/internal/repository"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

// CategoryService manages asset categories.
type CategoryService struct {
	store      *repository.Store
	tx         repository.TxRunner
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CategoryDependencies bundles collaborators for the category service.
type CategoryDependencies struct {
	Store      *repository.Store
	Tx         repository.TxRunner
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CategoryInput carries writable category fields; nil leaves a field unchanged on update.
type CategoryInput struct {
	Name        *string
	Code        *string
	Description *string
	Status      *domain.RecordStatus
}

// NewCategoryService constructs the service.
func NewCategoryService(deps CategoryDependencies) *CategoryService {
	return &CategoryService{
		store:      deps.Store,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// Create adds a category. Codes are stored uppercase.
func (s *CategoryService) Create(ctx context.Context, actorID string, input CategoryInput) (*domain.Category, error) {
	category := &domain.Category{Status: domain.StatusActive}
	if err := applyCategoryInput(category, input, true); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, category, ""); err != nil {
		return nil, err
	}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCategoryChanged, category.ID, actorID, nil))
	return category, nil
}

// Get loads one category.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "category")
	}
	return category, nil
}

// List returns categories ordered by name with their asset counts.
func (s *CategoryService) List(ctx context.Context, filter repository.CategoryFilter) ([]domain.CategoryWithCount, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
	}
	return s.store.Categories.List(ctx, filter)
}

// Update changes a category.
func (s *CategoryService) Update(ctx context.Context, actorID, id string, input CategoryInput) (*domain.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCategoryInput(category, input, false); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, category, id); err != nil {
		return nil, err
	}
	if err := s.store.Categories.Update(ctx, category); err != nil {
		return nil, notFoundAs(err, "category")
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCategoryChanged, id, actorID, nil))
	return category, nil
}

// Delete removes a category no asset references, whatever the assets' status.
func (s *CategoryService) Delete(ctx context.Context, actorID, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		if _, err := st.Categories.GetByID(ctx, id); err != nil {
			return notFoundAs(err, "category")
		}
		count, err := st.Assets.CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewReferentialIntegrity("category is still used by assets",
				map[string]any{"assetCount": count})
		}
		return st.Categories.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCategoryChanged, id, actorID, nil))
	return nil
}

func (s *CategoryService) checkConflict(ctx context.Context, category *domain.Category, excludeID string) error {
	field, err := s.store.Categories.FindConflict(ctx, category.Name, category.Code, excludeID)
	if err != nil {
		return err
	}
	if field != "" {
		return conflictError(field)
	}
	return nil
}

// NormalizeCategoryCode uppercases code and checks it is 2 to 10 characters.
func NormalizeCategoryCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if n := utf8.RuneCountInString(normalized); n < 2 || n > 10 {
		return "", apperrors.NewValidationError("code must be 2 to 10 characters",
			map[string]any{"field": "code"})
	}
	return normalized, nil
}

func applyCategoryInput(category *domain.Category, input CategoryInput, create bool) error {
	if input.Name != nil || create {
		name, err := requiredText("name", deref(input.Name))
		if err != nil {
			return err
		}
		category.Name = name
	}
	if input.Code != nil || create {
		code, err := NormalizeCategoryCode(deref(input.Code))
		if err != nil {
			return err
		}
		category.Code = code
	}
	if input.Description != nil {
		category.Description = optionalText(input.Description)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
		}
		category.Status = *input.Status
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
