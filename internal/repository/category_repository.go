package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// CategoryFilter defines query params for category listing.
type CategoryFilter struct {
	Status *domain.RecordStatus
	Search *string
}

// CategoryRepository manages category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CategoryFilter) ([]domain.CategoryWithCount, error)
	// FindConflict returns "name" or "code" when another category already
	// uses that value, or "" when both are free.
	FindConflict(ctx context.Context, name, code, excludeID string) (string, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, code, description, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		category.Name,
		category.Code,
		category.Description,
		category.Status,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, code=$2, description=$3, status=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		category.Name,
		category.Code,
		category.Description,
		category.Status,
		category.ID,
	).Scan(&category.UpdatedAt)
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, name, code, description, status, created_at, updated_at
        FROM categories WHERE id=$1`
	var category domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Code,
		&category.Description,
		&category.Status,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) List(ctx context.Context, filter CategoryFilter) ([]domain.CategoryWithCount, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("c.status=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, containsPattern(*filter.Search))
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(c.name ILIKE %[1]s ESCAPE '\\' OR c.code ILIKE %[1]s ESCAPE '\\')", placeholder))
	}

	query := fmt.Sprintf(`
        SELECT c.id, c.name, c.code, c.description, c.status, c.created_at, c.updated_at, COUNT(a.id)
        FROM categories c LEFT JOIN assets a ON a.category_id = c.id
        WHERE %s
        GROUP BY c.id
        ORDER BY c.name ASC`, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CategoryWithCount{}
	for rows.Next() {
		var category domain.CategoryWithCount
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Code,
			&category.Description,
			&category.Status,
			&category.CreatedAt,
			&category.UpdatedAt,
			&category.AssetCount,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

func (r *categoryRepository) FindConflict(ctx context.Context, name, code, excludeID string) (string, error) {
	const query = `
        SELECT LOWER(name) = LOWER($1) AS name_taken
        FROM categories
        WHERE (LOWER(name)=LOWER($1) OR code=$2) AND ($3 = '' OR id::text <> $3)
        ORDER BY name_taken DESC
        LIMIT 1`
	var nameTaken bool
	err := r.db.QueryRow(ctx, query, name, code, excludeID).Scan(&nameTaken)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if nameTaken {
		return "name", nil
	}
	return "code", nil
}
