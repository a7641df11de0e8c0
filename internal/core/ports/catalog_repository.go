package ports

import (
	"context"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

// ListSlugsFilter narrows category and genre listings.
type ListSlugsFilter struct {
	Search string // optional: partial match on name
	Page   Page
}

// CategoryRepository persists categories keyed by unique slug.
type CategoryRepository interface {
	List(ctx context.Context, filter ListSlugsFilter) ([]domain.Category, int64, error)
	Create(ctx context.Context, c domain.Category) error
	Delete(ctx context.Context, slug string) error
	FindBySlugs(ctx context.Context, slugs []string) ([]domain.Category, error)
}

// GenreRepository persists genres keyed by unique slug.
type GenreRepository interface {
	List(ctx context.Context, filter ListSlugsFilter) ([]domain.Genre, int64, error)
	Create(ctx context.Context, g domain.Genre) error
	Delete(ctx context.Context, slug string) error
	FindBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error)
}

// ListTitlesFilter carries the optional title listing filters.
type ListTitlesFilter struct {
	Category string // category slug
	Genre    string // genre slug
	Name     string // partial match on name
	Year     *int   // nil = any
	Page     Page
}

// TitleRepository persists titles.
type TitleRepository interface {
	List(ctx context.Context, filter ListTitlesFilter) ([]*domain.Title, int64, error)
	FindByID(ctx context.Context, id string) (*domain.Title, error)
	Create(ctx context.Context, t *domain.Title) error
	Update(ctx context.Context, t *domain.Title) error
	// Delete removes the title together with its reviews and their comments.
	Delete(ctx context.Context, id string) error
	// UnsetCategory clears the category of every title that uses slug.
	UnsetCategory(ctx context.Context, slug string) error
	// PullGenre removes slug from the genres of every title.
	PullGenre(ctx context.Context, slug string) error
}
