package ports

import (
	"context"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

// TitleInput carries the writable fields of a title. Nil pointers are left
// unchanged on update and rejected as missing on create.
type TitleInput struct {
	Name        *string
	Year        *int
	Description *string
	Genres      *[]string
	Category    *string
}

// TitleView is a title with its category and genres expanded and its
// rating computed at read time.
type TitleView struct {
	ID          string
	Name        string
	Year        int
	Description string
	Rating      *float64
	Genres      []domain.Genre
	Category    *domain.Category
}

// CatalogService manages categories, genres and titles.
type CatalogService interface {
	ListCategories(ctx context.Context, filter ListSlugsFilter) (*PageResult[domain.Category], error)
	CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, slug string) error

	ListGenres(ctx context.Context, filter ListSlugsFilter) (*PageResult[domain.Genre], error)
	CreateGenre(ctx context.Context, g domain.Genre) (*domain.Genre, error)
	DeleteGenre(ctx context.Context, slug string) error

	ListTitles(ctx context.Context, filter ListTitlesFilter) (*PageResult[TitleView], error)
	GetTitle(ctx context.Context, id string) (*TitleView, error)
	CreateTitle(ctx context.Context, in TitleInput) (*TitleView, error)
	UpdateTitle(ctx context.Context, id string, in TitleInput) (*TitleView, error)
	DeleteTitle(ctx context.Context, id string) error
}
