package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// CatalogService manages categories, genres and titles. Access control is
// the transport layer's job; everything here assumes an admin for writes.
type CatalogService struct {
	categories ports.CategoryRepository
	genres     ports.GenreRepository
	titles     ports.TitleRepository
	reviews    ports.ReviewRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewCatalogService(
	categories ports.CategoryRepository,
	genres ports.GenreRepository,
	titles ports.TitleRepository,
	reviews ports.ReviewRepository,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		genres:     genres,
		titles:     titles,
		reviews:    reviews,
		log:        log,
		now:        time.Now,
	}
}

// --- Categories ---

func (s *CatalogService) ListCategories(ctx context.Context, filter ports.ListSlugsFilter) (*ports.PageResult[domain.Category], error) {
	filter.Page = filter.Page.Normalize()
	items, total, err := s.categories.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return ports.NewPageResult(items, total, filter.Page), nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if err := validateSlugged(c.Name, c.Slug); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().Str("slug", c.Slug).Msg("category created")
	return &c, nil
}

// DeleteCategory removes a category; titles in it are left without one.
func (s *CatalogService) DeleteCategory(ctx context.Context, slug string) error {
	if err := s.categories.Delete(ctx, slug); err != nil {
		return err
	}
	if err := s.titles.UnsetCategory(ctx, slug); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.log.Info().Str("slug", slug).Msg("category deleted")
	return nil
}

// --- Genres ---

func (s *CatalogService) ListGenres(ctx context.Context, filter ports.ListSlugsFilter) (*ports.PageResult[domain.Genre], error) {
	filter.Page = filter.Page.Normalize()
	items, total, err := s.genres.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return ports.NewPageResult(items, total, filter.Page), nil
}

func (s *CatalogService) CreateGenre(ctx context.Context, g domain.Genre) (*domain.Genre, error) {
	if err := validateSlugged(g.Name, g.Slug); err != nil {
		return nil, err
	}
	if err := s.genres.Create(ctx, g); err != nil {
		return nil, err
	}
	s.log.Info().Str("slug", g.Slug).Msg("genre created")
	return &g, nil
}

// DeleteGenre removes a genre and drops it from every title.
func (s *CatalogService) DeleteGenre(ctx context.Context, slug string) error {
	if err := s.genres.Delete(ctx, slug); err != nil {
		return err
	}
	if err := s.titles.PullGenre(ctx, slug); err != nil {
		return fmt.Errorf("delete genre: %w", err)
	}
	s.log.Info().Str("slug", slug).Msg("genre deleted")
	return nil
}

// --- Titles ---

// ListTitles returns a page of titles with ratings computed for the whole
// page in one aggregation.
func (s *CatalogService) ListTitles(ctx context.Context, filter ports.ListTitlesFilter) (*ports.PageResult[ports.TitleView], error) {
	filter.Page = filter.Page.Normalize()
	titles, total, err := s.titles.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}

	ids := make([]string, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}
	ratings, err := s.reviews.AverageScores(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list titles: ratings: %w", err)
	}

	views := make([]ports.TitleView, 0, len(titles))
	for _, t := range titles {
		var rating *float64
		if avg, ok := ratings[t.ID]; ok {
			rating = &avg
		}
		view, err := s.expand(ctx, t, rating)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return ports.NewPageResult(views, total, filter.Page), nil
}

func (s *CatalogService) GetTitle(ctx context.Context, id string) (*ports.TitleView, error) {
	t, err := s.titles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rating, err := s.reviews.AverageScore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get title: rating: %w", err)
	}
	return s.expand(ctx, t, rating)
}

func (s *CatalogService) CreateTitle(ctx context.Context, in ports.TitleInput) (*ports.TitleView, error) {
	if in.Name == nil {
		return nil, domain.NewFieldError("name", "is required")
	}
	if in.Year == nil {
		return nil, domain.NewFieldError("year", "is required")
	}
	if in.Genres == nil {
		return nil, domain.NewFieldError("genre", "is required")
	}
	if in.Category == nil {
		return nil, domain.NewFieldError("category", "is required")
	}

	t := &domain.Title{ID: uuid.NewString()}
	if err := s.apply(ctx, t, in); err != nil {
		return nil, err
	}
	if err := s.titles.Create(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info().Str("title_id", t.ID).Str("name", t.Name).Msg("title created")
	return s.expand(ctx, t, nil)
}

func (s *CatalogService) UpdateTitle(ctx context.Context, id string, in ports.TitleInput) (*ports.TitleView, error) {
	t, err := s.titles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, t, in); err != nil {
		return nil, err
	}
	if err := s.titles.Update(ctx, t); err != nil {
		return nil, err
	}
	rating, err := s.reviews.AverageScore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update title: rating: %w", err)
	}
	return s.expand(ctx, t, rating)
}

// DeleteTitle removes a title along with its reviews and comments.
func (s *CatalogService) DeleteTitle(ctx context.Context, id string) error {
	if err := s.titles.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("title_id", id).Msg("title deleted")
	return nil
}

// apply validates the set fields of in and copies them onto t. Unknown
// slugs are bad input, not missing resources.
func (s *CatalogService) apply(ctx context.Context, t *domain.Title, in ports.TitleInput) error {
	if in.Name != nil {
		if err := domain.ValidateName(*in.Name); err != nil {
			return err
		}
		t.Name = *in.Name
	}
	if in.Year != nil {
		if err := domain.ValidateTitleYear(*in.Year, s.now()); err != nil {
			return err
		}
		t.Year = *in.Year
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Genres != nil {
		genres := dedupe(*in.Genres)
		if len(genres) > 0 {
			found, err := s.genres.FindBySlugs(ctx, genres)
			if err != nil {
				return fmt.Errorf("resolve genres: %w", err)
			}
			if len(found) != len(genres) {
				return domain.NewFieldError("genre", "unknown genre slug")
			}
		}
		t.Genres = genres
	}
	if in.Category != nil {
		if slug := *in.Category; slug != "" {
			found, err := s.categories.FindBySlugs(ctx, []string{slug})
			if err != nil {
				return fmt.Errorf("resolve category: %w", err)
			}
			if len(found) == 0 {
				return domain.NewFieldError("category", "unknown category slug %q", slug)
			}
		}
		t.Category = *in.Category
	}
	return nil
}

// expand resolves category and genre slugs into full records.
func (s *CatalogService) expand(ctx context.Context, t *domain.Title, rating *float64) (*ports.TitleView, error) {
	view := &ports.TitleView{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Rating:      rating,
		Genres:      []domain.Genre{},
	}
	if len(t.Genres) > 0 {
		genres, err := s.genres.FindBySlugs(ctx, t.Genres)
		if err != nil {
			return nil, fmt.Errorf("expand genres: %w", err)
		}
		view.Genres = genres
	}
	if t.Category != "" {
		cats, err := s.categories.FindBySlugs(ctx, []string{t.Category})
		if err != nil {
			return nil, fmt.Errorf("expand category: %w", err)
		}
		if len(cats) > 0 {
			view.Category = &cats[0]
		}
	}
	return view, nil
}

func validateSlugged(name, slug string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	return domain.ValidateSlug(slug)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
