package ports

import (
	"context"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

// ReviewRepository persists reviews. The (title_id, author_id) pair is a
// unique constraint of the store, not a check made before writing.
type ReviewRepository interface {
	// Create inserts r, returning domain.ErrReviewExists when the author has
	// already reviewed the title.
	Create(ctx context.Context, r *domain.Review) error
	// FindByID returns the review only if it belongs to titleID.
	FindByID(ctx context.Context, titleID, id string) (*domain.Review, error)
	// List returns reviews of a title, newest first.
	List(ctx context.Context, titleID string, page Page) ([]*domain.Review, int64, error)
	Update(ctx context.Context, r *domain.Review) error
	// Delete removes the review and all of its comments.
	Delete(ctx context.Context, titleID, id string) error

	// AverageScore returns the mean score of a title, nil if it has no reviews.
	AverageScore(ctx context.Context, titleID string) (*float64, error)
	// AverageScores returns the mean score per title; titles without
	// reviews are absent from the map.
	AverageScores(ctx context.Context, titleIDs []string) (map[string]float64, error)
}

// CommentRepository persists comments on reviews.
type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) error
	// FindByID returns the comment only if it belongs to reviewID.
	FindByID(ctx context.Context, reviewID, id string) (*domain.Comment, error)
	// List returns comments of a review, newest first.
	List(ctx context.Context, reviewID string, page Page) ([]*domain.Comment, int64, error)
	Update(ctx context.Context, c *domain.Comment) error
	Delete(ctx context.Context, reviewID, id string) error
}
