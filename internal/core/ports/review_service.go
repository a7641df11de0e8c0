package ports

import (
	"context"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

// ReviewInput carries the writable fields of a review. Nil fields are left
// unchanged on update.
type ReviewInput struct {
	Score *int
	Text  *string
}

// ReviewService manages reviews and comments. The actor is the
// authenticated caller or nil for anonymous requests; object-level
// permissions are checked here after the record is loaded.
type ReviewService interface {
	ListReviews(ctx context.Context, titleID string, page Page) (*PageResult[*domain.Review], error)
	GetReview(ctx context.Context, titleID, reviewID string) (*domain.Review, error)
	CreateReview(ctx context.Context, actor *domain.User, titleID string, score int, text string) (*domain.Review, error)
	UpdateReview(ctx context.Context, actor *domain.User, titleID, reviewID string, in ReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, actor *domain.User, titleID, reviewID string) error

	// ComputeRating is the mean score of a title, nil when it has no reviews.
	ComputeRating(ctx context.Context, titleID string) (*float64, error)

	ListComments(ctx context.Context, titleID, reviewID string, page Page) (*PageResult[*domain.Comment], error)
	GetComment(ctx context.Context, titleID, reviewID, commentID string) (*domain.Comment, error)
	CreateComment(ctx context.Context, actor *domain.User, titleID, reviewID, text string) (*domain.Comment, error)
	UpdateComment(ctx context.Context, actor *domain.User, titleID, reviewID, commentID, text string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, actor *domain.User, titleID, reviewID, commentID string) error
}
