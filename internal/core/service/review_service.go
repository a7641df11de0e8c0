package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/permission"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// ReviewService enforces review ownership, the one-review-per-title rule and
// derives title ratings from stored scores.
type ReviewService struct {
	titles   ports.TitleRepository
	reviews  ports.ReviewRepository
	comments ports.CommentRepository
	users    ports.UsernameResolver
	policy   permission.Policy
	log      zerolog.Logger
	now      func() time.Time
}

func NewReviewService(
	titles ports.TitleRepository,
	reviews ports.ReviewRepository,
	comments ports.CommentRepository,
	users ports.UsernameResolver,
	log zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		titles:   titles,
		reviews:  reviews,
		comments: comments,
		users:    users,
		policy:   permission.AuthorModeratorAdmin{},
		log:      log,
		now:      time.Now,
	}
}

func (s *ReviewService) ListReviews(ctx context.Context, titleID string, page ports.Page) (*ports.PageResult[*domain.Review], error) {
	if _, err := s.titles.FindByID(ctx, titleID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.reviews.List(ctx, titleID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if err := resolveAuthors(ctx, s.users, items, reviewAuthorRef); err != nil {
		return nil, err
	}
	return ports.NewPageResult(items, total, page), nil
}

func (s *ReviewService) GetReview(ctx context.Context, titleID, reviewID string) (*domain.Review, error) {
	review, err := s.reviews.FindByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := resolveAuthors(ctx, s.users, []*domain.Review{review}, reviewAuthorRef); err != nil {
		return nil, err
	}
	return review, nil
}

// CreateReview stores a review. Uniqueness of (author, title) is left to the
// store so concurrent attempts resolve to one success and one conflict.
func (s *ReviewService) CreateReview(ctx context.Context, actor *domain.User, titleID string, score int, text string) (*domain.Review, error) {
	if err := permission.Check(s.policy, actor, permission.ActionCreate); err != nil {
		return nil, err
	}
	if err := domain.ValidateScore(score); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	if _, err := s.titles.FindByID(ctx, titleID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:       uuid.NewString(),
		TitleID:  titleID,
		AuthorID: actor.ID,
		Author:   actor.Username,
		Score:    score,
		Text:     text,
		PubDate:  s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.log.Info().Str("title_id", titleID).Str("review_id", review.ID).Str("author", actor.Username).Msg("review created")
	return review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, actor *domain.User, titleID, reviewID string, in ports.ReviewInput) (*domain.Review, error) {
	review, err := s.GetReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := permission.CheckObject(s.policy, actor, permission.ActionUpdate, review.AuthorID); err != nil {
		return nil, err
	}

	if in.Score != nil {
		if err := domain.ValidateScore(*in.Score); err != nil {
			return nil, err
		}
		review.Score = *in.Score
	}
	if in.Text != nil {
		if strings.TrimSpace(*in.Text) == "" {
			return nil, domain.ErrEmptyText
		}
		review.Text = *in.Text
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review and, through the store, its comments.
func (s *ReviewService) DeleteReview(ctx context.Context, actor *domain.User, titleID, reviewID string) error {
	review, err := s.reviews.FindByID(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := permission.CheckObject(s.policy, actor, permission.ActionDelete, review.AuthorID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, titleID, reviewID); err != nil {
		return err
	}

	s.log.Info().Str("title_id", titleID).Str("review_id", reviewID).Str("by", actor.Username).Msg("review deleted")
	return nil
}

// ComputeRating returns the mean score of a title, or nil without reviews.
func (s *ReviewService) ComputeRating(ctx context.Context, titleID string) (*float64, error) {
	if _, err := s.titles.FindByID(ctx, titleID); err != nil {
		return nil, err
	}
	rating, err := s.reviews.AverageScore(ctx, titleID)
	if err != nil {
		return nil, fmt.Errorf("compute rating: %w", err)
	}
	return rating, nil
}

func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID string, page ports.Page) (*ports.PageResult[*domain.Comment], error) {
	if _, err := s.reviews.FindByID(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.comments.List(ctx, reviewID, page)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if err := resolveAuthors(ctx, s.users, items, commentAuthorRef); err != nil {
		return nil, err
	}
	return ports.NewPageResult(items, total, page), nil
}

func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID string) (*domain.Comment, error) {
	if _, err := s.reviews.FindByID(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.FindByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := resolveAuthors(ctx, s.users, []*domain.Comment{comment}, commentAuthorRef); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ReviewService) CreateComment(ctx context.Context, actor *domain.User, titleID, reviewID, text string) (*domain.Comment, error) {
	if err := permission.Check(s.policy, actor, permission.ActionCreate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	if _, err := s.reviews.FindByID(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:       uuid.NewString(),
		ReviewID: reviewID,
		TitleID:  titleID,
		AuthorID: actor.ID,
		Author:   actor.Username,
		Text:     text,
		PubDate:  s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ReviewService) UpdateComment(ctx context.Context, actor *domain.User, titleID, reviewID, commentID, text string) (*domain.Comment, error) {
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := permission.CheckObject(s.policy, actor, permission.ActionUpdate, comment.AuthorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	comment.Text = text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ReviewService) DeleteComment(ctx context.Context, actor *domain.User, titleID, reviewID, commentID string) error {
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := permission.CheckObject(s.policy, actor, permission.ActionDelete, comment.AuthorID); err != nil {
		return err
	}
	return s.comments.Delete(ctx, reviewID, commentID)
}

// resolveAuthors replaces the author name copied at write time with the
// account's current username. Ids the resolver does not know keep the
// stored name.
func resolveAuthors[T any](ctx context.Context, users ports.UsernameResolver, items []T, ref func(T) (string, *string)) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		id, _ := ref(it)
		ids = append(ids, id)
	}
	names, err := users.Usernames(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve authors: %w", err)
	}
	for _, it := range items {
		id, name := ref(it)
		if current, ok := names[id]; ok {
			*name = current
		}
	}
	return nil
}

func reviewAuthorRef(r *domain.Review) (string, *string)  { return r.AuthorID, &r.Author }
func commentAuthorRef(c *domain.Comment) (string, *string) { return c.AuthorID, &c.Author }
