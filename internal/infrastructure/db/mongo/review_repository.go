package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

var newestFirst = bson.D{{Key: "pub_date", Value: -1}, {Key: "_id", Value: 1}}

// ReviewRepository implements ports.ReviewRepository. The one-review-per-
// author rule lives in the reviews_title_author_unique index.
type ReviewRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{db: db, coll: db.Collection(collectionReviews)}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, rv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrReviewExists
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, titleID, id string) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rv domain.Review
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "title_id": titleID}).Decode(&rv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &rv, nil
}

func (r *ReviewRepository) List(ctx context.Context, titleID string, page ports.Page) ([]*domain.Review, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"title_id": titleID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	cur, err := r.coll.Find(ctx, filter, findPage(page, newestFirst))
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	reviews, err := decodeAll[domain.Review](ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}
	return reviews, total, nil
}

// Update writes score and text; ownership fields never change.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"score": rv.Score, "text": rv.Text}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": rv.ID, "title_id": rv.TitleID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, titleID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "title_id": titleID})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReviewNotFound
	}
	if _, err := r.db.Collection(collectionComments).DeleteMany(ctx, bson.M{"review_id": id}); err != nil {
		return fmt.Errorf("delete review comments: %w", err)
	}
	return nil
}

type scoreAverage struct {
	TitleID string  `bson:"_id"`
	Avg     float64 `bson:"avg"`
}

func (r *ReviewRepository) averages(ctx context.Context, match bson.M) ([]scoreAverage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$title_id"},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$score"}}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate scores: %w", err)
	}
	var out []scoreAverage
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return out, nil
}

func (r *ReviewRepository) AverageScore(ctx context.Context, titleID string) (*float64, error) {
	rows, err := r.averages(ctx, bson.M{"title_id": titleID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	avg := rows[0].Avg
	return &avg, nil
}

func (r *ReviewRepository) AverageScores(ctx context.Context, titleIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(titleIDs))
	if len(titleIDs) == 0 {
		return out, nil
	}
	rows, err := r.averages(ctx, bson.M{"title_id": bson.M{"$in": titleIDs}})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TitleID] = row.Avg
	}
	return out, nil
}

// deleteReviewsWhere removes matching reviews and the comments under them.
func deleteReviewsWhere(ctx context.Context, db *mongo.Database, filter bson.M) error {
	reviews := db.Collection(collectionReviews)
	ids, err := reviews.Distinct(ctx, "_id", filter)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.Collection(collectionComments).DeleteMany(ctx, bson.M{"review_id": bson.M{"$in": ids}}); err != nil {
		return err
	}
	_, err = reviews.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// CommentRepository implements ports.CommentRepository.
type CommentRepository struct {
	coll *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{coll: db.Collection(collectionComments)}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, reviewID, id string) (*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Comment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "review_id": reviewID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepository) List(ctx context.Context, reviewID string, page ports.Page) ([]*domain.Comment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"review_id": reviewID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	cur, err := r.coll.Find(ctx, filter, findPage(page, newestFirst))
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	comments, err := decodeAll[domain.Comment](ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("decode comments: %w", err)
	}
	return comments, total, nil
}

func (r *CommentRepository) Update(ctx context.Context, c *domain.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": c.ID, "review_id": c.ReviewID}, bson.M{"$set": bson.M{"text": c.Text}})
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, reviewID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "review_id": reviewID})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}
