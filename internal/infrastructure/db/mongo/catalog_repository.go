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

// slugCollection stores {name, slug} records with a unique slug.
type slugCollection[T domain.Category | domain.Genre] struct {
	coll     *mongo.Collection
	notFound error
}

func (s slugCollection[T]) List(ctx context.Context, f ports.ListSlugsFilter) ([]T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Search != "" {
		filter["name"] = containsFold(f.Search)
	}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", s.coll.Name(), err)
	}
	cur, err := s.coll.Find(ctx, filter, findPage(f.Page, bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.coll.Name(), err)
	}
	items := []T{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", s.coll.Name(), err)
	}
	return items, total, nil
}

func (s slugCollection[T]) Create(ctx context.Context, v T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSlugExists
		}
		return fmt.Errorf("insert into %s: %w", s.coll.Name(), err)
	}
	return nil
}

func (s slugCollection[T]) Delete(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return s.notFound
	}
	return nil
}

func (s slugCollection[T]) FindBySlugs(ctx context.Context, slugs []string) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{"slug": bson.M{"$in": slugs}})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.coll.Name(), err)
	}
	items := []T{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.coll.Name(), err)
	}
	return items, nil
}

// CategoryRepository implements ports.CategoryRepository.
type CategoryRepository struct {
	slugCollection[domain.Category]
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{slugCollection[domain.Category]{
		coll:     db.Collection(collectionCategories),
		notFound: domain.ErrCategoryNotFound,
	}}
}

// GenreRepository implements ports.GenreRepository.
type GenreRepository struct {
	slugCollection[domain.Genre]
}

func NewGenreRepository(db *mongo.Database) *GenreRepository {
	return &GenreRepository{slugCollection[domain.Genre]{
		coll:     db.Collection(collectionGenres),
		notFound: domain.ErrGenreNotFound,
	}}
}

// TitleRepository implements ports.TitleRepository.
type TitleRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewTitleRepository(db *mongo.Database) *TitleRepository {
	return &TitleRepository{db: db, coll: db.Collection(collectionTitles)}
}

func (r *TitleRepository) List(ctx context.Context, f ports.ListTitlesFilter) ([]*domain.Title, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Genre != "" {
		filter["genres"] = f.Genre
	}
	if f.Name != "" {
		filter["name"] = containsFold(f.Name)
	}
	if f.Year != nil {
		filter["year"] = *f.Year
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}
	cur, err := r.coll.Find(ctx, filter, findPage(f.Page, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	titles, err := decodeAll[domain.Title](ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("decode titles: %w", err)
	}
	return titles, total, nil
}

func (r *TitleRepository) FindByID(ctx context.Context, id string) (*domain.Title, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Title
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTitleNotFound
		}
		return nil, fmt.Errorf("find title: %w", err)
	}
	return &t, nil
}

func (r *TitleRepository) Create(ctx context.Context, t *domain.Title) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert title: %w", err)
	}
	return nil
}

func (r *TitleRepository) Update(ctx context.Context, t *domain.Title) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTitleNotFound
	}
	return nil
}

func (r *TitleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete title: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTitleNotFound
	}
	if err := deleteReviewsWhere(ctx, r.db, bson.M{"title_id": id}); err != nil {
		return fmt.Errorf("delete title reviews: %w", err)
	}
	return nil
}

func (r *TitleRepository) UnsetCategory(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.UpdateMany(ctx, bson.M{"category": slug}, bson.M{"$unset": bson.M{"category": ""}})
	return err
}

func (r *TitleRepository) PullGenre(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.UpdateMany(ctx, bson.M{"genres": slug}, bson.M{"$pull": bson.M{"genres": slug}})
	return err
}
