package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// UserRepository implements ports.UserRepository on the users collection.
type UserRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, coll: db.Collection(collectionUsers)}
}

type userDoc struct {
	ID         string     `bson:"_id"`
	Username   string     `bson:"username"`
	Email      string     `bson:"email"`
	Role       string     `bson:"role"`
	IsStaff    bool       `bson:"is_staff"`
	FirstName  string     `bson:"first_name"`
	LastName   string     `bson:"last_name"`
	Bio        string     `bson:"bio"`
	LastLogin  *time.Time `bson:"last_login"`
	DateJoined time.Time  `bson:"date_joined"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       string(u.Role),
		IsStaff:    u.IsStaff,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Bio:        u.Bio,
		LastLogin:  u.LastLogin,
		DateJoined: u.DateJoined,
	}
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:         d.ID,
		Username:   d.Username,
		Email:      d.Email,
		Role:       domain.Role(d.Role),
		IsStaff:    d.IsStaff,
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Bio:        d.Bio,
		DateJoined: d.DateJoined.UTC(),
	}
	if d.LastLogin != nil {
		ll := d.LastLogin.UTC()
		u.LastLogin = &ll
	}
	return u
}

// userConflict maps a duplicate-key error to the field that collided.
func userConflict(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexUsername):
		return domain.ErrUsernameTaken
	case strings.Contains(msg, indexEmail):
		return domain.ErrEmailTaken
	default:
		return domain.ErrUserExists
	}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetOrCreate upserts on the exact (username, email) pair. When the insert
// trips a unique index, the pair is looked up once more: a concurrent
// request for the same pair may have won the race.
func (r *UserRepository) GetOrCreate(ctx context.Context, username, email string) (*domain.User, error) {
	tctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"username": username, "email": email}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":         uuid.NewString(),
		"role":        string(domain.RoleUser),
		"is_staff":    false,
		"first_name":  "",
		"last_name":   "",
		"bio":         "",
		"last_login":  nil,
		"date_joined": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc userDoc
	err := r.coll.FindOneAndUpdate(tctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("get or create user: %w", err)
	}

	u, ferr := r.findOne(ctx, filter)
	if errors.Is(ferr, domain.ErrUserNotFound) {
		return nil, domain.ErrUserExists
	}
	return u, ferr
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userConflict(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes the profile fields. last_login is owned by MarkLoggedIn.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"username":   user.Username,
		"email":      user.Email,
		"role":       string(user.Role),
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"bio":        user.Bio,
	}
	res, err := r.coll.UpdateByID(ctx, user.ID, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userConflict(err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the account along with everything it authored.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	user, err := r.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": user.ID})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	if err := deleteReviewsWhere(ctx, r.db, bson.M{"author_id": user.ID}); err != nil {
		return fmt.Errorf("delete user reviews: %w", err)
	}
	if _, err := r.db.Collection(collectionComments).DeleteMany(ctx, bson.M{"author_id": user.ID}); err != nil {
		return fmt.Errorf("delete user comments: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Search != "" {
		filter["username"] = containsFold(f.Search)
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	cur, err := r.coll.Find(ctx, filter, findPage(f.Page, bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	docs, err := decodeAll[userDoc](ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, total, nil
}

// Usernames looks up the current usernames of the given ids in one query.
func (r *UserRepository) Usernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"username": 1})
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find usernames: %w", err)
	}
	docs, err := decodeAll[userDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("decode usernames: %w", err)
	}
	for _, d := range docs {
		out[d.ID] = d.Username
	}
	return out, nil
}

// MarkLoggedIn is a compare-and-set on last_login.
func (r *UserRepository) MarkLoggedIn(ctx context.Context, id string, prev *time.Time, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "last_login": nil}
	if prev != nil {
		filter["last_login"] = prev.UTC()
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"last_login": at.UTC()}})
	if err != nil {
		return fmt.Errorf("mark logged in: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidConfirmationCode
	}
	return nil
}
