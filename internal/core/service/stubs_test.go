package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs. Each one guards its maps with a mutex so the concurrency
// tests exercise the same "constraint at the store" contract as Mongo.
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		ll := *u.LastLogin
		c.LastLogin = &ll
	}
	return &c
}

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	err    error // if set, lookups fail with this error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		r.byID[u.ID] = cloneUser(u)
	}
	return r
}

func (r *stubUserRepo) find(match func(*domain.User) bool) *domain.User {
	for _, u := range r.byID {
		if match(u) {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if u := r.find(func(u *domain.User) bool { return u.Username == username }); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if u := r.find(func(u *domain.User) bool { return u.Email == email }); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Usernames(_ context.Context, ids []string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out[id] = u.Username
		}
	}
	return out, nil
}

func (r *stubUserRepo) GetOrCreate(_ context.Context, username, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(func(u *domain.User) bool { return u.Username == username && u.Email == email }); u != nil {
		return cloneUser(u), nil
	}
	if r.find(func(u *domain.User) bool { return u.Username == username || u.Email == email }) != nil {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	u := &domain.User{
		ID:         fmt.Sprintf("user-%d", r.nextID),
		Username:   username,
		Email:      email,
		Role:       domain.RoleUser,
		DateJoined: time.Now().UTC(),
	}
	r.byID[u.ID] = u
	return cloneUser(u), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(func(u *domain.User) bool { return u.Username == user.Username || u.Email == user.Email }) != nil {
		return domain.ErrUserExists
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if r.find(func(u *domain.User) bool {
		return u.ID != user.ID && (u.Username == user.Username || u.Email == user.Email)
	}) != nil {
		return domain.ErrUserExists
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.find(func(u *domain.User) bool { return u.Username == username })
	if u == nil {
		return domain.ErrUserNotFound
	}
	delete(r.byID, u.ID)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.byID {
		if f.Search != "" && !strings.Contains(u.Username, f.Search) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, int64(len(out)), nil
}

func (r *stubUserRepo) MarkLoggedIn(_ context.Context, id string, prev *time.Time, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	switch {
	case prev == nil && u.LastLogin != nil,
		prev != nil && (u.LastLogin == nil || !u.LastLogin.Equal(*prev)):
		return domain.ErrInvalidConfirmationCode
	}
	t := at
	u.LastLogin = &t
	return nil
}

// ---------------------------------------------------------------------------

type stubTitleRepo struct {
	mu     sync.Mutex
	titles map[string]*domain.Title
	// reviews lets Delete cascade into the review stub.
	reviews *stubReviewRepo
}

func newStubTitleRepo(titles ...*domain.Title) *stubTitleRepo {
	r := &stubTitleRepo{titles: make(map[string]*domain.Title)}
	for _, t := range titles {
		c := *t
		r.titles[t.ID] = &c
	}
	return r
}

func (r *stubTitleRepo) List(_ context.Context, f ports.ListTitlesFilter) ([]*domain.Title, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Title
	for _, t := range r.titles {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Year != nil && t.Year != *f.Year {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Name)) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *stubTitleRepo) FindByID(_ context.Context, id string) (*domain.Title, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.titles[id]
	if !ok {
		return nil, domain.ErrTitleNotFound
	}
	c := *t
	return &c, nil
}

func (r *stubTitleRepo) Create(_ context.Context, t *domain.Title) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.titles[t.ID] = &c
	return nil
}

func (r *stubTitleRepo) Update(ctx context.Context, t *domain.Title) error {
	return r.Create(ctx, t)
}

func (r *stubTitleRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.titles[id]; !ok {
		r.mu.Unlock()
		return domain.ErrTitleNotFound
	}
	delete(r.titles, id)
	r.mu.Unlock()
	if r.reviews != nil {
		r.reviews.deleteTitle(id)
	}
	return nil
}

func (r *stubTitleRepo) UnsetCategory(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.titles {
		if t.Category == slug {
			t.Category = ""
		}
	}
	return nil
}

func (r *stubTitleRepo) PullGenre(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.titles {
		kept := t.Genres[:0]
		for _, g := range t.Genres {
			if g != slug {
				kept = append(kept, g)
			}
		}
		t.Genres = kept
	}
	return nil
}

// ---------------------------------------------------------------------------

type stubReviewRepo struct {
	mu       sync.Mutex
	reviews  map[string]*domain.Review
	comments *stubCommentRepo
}

func newStubReviewRepo(comments *stubCommentRepo) *stubReviewRepo {
	return &stubReviewRepo{reviews: make(map[string]*domain.Review), comments: comments}
}

func (r *stubReviewRepo) Create(_ context.Context, rv *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.TitleID == rv.TitleID && existing.AuthorID == rv.AuthorID {
			return domain.ErrReviewExists
		}
	}
	c := *rv
	r.reviews[rv.ID] = &c
	return nil
}

func (r *stubReviewRepo) FindByID(_ context.Context, titleID, id string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok || rv.TitleID != titleID {
		return nil, domain.ErrReviewNotFound
	}
	c := *rv
	return &c, nil
}

func (r *stubReviewRepo) List(_ context.Context, titleID string, _ ports.Page) ([]*domain.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Review
	for _, rv := range r.reviews {
		if rv.TitleID == titleID {
			c := *rv
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return out, int64(len(out)), nil
}

func (r *stubReviewRepo) Update(_ context.Context, rv *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[rv.ID]; !ok {
		return domain.ErrReviewNotFound
	}
	c := *rv
	r.reviews[rv.ID] = &c
	return nil
}

func (r *stubReviewRepo) Delete(_ context.Context, titleID, id string) error {
	r.mu.Lock()
	rv, ok := r.reviews[id]
	if !ok || rv.TitleID != titleID {
		r.mu.Unlock()
		return domain.ErrReviewNotFound
	}
	delete(r.reviews, id)
	r.mu.Unlock()
	if r.comments != nil {
		r.comments.deleteReview(id)
	}
	return nil
}

func (r *stubReviewRepo) deleteTitle(titleID string) {
	r.mu.Lock()
	var ids []string
	for id, rv := range r.reviews {
		if rv.TitleID == titleID {
			ids = append(ids, id)
			delete(r.reviews, id)
		}
	}
	r.mu.Unlock()
	if r.comments != nil {
		for _, id := range ids {
			r.comments.deleteReview(id)
		}
	}
}

func (r *stubReviewRepo) scores(titleID string) []int {
	var scores []int
	for _, rv := range r.reviews {
		if rv.TitleID == titleID {
			scores = append(scores, rv.Score)
		}
	}
	return scores
}

func (r *stubReviewRepo) AverageScore(_ context.Context, titleID string) (*float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.Rating(r.scores(titleID)), nil
}

func (r *stubReviewRepo) AverageScores(_ context.Context, titleIDs []string) (map[string]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64)
	for _, id := range titleIDs {
		if avg := domain.Rating(r.scores(id)); avg != nil {
			out[id] = *avg
		}
	}
	return out, nil
}

func (r *stubReviewRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reviews)
}

// ---------------------------------------------------------------------------

type stubCommentRepo struct {
	mu       sync.Mutex
	comments map[string]*domain.Comment
}

func newStubCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{comments: make(map[string]*domain.Comment)}
}

func (r *stubCommentRepo) Create(_ context.Context, c *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cc := *c
	r.comments[c.ID] = &cc
	return nil
}

func (r *stubCommentRepo) FindByID(_ context.Context, reviewID, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok || c.ReviewID != reviewID {
		return nil, domain.ErrCommentNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *stubCommentRepo) List(_ context.Context, reviewID string, _ ports.Page) ([]*domain.Comment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Comment
	for _, c := range r.comments {
		if c.ReviewID == reviewID {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return out, int64(len(out)), nil
}

func (r *stubCommentRepo) Update(ctx context.Context, c *domain.Comment) error {
	return r.Create(ctx, c)
}

func (r *stubCommentRepo) Delete(_ context.Context, reviewID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok || c.ReviewID != reviewID {
		return domain.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *stubCommentRepo) deleteReview(reviewID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.comments {
		if c.ReviewID == reviewID {
			delete(r.comments, id)
		}
	}
}

func (r *stubCommentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.comments)
}

// ---------------------------------------------------------------------------

type stubCategoryRepo struct {
	items map[string]domain.Category
}

func newStubCategoryRepo(items ...domain.Category) *stubCategoryRepo {
	r := &stubCategoryRepo{items: make(map[string]domain.Category)}
	for _, c := range items {
		r.items[c.Slug] = c
	}
	return r
}

func (r *stubCategoryRepo) List(_ context.Context, _ ports.ListSlugsFilter) ([]domain.Category, int64, error) {
	var out []domain.Category
	for _, c := range r.items {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *stubCategoryRepo) Create(_ context.Context, c domain.Category) error {
	if _, ok := r.items[c.Slug]; ok {
		return domain.ErrSlugExists
	}
	r.items[c.Slug] = c
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, slug string) error {
	if _, ok := r.items[slug]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.items, slug)
	return nil
}

func (r *stubCategoryRepo) FindBySlugs(_ context.Context, slugs []string) ([]domain.Category, error) {
	var out []domain.Category
	for _, s := range slugs {
		if c, ok := r.items[s]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubGenreRepo struct {
	items map[string]domain.Genre
}

func newStubGenreRepo(items ...domain.Genre) *stubGenreRepo {
	r := &stubGenreRepo{items: make(map[string]domain.Genre)}
	for _, g := range items {
		r.items[g.Slug] = g
	}
	return r
}

func (r *stubGenreRepo) List(_ context.Context, _ ports.ListSlugsFilter) ([]domain.Genre, int64, error) {
	var out []domain.Genre
	for _, g := range r.items {
		out = append(out, g)
	}
	return out, int64(len(out)), nil
}

func (r *stubGenreRepo) Create(_ context.Context, g domain.Genre) error {
	if _, ok := r.items[g.Slug]; ok {
		return domain.ErrSlugExists
	}
	r.items[g.Slug] = g
	return nil
}

func (r *stubGenreRepo) Delete(_ context.Context, slug string) error {
	if _, ok := r.items[slug]; !ok {
		return domain.ErrGenreNotFound
	}
	delete(r.items, slug)
	return nil
}

func (r *stubGenreRepo) FindBySlugs(_ context.Context, slugs []string) ([]domain.Genre, error) {
	var out []domain.Genre
	for _, s := range slugs {
		if g, ok := r.items[s]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------

// stubSigner encodes claims as "<id>:<username>" so tests can decode them.
type stubSigner struct{}

func (stubSigner) Sign(c ports.AccessClaims) (string, error) {
	return c.UserID + ":" + c.Username, nil
}

func (stubSigner) Verify(token string) (*ports.AccessClaims, error) {
	id, name, ok := strings.Cut(token, ":")
	if !ok {
		return nil, errors.New("bad token")
	}
	return &ports.AccessClaims{UserID: id, Username: name}, nil
}

type stubMailer struct {
	mu   sync.Mutex
	sent []ports.MailMessage
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg ports.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

// lastCode pulls the confirmation code out of the most recent message.
func (m *stubMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	body := m.sent[len(m.sent)-1].Body
	_, after, ok := strings.Cut(body, "confirmation code: ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}
