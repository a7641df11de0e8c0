package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/yamdb/yamdb-api/internal/api/middleware"
	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// newContext builds an echo context for a JSON request. A nil caller is
// anonymous.
func newContext(method, target string, body io.Reader, caller *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != nil {
		middleware.SetCurrentUser(c, caller)
	}
	return c, rec
}

// --- Auth ---

type stubAuthService struct {
	requestCodeFn  func(ctx context.Context, username, email string) (*ports.SignupResult, error)
	exchangeCodeFn func(ctx context.Context, username, code string) (string, error)
}

func (s *stubAuthService) RequestCode(ctx context.Context, username, email string) (*ports.SignupResult, error) {
	return s.requestCodeFn(ctx, username, email)
}

func (s *stubAuthService) ExchangeCode(ctx context.Context, username, code string) (string, error) {
	return s.exchangeCodeFn(ctx, username, code)
}

// --- Catalog ---

type stubCatalogService struct {
	listCategoriesFn func(ctx context.Context, f ports.ListSlugsFilter) (*ports.PageResult[domain.Category], error)
	createCategoryFn func(ctx context.Context, c domain.Category) (*domain.Category, error)
	deleteCategoryFn func(ctx context.Context, slug string) error
	listTitlesFn     func(ctx context.Context, f ports.ListTitlesFilter) (*ports.PageResult[ports.TitleView], error)
	getTitleFn       func(ctx context.Context, id string) (*ports.TitleView, error)
	createTitleFn    func(ctx context.Context, in ports.TitleInput) (*ports.TitleView, error)
	updateTitleFn    func(ctx context.Context, id string, in ports.TitleInput) (*ports.TitleView, error)
}

func (s *stubCatalogService) ListCategories(ctx context.Context, f ports.ListSlugsFilter) (*ports.PageResult[domain.Category], error) {
	return s.listCategoriesFn(ctx, f)
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	return s.createCategoryFn(ctx, c)
}

func (s *stubCatalogService) DeleteCategory(ctx context.Context, slug string) error {
	return s.deleteCategoryFn(ctx, slug)
}

func (s *stubCatalogService) ListGenres(context.Context, ports.ListSlugsFilter) (*ports.PageResult[domain.Genre], error) {
	return ports.NewPageResult[domain.Genre](nil, 0, ports.Page{}.Normalize()), nil
}

func (s *stubCatalogService) CreateGenre(_ context.Context, g domain.Genre) (*domain.Genre, error) {
	return &g, nil
}

func (s *stubCatalogService) DeleteGenre(context.Context, string) error { return nil }

func (s *stubCatalogService) ListTitles(ctx context.Context, f ports.ListTitlesFilter) (*ports.PageResult[ports.TitleView], error) {
	return s.listTitlesFn(ctx, f)
}

func (s *stubCatalogService) GetTitle(ctx context.Context, id string) (*ports.TitleView, error) {
	return s.getTitleFn(ctx, id)
}

func (s *stubCatalogService) CreateTitle(ctx context.Context, in ports.TitleInput) (*ports.TitleView, error) {
	return s.createTitleFn(ctx, in)
}

func (s *stubCatalogService) UpdateTitle(ctx context.Context, id string, in ports.TitleInput) (*ports.TitleView, error) {
	return s.updateTitleFn(ctx, id, in)
}

func (s *stubCatalogService) DeleteTitle(context.Context, string) error { return nil }

// --- Reviews ---

type stubReviewService struct {
	listReviewsFn   func(ctx context.Context, titleID string, p ports.Page) (*ports.PageResult[*domain.Review], error)
	createReviewFn  func(ctx context.Context, actor *domain.User, titleID string, score int, text string) (*domain.Review, error)
	updateReviewFn  func(ctx context.Context, actor *domain.User, titleID, reviewID string, in ports.ReviewInput) (*domain.Review, error)
	deleteReviewFn  func(ctx context.Context, actor *domain.User, titleID, reviewID string) error
	createCommentFn func(ctx context.Context, actor *domain.User, titleID, reviewID, text string) (*domain.Comment, error)
}

func (s *stubReviewService) ListReviews(ctx context.Context, titleID string, p ports.Page) (*ports.PageResult[*domain.Review], error) {
	return s.listReviewsFn(ctx, titleID, p)
}

func (s *stubReviewService) GetReview(context.Context, string, string) (*domain.Review, error) {
	return nil, domain.ErrReviewNotFound
}

func (s *stubReviewService) CreateReview(ctx context.Context, actor *domain.User, titleID string, score int, text string) (*domain.Review, error) {
	return s.createReviewFn(ctx, actor, titleID, score, text)
}

func (s *stubReviewService) UpdateReview(ctx context.Context, actor *domain.User, titleID, reviewID string, in ports.ReviewInput) (*domain.Review, error) {
	return s.updateReviewFn(ctx, actor, titleID, reviewID, in)
}

func (s *stubReviewService) DeleteReview(ctx context.Context, actor *domain.User, titleID, reviewID string) error {
	return s.deleteReviewFn(ctx, actor, titleID, reviewID)
}

func (s *stubReviewService) ComputeRating(context.Context, string) (*float64, error) {
	return nil, nil
}

func (s *stubReviewService) ListComments(context.Context, string, string, ports.Page) (*ports.PageResult[*domain.Comment], error) {
	return ports.NewPageResult[*domain.Comment](nil, 0, ports.Page{}.Normalize()), nil
}

func (s *stubReviewService) GetComment(context.Context, string, string, string) (*domain.Comment, error) {
	return nil, domain.ErrCommentNotFound
}

func (s *stubReviewService) CreateComment(ctx context.Context, actor *domain.User, titleID, reviewID, text string) (*domain.Comment, error) {
	return s.createCommentFn(ctx, actor, titleID, reviewID, text)
}

func (s *stubReviewService) UpdateComment(context.Context, *domain.User, string, string, string, string) (*domain.Comment, error) {
	return nil, domain.ErrCommentNotFound
}

func (s *stubReviewService) DeleteComment(context.Context, *domain.User, string, string, string) error {
	return nil
}

// --- Users ---

type stubUserService struct {
	createFn     func(ctx context.Context, in ports.UserInput) (*domain.User, error)
	updateFn     func(ctx context.Context, username string, in ports.UserInput) (*domain.User, error)
	updateSelfFn func(ctx context.Context, self *domain.User, in ports.UserInput) (*domain.User, error)
}

func (s *stubUserService) List(context.Context, ports.ListUsersFilter) (*ports.PageResult[*domain.User], error) {
	return ports.NewPageResult[*domain.User](nil, 0, ports.Page{}.Normalize()), nil
}

func (s *stubUserService) Create(ctx context.Context, in ports.UserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Get(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUserService) Update(ctx context.Context, username string, in ports.UserInput) (*domain.User, error) {
	return s.updateFn(ctx, username, in)
}

func (s *stubUserService) Delete(context.Context, string) error { return nil }

func (s *stubUserService) UpdateSelf(ctx context.Context, self *domain.User, in ports.UserInput) (*domain.User, error) {
	return s.updateSelfFn(ctx, self, in)
}
