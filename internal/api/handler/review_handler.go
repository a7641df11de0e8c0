package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yamdb/yamdb-api/internal/api/metrics"
	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// ReviewHandler serves reviews and the comments under them. Object-level
// permission checks happen in the service once the record is loaded.
type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// --- Reviews ---

// ListReviews handles GET /api/v1/titles/:title_id/reviews, newest first.
//
// @Summary      List reviews of a title
// @Tags         reviews
// @Produce      json
// @Param        title_id  path      string  true   "Title ID"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 10, max 100)"
// @Success      200       {object}  pageResponse[reviewResponse]
// @Failure      400       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /titles/{title_id}/reviews [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	var p ports.Page
	if err := bindQuery(c, func(b *echo.ValueBinder) *echo.ValueBinder { return pageParams(b, &p) }); err != nil {
		return err
	}

	page, err := h.service.ListReviews(c.Request().Context(), c.Param("title_id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page, toReviewResponse))
}

// GetReview handles GET /api/v1/titles/:title_id/reviews/:review_id.
//
// @Summary      Get a review
// @Tags         reviews
// @Produce      json
// @Param        title_id   path      string  true  "Title ID"
// @Param        review_id  path      string  true  "Review ID"
// @Success      200        {object}  reviewResponse
// @Failure      404        {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id} [get]
func (h *ReviewHandler) GetReview(c echo.Context) error {
	review, err := h.service.GetReview(c.Request().Context(), c.Param("title_id"), c.Param("review_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewResponse(review))
}

// CreateReview handles POST /api/v1/titles/:title_id/reviews. A second
// review of the same title by the same author is rejected.
//
// @Summary      Review a title
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        title_id  path      string               true  "Title ID"
// @Param        body      body      createReviewRequest  true  "Score 1-10 and text"
// @Success      201       {object}  reviewResponse
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /titles/{title_id}/reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	review, err := h.service.CreateReview(c.Request().Context(), actor(c), c.Param("title_id"), req.Score, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrReviewExists) {
			metrics.ReviewConflictsTotal.Inc()
		}
		return err
	}
	metrics.ReviewsCreatedTotal.Inc()

	return c.JSON(http.StatusCreated, toReviewResponse(review))
}

// UpdateReview handles PATCH /api/v1/titles/:title_id/reviews/:review_id.
//
// @Summary      Update a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        title_id   path      string               true  "Title ID"
// @Param        review_id  path      string               true  "Review ID"
// @Param        body       body      updateReviewRequest  true  "Fields to change"
// @Success      200        {object}  reviewResponse
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id} [patch]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	var req updateReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	review, err := h.service.UpdateReview(c.Request().Context(), actor(c), c.Param("title_id"), c.Param("review_id"), toReviewInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewResponse(review))
}

// DeleteReview handles DELETE /api/v1/titles/:title_id/reviews/:review_id.
//
// @Summary      Delete a review
// @Tags         reviews
// @Security     BearerAuth
// @Param        title_id   path  string  true  "Title ID"
// @Param        review_id  path  string  true  "Review ID"
// @Success      204
// @Failure      401        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	if err := h.service.DeleteReview(c.Request().Context(), actor(c), c.Param("title_id"), c.Param("review_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Comments ---

// ListComments handles GET .../reviews/:review_id/comments, newest first.
//
// @Summary      List comments on a review
// @Tags         comments
// @Produce      json
// @Param        title_id   path      string  true   "Title ID"
// @Param        review_id  path      string  true   "Review ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 10, max 100)"
// @Success      200        {object}  pageResponse[commentResponse]
// @Failure      400        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id}/comments [get]
func (h *ReviewHandler) ListComments(c echo.Context) error {
	var p ports.Page
	if err := bindQuery(c, func(b *echo.ValueBinder) *echo.ValueBinder { return pageParams(b, &p) }); err != nil {
		return err
	}

	page, err := h.service.ListComments(c.Request().Context(), c.Param("title_id"), c.Param("review_id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page, toCommentResponse))
}

// GetComment handles GET .../comments/:comment_id.
//
// @Summary      Get a comment
// @Tags         comments
// @Produce      json
// @Param        title_id    path      string  true  "Title ID"
// @Param        review_id   path      string  true  "Review ID"
// @Param        comment_id  path      string  true  "Comment ID"
// @Success      200         {object}  commentResponse
// @Failure      404         {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id}/comments/{comment_id} [get]
func (h *ReviewHandler) GetComment(c echo.Context) error {
	comment, err := h.service.GetComment(c.Request().Context(), c.Param("title_id"), c.Param("review_id"), c.Param("comment_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponse(comment))
}

// CreateComment handles POST .../reviews/:review_id/comments.
//
// @Summary      Comment on a review
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        title_id   path      string          true  "Title ID"
// @Param        review_id  path      string          true  "Review ID"
// @Param        body       body      commentRequest  true  "Comment text"
// @Success      201        {object}  commentResponse
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id}/comments [post]
func (h *ReviewHandler) CreateComment(c echo.Context) error {
	var req commentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.service.CreateComment(c.Request().Context(), actor(c), c.Param("title_id"), c.Param("review_id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCommentResponse(comment))
}

// UpdateComment handles PATCH .../comments/:comment_id.
//
// @Summary      Update a comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        title_id    path      string          true  "Title ID"
// @Param        review_id   path      string          true  "Review ID"
// @Param        comment_id  path      string          true  "Comment ID"
// @Param        body        body      commentRequest  true  "New text"
// @Success      200         {object}  commentResponse
// @Failure      400         {object}  map[string]string
// @Failure      401         {object}  map[string]string
// @Failure      403         {object}  map[string]string
// @Failure      404         {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id}/comments/{comment_id} [patch]
func (h *ReviewHandler) UpdateComment(c echo.Context) error {
	var req commentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.service.UpdateComment(c.Request().Context(), actor(c),
		c.Param("title_id"), c.Param("review_id"), c.Param("comment_id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponse(comment))
}

// DeleteComment handles DELETE .../comments/:comment_id.
//
// @Summary      Delete a comment
// @Tags         comments
// @Security     BearerAuth
// @Param        title_id    path  string  true  "Title ID"
// @Param        review_id   path  string  true  "Review ID"
// @Param        comment_id  path  string  true  "Comment ID"
// @Success      204
// @Failure      401         {object}  map[string]string
// @Failure      403         {object}  map[string]string
// @Failure      404         {object}  map[string]string
// @Router       /titles/{title_id}/reviews/{review_id}/comments/{comment_id} [delete]
func (h *ReviewHandler) DeleteComment(c echo.Context) error {
	err := h.service.DeleteComment(c.Request().Context(), actor(c),
		c.Param("title_id"), c.Param("review_id"), c.Param("comment_id"))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
