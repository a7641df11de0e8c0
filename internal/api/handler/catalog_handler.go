package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// CatalogHandler serves categories, genres and titles. Write access is
// gated by the router; the handlers only translate.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// --- Categories ---

// ListCategories handles GET /api/v1/categories.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Param        search  query     string  false  "Partial match on name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 10, max 100)"
// @Success      200     {object}  pageResponse[slugResponse]
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /categories [get]
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	var f ports.ListSlugsFilter
	if err := bindQuery(c, func(b *echo.ValueBinder) *echo.ValueBinder {
		return pageParams(b.String("search", &f.Search), &f.Page)
	}); err != nil {
		return err
	}

	page, err := h.service.ListCategories(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page, toCategoryResponse))
}

// CreateCategory handles POST /api/v1/categories.
//
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      slugRequest  true  "Category"
// @Success      201   {object}  slugResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /categories [post]
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req slugRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cat, err := h.service.CreateCategory(c.Request().Context(), domain.Category{Name: req.Name, Slug: req.Slug})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCategoryResponse(*cat))
}

// DeleteCategory handles DELETE /api/v1/categories/:slug. Titles in the
// category are kept with the category cleared.
//
// @Summary      Delete a category
// @Tags         categories
// @Security     BearerAuth
// @Param        slug  path  string  true  "Category slug"
// @Success      204
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /categories/{slug} [delete]
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	if err := h.service.DeleteCategory(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Genres ---

// ListGenres handles GET /api/v1/genres.
//
// @Summary      List genres
// @Tags         genres
// @Produce      json
// @Param        search  query     string  false  "Partial match on name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 10, max 100)"
// @Success      200     {object}  pageResponse[slugResponse]
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /genres [get]
func (h *CatalogHandler) ListGenres(c echo.Context) error {
	var f ports.ListSlugsFilter
	if err := bindQuery(c, func(b *echo.ValueBinder) *echo.ValueBinder {
		return pageParams(b.String("search", &f.Search), &f.Page)
	}); err != nil {
		return err
	}

	page, err := h.service.ListGenres(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page, toGenreResponse))
}

// CreateGenre handles POST /api/v1/genres.
//
// @Summary      Create a genre
// @Tags         genres
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      slugRequest  true  "Genre"
// @Success      201   {object}  slugResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /genres [post]
func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	var req slugRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	g, err := h.service.CreateGenre(c.Request().Context(), domain.Genre{Name: req.Name, Slug: req.Slug})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toGenreResponse(*g))
}

// DeleteGenre handles DELETE /api/v1/genres/:slug.
//
// @Summary      Delete a genre
// @Tags         genres
// @Security     BearerAuth
// @Param        slug  path  string  true  "Genre slug"
// @Success      204
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /genres/{slug} [delete]
func (h *CatalogHandler) DeleteGenre(c echo.Context) error {
	if err := h.service.DeleteGenre(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Titles ---

// ListTitles handles GET /api/v1/titles.
//
// @Summary      List titles
// @Tags         titles
// @Produce      json
// @Param        category  query     string  false  "Category slug"
// @Param        genre     query     string  false  "Genre slug"
// @Param        name      query     string  false  "Partial match on name"
// @Param        year      query     int     false  "Release year"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 10, max 100)"
// @Success      200       {object}  pageResponse[titleResponse]
// @Failure      400       {object}  map[string]string
// @Failure      500       {object}  map[string]string
// @Router       /titles [get]
func (h *CatalogHandler) ListTitles(c echo.Context) error {
	var (
		f    ports.ListTitlesFilter
		year int
	)
	if err := bindQuery(c, func(b *echo.ValueBinder) *echo.ValueBinder {
		b = b.String("category", &f.Category).
			String("genre", &f.Genre).
			String("name", &f.Name).
			Int("year", &year)
		return pageParams(b, &f.Page)
	}); err != nil {
		return err
	}
	if c.QueryParam("year") != "" {
		f.Year = &year
	}

	page, err := h.service.ListTitles(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page, toTitleResponse))
}

// GetTitle handles GET /api/v1/titles/:title_id.
//
// @Summary      Get a title
// @Tags         titles
// @Produce      json
// @Param        title_id  path      string  true  "Title ID"
// @Success      200       {object}  titleResponse
// @Failure      404       {object}  map[string]string
// @Router       /titles/{title_id} [get]
func (h *CatalogHandler) GetTitle(c echo.Context) error {
	view, err := h.service.GetTitle(c.Request().Context(), c.Param("title_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTitleResponse(*view))
}

// CreateTitle handles POST /api/v1/titles.
//
// @Summary      Create a title
// @Tags         titles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      titleRequest  true  "Title; genre and category are slugs"
// @Success      201   {object}  titleResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /titles [post]
func (h *CatalogHandler) CreateTitle(c echo.Context) error {
	var req titleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.CreateTitle(c.Request().Context(), toTitleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTitleResponse(*view))
}

// UpdateTitle handles PATCH /api/v1/titles/:title_id.
//
// @Summary      Update a title
// @Tags         titles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        title_id  path      string        true  "Title ID"
// @Param        body      body      titleRequest  true  "Fields to change"
// @Success      200       {object}  titleResponse
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /titles/{title_id} [patch]
func (h *CatalogHandler) UpdateTitle(c echo.Context) error {
	var req titleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.UpdateTitle(c.Request().Context(), c.Param("title_id"), toTitleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTitleResponse(*view))
}

// DeleteTitle handles DELETE /api/v1/titles/:title_id. Its reviews and
// their comments go with it.
//
// @Summary      Delete a title
// @Tags         titles
// @Security     BearerAuth
// @Param        title_id  path  string  true  "Title ID"
// @Success      204
// @Failure      401       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /titles/{title_id} [delete]
func (h *CatalogHandler) DeleteTitle(c echo.Context) error {
	if err := h.service.DeleteTitle(c.Request().Context(), c.Param("title_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
