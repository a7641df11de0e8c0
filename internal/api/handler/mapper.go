package handler

import (
	"time"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// --- Request → Service input ---

func toTitleInput(req titleRequest) ports.TitleInput {
	return ports.TitleInput{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Genres:      req.Genre,
		Category:    req.Category,
	}
}

func toReviewInput(req updateReviewRequest) ports.ReviewInput {
	return ports.ReviewInput{Score: req.Score, Text: req.Text}
}

func toCreateUserInput(req createUserRequest) ports.UserInput {
	in := ports.UserInput{
		Username:  &req.Username,
		Email:     &req.Email,
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
		Bio:       &req.Bio,
	}
	if req.Role != "" {
		role := domain.Role(req.Role)
		in.Role = &role
	}
	return in
}

func toUpdateUserInput(req updateUserRequest) ports.UserInput {
	in := ports.UserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}
	return in
}

// --- Domain → Response ---

func toCategoryResponse(c domain.Category) slugResponse {
	return slugResponse{Name: c.Name, Slug: c.Slug}
}

func toGenreResponse(g domain.Genre) slugResponse {
	return slugResponse{Name: g.Name, Slug: g.Slug}
}

func toTitleResponse(v ports.TitleView) titleResponse {
	resp := titleResponse{
		ID:          v.ID,
		Name:        v.Name,
		Year:        v.Year,
		Rating:      v.Rating,
		Description: v.Description,
		Genre:       make([]slugResponse, 0, len(v.Genres)),
	}
	for _, g := range v.Genres {
		resp.Genre = append(resp.Genre, toGenreResponse(g))
	}
	if v.Category != nil {
		cat := toCategoryResponse(*v.Category)
		resp.Category = &cat
	}
	return resp
}

func toReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author,
		Score:   r.Score,
		PubDate: r.PubDate.UTC().Format(time.RFC3339),
	}
}

func toCommentResponse(c *domain.Comment) commentResponse {
	return commentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author,
		PubDate: c.PubDate.UTC().Format(time.RFC3339),
	}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
	}
}

func toPageResponse[S, T any](p *ports.PageResult[S], convert func(S) T) pageResponse[T] {
	results := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		results = append(results, convert(item))
	}
	return pageResponse[T]{
		Count:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
		Results:    results,
	}
}
