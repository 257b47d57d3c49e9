package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
)

type Reviews struct {
	store store.Store
}

func NewReviews(st store.Store) *Reviews {
	return &Reviews{store: st}
}

type ReviewRequest struct {
	RevieweeID int64  `json:"reviewee_id"`
	Rating     int    `json:"rating"`
	Content    string `json:"content"`
}

// Create stores a review written by the caller.
func (s *Reviews) Create(ctx context.Context, reviewer model.User, r ReviewRequest) (model.Review, error) {
	rev := model.Review{ReviewerID: reviewer.ID, RevieweeID: r.RevieweeID, Rating: r.Rating, Content: r.Content}
	if err := s.validate(ctx, rev); err != nil {
		return model.Review{}, err
	}

	created, err := s.store.CreateReview(ctx, rev)
	if err != nil {
		return model.Review{}, reviewWriteErr(err, "create review")
	}
	return created, nil
}

func (s *Reviews) Get(ctx context.Context, id int64) (model.Review, error) {
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return model.Review{}, notFoundOr(err, "get review", "Review %d not found", id)
	}
	return r, nil
}

func (s *Reviews) List(ctx context.Context, params url.Values) (query.Page[model.Review], error) {
	spec, err := parseSpec(query.Reviews, params)
	if err != nil {
		return query.Page[model.Review]{}, err
	}

	page, err := s.store.ListReviews(ctx, spec)
	if err != nil {
		return page, fmt.Errorf("list reviews: %w", err)
	}
	return page, nil
}

// Update rewrites rating, content and reviewee. The reviewer is kept.
func (s *Reviews) Update(ctx context.Context, id int64, r ReviewRequest) (model.Review, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return model.Review{}, err
	}

	cur.RevieweeID = r.RevieweeID
	cur.Rating = r.Rating
	cur.Content = r.Content
	if err := s.validate(ctx, cur); err != nil {
		return model.Review{}, err
	}

	updated, err := s.store.UpdateReview(ctx, cur)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Review{}, serr.NotFound(err, "Review %d not found", id)
		}
		return model.Review{}, reviewWriteErr(err, "update review")
	}
	return updated, nil
}

func (s *Reviews) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return notFoundOr(err, "delete review", "Review %d not found", id)
	}
	return nil
}

func (s *Reviews) validate(ctx context.Context, r model.Review) error {
	if r.Rating < 1 || r.Rating > 5 {
		return serr.BadRequest(nil, "Rating must be between 1 and 5")
	}

	if r.ReviewerID == r.RevieweeID {
		return serr.BadRequest(nil, "Cannot review yourself")
	}

	if _, err := s.store.GetUser(ctx, r.RevieweeID); err != nil {
		return notFoundOr(err, "get reviewee", "User %d not found", r.RevieweeID)
	}

	return nil
}

func reviewWriteErr(err error, op string) error {
	switch {
	case errors.Is(err, store.ErrExists):
		return serr.Conflict(err, "Review already exists")
	case errors.Is(err, store.ErrInvalid):
		return serr.BadRequest(err, "Invalid review")
	case errors.Is(err, store.ErrReference):
		return serr.NotFound(err, "User not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
