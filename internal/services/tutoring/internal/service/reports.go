package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
)

const maxReasonLen = 200

type Reports struct {
	store store.Store
}

func NewReports(st store.Store) *Reports {
	return &Reports{store: st}
}

type ReportRequest struct {
	Type        model.ReportType `json:"type"`
	ReferenceID int64            `json:"reference_id"`
	Reason      string           `json:"reason"`
	Description *string          `json:"description"`
}

// Create files a report by the caller against a user or a review.
func (s *Reports) Create(ctx context.Context, reporter model.User, r ReportRequest) (model.Report, error) {
	if err := s.validate(ctx, r); err != nil {
		return model.Report{}, err
	}

	created, err := s.store.CreateReport(ctx, model.Report{
		Type:        r.Type,
		ReferenceID: r.ReferenceID,
		UserID:      reporter.ID,
		Reason:      r.Reason,
		Description: r.Description,
	})
	if err != nil {
		return model.Report{}, reportWriteErr(err, "create report")
	}
	return created, nil
}

func (s *Reports) Get(ctx context.Context, id int64) (model.Report, error) {
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return model.Report{}, notFoundOr(err, "get report", "Report %d not found", id)
	}
	return r, nil
}

func (s *Reports) List(ctx context.Context, params url.Values) (query.Page[model.Report], error) {
	spec, err := parseSpec(query.Reports, params)
	if err != nil {
		return query.Page[model.Report]{}, err
	}

	page, err := s.store.ListReports(ctx, spec)
	if err != nil {
		return page, fmt.Errorf("list reports: %w", err)
	}
	return page, nil
}

func (s *Reports) Update(ctx context.Context, id int64, r ReportRequest) (model.Report, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return model.Report{}, err
	}

	if err := s.validate(ctx, r); err != nil {
		return model.Report{}, err
	}

	cur.Type = r.Type
	cur.ReferenceID = r.ReferenceID
	cur.Reason = r.Reason
	cur.Description = r.Description

	updated, err := s.store.UpdateReport(ctx, cur)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Report{}, serr.NotFound(err, "Report %d not found", id)
		}
		return model.Report{}, reportWriteErr(err, "update report")
	}
	return updated, nil
}

func (s *Reports) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteReport(ctx, id); err != nil {
		return notFoundOr(err, "delete report", "Report %d not found", id)
	}
	return nil
}

func (s *Reports) validate(ctx context.Context, r ReportRequest) error {
	if !r.Type.Valid() {
		return serr.BadRequest(nil, "Invalid report type %q", r.Type)
	}

	if strings.TrimSpace(r.Reason) == "" {
		return serr.BadRequest(nil, "Reason is required")
	}
	if utf8.RuneCountInString(r.Reason) > maxReasonLen {
		return serr.BadRequest(nil, "Reason must be at most %d characters", maxReasonLen)
	}

	switch r.Type {
	case model.ReportUser:
		if _, err := s.store.GetUser(ctx, r.ReferenceID); err != nil {
			return notFoundOr(err, "get reported user", "User %d not found", r.ReferenceID)
		}
	case model.ReportReview:
		if _, err := s.store.GetReview(ctx, r.ReferenceID); err != nil {
			return notFoundOr(err, "get reported review", "Review %d not found", r.ReferenceID)
		}
	}

	return nil
}

func reportWriteErr(err error, op string) error {
	switch {
	case errors.Is(err, store.ErrInvalid):
		return serr.BadRequest(err, "Invalid report")
	case errors.Is(err, store.ErrReference):
		return serr.NotFound(err, "Reporter not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
