package service

import (
	"context"
	"strings"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// ReviewService manages tour reviews and keeps tour ratings current.
type ReviewService struct {
	reviews *repository.ReviewRepo
	tours   *repository.TourRepo
	agg     *Aggregator
	v       *validation.Validator
}

// NewReviewService returns a ReviewService.
func NewReviewService(reviews *repository.ReviewRepo, tours *repository.TourRepo, agg *Aggregator, v *validation.Validator) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours, agg: agg, v: v}
}

// Create stores the caller's review of a tour and refreshes the tour's
// rating before returning. A second review by the same user fails with
// DuplicateKey.
func (s *ReviewService) Create(ctx context.Context, tourID string, who model.Identity, in model.ReviewInput) (model.Review, error) {
	if err := requireID(tourID, "tour"); err != nil {
		return model.Review{}, err
	}
	in.ReviewText = strings.TrimSpace(in.ReviewText)
	if err := s.v.Validate(in); err != nil {
		return model.Review{}, err
	}
	if _, err := s.tours.GetByID(ctx, tourID); err != nil {
		return model.Review{}, err
	}
	rv := model.Review{
		ID:         id.New(),
		TourID:     tourID,
		UserID:     who.ID,
		Username:   who.Username,
		ReviewText: in.ReviewText,
		Rating:     in.Rating,
	}
	if err := s.reviews.Create(ctx, &rv); err != nil {
		return model.Review{}, err
	}
	s.agg.refreshTourRating(ctx, tourID)
	return rv, nil
}

// ListByTour pages through a tour's reviews.
func (s *ReviewService) ListByTour(ctx context.Context, tourID string, p model.ListParams) (model.Page[model.Review], error) {
	if err := requireID(tourID, "tour"); err != nil {
		return model.Page[model.Review]{}, err
	}
	p, err := p.Normalize(model.SortNewest, model.SortOldest)
	if err != nil {
		return model.Page[model.Review]{}, err
	}
	return s.reviews.ListByTour(ctx, tourID, p)
}

// Delete removes a review written by the caller (or any review, for an
// admin) and refreshes the tour's rating.
func (s *ReviewService) Delete(ctx context.Context, reviewID string, who model.Identity) (model.Review, error) {
	if err := requireID(reviewID, "review"); err != nil {
		return model.Review{}, err
	}
	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return model.Review{}, err
	}
	if !who.Owns(rv.UserID) {
		return model.Review{}, apperr.Forbidden("you can only delete your own reviews")
	}
	if _, err := s.reviews.Delete(ctx, reviewID); err != nil {
		return model.Review{}, err
	}
	s.agg.refreshTourRating(ctx, rv.TourID)
	return rv, nil
}
