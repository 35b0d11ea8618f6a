package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
)

// Aggregator maintains fields derived from child collections: a tour's
// rating pair and an experience's like count.
type Aggregator struct {
	tours       *repository.TourRepo
	reviews     *repository.ReviewRepo
	experiences *repository.ExperienceRepo
	log         *slog.Logger
}

// NewAggregator returns an Aggregator over the given stores.
func NewAggregator(tours *repository.TourRepo, reviews *repository.ReviewRepo, experiences *repository.ExperienceRepo, log *slog.Logger) *Aggregator {
	return &Aggregator{tours: tours, reviews: reviews, experiences: experiences, log: log}
}

// RecomputeTourRating rewrites the tour's average (one decimal) and count
// from its current reviews. No reviews yields 0 and 0.
func (a *Aggregator) RecomputeTourRating(ctx context.Context, tourID string) (model.RatingSummary, error) {
	count, mean, err := a.reviews.Stats(ctx, tourID)
	if err != nil {
		return model.RatingSummary{}, err
	}
	s := model.RatingSummary{Quantity: count}
	if count > 0 {
		s.Average = roundRating(mean)
	}
	if err := a.tours.SetRating(ctx, tourID, s); err != nil {
		return model.RatingSummary{}, err
	}
	return s, nil
}

// refreshTourRating is RecomputeTourRating for callers that must not fail
// because of it.
func (a *Aggregator) refreshTourRating(ctx context.Context, tourID string) {
	if _, err := a.RecomputeTourRating(ctx, tourID); err != nil {
		a.log.Warn("recompute tour rating failed", "tour_id", tourID, "err", err)
	}
}

// ToggleLike flips userID's like on an experience. The membership change
// and the count rewrite commit together.
func (a *Aggregator) ToggleLike(ctx context.Context, experienceID, userID string) (model.LikeResult, error) {
	return a.experiences.ToggleLike(ctx, experienceID, userID)
}

func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
