package service

import (
	"context"
	"strings"

	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// recentReviews is how many reviews a single tour response embeds.
const recentReviews = 10

// TourService manages the tour catalogue.
type TourService struct {
	tours   *repository.TourRepo
	reviews *repository.ReviewRepo
	v       *validation.Validator
}

// NewTourService returns a TourService.
func NewTourService(tours *repository.TourRepo, reviews *repository.ReviewRepo, v *validation.Validator) *TourService {
	return &TourService{tours: tours, reviews: reviews, v: v}
}

// Create validates and stores a new tour.
func (s *TourService) Create(ctx context.Context, in model.TourInput) (model.Tour, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.City = strings.TrimSpace(in.City)
	if err := s.v.Validate(in); err != nil {
		return model.Tour{}, err
	}
	t := model.Tour{
		ID:           id.New(),
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		MaxGroupSize: in.MaxGroupSize,
		City:         in.City,
		Address:      in.Address,
		Distance:     in.Distance,
		Location:     in.Location.Point(),
		Photo:        in.Photo,
		Featured:     in.Featured,
	}
	if err := s.tours.Create(ctx, &t); err != nil {
		return model.Tour{}, err
	}
	return t, nil
}

// Get returns a tour with its most recent reviews.
func (s *TourService) Get(ctx context.Context, tourID string) (model.Tour, error) {
	if err := requireID(tourID, "tour"); err != nil {
		return model.Tour{}, err
	}
	t, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return model.Tour{}, err
	}
	if t.Reviews, err = s.reviews.Recent(ctx, tourID, recentReviews); err != nil {
		return model.Tour{}, err
	}
	return t, nil
}

// List pages through tours matching f.
func (s *TourService) List(ctx context.Context, f model.TourFilter, p model.ListParams) (model.Page[model.Tour], error) {
	p, err := p.Normalize(repository.TourSorts...)
	if err != nil {
		return model.Page[model.Tour]{}, err
	}
	f.City = strings.TrimSpace(f.City)
	return s.tours.List(ctx, f, p)
}

// Featured lists featured tours.
func (s *TourService) Featured(ctx context.Context, p model.ListParams) (model.Page[model.Tour], error) {
	return s.List(ctx, model.TourFilter{FeaturedOnly: true}, p)
}

// Count returns the number of tours.
func (s *TourService) Count(ctx context.Context) (int, error) {
	return s.tours.Count(ctx)
}

// Update applies a partial update to a tour.
func (s *TourService) Update(ctx context.Context, tourID string, patch model.TourPatch) (model.Tour, error) {
	if err := requireID(tourID, "tour"); err != nil {
		return model.Tour{}, err
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}
	if err := s.v.Validate(patch); err != nil {
		return model.Tour{}, err
	}
	t, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return model.Tour{}, err
	}
	patch.Apply(&t)
	if err := s.tours.Update(ctx, &t); err != nil {
		return model.Tour{}, err
	}
	return t, nil
}

// Delete removes a tour and its reviews.
func (s *TourService) Delete(ctx context.Context, tourID string) (model.Tour, error) {
	if err := requireID(tourID, "tour"); err != nil {
		return model.Tour{}, err
	}
	return s.tours.Delete(ctx, tourID)
}
