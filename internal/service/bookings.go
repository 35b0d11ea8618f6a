package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/queue"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// BookingService creates and lists tour bookings.
type BookingService struct {
	bookings *repository.BookingRepo
	tours    *repository.TourRepo
	users    *repository.UserRepo
	pub      queue.Publisher
	v        *validation.Validator
	log      *slog.Logger
}

// NewBookingService returns a BookingService. pub receives a
// booking.created event per booking.
func NewBookingService(bookings *repository.BookingRepo, tours *repository.TourRepo, users *repository.UserRepo,
	pub queue.Publisher, v *validation.Validator, log *slog.Logger) *BookingService {
	return &BookingService{bookings: bookings, tours: tours, users: users, pub: pub, v: v, log: log}
}

// Create books a tour for the caller. The tour's current price is copied
// onto the booking so later price changes do not alter it.
func (s *BookingService) Create(ctx context.Context, who model.Identity, in model.BookingInput) (model.Booking, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := s.v.Validate(in); err != nil {
		return model.Booking{}, err
	}
	if err := requireID(in.TourID, "tour"); err != nil {
		return model.Booking{}, err
	}
	tour, err := s.tours.GetByID(ctx, in.TourID)
	if err != nil {
		return model.Booking{}, err
	}
	if in.GuestSize > tour.MaxGroupSize {
		return model.Booking{}, apperr.Validationf("guestSize", "guestSize must be at most %d for this tour", tour.MaxGroupSize)
	}
	user, err := s.users.GetByID(ctx, who.ID)
	if err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{
		ID:         id.New(),
		UserID:     user.ID,
		UserEmail:  user.Email,
		TourID:     tour.ID,
		TourName:   tour.Title,
		FullName:   in.FullName,
		Phone:      in.Phone,
		GuestSize:  in.GuestSize,
		BookAt:     in.BookAt.UTC().Truncate(time.Microsecond),
		UnitPrice:  tour.Price,
		TotalPrice: tour.Price * float64(in.GuestSize),
		Status:     model.BookingPending,
	}
	if err := s.bookings.Create(ctx, &b); err != nil {
		return model.Booking{}, err
	}

	publish(ctx, s.pub, s.log, queue.TypeBookingCreated, queue.BookingCreated{
		BookingID:  b.ID,
		UserID:     b.UserID,
		UserEmail:  b.UserEmail,
		TourID:     b.TourID,
		TourName:   b.TourName,
		GuestSize:  b.GuestSize,
		BookAt:     database.FormatTime(b.BookAt),
		TotalPrice: b.TotalPrice,
	})
	return b, nil
}

// Get returns one booking. Ownership is checked by the route guard.
func (s *BookingService) Get(ctx context.Context, bookingID string) (model.Booking, error) {
	if err := requireID(bookingID, "booking"); err != nil {
		return model.Booking{}, err
	}
	return s.bookings.GetByID(ctx, bookingID)
}

// OwnerOf returns the id of the user who made the booking.
func (s *BookingService) OwnerOf(ctx context.Context, bookingID string) (string, error) {
	if err := requireID(bookingID, "booking"); err != nil {
		return "", err
	}
	return s.bookings.OwnerOf(ctx, bookingID)
}

// List returns every booking (admin view).
func (s *BookingService) List(ctx context.Context, p model.ListParams) (model.Page[model.Booking], error) {
	p, err := p.Normalize(model.SortNewest, model.SortOldest)
	if err != nil {
		return model.Page[model.Booking]{}, err
	}
	return s.bookings.List(ctx, "", p)
}

// ListByUser returns one user's bookings.
func (s *BookingService) ListByUser(ctx context.Context, userID string, p model.ListParams) (model.Page[model.Booking], error) {
	if err := requireID(userID, "user"); err != nil {
		return model.Page[model.Booking]{}, err
	}
	p, err := p.Normalize(model.SortNewest, model.SortOldest)
	if err != nil {
		return model.Page[model.Booking]{}, err
	}
	return s.bookings.List(ctx, userID, p)
}
