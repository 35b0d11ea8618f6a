package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/logger"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/payment"
	"github.com/iliyamo/travel-booking-api/internal/queue"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/storage"
	"github.com/iliyamo/travel-booking-api/internal/utils"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeProvider struct{ secret string }

func (f fakeProvider) CreateOrder(_ context.Context, amount int64, currency, receipt string) (payment.Order, error) {
	return payment.Order{ID: "order_" + receipt, Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}
func (f fakeProvider) KeyID() string  { return "rzp_test_key" }
func (f fakeProvider) Secret() string { return f.secret }

type env struct {
	auth        *AuthService
	users       *UserService
	tours       *TourService
	reviews     *ReviewService
	bookings    *BookingService
	experiences *ExperienceService
	payments    *PaymentService
	agg         *Aggregator
	images      *storage.LocalStore
	tokens      *utils.TokenService
	events      *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite))
	src := database.FromDB(db)
	t.Cleanup(func() { _ = src.Close() })

	log := logger.Discard()
	v := validation.New()
	userRepo := repository.NewUserRepo(src)
	tourRepo := repository.NewTourRepo(src)
	reviewRepo := repository.NewReviewRepo(src)
	bookingRepo := repository.NewBookingRepo(src)
	expRepo := repository.NewExperienceRepo(src)
	tokens := utils.NewTokenService("test-secret", time.Hour)
	events := &recorder{}
	agg := NewAggregator(tourRepo, reviewRepo, expRepo, log)
	images, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080", 3, 1<<20)
	require.NoError(t, err)

	return &env{
		auth:        NewAuthService(userRepo, tokens, v, utils.MinBcryptCost),
		users:       NewUserService(userRepo, v),
		tours:       NewTourService(tourRepo, reviewRepo, v),
		reviews:     NewReviewService(reviewRepo, tourRepo, agg, v),
		bookings:    NewBookingService(bookingRepo, tourRepo, userRepo, events, v, log),
		experiences: NewExperienceService(expRepo, agg, images, v, log),
		payments:    NewPaymentService(fakeProvider{secret: "pay-secret"}, bookingRepo, "INR", events, v, log),
		agg:         agg,
		images:      images,
		tokens:      tokens,
		events:      events,
	}
}

func (e *env) register(t *testing.T, name string) model.Identity {
	t.Helper()
	res, err := e.auth.Register(context.Background(), model.RegisterInput{
		Username: name, Email: name + "@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	return model.Identity{ID: res.User.ID, Role: res.User.Role, Username: res.User.Username}
}

func (e *env) tour(t *testing.T, title string) model.Tour {
	t.Helper()
	tr, err := e.tours.Create(context.Background(), model.TourInput{
		Title: title, Description: "desc", Price: 120, MaxGroupSize: 6, City: "Cusco",
	})
	require.NoError(t, err)
	return tr
}

func TestRegister_HashesPassword(t *testing.T) {
	e := newEnv(t)
	res, err := e.auth.Register(context.Background(), model.RegisterInput{
		Username: "alice", Email: "Alice@Example.com", Password: "correct",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "correct", res.User.PasswordHash)
	assert.True(t, utils.VerifyPassword(res.User.PasswordHash, "correct"))
	assert.Equal(t, model.RoleUser, res.User.Role)
	assert.Equal(t, "alice@example.com", res.User.Email)

	claims, err := e.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())
	assert.Equal(t, "alice", claims.Username)
}

func TestRegister_ValidationListsEveryField(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.Register(context.Background(), model.RegisterInput{Username: "al", Email: "nope", Password: "123"})
	require.True(t, errors.Is(err, apperr.ErrValidation))
	ae, _ := apperr.As(err)
	var fields []string
	for _, f := range ae.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"username", "email", "password"}, fields)
}

func TestRegister_UsernameCannotLookLikeEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.auth.Register(ctx, model.RegisterInput{Username: "victim@example.com", Email: "squatter@example.com", Password: "secret1"})
	require.True(t, errors.Is(err, apperr.ErrValidation))
	ae, _ := apperr.As(err)
	assert.Equal(t, "username", ae.Field())

	alice := e.register(t, "alice")
	name := "alice@example.org"
	_, err = e.users.Update(ctx, alice.ID, model.UserPatch{Username: &name})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.auth.Register(ctx, model.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = e.auth.Register(ctx, model.RegisterInput{Username: "someone", Email: "ALICE@example.com", Password: "secret1"})
	require.True(t, errors.Is(err, apperr.ErrDuplicateKey))
	ae, _ := apperr.As(err)
	assert.Equal(t, "email", ae.Field())

	_, err = e.auth.Register(ctx, model.RegisterInput{Username: "Alice", Email: "new@example.com", Password: "secret1"})
	ae, _ = apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "username", ae.Field())
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.auth.Register(ctx, model.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "correct"})
	require.NoError(t, err)

	_, err = e.auth.Authenticate(ctx, "alice@example.com", "wrongpass")
	assert.True(t, errors.Is(err, apperr.ErrInvalidCredentials))

	_, err = e.auth.Authenticate(ctx, "nobody@example.com", "correct")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	u, err := e.auth.Authenticate(ctx, "alice@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	res, err := e.auth.Login(ctx, model.LoginInput{Identifier: "ALICE", Password: "correct"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestCreateUser_AdminRole(t *testing.T) {
	e := newEnv(t)
	u, err := e.auth.CreateUser(context.Background(), model.CreateUserInput{
		RegisterInput: model.RegisterInput{Username: "root", Email: "root@example.com", Password: "secret1"},
		Role:          model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestUserUpdate_StripsPasswordAndRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	who := e.register(t, "mallory")

	role, pw, photo := model.RoleAdmin, "newpass99", "https://cdn.example.com/m.png"
	u, err := e.users.Update(ctx, who.ID, model.UserPatch{Role: &role, Password: &pw, Photo: &photo})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, photo, u.Photo)

	_, err = e.auth.Authenticate(ctx, "mallory", "newpass99")
	assert.True(t, errors.Is(err, apperr.ErrInvalidCredentials))
	_, err = e.auth.Authenticate(ctx, "mallory", "secret123")
	assert.NoError(t, err)
}

func TestInvalidIdentifierBeforeStore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.tours.Get(ctx, "not-an-id")
	assert.True(t, errors.Is(err, apperr.ErrInvalidIdentifier))
	_, err = e.users.Delete(ctx, "123")
	assert.True(t, errors.Is(err, apperr.ErrInvalidIdentifier))
	_, err = e.experiences.View(ctx, "zzzzzzzzzzzzzzzzzzzzzzzz", model.Identity{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidIdentifier))

	_, err = e.tours.Get(ctx, id.New())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestReviews_DuplicateAndRating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tr := e.tour(t, "Machu Picchu")
	alice, bob := e.register(t, "alice"), e.register(t, "bob")

	_, err := e.reviews.Create(ctx, tr.ID, alice, model.ReviewInput{ReviewText: "great", Rating: 4})
	require.NoError(t, err)
	_, err = e.reviews.Create(ctx, tr.ID, alice, model.ReviewInput{ReviewText: "again", Rating: 1})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))

	bobs, err := e.reviews.Create(ctx, tr.ID, bob, model.ReviewInput{ReviewText: "superb", Rating: 5})
	require.NoError(t, err)

	got, err := e.tours.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.RatingsAverage)
	assert.Equal(t, 2, got.RatingsQuantity)
	assert.Len(t, got.Reviews, 2)

	_, err = e.reviews.Delete(ctx, bobs.ID, alice)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = e.reviews.Delete(ctx, bobs.ID, bob)
	require.NoError(t, err)
	got, err = e.tours.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.RatingsAverage)
	assert.Equal(t, 1, got.RatingsQuantity)
}

func TestReviews_RatingValidationAndMissingTour(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	who := e.register(t, "alice")

	_, err := e.reviews.Create(ctx, id.New(), who, model.ReviewInput{ReviewText: "x", Rating: 3})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	tr := e.tour(t, "Sacred Valley")
	_, err = e.reviews.Create(ctx, tr.ID, who, model.ReviewInput{ReviewText: "x", Rating: 6})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestRecomputeTourRating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tr := e.tour(t, "Lima Food Walk")

	s, err := e.agg.RecomputeTourRating(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RatingSummary{}, s)

	for i, r := range []int{5, 4, 4} {
		who := e.register(t, []string{"ann", "ben", "cat"}[i])
		_, err := e.reviews.Create(ctx, tr.ID, who, model.ReviewInput{ReviewText: "ok", Rating: r})
		require.NoError(t, err)
	}
	s, err = e.agg.RecomputeTourRating(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RatingSummary{Average: 4.3, Quantity: 3}, s)

	_, err = e.agg.RecomputeTourRating(ctx, id.New())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestTourList_Validation(t *testing.T) {
	e := newEnv(t)
	_, err := e.tours.List(context.Background(), model.TourFilter{}, model.ListParams{Sort: "cheapest"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = e.tours.Create(context.Background(), model.TourInput{Title: " "})
	ae, _ := apperr.As(err)
	require.NotNil(t, ae)
	assert.GreaterOrEqual(t, len(ae.Fields), 4)
}

func TestBookings_PriceSnapshotAndEvent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tr := e.tour(t, "Inca Trail")
	who := e.register(t, "alice")

	b, err := e.bookings.Create(ctx, who, model.BookingInput{
		TourID: tr.ID, FullName: "Alice Doe", Phone: "+51 555 0100", GuestSize: 3,
		BookAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, b.UnitPrice)
	assert.Equal(t, 360.0, b.TotalPrice)
	assert.Equal(t, "alice@example.com", b.UserEmail)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, []string{queue.TypeBookingCreated}, e.events.types())

	price := 999.0
	_, err = e.tours.Update(ctx, tr.ID, model.TourPatch{Price: &price})
	require.NoError(t, err)
	got, err := e.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 360.0, got.TotalPrice)

	owner, err := e.bookings.OwnerOf(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, who.ID, owner)

	_, err = e.bookings.Create(ctx, who, model.BookingInput{
		TourID: tr.ID, FullName: "Alice Doe", Phone: "5550100", GuestSize: 50, BookAt: time.Now(),
	})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func newExperienceInput(title, budget string, cats ...string) model.ExperienceInput {
	return model.ExperienceInput{
		Title: title, Destination: "Masai Mara, Kenya", Description: "Big cats at dawn",
		Duration: 4, GroupSize: 2, BudgetRange: budget, Categories: cats,
		Itinerary: []model.ItineraryDay{{Day: 1, Activities: "Arrive"}, {Day: 2, Activities: "Game drive"}},
	}
}

func TestExperiences_CreateDefaultsAndOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.register(t, "alice"), e.register(t, "bob")

	anon, err := e.experiences.Create(ctx, nil, newExperienceInput("Mara", model.BudgetLuxury, "wildlife"), nil)
	require.NoError(t, err)
	assert.Equal(t, model.AnonymousAuthor, anon.Author.Name)
	assert.Nil(t, anon.IsLiked)

	owned, err := e.experiences.Create(ctx, &alice, newExperienceInput("Zanzibar", model.BudgetMid, "beach"),
		[]string{"http://localhost:8080/uploads/experiences/a.png"})
	require.NoError(t, err)
	assert.Equal(t, model.Author{Name: "alice", UserID: alice.ID}, owned.Author)
	assert.Len(t, owned.Images, 1)

	title := "Zanzibar spice tour"
	_, err = e.experiences.Update(ctx, owned.ID, bob, model.ExperiencePatch{Title: &title})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = e.experiences.Update(ctx, anon.ID, alice, model.ExperiencePatch{Title: &title})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	updated, err := e.experiences.Update(ctx, owned.ID, alice, model.ExperiencePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	admin := model.Identity{ID: id.New(), Role: model.RoleAdmin}
	_, err = e.experiences.Delete(ctx, anon.ID, admin)
	require.NoError(t, err)
}

func TestExperiences_ViewsAndLikes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	exp, err := e.experiences.Create(ctx, nil, newExperienceInput("Serengeti", model.BudgetLuxury, "wildlife"), nil)
	require.NoError(t, err)

	first, err := e.experiences.View(ctx, exp.ID, model.Identity{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Views)

	res, err := e.experiences.ToggleLike(ctx, exp.ID, alice)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)

	seen, err := e.experiences.View(ctx, exp.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, seen.Views)
	require.NotNil(t, seen.IsLiked)
	assert.True(t, *seen.IsLiked)
	assert.Equal(t, []string{alice.ID}, seen.LikedBy)

	res, err = e.experiences.ToggleLike(ctx, exp.ID, alice)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.Likes)
	assert.NotContains(t, res.LikedBy, alice.ID)
}

func TestExperiences_ListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	for _, in := range []model.ExperienceInput{
		newExperienceInput("Luxury Safari", model.BudgetLuxury, "wildlife"),
		newExperienceInput("Budget hostel hop", model.BudgetLow, "city"),
		newExperienceInput("Glamping", model.BudgetLuxury, "nature"),
	} {
		_, err := e.experiences.Create(ctx, nil, in, nil)
		require.NoError(t, err)
	}
	draft := newExperienceInput("Secret safari", model.BudgetLuxury, "wildlife")
	unpublished := false
	draft.IsPublished = &unpublished
	_, err := e.experiences.Create(ctx, &alice, draft, nil)
	require.NoError(t, err)

	page, err := e.experiences.List(ctx, model.ExperienceFilter{BudgetRange: model.BudgetLuxury}, model.ListParams{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, x := range page.Items {
		assert.Equal(t, model.BudgetLuxury, x.BudgetRange)
	}

	page, err = e.experiences.List(ctx, model.ExperienceFilter{Search: "SAFARI"}, model.ListParams{}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	mine, err := e.experiences.Mine(ctx, alice, model.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)

	_, err = e.experiences.List(ctx, model.ExperienceFilter{Category: "space"}, model.ListParams{}, "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = e.experiences.List(ctx, model.ExperienceFilter{}, model.ListParams{Sort: "price_asc"}, "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestExperiences_CreateValidation(t *testing.T) {
	e := newEnv(t)
	in := newExperienceInput("", "deluxe", "space")
	in.Itinerary = append(in.Itinerary, model.ItineraryDay{Day: 0})
	_, err := e.experiences.Create(context.Background(), nil, in, nil)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	var fields []string
	for _, f := range ae.Fields {
		fields = append(fields, f.Field)
	}
	assert.Subset(t, fields, []string{"title", "budgetRange", "categories[0]", "itinerary[2].day", "itinerary[2].activities"})
}

func TestPayments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tr := e.tour(t, "Amazon Lodge")
	alice, bob := e.register(t, "alice"), e.register(t, "bob")
	b, err := e.bookings.Create(ctx, alice, model.BookingInput{
		TourID: tr.ID, FullName: "Alice", Phone: "5550100", GuestSize: 2, BookAt: time.Now(),
	})
	require.NoError(t, err)

	order, err := e.payments.CreateOrder(ctx, alice, CreateOrderInput{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(24000), order.Amount)
	assert.Equal(t, "INR", order.Currency)

	_, err = e.payments.CreateOrder(ctx, alice, CreateOrderInput{Amount: 0})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	sig := payment.Sign(order.ID, "pay_1", "pay-secret")
	_, err = e.payments.VerifyPayment(ctx, alice, VerifyPaymentInput{OrderID: order.ID, PaymentID: "pay_2", Signature: sig})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = e.payments.VerifyPayment(ctx, bob, VerifyPaymentInput{OrderID: order.ID, PaymentID: "pay_1", Signature: sig, BookingID: b.ID})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	res, err := e.payments.VerifyPayment(ctx, alice, VerifyPaymentInput{OrderID: order.ID, PaymentID: "pay_1", Signature: sig, BookingID: b.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Booking)
	assert.Equal(t, model.BookingConfirmed, res.Booking.Status)
	assert.Equal(t, order.ID, res.Booking.PaymentOrderID)
	assert.Contains(t, e.events.types(), queue.TypePaymentVerified)
	assert.Equal(t, "rzp_test_key", e.payments.KeyID())

	_, err = e.payments.CreateOrder(ctx, alice, CreateOrderInput{BookingID: b.ID})
	assert.True(t, errors.Is(err, apperr.ErrValidation), "confirmed booking cannot be charged again")
}

func TestPayments_OrderMustMatchBooking(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tr := e.tour(t, "Salt Flats")
	alice := e.register(t, "alice")
	b, err := e.bookings.Create(ctx, alice, model.BookingInput{
		TourID: tr.ID, FullName: "Alice", Phone: "5550100", GuestSize: 3, BookAt: time.Now(),
	})
	require.NoError(t, err)

	// A cheap order not tied to any booking carries a valid signature.
	cheap, err := e.payments.CreateOrder(ctx, alice, CreateOrderInput{Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(100), cheap.Amount)

	tests := []struct {
		name  string
		in    CreateOrderInput
		field string
	}{
		{"understated amount", CreateOrderInput{Amount: 1, BookingID: b.ID}, "amount"},
		{"overstated amount", CreateOrderInput{Amount: 999, BookingID: b.ID}, "amount"},
		{"no amount without booking", CreateOrderInput{}, "amount"},
		{"negative amount", CreateOrderInput{Amount: -5}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.payments.CreateOrder(ctx, alice, tt.in)
			require.True(t, errors.Is(err, apperr.ErrValidation), err)
			ae, _ := apperr.As(err)
			assert.Equal(t, tt.field, ae.Field())
		})
	}

	_, err = e.payments.VerifyPayment(ctx, alice, VerifyPaymentInput{
		OrderID: cheap.ID, PaymentID: "pay_cheap", Signature: payment.Sign(cheap.ID, "pay_cheap", "pay-secret"), BookingID: b.ID,
	})
	require.True(t, errors.Is(err, apperr.ErrValidation))
	ae, _ := apperr.As(err)
	assert.Equal(t, "razorpay_order_id", ae.Field())

	got, err := e.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)

	order, err := e.payments.CreateOrder(ctx, alice, CreateOrderInput{Amount: 360, BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(36000), order.Amount)
	res, err := e.payments.VerifyPayment(ctx, alice, VerifyPaymentInput{
		OrderID: order.ID, PaymentID: "pay_full", Signature: payment.Sign(order.ID, "pay_full", "pay-secret"), BookingID: b.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, res.Booking.Status)
}

// storeImage writes a file into the upload directory the way SaveImages
// does and returns its public URL.
func (e *env) storeImage(t *testing.T, name string) (string, string) {
	t.Helper()
	path := filepath.Join(e.images.Dir, storage.Subdir, name)
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	return e.images.PublicBase + storage.URLPrefix + "/" + storage.Subdir + "/" + name, path
}

func TestExperiences_ForeignUploadsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.register(t, "alice"), e.register(t, "bob")

	aliceURL, alicePath := e.storeImage(t, "alice.png")
	mine, err := e.experiences.Create(ctx, &alice, newExperienceInput("Petra", model.BudgetMid, "historical"), []string{aliceURL})
	require.NoError(t, err)

	t.Run("create", func(t *testing.T) {
		tests := []struct {
			name string
			who  *model.Identity
		}{
			{"other user", &bob},
			{"anonymous", nil},
			{"same user", &alice},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := newExperienceInput("Copycat", model.BudgetLow, "adventure")
				in.Images = []string{"https://cdn.example.com/ok.jpg", aliceURL}
				_, err := e.experiences.Create(ctx, tt.who, in, nil)
				require.True(t, errors.Is(err, apperr.ErrValidation), err)
				ae, _ := apperr.As(err)
				assert.Equal(t, "images[1]", ae.Field())
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		bobs, err := e.experiences.Create(ctx, &bob, newExperienceInput("Wadi Rum", model.BudgetMid, "adventure"), nil)
		require.NoError(t, err)
		images := []string{aliceURL}
		_, err = e.experiences.Update(ctx, bobs.ID, bob, model.ExperiencePatch{Images: &images})
		require.True(t, errors.Is(err, apperr.ErrValidation), err)

		_, err = e.experiences.Delete(ctx, bobs.ID, bob)
		require.NoError(t, err)
	})

	_, err = os.Stat(alicePath)
	require.NoError(t, err, "another user's actions never touch alice's upload")

	kept := []string{aliceURL, "https://cdn.example.com/extra.jpg"}
	updated, err := e.experiences.Update(ctx, mine.ID, alice, model.ExperiencePatch{Images: &kept})
	require.NoError(t, err)
	assert.Equal(t, kept, updated.Images)
}

func TestExperiences_UpdateRemovesDroppedUploads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	keepURL, keepPath := e.storeImage(t, "keep.png")
	dropURL, dropPath := e.storeImage(t, "drop.png")

	exp, err := e.experiences.Create(ctx, &alice, newExperienceInput("Cappadocia", model.BudgetLuxury, "adventure"),
		[]string{keepURL, dropURL})
	require.NoError(t, err)

	title := "Cappadocia balloons"
	_, err = e.experiences.Update(ctx, exp.ID, alice, model.ExperiencePatch{Title: &title})
	require.NoError(t, err)
	_, err = os.Stat(dropPath)
	require.NoError(t, err, "images untouched when the patch leaves them alone")

	images := []string{keepURL}
	updated, err := e.experiences.Update(ctx, exp.ID, alice, model.ExperiencePatch{Images: &images})
	require.NoError(t, err)
	assert.Equal(t, []string{keepURL}, updated.Images)

	_, err = os.Stat(dropPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(keepPath)
	assert.NoError(t, err)

	_, err = e.experiences.Delete(ctx, exp.ID, alice)
	require.NoError(t, err)
	_, err = os.Stat(keepPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExperiences_DraftVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.register(t, "alice"), e.register(t, "bob")
	admin := model.Identity{ID: id.New(), Role: model.RoleAdmin}

	in := newExperienceInput("Secret cove", model.BudgetLow, "beach")
	draft := false
	in.IsPublished = &draft
	exp, err := e.experiences.Create(ctx, &alice, in, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		who     model.Identity
		visible bool
	}{
		{"anonymous", model.Identity{}, false},
		{"other user", bob, false},
		{"author", alice, true},
		{"admin", admin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.experiences.View(ctx, exp.ID, tt.who)
			if !tt.visible {
				assert.True(t, errors.Is(err, apperr.ErrNotFound), err)
				return
			}
			require.NoError(t, err)
			assert.False(t, got.IsPublished)
		})
	}

	// hidden reads are not counted
	got, err := e.experiences.View(ctx, exp.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Views)
}
