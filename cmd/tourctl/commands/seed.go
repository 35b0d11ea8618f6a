package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jaswdr/faker"
	"github.com/spf13/cobra"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/service"
	"github.com/iliyamo/travel-booking-api/internal/utils"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

var seedOpts = seedOptions{Password: "password123"}
var seedValue int64

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store with fake demo data",
	Long: `Create fake users, tours, reviews and experiences through the same
services the API uses, so every record passes the usual validation and tour
ratings are computed from the generated reviews.

Every seeded user gets the --password value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		src := seedValue
		if src == 0 {
			src = time.Now().UnixNano()
		}
		fake := faker.NewWithSeed(rand.NewSource(src))

		sum, err := seed(cmd.Context(), database.FromDB(db), cfg.BcryptCost, cfg.JWTSecret, seedOpts, fake)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d tours, %d reviews, %d experiences, %d likes (password %q)\n",
			sum.Users, sum.Tours, sum.Reviews, sum.Experiences, sum.Likes, seedOpts.Password)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.Users, "users", 5, "number of users")
	f.IntVar(&seedOpts.Tours, "tours", 12, "number of tours")
	f.IntVar(&seedOpts.ReviewsPerTour, "reviews", 3, "maximum reviews per tour")
	f.IntVar(&seedOpts.Experiences, "experiences", 20, "number of experiences")
	f.StringVar(&seedOpts.Password, "password", seedOpts.Password, "password for every seeded user")
	f.Int64Var(&seedValue, "seed", 0, "random seed (0 picks one from the clock)")
}

type seedOptions struct {
	Users          int
	Tours          int
	ReviewsPerTour int
	Experiences    int
	Password       string
}

type seedSummary struct {
	Users       int
	Tours       int
	Reviews     int
	Experiences int
	Likes       int
}

var budgets = []string{model.BudgetLow, model.BudgetMid, model.BudgetLuxury}

func seed(ctx context.Context, src database.Source, cost int, secret string, opts seedOptions, fake faker.Faker) (seedSummary, error) {
	var sum seedSummary
	if opts.Users < 1 {
		return sum, errors.New("seed needs at least one user")
	}

	log := cliLogger()
	v := validation.New()
	userRepo := repository.NewUserRepo(src)
	tourRepo := repository.NewTourRepo(src)
	reviewRepo := repository.NewReviewRepo(src)
	expRepo := repository.NewExperienceRepo(src)
	agg := service.NewAggregator(tourRepo, reviewRepo, expRepo, log)

	auth := service.NewAuthService(userRepo, utils.NewTokenService(secret, time.Hour), v, cost)
	tours := service.NewTourService(tourRepo, reviewRepo, v)
	reviews := service.NewReviewService(reviewRepo, tourRepo, agg, v)
	experiences := service.NewExperienceService(expRepo, agg, nil, v, log)

	people := make([]model.Identity, 0, opts.Users)
	for i := 0; len(people) < opts.Users; i++ {
		if i > opts.Users*5 {
			return sum, fmt.Errorf("could only create %d of %d users", len(people), opts.Users)
		}
		first, last := fake.Person().FirstName(), fake.Person().LastName()
		handle := fmt.Sprintf("%s.%s%d", slug(first), slug(last), fake.IntBetween(10, 9999))
		res, err := auth.Register(ctx, model.RegisterInput{
			Username: handle,
			Email:    handle + "@example.com",
			Password: opts.Password,
		})
		if errors.Is(err, apperr.ErrDuplicateKey) || errors.Is(err, apperr.ErrValidation) {
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("register %s: %w", handle, err)
		}
		people = append(people, model.Identity{ID: res.User.ID, Role: res.User.Role, Username: res.User.Username})
	}
	sum.Users = len(people)

	for attempt := 0; sum.Tours < opts.Tours; attempt++ {
		if attempt > opts.Tours*5 {
			return sum, fmt.Errorf("could only create %d of %d tours", sum.Tours, opts.Tours)
		}
		city := fake.Address().City()
		t, err := tours.Create(ctx, model.TourInput{
			Title:        fmt.Sprintf("%s %s", city, fake.RandomStringElement([]string{"Walking Tour", "Day Trip", "Food Crawl", "Heritage Trail", "Sunset Cruise"})),
			Description:  fake.Lorem().Paragraph(2),
			Price:        float64(fake.IntBetween(20, 900)),
			MaxGroupSize: fake.IntBetween(2, 20),
			City:         city,
			Address:      fake.Address().StreetAddress(),
			Distance:     float64(fake.IntBetween(1, 500)),
			Location:     &model.LocationInput{Lng: fake.Address().Longitude(), Lat: fake.Address().Latitude()},
			Featured:     fake.IntBetween(0, 3) == 0,
		})
		if errors.Is(err, apperr.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("create tour: %w", err)
		}
		sum.Tours++

		for _, who := range pick(fake, people, fake.IntBetween(0, opts.ReviewsPerTour)) {
			_, err := reviews.Create(ctx, t.ID, who, model.ReviewInput{
				ReviewText: fake.Lorem().Sentence(10),
				Rating:     fake.IntBetween(1, 5),
			})
			if err != nil {
				return sum, fmt.Errorf("review tour %s: %w", t.ID, err)
			}
			sum.Reviews++
		}
	}

	for i := 0; i < opts.Experiences; i++ {
		author := people[fake.IntBetween(0, len(people)-1)]
		published := fake.IntBetween(0, 4) > 0
		e, err := experiences.Create(ctx, &author, model.ExperienceInput{
			Title:       fake.Lorem().Sentence(4),
			Destination: fmt.Sprintf("%s, %s", fake.Address().City(), fake.Address().Country()),
			Description: fake.Lorem().Paragraph(3),
			Duration:    fake.IntBetween(1, 14),
			GroupSize:   fake.IntBetween(1, 12),
			BudgetRange: fake.RandomStringElement(budgets),
			Categories:  pick(fake, model.Categories, fake.IntBetween(1, 3)),
			Itinerary: []model.ItineraryDay{
				{Day: 1, Activities: fake.Lorem().Sentence(8)},
				{Day: 2, Activities: fake.Lorem().Sentence(8)},
			},
			IsPublished: &published,
			Location:    &model.LocationInput{Lng: fake.Address().Longitude(), Lat: fake.Address().Latitude()},
		}, nil)
		if err != nil {
			return sum, fmt.Errorf("create experience: %w", err)
		}
		sum.Experiences++

		for _, fan := range pick(fake, people, fake.IntBetween(0, len(people))) {
			if _, err := experiences.ToggleLike(ctx, e.ID, fan); err != nil {
				return sum, fmt.Errorf("like experience %s: %w", e.ID, err)
			}
			sum.Likes++
		}
	}
	return sum, nil
}

// pick returns n distinct elements of from in random order.
func pick[T any](fake faker.Faker, from []T, n int) []T {
	if n > len(from) {
		n = len(from)
	}
	idx := make([]int, len(from))
	for i := range idx {
		idx[i] = i
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		j := fake.IntBetween(i, len(idx)-1)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, from[idx[i]])
	}
	return out
}

func slug(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}
