package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/model"
)

const reviewColumns = "id,tour_id,user_id,username,review_text,rating,created_at,updated_at"

// ReviewRepo stores tour reviews.
type ReviewRepo struct{ src database.Source }

// NewReviewRepo returns a ReviewRepo reading from src.
func NewReviewRepo(src database.Source) *ReviewRepo { return &ReviewRepo{src: src} }

// Create inserts rv. A second review by the same user on the same tour
// yields DuplicateKey.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	rv.CreatedAt = now()
	rv.UpdatedAt = rv.CreatedAt
	_, err = db.ExecContext(ctx,
		"INSERT INTO reviews ("+reviewColumns+") VALUES (?,?,?,?,?,?,?,?)",
		rv.ID, rv.TourID, rv.UserID, rv.Username, rv.ReviewText, rv.Rating,
		database.FormatTime(rv.CreatedAt), database.FormatTime(rv.UpdatedAt))
	if _, dup := database.DuplicateKey(err); dup {
		return apperr.Duplicate("tourId", "you have already reviewed this tour").WithCause(err)
	}
	return database.Classify(err)
}

// GetByID loads one review.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (model.Review, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Review{}, err
	}
	rv, err := scanReview(db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Review{}, notFound(err, "review")
	}
	return rv, nil
}

// ListByTour returns a page of a tour's reviews, newest first.
func (r *ReviewRepo) ListByTour(ctx context.Context, tourID string, p model.ListParams) (model.Page[model.Review], error) {
	out := model.Page[model.Review]{Page: p.Page, Limit: p.Limit}
	db, err := r.src.DB(ctx)
	if err != nil {
		return out, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews WHERE tour_id=?", tourID).Scan(&out.Total); err != nil {
		return out, database.Classify(err)
	}
	order := "created_at DESC, id DESC"
	if p.Sort == model.SortOldest {
		order = "created_at ASC, id ASC"
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE tour_id=? ORDER BY "+order+" LIMIT ? OFFSET ?",
		tourID, p.Limit, p.Offset())
	if err != nil {
		return out, database.Classify(err)
	}
	defer rows.Close()
	out.Items, err = collectReviews(rows, p.Limit)
	return out, err
}

// Recent returns up to n of a tour's newest reviews.
func (r *ReviewRepo) Recent(ctx context.Context, tourID string, n int) ([]model.Review, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE tour_id=? ORDER BY created_at DESC, id DESC LIMIT ?", tourID, n)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	return collectReviews(rows, n)
}

// Delete removes a review and returns it.
func (r *ReviewRepo) Delete(ctx context.Context, id string) (model.Review, error) {
	rv, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Review{}, err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	if err != nil {
		return model.Review{}, database.Classify(err)
	}
	return rv, requireAffected(res, "review")
}

// Stats returns the raw count and mean rating of a tour's reviews. The mean
// is 0 when there are none.
func (r *ReviewRepo) Stats(ctx context.Context, tourID string) (count int, mean float64, err error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return 0, 0, err
	}
	var avg sql.NullFloat64
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(rating) FROM reviews WHERE tour_id=?", tourID).Scan(&count, &avg)
	if err != nil {
		return 0, 0, database.Classify(err)
	}
	return count, avg.Float64, nil
}

func collectReviews(rows *sql.Rows, capacity int) ([]model.Review, error) {
	out := make([]model.Review, 0, capacity)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, database.Classify(err)
		}
		out = append(out, rv)
	}
	return out, database.Classify(rows.Err())
}

func scanReview(s rowScanner) (model.Review, error) {
	var rv model.Review
	var ts timestamps
	dest := append([]any{&rv.ID, &rv.TourID, &rv.UserID, &rv.Username, &rv.ReviewText, &rv.Rating}, ts.dest()...)
	if err := s.Scan(dest...); err != nil {
		return model.Review{}, err
	}
	return rv, ts.decode(&rv.CreatedAt, &rv.UpdatedAt)
}
