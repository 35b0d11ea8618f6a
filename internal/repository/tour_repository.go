package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/model"
)

const tourColumns = `id,title,description,price,max_group_size,city,address,distance,lng,lat,photo,featured,
	ratings_average,ratings_quantity,created_at,updated_at`

var tourUniqueFields = map[string]string{"uq_tours_title": "title", "tours.title": "title"}

// TourSorts lists the accepted sort names; the first is the default.
var TourSorts = []string{model.SortNewest, model.SortOldest, model.SortPriceAsc, model.SortPriceDesc, model.SortRating}

var tourOrder = map[string]string{
	model.SortNewest:    "created_at DESC, id DESC",
	model.SortOldest:    "created_at ASC, id ASC",
	model.SortPriceAsc:  "price ASC, id ASC",
	model.SortPriceDesc: "price DESC, id DESC",
	model.SortRating:    "ratings_average DESC, ratings_quantity DESC, id DESC",
}

// TourRepo stores tours.
type TourRepo struct{ src database.Source }

// NewTourRepo returns a TourRepo reading from src.
func NewTourRepo(src database.Source) *TourRepo { return &TourRepo{src: src} }

// Create inserts t. A repeated title yields DuplicateKey on "title".
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt
	_, err = db.ExecContext(ctx,
		"INSERT INTO tours ("+tourColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		t.ID, t.Title, t.Description, t.Price, t.MaxGroupSize, t.City, t.Address, t.Distance,
		t.Location.Lng(), t.Location.Lat(), t.Photo, t.Featured, t.RatingsAverage, t.RatingsQuantity,
		database.FormatTime(t.CreatedAt), database.FormatTime(t.UpdatedAt))
	if err != nil {
		return duplicateField(err, tourUniqueFields)
	}
	return nil
}

// GetByID loads one tour.
func (r *TourRepo) GetByID(ctx context.Context, id string) (model.Tour, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Tour{}, err
	}
	t, err := scanTour(db.QueryRowContext(ctx, "SELECT "+tourColumns+" FROM tours WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Tour{}, notFound(err, "tour")
	}
	return t, nil
}

// List returns tours matching f. p must already be normalized against
// TourSorts.
func (r *TourRepo) List(ctx context.Context, f model.TourFilter, p model.ListParams) (model.Page[model.Tour], error) {
	out := model.Page[model.Tour]{Page: p.Page, Limit: p.Limit}
	db, err := r.src.DB(ctx)
	if err != nil {
		return out, err
	}

	var conds []string
	var args []any
	if f.City != "" {
		conds = append(conds, "LOWER(city) LIKE ? ESCAPE '!'")
		args = append(args, likeContains(f.City))
	}
	if f.MinDistance > 0 {
		conds = append(conds, "distance >= ?")
		args = append(args, f.MinDistance)
	}
	if f.MinGroupSize > 0 {
		conds = append(conds, "max_group_size >= ?")
		args = append(args, f.MinGroupSize)
	}
	if f.FeaturedOnly {
		conds = append(conds, "featured = ?")
		args = append(args, true)
	}
	cond := where(conds)

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours WHERE "+cond, args...).Scan(&out.Total); err != nil {
		return out, database.Classify(err)
	}

	order, ok := tourOrder[p.Sort]
	if !ok {
		order = tourOrder[model.SortNewest]
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return out, database.Classify(err)
	}
	defer rows.Close()

	out.Items = make([]model.Tour, 0, p.Limit)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return out, database.Classify(err)
		}
		out.Items = append(out.Items, t)
	}
	return out, database.Classify(rows.Err())
}

// Count returns the number of tours.
func (r *TourRepo) Count(ctx context.Context) (int, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours").Scan(&n); err != nil {
		return 0, database.Classify(err)
	}
	return n, nil
}

// Update writes every editable column of t. Derived rating columns are
// left alone.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	t.UpdatedAt = now()
	res, err := db.ExecContext(ctx,
		`UPDATE tours SET title=?, description=?, price=?, max_group_size=?, city=?, address=?, distance=?,
		 lng=?, lat=?, photo=?, featured=?, updated_at=? WHERE id=?`,
		t.Title, t.Description, t.Price, t.MaxGroupSize, t.City, t.Address, t.Distance,
		t.Location.Lng(), t.Location.Lat(), t.Photo, t.Featured, database.FormatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return duplicateField(err, tourUniqueFields)
	}
	return requireAffected(res, "tour")
}

// SetRating stores the derived rating pair.
func (r *TourRepo) SetRating(ctx context.Context, id string, s model.RatingSummary) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE tours SET ratings_average=?, ratings_quantity=? WHERE id=?", s.Average, s.Quantity, id)
	if err != nil {
		return database.Classify(err)
	}
	return requireAffected(res, "tour")
}

// Delete removes the tour together with its reviews.
func (r *TourRepo) Delete(ctx context.Context, id string) (model.Tour, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Tour{}, err
	}
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Tour{}, err
	}
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE tour_id=?", id); err != nil {
			return database.Classify(err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM tours WHERE id=?", id)
		if err != nil {
			return database.Classify(err)
		}
		return requireAffected(res, "tour")
	})
	if err != nil {
		return model.Tour{}, err
	}
	return t, nil
}

func scanTour(s rowScanner) (model.Tour, error) {
	var t model.Tour
	var lng, lat float64
	var ts timestamps
	dest := append([]any{&t.ID, &t.Title, &t.Description, &t.Price, &t.MaxGroupSize, &t.City, &t.Address,
		&t.Distance, &lng, &lat, &t.Photo, &t.Featured, &t.RatingsAverage, &t.RatingsQuantity}, ts.dest()...)
	if err := s.Scan(dest...); err != nil {
		return model.Tour{}, err
	}
	t.Location = model.Point(lng, lat)
	return t, ts.decode(&t.CreatedAt, &t.UpdatedAt)
}
