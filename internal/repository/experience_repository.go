package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/model"
)

const experienceColumns = `id,title,destination,description,duration,group_size,budget_range,categories,itinerary,
	images,author_name,author_user_id,likes,views,is_published,lng,lat,created_at,updated_at`

// ExperienceSorts lists the accepted sort names; the first is the default.
var ExperienceSorts = []string{model.SortNewest, model.SortOldest, model.SortPopular, model.SortViews}

var experienceOrder = map[string]string{
	model.SortNewest:  "created_at DESC, id DESC",
	model.SortOldest:  "created_at ASC, id ASC",
	model.SortPopular: "likes DESC, created_at DESC, id DESC",
	model.SortViews:   "views DESC, created_at DESC, id DESC",
}

// ExperienceRepo stores experiences. The liker set lives in
// experience_likes; the likes column is always rewritten from it.
type ExperienceRepo struct{ src database.Source }

// NewExperienceRepo returns an ExperienceRepo reading from src.
func NewExperienceRepo(src database.Source) *ExperienceRepo { return &ExperienceRepo{src: src} }

// Create inserts e with zeroed counters and fresh timestamps.
func (r *ExperienceRepo) Create(ctx context.Context, e *model.Experience) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	e.Likes, e.Views, e.LikedBy = 0, 0, []string{}
	args, err := experienceArgs(e)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO experiences ("+experienceColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		append([]any{e.ID}, args...)...)
	return database.Classify(err)
}

// GetByID fetches an experience with its liker set.
func (r *ExperienceRepo) GetByID(ctx context.Context, id string) (model.Experience, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Experience{}, err
	}
	return getExperience(ctx, db, id)
}

// View increments the view counter and returns the updated record.
func (r *ExperienceRepo) View(ctx context.Context, id string) (model.Experience, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Experience{}, err
	}
	res, err := db.ExecContext(ctx, "UPDATE experiences SET views = views + 1 WHERE id=?", id)
	if err != nil {
		return model.Experience{}, database.Classify(err)
	}
	if err := requireAffected(res, "experience"); err != nil {
		return model.Experience{}, err
	}
	return getExperience(ctx, db, id)
}

// List returns experiences matching f.
func (r *ExperienceRepo) List(ctx context.Context, f model.ExperienceFilter, p model.ListParams) (model.Page[model.Experience], error) {
	out := model.Page[model.Experience]{Page: p.Page, Limit: p.Limit}
	db, err := r.src.DB(ctx)
	if err != nil {
		return out, err
	}

	var conds []string
	var args []any
	if f.PublishedOnly {
		conds = append(conds, "is_published = ?")
		args = append(args, true)
	}
	if f.AuthorID != "" {
		conds = append(conds, "author_user_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.Category != "" {
		// categories holds a JSON array of closed-set names
		conds = append(conds, "categories LIKE ? ESCAPE '!'")
		args = append(args, likeContains(`"`+f.Category+`"`))
	}
	if f.BudgetRange != "" {
		conds = append(conds, "budget_range = ?")
		args = append(args, f.BudgetRange)
	}
	if f.Destination != "" {
		conds = append(conds, "LOWER(destination) LIKE ? ESCAPE '!'")
		args = append(args, likeContains(f.Destination))
	}
	if f.Search != "" {
		pat := likeContains(f.Search)
		conds = append(conds, "(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(destination) LIKE ? ESCAPE '!')")
		args = append(args, pat, pat, pat)
	}
	cond := where(conds)

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM experiences WHERE "+cond, args...).Scan(&out.Total); err != nil {
		return out, database.Classify(err)
	}
	order, ok := experienceOrder[p.Sort]
	if !ok {
		order = experienceOrder[model.SortNewest]
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+experienceColumns+" FROM experiences WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return out, database.Classify(err)
	}
	items := make([]model.Experience, 0, p.Limit)
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			rows.Close()
			return out, database.Classify(err)
		}
		items = append(items, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, database.Classify(err)
	}

	// rows must be closed first: SQLite runs on a single connection
	if err := attachLikers(ctx, db, items); err != nil {
		return out, err
	}
	out.Items = items
	return out, nil
}

// Update writes the editable columns of e. Counters are untouched.
func (r *ExperienceRepo) Update(ctx context.Context, e *model.Experience) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	e.UpdatedAt = now()
	cats, err := encodeJSON(e.Categories)
	if err != nil {
		return err
	}
	days, err := encodeJSON(e.Itinerary)
	if err != nil {
		return err
	}
	imgs, err := encodeJSON(e.Images)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE experiences SET title=?, destination=?, description=?, duration=?, group_size=?, budget_range=?,
		 categories=?, itinerary=?, images=?, is_published=?, lng=?, lat=?, updated_at=? WHERE id=?`,
		e.Title, e.Destination, e.Description, e.Duration, e.GroupSize, e.BudgetRange, cats, days, imgs,
		e.IsPublished, e.Location.Lng(), e.Location.Lat(), database.FormatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return database.Classify(err)
	}
	return requireAffected(res, "experience")
}

// Delete removes an experience and its likes.
func (r *ExperienceRepo) Delete(ctx context.Context, id string) (model.Experience, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Experience{}, err
	}
	e, err := getExperience(ctx, db, id)
	if err != nil {
		return model.Experience{}, err
	}
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM experience_likes WHERE experience_id=?", id); err != nil {
			return database.Classify(err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM experiences WHERE id=?", id)
		if err != nil {
			return database.Classify(err)
		}
		return requireAffected(res, "experience")
	})
	if err != nil {
		return model.Experience{}, err
	}
	return e, nil
}

// ToggleLike flips userID's membership in the liker set. The experience row
// is locked by the first UPDATE so concurrent toggles serialise, and likes
// is recomputed from the set inside the same transaction.
func (r *ExperienceRepo) ToggleLike(ctx context.Context, id, userID string) (model.LikeResult, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.LikeResult{}, err
	}
	var out model.LikeResult
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		ts := database.FormatTime(now())
		res, err := tx.ExecContext(ctx, "UPDATE experiences SET updated_at=? WHERE id=?", ts, id)
		if err != nil {
			return database.Classify(err)
		}
		if err := requireAffected(res, "experience"); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, "DELETE FROM experience_likes WHERE experience_id=? AND user_id=?", id, userID)
		if err != nil {
			return database.Classify(err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return database.Classify(err)
		}
		if removed == 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO experience_likes (experience_id,user_id,created_at) VALUES (?,?,?)", id, userID, ts); err != nil {
				return database.Classify(err)
			}
		}
		out.Liked = removed == 0

		if _, err := tx.ExecContext(ctx,
			"UPDATE experiences SET likes = (SELECT COUNT(*) FROM experience_likes WHERE experience_id=?) WHERE id=?",
			id, id); err != nil {
			return database.Classify(err)
		}
		if out.LikedBy, err = likers(ctx, tx, id); err != nil {
			return err
		}
		out.Likes = len(out.LikedBy)
		return nil
	})
	if err != nil {
		return model.LikeResult{}, err
	}
	return out, nil
}

func getExperience(ctx context.Context, q querier, id string) (model.Experience, error) {
	e, err := scanExperience(q.QueryRowContext(ctx, "SELECT "+experienceColumns+" FROM experiences WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Experience{}, notFound(err, "experience")
	}
	if e.LikedBy, err = likers(ctx, q, id); err != nil {
		return model.Experience{}, err
	}
	return e, nil
}

func likers(ctx context.Context, q querier, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id FROM experience_likes WHERE experience_id=? ORDER BY created_at, user_id", id)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, database.Classify(err)
		}
		out = append(out, uid)
	}
	return out, database.Classify(rows.Err())
}

// attachLikers loads the liker sets of items with one query.
func attachLikers(ctx context.Context, q querier, items []model.Experience) error {
	if len(items) == 0 {
		return nil
	}
	idx := make(map[string]int, len(items))
	args := make([]any, 0, len(items))
	for i := range items {
		items[i].LikedBy = []string{}
		idx[items[i].ID] = i
		args = append(args, items[i].ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(items)), ",")
	rows, err := q.QueryContext(ctx,
		"SELECT experience_id, user_id FROM experience_likes WHERE experience_id IN ("+placeholders+") ORDER BY created_at, user_id",
		args...)
	if err != nil {
		return database.Classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var eid, uid string
		if err := rows.Scan(&eid, &uid); err != nil {
			return database.Classify(err)
		}
		if i, ok := idx[eid]; ok {
			items[i].LikedBy = append(items[i].LikedBy, uid)
		}
	}
	return database.Classify(rows.Err())
}

// experienceArgs returns the column values after id, in experienceColumns order.
func experienceArgs(e *model.Experience) ([]any, error) {
	cats, err := encodeJSON(e.Categories)
	if err != nil {
		return nil, err
	}
	days, err := encodeJSON(e.Itinerary)
	if err != nil {
		return nil, err
	}
	imgs, err := encodeJSON(e.Images)
	if err != nil {
		return nil, err
	}
	return []any{e.Title, e.Destination, e.Description, e.Duration, e.GroupSize, e.BudgetRange, cats, days, imgs,
		e.Author.Name, e.Author.UserID, e.Likes, e.Views, e.IsPublished, e.Location.Lng(), e.Location.Lat(),
		database.FormatTime(e.CreatedAt), database.FormatTime(e.UpdatedAt)}, nil
}

func scanExperience(s rowScanner) (model.Experience, error) {
	var e model.Experience
	var cats, days, imgs string
	var lng, lat float64
	var ts timestamps
	dest := append([]any{&e.ID, &e.Title, &e.Destination, &e.Description, &e.Duration, &e.GroupSize, &e.BudgetRange,
		&cats, &days, &imgs, &e.Author.Name, &e.Author.UserID, &e.Likes, &e.Views, &e.IsPublished, &lng, &lat},
		ts.dest()...)
	if err := s.Scan(dest...); err != nil {
		return model.Experience{}, err
	}
	var err error
	if e.Categories, err = decodeJSON[[]string](cats); err != nil {
		return model.Experience{}, err
	}
	if e.Itinerary, err = decodeJSON[[]model.ItineraryDay](days); err != nil {
		return model.Experience{}, err
	}
	if e.Images, err = decodeJSON[[]string](imgs); err != nil {
		return model.Experience{}, err
	}
	e.Location = model.Point(lng, lat)
	return e, ts.decode(&e.CreatedAt, &e.UpdatedAt)
}
