package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/model"
)

const userColumns = "id,username,email,password_hash,role,photo,created_at,updated_at"

// MySQL reports the key name, SQLite the indexed column.
var userUniqueFields = map[string]string{
	"uq_users_username": "username", "users.username_key": "username",
	"uq_users_email": "email", "users.email_key": "email",
}

// UserRepo stores user accounts.
type UserRepo struct{ src database.Source }

// NewUserRepo returns a UserRepo reading from src.
func NewUserRepo(src database.Source) *UserRepo { return &UserRepo{src: src} }

// now is shared by every repository; stored times carry microseconds.
func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Create inserts u. ID must already be set; timestamps are filled in.
// A taken username or email yields DuplicateKey naming the field.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	_, err = db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+",username_key,email_key) VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Photo,
		database.FormatTime(u.CreatedAt), database.FormatTime(u.UpdatedAt),
		normalizeKey(u.Username), normalizeKey(u.Email))
	if err != nil {
		return duplicateField(err, userUniqueFields)
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.User{}, err
	}
	row := db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, notFound(err, "user")
	}
	return u, nil
}

// GetByLogin finds a user whose email or username equals login,
// ignoring case. An email match wins over a username match.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (model.User, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.User{}, err
	}
	key := normalizeKey(login)
	row := db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email_key=? OR username_key=? ORDER BY CASE WHEN email_key=? THEN 0 ELSE 1 END LIMIT 1",
		key, key, key)
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, notFound(err, "user")
	}
	return u, nil
}

// List returns one page of users, newest first.
func (r *UserRepo) List(ctx context.Context, p model.ListParams) (model.Page[model.User], error) {
	out := model.Page[model.User]{Page: p.Page, Limit: p.Limit}
	db, err := r.src.DB(ctx)
	if err != nil {
		return out, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&out.Total); err != nil {
		return out, database.Classify(err)
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		p.Limit, p.Offset())
	if err != nil {
		return out, database.Classify(err)
	}
	defer rows.Close()

	out.Items = make([]model.User, 0, p.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return out, database.Classify(err)
		}
		out.Items = append(out.Items, u)
	}
	return out, database.Classify(rows.Err())
}

// Update writes the mutable columns of u.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	u.UpdatedAt = now()
	res, err := db.ExecContext(ctx,
		`UPDATE users SET username=?, username_key=?, email=?, email_key=?, password_hash=?, role=?, photo=?, updated_at=?
		 WHERE id=?`,
		u.Username, normalizeKey(u.Username), u.Email, normalizeKey(u.Email), u.PasswordHash, u.Role, u.Photo,
		database.FormatTime(u.UpdatedAt), u.ID)
	if err != nil {
		return duplicateField(err, userUniqueFields)
	}
	return requireAffected(res, "user")
}

// Delete removes the user and returns the record as it was.
func (r *UserRepo) Delete(ctx context.Context, id string) (model.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.User{}, err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return model.User{}, database.Classify(err)
	}
	return u, requireAffected(res, "user")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	var ts timestamps
	dest := append([]any{&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Photo}, ts.dest()...)
	if err := s.Scan(dest...); err != nil {
		return model.User{}, err
	}
	return u, ts.decode(&u.CreatedAt, &u.UpdatedAt)
}
