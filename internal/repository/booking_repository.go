package repository

import (
	"context"

	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/model"
)

const bookingColumns = `id,user_id,user_email,tour_id,tour_name,full_name,phone,guest_size,book_at,unit_price,
	total_price,status,payment_order_id,payment_id,created_at,updated_at`

// BookingRepo stores bookings. All timestamps are UTC.
type BookingRepo struct{ src database.Source }

// NewBookingRepo returns a BookingRepo reading from src.
func NewBookingRepo(src database.Source) *BookingRepo { return &BookingRepo{src: src} }

// Create inserts b, filling its timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	_, err = db.ExecContext(ctx,
		"INSERT INTO bookings ("+bookingColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		b.ID, b.UserID, b.UserEmail, b.TourID, b.TourName, b.FullName, b.Phone, b.GuestSize,
		database.FormatTime(b.BookAt), b.UnitPrice, b.TotalPrice, b.Status, b.PaymentOrderID, b.PaymentID,
		database.FormatTime(b.CreatedAt), database.FormatTime(b.UpdatedAt))
	return database.Classify(err)
}

// GetByID loads one booking.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	b, err := scanBooking(db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Booking{}, notFound(err, "booking")
	}
	return b, nil
}

// OwnerOf returns the user id that made booking id.
func (r *BookingRepo) OwnerOf(ctx context.Context, id string) (string, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return "", err
	}
	var owner string
	if err := db.QueryRowContext(ctx, "SELECT user_id FROM bookings WHERE id=? LIMIT 1", id).Scan(&owner); err != nil {
		return "", notFound(err, "booking")
	}
	return owner, nil
}

// List returns a page of all bookings, or only userID's when it is set.
func (r *BookingRepo) List(ctx context.Context, userID string, p model.ListParams) (model.Page[model.Booking], error) {
	out := model.Page[model.Booking]{Page: p.Page, Limit: p.Limit}
	db, err := r.src.DB(ctx)
	if err != nil {
		return out, err
	}
	cond, args := "1=1", []any{}
	if userID != "" {
		cond, args = "user_id=?", []any{userID}
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE "+cond, args...).Scan(&out.Total); err != nil {
		return out, database.Classify(err)
	}
	order := "created_at DESC, id DESC"
	if p.Sort == model.SortOldest {
		order = "created_at ASC, id ASC"
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return out, database.Classify(err)
	}
	defer rows.Close()

	out.Items = make([]model.Booking, 0, p.Limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return out, database.Classify(err)
		}
		out.Items = append(out.Items, b)
	}
	return out, database.Classify(rows.Err())
}

// SetPaymentOrder records the provider order created for a booking.
func (r *BookingRepo) SetPaymentOrder(ctx context.Context, id, orderID string) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "UPDATE bookings SET payment_order_id=?, updated_at=? WHERE id=?",
		orderID, database.FormatTime(now()), id)
	if err != nil {
		return database.Classify(err)
	}
	return requireAffected(res, "booking")
}

// Confirm marks a booking paid. Only the order previously recorded by
// SetPaymentOrder can confirm it; any other order reads as not found.
func (r *BookingRepo) Confirm(ctx context.Context, id, orderID, paymentID string) (model.Booking, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status=?, payment_id=?, updated_at=? WHERE id=? AND payment_order_id=? AND payment_order_id<>''",
		model.BookingConfirmed, paymentID, database.FormatTime(now()), id, orderID)
	if err != nil {
		return model.Booking{}, database.Classify(err)
	}
	if err := requireAffected(res, "booking"); err != nil {
		return model.Booking{}, err
	}
	return r.GetByID(ctx, id)
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	var bookAt string
	var ts timestamps
	dest := append([]any{&b.ID, &b.UserID, &b.UserEmail, &b.TourID, &b.TourName, &b.FullName, &b.Phone,
		&b.GuestSize, &bookAt, &b.UnitPrice, &b.TotalPrice, &b.Status, &b.PaymentOrderID, &b.PaymentID}, ts.dest()...)
	if err := s.Scan(dest...); err != nil {
		return model.Booking{}, err
	}
	var err error
	if b.BookAt, err = database.ParseTime(bookAt); err != nil {
		return model.Booking{}, err
	}
	return b, ts.decode(&b.CreatedAt, &b.UpdatedAt)
}

