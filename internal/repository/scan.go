package repository

import (
	"encoding/json"
	"time"

	"github.com/iliyamo/travel-booking-api/internal/database"
)

// timestamps scans the created_at/updated_at pair.
type timestamps struct {
	created, updated string
}

func (ts *timestamps) dest() []any { return []any{&ts.created, &ts.updated} }

func (ts *timestamps) decode(created, updated *time.Time) error {
	var err error
	if *created, err = database.ParseTime(ts.created); err != nil {
		return err
	}
	*updated, err = database.ParseTime(ts.updated)
	return err
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON[T any](s string) (T, error) {
	var v T
	if s == "" {
		return v, nil
	}
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
