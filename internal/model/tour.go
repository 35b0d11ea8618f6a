package model

import "time"

// Tour is a bookable product. RatingsAverage and RatingsQuantity are derived
// from the tour's reviews and are only written by rating recomputation.
type Tour struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Description     string    `json:"desc"`
	Price           float64   `json:"price"`
	MaxGroupSize    int       `json:"maxGroupSize"`
	City            string    `json:"city"`
	Address         string    `json:"address"`
	Distance        float64   `json:"distance"`
	Location        GeoPoint  `json:"location"`
	Photo           string    `json:"photo"`
	Featured        bool      `json:"featured"`
	RatingsAverage  float64   `json:"ratingsAverage"`
	RatingsQuantity int       `json:"ratingsQuantity"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Reviews         []Review  `json:"reviews,omitempty"`
}

// TourInput is the create payload.
type TourInput struct {
	Title        string         `json:"title" validate:"required,max=255"`
	Description  string         `json:"desc" validate:"required"`
	Price        float64        `json:"price" validate:"required,gt=0"`
	MaxGroupSize int            `json:"maxGroupSize" validate:"required,gte=1"`
	City         string         `json:"city" validate:"required,max=128"`
	Address      string         `json:"address" validate:"max=255"`
	Distance     float64        `json:"distance" validate:"gte=0"`
	Location     *LocationInput `json:"location"`
	Photo        string         `json:"photo" validate:"max=512"`
	Featured     bool           `json:"featured"`
}

// TourPatch is a partial tour update. Derived rating fields are not part of it.
type TourPatch struct {
	Title        *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string        `json:"desc" validate:"omitempty,min=1"`
	Price        *float64       `json:"price" validate:"omitempty,gt=0"`
	MaxGroupSize *int           `json:"maxGroupSize" validate:"omitempty,gte=1"`
	City         *string        `json:"city" validate:"omitempty,min=1,max=128"`
	Address      *string        `json:"address" validate:"omitempty,max=255"`
	Distance     *float64       `json:"distance" validate:"omitempty,gte=0"`
	Location     *LocationInput `json:"location"`
	Photo        *string        `json:"photo" validate:"omitempty,max=512"`
	Featured     *bool          `json:"featured"`
}

// Apply copies the set fields of p onto t.
func (p TourPatch) Apply(t *Tour) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.MaxGroupSize != nil {
		t.MaxGroupSize = *p.MaxGroupSize
	}
	if p.City != nil {
		t.City = *p.City
	}
	if p.Address != nil {
		t.Address = *p.Address
	}
	if p.Distance != nil {
		t.Distance = *p.Distance
	}
	if p.Location != nil {
		t.Location = p.Location.Point()
	}
	if p.Photo != nil {
		t.Photo = *p.Photo
	}
	if p.Featured != nil {
		t.Featured = *p.Featured
	}
}

// TourFilter narrows tour listings. Zero values disable a filter.
type TourFilter struct {
	City         string
	MinDistance  float64
	MinGroupSize int
	FeaturedOnly bool
}

// Tour sort names.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortPopular   = "popular"
	SortViews     = "views"
)

// RatingSummary is the derived pair written onto a tour.
type RatingSummary struct {
	Average  float64 `json:"ratingsAverage"`
	Quantity int     `json:"ratingsQuantity"`
}
