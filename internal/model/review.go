package model

import "time"

// Review is one user's rating of a tour. (TourID, UserID) is unique.
type Review struct {
	ID         string    `json:"_id"`
	TourID     string    `json:"productId"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	ReviewText string    `json:"reviewText"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ReviewInput is the create payload for a review.
type ReviewInput struct {
	ReviewText string `json:"reviewText" validate:"required,max=2000"`
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
}
