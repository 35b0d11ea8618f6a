package model

import (
	"slices"
	"strings"
	"time"
)

// AnonymousAuthor is credited when an experience is shared without a login.
const AnonymousAuthor = "Anonymous User"

// Budget ranges.
const (
	BudgetLow    = "budget"
	BudgetMid    = "mid-range"
	BudgetLuxury = "luxury"
)

// Categories is the closed set of experience tags.
var Categories = []string{
	"adventure", "cultural", "food", "nature", "beach", "mountains",
	"city", "wildlife", "historical", "relaxation", "photography", "nightlife",
}

// IsCategory reports whether c is a known category.
func IsCategory(c string) bool { return slices.Contains(Categories, c) }

// ItineraryDay is one entry of an experience's day-by-day plan.
type ItineraryDay struct {
	Day           int    `json:"day" validate:"gte=1"`
	Activities    string `json:"activities" validate:"required,max=2000"`
	Accommodation string `json:"accommodation,omitempty" validate:"max=255"`
	Meals         string `json:"meals,omitempty" validate:"max=255"`
	Notes         string `json:"notes,omitempty" validate:"max=1000"`
}

// Author credits an experience. UserID is empty for anonymous posts.
type Author struct {
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
}

// Experience is a user-submitted travel story. Likes always equals
// len(LikedBy).
type Experience struct {
	ID          string         `json:"_id"`
	Title       string         `json:"title"`
	Destination string         `json:"destination"`
	Description string         `json:"description"`
	Duration    int            `json:"duration"`
	GroupSize   int            `json:"groupSize"`
	BudgetRange string         `json:"budgetRange"`
	Categories  []string       `json:"categories"`
	Itinerary   []ItineraryDay `json:"itinerary"`
	Images      []string       `json:"images"`
	Author      Author         `json:"author"`
	Likes       int            `json:"likes"`
	LikedBy     []string       `json:"likedBy"`
	Views       int            `json:"views"`
	IsPublished bool           `json:"isPublished"`
	Location    GeoPoint       `json:"location"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	IsLiked     *bool          `json:"isLiked,omitempty"`
}

// IsLikedBy reports whether userID is in the liker set.
func (e Experience) IsLikedBy(userID string) bool {
	return userID != "" && slices.Contains(e.LikedBy, userID)
}

// WithViewer fills IsLiked for an authenticated viewer. Anonymous viewers
// leave it unset.
func (e Experience) WithViewer(userID string) Experience {
	if userID == "" {
		e.IsLiked = nil
		return e
	}
	liked := e.IsLikedBy(userID)
	e.IsLiked = &liked
	return e
}

// CanEdit reports whether the identity may modify the experience.
func (e Experience) CanEdit(userID, role string) bool {
	return role == RoleAdmin || (userID != "" && e.Author.UserID == userID)
}

// ExperienceInput is the create payload. Images may also arrive as uploaded
// files, in which case their URLs are appended by the handler.
type ExperienceInput struct {
	Title       string         `json:"title" form:"title" validate:"required,max=200"`
	Destination string         `json:"destination" form:"destination" validate:"required,max=200"`
	Description string         `json:"description" form:"description" validate:"required,max=5000"`
	Duration    int            `json:"duration" form:"duration" validate:"required,gte=1,lte=365"`
	GroupSize   int            `json:"groupSize" form:"groupSize" validate:"required,gte=1,lte=100"`
	BudgetRange string         `json:"budgetRange" form:"budgetRange" validate:"required,oneof=budget mid-range luxury"`
	Categories  []string       `json:"categories" form:"categories" validate:"required,min=1,unique,dive,oneof=adventure cultural food nature beach mountains city wildlife historical relaxation photography nightlife"`
	Itinerary   []ItineraryDay `json:"itinerary" validate:"dive"`
	Images      []string       `json:"images" validate:"max=10,dive,url"`
	AuthorName  string         `json:"authorName" form:"authorName" validate:"max=128"`
	IsPublished *bool          `json:"isPublished"`
	Location    *LocationInput `json:"location"`
}

// NewExperience builds a record from a create payload, applying the
// construction defaults: anonymous author, published, zero counters.
func NewExperience(in ExperienceInput, authorID, authorName string) Experience {
	name := strings.TrimSpace(authorName)
	if name == "" {
		name = strings.TrimSpace(in.AuthorName)
	}
	if name == "" {
		name = AnonymousAuthor
	}
	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}
	return Experience{
		Title:       strings.TrimSpace(in.Title),
		Destination: strings.TrimSpace(in.Destination),
		Description: in.Description,
		Duration:    in.Duration,
		GroupSize:   in.GroupSize,
		BudgetRange: in.BudgetRange,
		Categories:  nonNil(in.Categories),
		Itinerary:   nonNilDays(in.Itinerary),
		Images:      nonNil(in.Images),
		Author:      Author{Name: name, UserID: authorID},
		LikedBy:     []string{},
		IsPublished: published,
		Location:    in.Location.Point(),
	}
}

// ExperiencePatch is a partial update. Counters and author are not part of it.
type ExperiencePatch struct {
	Title       *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Destination *string         `json:"destination" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,min=1,max=5000"`
	Duration    *int            `json:"duration" validate:"omitempty,gte=1,lte=365"`
	GroupSize   *int            `json:"groupSize" validate:"omitempty,gte=1,lte=100"`
	BudgetRange *string         `json:"budgetRange" validate:"omitempty,oneof=budget mid-range luxury"`
	Categories  *[]string       `json:"categories" validate:"omitempty,min=1,unique,dive,oneof=adventure cultural food nature beach mountains city wildlife historical relaxation photography nightlife"`
	Itinerary   *[]ItineraryDay `json:"itinerary" validate:"omitempty,dive"`
	Images      *[]string       `json:"images" validate:"omitempty,max=10,dive,url"`
	IsPublished *bool           `json:"isPublished"`
	Location    *LocationInput  `json:"location"`
}

// Apply copies the set fields of p onto e.
func (p ExperiencePatch) Apply(e *Experience) {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Destination != nil {
		e.Destination = strings.TrimSpace(*p.Destination)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Duration != nil {
		e.Duration = *p.Duration
	}
	if p.GroupSize != nil {
		e.GroupSize = *p.GroupSize
	}
	if p.BudgetRange != nil {
		e.BudgetRange = *p.BudgetRange
	}
	if p.Categories != nil {
		e.Categories = nonNil(*p.Categories)
	}
	if p.Itinerary != nil {
		e.Itinerary = nonNilDays(*p.Itinerary)
	}
	if p.Images != nil {
		e.Images = nonNil(*p.Images)
	}
	if p.IsPublished != nil {
		e.IsPublished = *p.IsPublished
	}
	if p.Location != nil {
		e.Location = p.Location.Point()
	}
}

// ExperienceFilter narrows experience listings.
type ExperienceFilter struct {
	Category      string
	BudgetRange   string
	Destination   string
	Search        string
	AuthorID      string
	PublishedOnly bool
}

// LikeResult is returned by a like toggle.
type LikeResult struct {
	Liked   bool     `json:"isLiked"`
	Likes   int      `json:"likes"`
	LikedBy []string `json:"likedBy"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilDays(d []ItineraryDay) []ItineraryDay {
	if d == nil {
		return []ItineraryDay{}
	}
	return d
}
