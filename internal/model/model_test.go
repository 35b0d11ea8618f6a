package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

func TestNewExperience_Defaults(t *testing.T) {
	e := NewExperience(ExperienceInput{Title: " Safari ", BudgetRange: BudgetLuxury}, "", "")
	assert.Equal(t, AnonymousAuthor, e.Author.Name)
	assert.Empty(t, e.Author.UserID)
	assert.True(t, e.IsPublished)
	assert.Equal(t, "Safari", e.Title)
	assert.NotNil(t, e.Images)
	assert.NotNil(t, e.LikedBy)
	assert.Equal(t, Point(0, 0), e.Location)

	named := NewExperience(ExperienceInput{AuthorName: "Guest Writer"}, "", "")
	assert.Equal(t, "Guest Writer", named.Author.Name)

	draft := false
	owned := NewExperience(ExperienceInput{AuthorName: "ignored", IsPublished: &draft}, "u1", "alice")
	assert.Equal(t, Author{Name: "alice", UserID: "u1"}, owned.Author)
	assert.False(t, owned.IsPublished)
}

func TestExperience_Viewer(t *testing.T) {
	e := Experience{LikedBy: []string{"u1"}, Author: Author{UserID: "u2"}}

	assert.True(t, e.IsLikedBy("u1"))
	assert.False(t, e.IsLikedBy(""))
	assert.Nil(t, e.WithViewer("").IsLiked)
	require.NotNil(t, e.WithViewer("u3").IsLiked)
	assert.False(t, *e.WithViewer("u3").IsLiked)

	assert.True(t, e.CanEdit("u2", RoleUser))
	assert.True(t, e.CanEdit("u9", RoleAdmin))
	assert.False(t, e.CanEdit("u1", RoleUser))
	assert.False(t, Experience{}.CanEdit("", RoleUser))
}

func TestListParams_Normalize(t *testing.T) {
	p, err := ListParams{}.Normalize(SortNewest, SortOldest)
	require.NoError(t, err)
	assert.Equal(t, ListParams{Page: 1, Limit: DefaultLimit, Sort: SortNewest}, p)
	assert.Equal(t, 0, p.Offset())

	p, err = ListParams{Page: 3, Limit: 20}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 40, p.Offset())

	_, err = ListParams{Page: -1, Limit: 500, Sort: "random"}.Normalize(SortNewest)
	require.True(t, errors.Is(err, apperr.ErrValidation))
	e, _ := apperr.As(err)
	assert.Len(t, e.Fields, 3)
}

func TestListParams_NormalizeHugePage(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		ok   bool
	}{
		{"max int page", ListParams{Page: math.MaxInt, Limit: MaxLimit}, false},
		{"max int page default limit", ListParams{Page: math.MaxInt}, false},
		{"just past offset bound", ListParams{Page: MaxOffset/10 + 2, Limit: 10}, false},
		{"last page inside bound", ListParams{Page: MaxOffset/10 + 1, Limit: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.in.Normalize()
			if tt.ok {
				require.NoError(t, err)
				assert.GreaterOrEqual(t, p.Offset(), 0)
				assert.LessOrEqual(t, p.Offset(), MaxOffset)
				return
			}
			require.True(t, errors.Is(err, apperr.ErrValidation))
			e, _ := apperr.As(err)
			assert.Equal(t, "page", e.Field())
		})
	}
}

func TestUserPatch_StripPrivileged(t *testing.T) {
	pw, role := "hunter22", RoleAdmin
	p := UserPatch{Password: &pw, Role: &role}
	p.StripPrivileged()
	assert.Nil(t, p.Password)
	assert.Nil(t, p.Role)
}

func TestTourPatch_Apply(t *testing.T) {
	tour := Tour{Title: "Old", Price: 10, RatingsAverage: 4.5}
	price := 99.0
	TourPatch{Price: &price, Location: &LocationInput{Lng: 10, Lat: 20}}.Apply(&tour)
	assert.Equal(t, "Old", tour.Title)
	assert.Equal(t, 99.0, tour.Price)
	assert.Equal(t, 4.5, tour.RatingsAverage)
	assert.Equal(t, 10.0, tour.Location.Lng())
	assert.Equal(t, 20.0, tour.Location.Lat())
}
