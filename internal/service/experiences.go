package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/storage"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// ExperienceService manages community experiences and their images.
type ExperienceService struct {
	experiences *repository.ExperienceRepo
	agg         *Aggregator
	images      storage.ImageStore
	v           *validation.Validator
	log         *slog.Logger
}

// NewExperienceService builds the service. images may be nil when uploads
// are disabled.
func NewExperienceService(experiences *repository.ExperienceRepo, agg *Aggregator, images storage.ImageStore,
	v *validation.Validator, log *slog.Logger) *ExperienceService {
	return &ExperienceService{experiences: experiences, agg: agg, images: images, v: v, log: log}
}

// Create stores a new experience. who is nil for anonymous posts, which
// are credited to the supplied authorName or "Anonymous User". uploaded
// holds URLs of images already saved for this request; in.Images may not
// reference the store's own files.
func (s *ExperienceService) Create(ctx context.Context, who *model.Identity, in model.ExperienceInput, uploaded []string) (model.Experience, error) {
	if err := s.checkLinkedImages(in.Images, nil); err != nil {
		return model.Experience{}, err
	}
	in.Images = append(append([]string{}, in.Images...), uploaded...)
	if err := s.v.Validate(in); err != nil {
		return model.Experience{}, err
	}
	var authorID, authorName string
	if who != nil {
		authorID, authorName = who.ID, who.Username
	}
	e := model.NewExperience(in, authorID, authorName)
	e.ID = id.New()
	if err := s.experiences.Create(ctx, &e); err != nil {
		return model.Experience{}, err
	}
	return e.WithViewer(authorID), nil
}

// View returns an experience and counts the read. who is the zero Identity
// for anonymous readers. Drafts read as not found to anyone but the author
// and admins.
func (s *ExperienceService) View(ctx context.Context, experienceID string, who model.Identity) (model.Experience, error) {
	if err := requireID(experienceID, "experience"); err != nil {
		return model.Experience{}, err
	}
	e, err := s.experiences.GetByID(ctx, experienceID)
	if err != nil {
		return model.Experience{}, err
	}
	if !e.IsPublished && !e.CanEdit(who.ID, who.Role) {
		return model.Experience{}, apperr.NotFound("experience not found")
	}
	if e, err = s.experiences.View(ctx, experienceID); err != nil {
		return model.Experience{}, err
	}
	return e.WithViewer(who.ID), nil
}

// List returns published experiences matching f.
func (s *ExperienceService) List(ctx context.Context, f model.ExperienceFilter, p model.ListParams, viewerID string) (model.Page[model.Experience], error) {
	p, err := p.Normalize(repository.ExperienceSorts...)
	if err != nil {
		return model.Page[model.Experience]{}, err
	}
	if err := checkFilter(f); err != nil {
		return model.Page[model.Experience]{}, err
	}
	f.PublishedOnly = true
	f.AuthorID = ""
	f.Search = strings.TrimSpace(f.Search)
	f.Destination = strings.TrimSpace(f.Destination)
	page, err := s.experiences.List(ctx, f, p)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		page.Items[i] = page.Items[i].WithViewer(viewerID)
	}
	return page, nil
}

// Mine returns the caller's own experiences, drafts included.
func (s *ExperienceService) Mine(ctx context.Context, who model.Identity, p model.ListParams) (model.Page[model.Experience], error) {
	p, err := p.Normalize(repository.ExperienceSorts...)
	if err != nil {
		return model.Page[model.Experience]{}, err
	}
	page, err := s.experiences.List(ctx, model.ExperienceFilter{AuthorID: who.ID}, p)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		page.Items[i] = page.Items[i].WithViewer(who.ID)
	}
	return page, nil
}

// Update applies a partial update for the author or an admin. Uploaded
// images dropped from the list are deleted once the update is stored.
func (s *ExperienceService) Update(ctx context.Context, experienceID string, who model.Identity, patch model.ExperiencePatch) (model.Experience, error) {
	if err := requireID(experienceID, "experience"); err != nil {
		return model.Experience{}, err
	}
	if err := s.v.Validate(patch); err != nil {
		return model.Experience{}, err
	}
	e, err := s.experiences.GetByID(ctx, experienceID)
	if err != nil {
		return model.Experience{}, err
	}
	if !e.CanEdit(who.ID, who.Role) {
		return model.Experience{}, apperr.Forbidden("you can only edit your own experiences")
	}
	before := e.Images
	if patch.Images != nil {
		if err := s.checkLinkedImages(*patch.Images, before); err != nil {
			return model.Experience{}, err
		}
	}
	patch.Apply(&e)
	if err := s.experiences.Update(ctx, &e); err != nil {
		return model.Experience{}, err
	}
	if s.images != nil {
		s.images.Remove(dropped(before, e.Images))
	}
	return e.WithViewer(who.ID), nil
}

// Delete removes an experience for the author or an admin, then its
// uploaded images.
func (s *ExperienceService) Delete(ctx context.Context, experienceID string, who model.Identity) (model.Experience, error) {
	if err := requireID(experienceID, "experience"); err != nil {
		return model.Experience{}, err
	}
	e, err := s.experiences.GetByID(ctx, experienceID)
	if err != nil {
		return model.Experience{}, err
	}
	if !e.CanEdit(who.ID, who.Role) {
		return model.Experience{}, apperr.Forbidden("you can only delete your own experiences")
	}
	if _, err := s.experiences.Delete(ctx, experienceID); err != nil {
		return model.Experience{}, err
	}
	if s.images != nil {
		s.images.Remove(e.Images)
	}
	return e, nil
}

// checkLinkedImages rejects URLs that point at stored uploads unless the
// experience already holds them. Each stored file belongs to one experience.
func (s *ExperienceService) checkLinkedImages(urls, held []string) error {
	if s.images == nil {
		return nil
	}
	for i, u := range urls {
		if s.images.Owns(u) && !slices.Contains(held, u) {
			return apperr.Validationf(fmt.Sprintf("images[%d]", i), "uploaded images must be attached as files")
		}
	}
	return nil
}

// dropped lists the entries of before missing from after.
func dropped(before, after []string) []string {
	var out []string
	for _, u := range before {
		if !slices.Contains(after, u) {
			out = append(out, u)
		}
	}
	return out
}

// ToggleLike likes or unlikes an experience for the caller.
func (s *ExperienceService) ToggleLike(ctx context.Context, experienceID string, who model.Identity) (model.LikeResult, error) {
	if err := requireID(experienceID, "experience"); err != nil {
		return model.LikeResult{}, err
	}
	return s.agg.ToggleLike(ctx, experienceID, who.ID)
}

func checkFilter(f model.ExperienceFilter) error {
	var fields []apperr.FieldError
	if f.Category != "" && !model.IsCategory(f.Category) {
		fields = append(fields, apperr.FieldError{Field: "category", Message: "category is not a known category"})
	}
	switch f.BudgetRange {
	case "", model.BudgetLow, model.BudgetMid, model.BudgetLuxury:
	default:
		fields = append(fields, apperr.FieldError{Field: "budgetRange", Message: "budgetRange must be one of [budget mid-range luxury]"})
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}
