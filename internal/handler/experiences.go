package handler

import (
	"encoding/json"
	"mime/multipart"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/middleware"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/service"
	"github.com/iliyamo/travel-booking-api/internal/storage"
)

// ExperienceHandler serves shared travel experiences. Create accepts either
// JSON or a multipart form whose "images" parts are stored by Images.
type ExperienceHandler struct {
	Experiences *service.ExperienceService
	Images      storage.ImageStore
}

// NewExperienceHandler returns an ExperienceHandler. images may be nil,
// in which case multipart uploads are rejected.
func NewExperienceHandler(experiences *service.ExperienceService, images storage.ImageStore) *ExperienceHandler {
	return &ExperienceHandler{Experiences: experiences, Images: images}
}

// Create accepts JSON or a multipart form with image files. Anonymous
// posts are allowed.
func (h *ExperienceHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	var who *model.Identity
	if id, found := middleware.CurrentIdentity(c); found {
		who = &id
	}

	var (
		in    model.ExperienceInput
		files []*multipart.FileHeader
		err   error
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		in, files, err = experienceForm(c)
	} else {
		err = bindJSON(c, &in)
	}
	if err != nil {
		return err
	}

	var uploaded []string
	if len(files) > 0 {
		if h.Images == nil {
			return apperr.Validationf("images", "image uploads are not enabled")
		}
		if uploaded, err = h.Images.SaveImages(ctx, files); err != nil {
			return err
		}
	}
	e, err := h.Experiences.Create(ctx, who, in, uploaded)
	if err != nil {
		if h.Images != nil {
			h.Images.Remove(uploaded)
		}
		return err
	}
	return created(c, "experience shared", e)
}

// experienceForm reads a multipart create request. categories may repeat or
// be a JSON array; itinerary and location are JSON strings.
func experienceForm(c echo.Context) (model.ExperienceInput, []*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return model.ExperienceInput{}, nil, apperr.Validationf("body", "invalid multipart form: %v", err)
	}
	get := func(k string) string {
		if v := form.Value[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	in := model.ExperienceInput{
		Title:       get("title"),
		Destination: get("destination"),
		Description: get("description"),
		BudgetRange: get("budgetRange"),
		AuthorName:  get("authorName"),
	}
	var fields []apperr.FieldError
	for name, dst := range map[string]*int{"duration": &in.Duration, "groupSize": &in.GroupSize} {
		if raw := get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				fields = append(fields, fieldf(name, "%s must be an integer", name))
				continue
			}
			*dst = n
		}
	}

	cats := slices.Concat(form.Value["categories"], form.Value["categories[]"])
	if len(cats) == 1 && strings.HasPrefix(strings.TrimSpace(cats[0]), "[") {
		if err := json.Unmarshal([]byte(cats[0]), &in.Categories); err != nil {
			fields = append(fields, fieldf("categories", "categories must be a JSON array of strings"))
		}
	} else {
		for _, v := range cats {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					in.Categories = append(in.Categories, part)
				}
			}
		}
	}

	if raw := get("itinerary"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Itinerary); err != nil {
			fields = append(fields, fieldf("itinerary", "itinerary must be a JSON array"))
		}
	}
	if raw := get("location"); raw != "" {
		in.Location = &model.LocationInput{}
		if err := json.Unmarshal([]byte(raw), in.Location); err != nil {
			fields = append(fields, fieldf("location", "location must be a JSON object with lng and lat"))
		}
	}
	if raw := get("isPublished"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			fields = append(fields, fieldf("isPublished", "isPublished must be a boolean"))
		} else {
			in.IsPublished = &b
		}
	}
	if len(fields) > 0 {
		return in, nil, apperr.Validation(fields...)
	}
	return in, form.File["images"], nil
}

// List returns published experiences. Signed-in callers get isLiked.
func (h *ExperienceHandler) List(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.Experiences.List(c.Request().Context(), experienceFilter(c), p, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return paged(c, "", page)
}

// Mine lists the caller's experiences, drafts included.
func (h *ExperienceHandler) Mine(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	who, _ := middleware.CurrentIdentity(c)
	page, err := h.Experiences.Mine(c.Request().Context(), who, p)
	if err != nil {
		return err
	}
	return paged(c, "", page)
}

// Get counts a view and returns the experience. Drafts are only visible to
// their author and admins.
func (h *ExperienceHandler) Get(c echo.Context) error {
	who, _ := middleware.CurrentIdentity(c)
	e, err := h.Experiences.View(c.Request().Context(), c.Param("id"), who)
	if err != nil {
		return err
	}
	return ok(c, "", e)
}

// Update applies a JSON patch for the author or an admin.
func (h *ExperienceHandler) Update(c echo.Context) error {
	var patch model.ExperiencePatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	who, _ := middleware.CurrentIdentity(c)
	e, err := h.Experiences.Update(c.Request().Context(), c.Param("id"), who, patch)
	if err != nil {
		return err
	}
	return ok(c, "experience updated", e)
}

// Delete removes the experience and its uploaded images.
func (h *ExperienceHandler) Delete(c echo.Context) error {
	who, _ := middleware.CurrentIdentity(c)
	e, err := h.Experiences.Delete(c.Request().Context(), c.Param("id"), who)
	if err != nil {
		return err
	}
	return ok(c, "experience deleted", e)
}

// Like toggles the caller's like.
func (h *ExperienceHandler) Like(c echo.Context) error {
	who, _ := middleware.CurrentIdentity(c)
	res, err := h.Experiences.ToggleLike(c.Request().Context(), c.Param("id"), who)
	if err != nil {
		return err
	}
	msg := "experience unliked"
	if res.Liked {
		msg = "experience liked"
	}
	return ok(c, msg, res)
}
