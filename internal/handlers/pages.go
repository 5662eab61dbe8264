package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/kerjaberkah/portal/internal/listing"
	"github.com/kerjaberkah/portal/internal/middleware"
	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/internal/services"
	"github.com/kerjaberkah/portal/view"
)

const homeNewsLimit = 3

var (
	postFields = listing.Fields[models.Post]{
		Title:      func(p models.Post) string { return p.Title },
		Categories: func(p models.Post) []string { return categoryKeys(p.Category) },
		Text:       func(p models.Post) []string { return append([]string{p.Body}, p.Tags...) },
		CreatedAt:  func(p models.Post) time.Time { return p.CreatedAt },
	}
	docFields = listing.Fields[models.Documentation]{
		Title:      func(d models.Documentation) string { return d.Title },
		Categories: func(d models.Documentation) []string { return categoryKeys(d.Category) },
		Active:     func(d models.Documentation) bool { return d.Status },
		Text:       func(d models.Documentation) []string { return []string{d.Subtitle} },
		CreatedAt:  func(d models.Documentation) time.Time { return d.CreatedAt },
	}
	vacancyFields = listing.Fields[models.Vacancy]{
		Title:      func(v models.Vacancy) string { return v.Title },
		Categories: func(v models.Vacancy) []string { return []string{v.Type} },
		Text:       func(v models.Vacancy) []string { return []string{v.Description, v.Location, companyName(v.Company)} },
		CreatedAt:  func(v models.Vacancy) time.Time { return v.CreatedAt },
	}
)

// PageHandler renders the public pages. Each list is fetched once and
// then projected in memory from the request's query string.
type PageHandler struct {
	content *services.ContentService
	jobs    *services.JobService
	log     *slog.Logger
}

func NewPageHandler(content *services.ContentService, jobs *services.JobService, log *slog.Logger) *PageHandler {
	return &PageHandler{content: content, jobs: jobs, log: log}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := map[string]any{"State": view.StateSuccess}

	posts, err := h.content.ListNews(ctx, services.NewsFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(posts) == 0 {
		data["State"] = view.StateEmpty
	}
	data["News"] = posts[:min(len(posts), homeNewsLimit)]

	// banner and carousel are decorative; the page still renders without them
	if hl, err := h.content.LatestHighlight(ctx, ""); err == nil {
		data["Highlight"] = hl
	} else {
		h.logError(r, "highlight unavailable", err)
	}
	if sliders, err := h.content.ListSliders(ctx, ""); err == nil {
		data["Sliders"] = sliders
	} else {
		h.logError(r, "sliders unavailable", err)
	}
	h.render(w, r, http.StatusOK, "home.html", data)
}

func (h *PageHandler) NewsList(w http.ResponseWriter, r *http.Request) {
	q := listing.ParseQuery(r.URL.Query())
	posts, err := h.content.ListNews(r.Context(), services.NewsFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := listing.Apply(posts, q, postFields)
	h.render(w, r, http.StatusOK, "news_list.html", map[string]any{
		"Title":      "Berita",
		"Query":      q,
		"Items":      items,
		"Categories": collectCategories(posts, func(p models.Post) *models.Category { return p.Category }),
		"State":      listState(len(items)),
	})
}

func (h *PageHandler) NewsDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := listing.ParseID(r.PathValue("id"))
	if !ok {
		h.notFound(w, r)
		return
	}
	post, err := h.content.GetNews(r.Context(), id, "")
	if err != nil {
		h.failOrNotFound(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "news_detail.html", map[string]any{"Title": post.Title, "Post": post})
}

func (h *PageHandler) DocumentationList(w http.ResponseWriter, r *http.Request) {
	q := listing.ParseQuery(r.URL.Query())
	docs, err := h.content.ListDocumentation(r.Context(), services.DocumentationFilter{Status: q.Status})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := listing.Apply(docs, q, docFields)
	h.render(w, r, http.StatusOK, "documentation_list.html", map[string]any{
		"Title":      "Dokumentasi",
		"Query":      q,
		"Items":      items,
		"Categories": collectCategories(docs, func(d models.Documentation) *models.Category { return d.Category }),
		"State":      listState(len(items)),
	})
}

func (h *PageHandler) VacancyList(w http.ResponseWriter, r *http.Request) {
	q := listing.ParseQuery(r.URL.Query())
	vacancies, err := h.jobs.ListVacancies(r.Context(), services.VacancyFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := listing.Apply(vacancies, q, vacancyFields)
	types := make([]string, 0, len(models.VacancyTypes))
	for _, v := range vacancies {
		if v.Type != "" && !slices.Contains(types, v.Type) {
			types = append(types, v.Type)
		}
	}
	slices.Sort(types)
	h.render(w, r, http.StatusOK, "vacancy_list.html", map[string]any{
		"Title":      "Lowongan",
		"Query":      q,
		"Items":      items,
		"Categories": types,
		"State":      listState(len(items)),
	})
}

func (h *PageHandler) VacancyDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := listing.ParseID(r.PathValue("id"))
	if !ok {
		h.notFound(w, r)
		return
	}
	v, err := h.jobs.GetVacancy(r.Context(), id)
	if err != nil {
		h.failOrNotFound(w, r, err)
		return
	}
	if !v.Status {
		h.notFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "vacancy_detail.html", map[string]any{"Title": v.Title, "Vacancy": v})
}

// NotFound is the catch-all for unknown page routes.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r)
}

func (h *PageHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found.html", map[string]any{"State": view.StateNotFound})
}

func (h *PageHandler) failOrNotFound(w http.ResponseWriter, r *http.Request, err error) {
	if isNotFound(err) {
		h.notFound(w, r)
		return
	}
	h.fail(w, r, err)
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, "page data unavailable", err)
	h.render(w, r, http.StatusInternalServerError, "error.html", map[string]any{"State": view.StateError})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.Render(w, r, status, name, data); err != nil {
		h.logError(r, "render failed", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *PageHandler) logError(r *http.Request, msg string, err error) {
	h.log.ErrorContext(r.Context(), msg,
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

func listState(n int) string {
	if n == 0 {
		return view.StateEmpty
	}
	return view.StateSuccess
}

// categoryKeys lets a listing filter match a category by id, name or slug.
func categoryKeys(c *models.Category) []string {
	if c == nil {
		return nil
	}
	return []string{c.Name, c.Slug, formatID(c.ID)}
}

func collectCategories[T any](items []T, cat func(T) *models.Category) []string {
	var names []string
	for _, it := range items {
		if c := cat(it); c != nil && !slices.Contains(names, c.Name) {
			names = append(names, c.Name)
		}
	}
	slices.SortFunc(names, func(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) })
	return names
}

func companyName(c *models.Company) string {
	if c == nil {
		return ""
	}
	return c.Name
}
