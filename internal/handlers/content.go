package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kerjaberkah/portal/httpx"
	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/internal/services"
	"github.com/kerjaberkah/portal/validation"
)

// maxCoverBytes bounds multipart cover uploads.
const maxCoverBytes = 10 << 20

type ContentHandler struct {
	svc *services.ContentService
	log *slog.Logger
}

func NewContentHandler(svc *services.ContentService, log *slog.Logger) *ContentHandler {
	return &ContentHandler{svc: svc, log: log}
}

// ─────────────────────────────────────────────────────────────────────────────
// Public reads
// ─────────────────────────────────────────────────────────────────────────────

func (h *ContentHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListNews(r.Context(), services.NewsFilter{
		Status:   r.URL.Query().Get("status"),
		Category: firstParam(r, "category_id", "category"),
		Search:   firstParam(r, "search", "q"),
		Tag:      r.URL.Query().Get("tag"),
	})
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch news")
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func (h *ContentHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.svc.GetNews(r.Context(), id, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err, "news not found", "failed to fetch news")
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *ContentHandler) NewsCategories(w http.ResponseWriter, r *http.Request) {
	h.categories(w, r, models.CategoryNews)
}

func (h *ContentHandler) DocumentationCategories(w http.ResponseWriter, r *http.Request) {
	h.categories(w, r, models.CategoryDocumentation)
}

func (h *ContentHandler) categories(w http.ResponseWriter, r *http.Request, kind string) {
	cats, err := h.svc.ListCategories(r.Context(), kind, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch categories")
		return
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func (h *ContentHandler) ListDocumentation(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocumentation(r.Context(), services.DocumentationFilter{
		Status:   r.URL.Query().Get("status"),
		Type:     r.URL.Query().Get("type"),
		Category: firstParam(r, "category_id", "category"),
		Search:   firstParam(r, "search", "q"),
	})
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch documentation")
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *ContentHandler) GetDocumentation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.GetDocumentation(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, "documentation not found", "failed to fetch documentation")
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *ContentHandler) ListSliders(w http.ResponseWriter, r *http.Request) {
	sliders, err := h.svc.ListSliders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch sliders")
		return
	}
	httpx.JSON(w, http.StatusOK, sliders)
}

// Highlight replies with the latest banner or a JSON null.
func (h *ContentHandler) Highlight(w http.ResponseWriter, r *http.Request) {
	hl, err := h.svc.LatestHighlight(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch highlight")
		return
	}
	if hl == nil {
		httpx.JSON(w, http.StatusOK, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, hl)
}

func (h *ContentHandler) ListGalleries(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(r.URL.Query().Get("type"))
	if kind != "" && kind != models.GalleryPhoto && kind != models.GalleryVideo {
		httpx.JSONError(w, http.StatusBadRequest, "type must be photo or video")
		return
	}
	items, err := h.svc.ListGalleries(r.Context(), r.URL.Query().Get("status"), kind)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch galleries")
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *ContentHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.svc.ListMenus(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch menus")
		return
	}
	httpx.JSON(w, http.StatusOK, menus)
}

func (h *ContentHandler) ListFooter(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListFooter(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("section"))
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch footer")
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// ─────────────────────────────────────────────────────────────────────────────
// Admin writes
// ─────────────────────────────────────────────────────────────────────────────

func (h *ContentHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var in services.PostInput
	if !decodeValid(w, r, &in, validatePost) {
		return
	}
	post, err := h.svc.CreateNews(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to create news")
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *ContentHandler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in services.PostInput
	if !decodeValid(w, r, &in, validatePost) {
		return
	}
	post, err := h.svc.UpdateNews(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.log, err, "news not found", "failed to update news")
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *ContentHandler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteNews(r.Context(), id); err != nil {
		writeError(w, r, h.log, err, "news not found", "failed to delete news")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceNewsCover takes a multipart "cover" file.
func (h *ContentHandler) ReplaceNewsCover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes+1<<20)
	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		httpx.JSONViolations(w, "validation failed", map[string]string{"cover": "required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		httpx.JSONViolations(w, "validation failed", map[string]string{"cover": "must_be_image"})
		return
	}
	post, err := h.svc.ReplaceNewsCover(r.Context(), id, header.Filename, file, header.Size, contentType)
	if err != nil {
		writeError(w, r, h.log, err, "news not found", "failed to replace cover")
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *ContentHandler) CreateDocumentation(w http.ResponseWriter, r *http.Request) {
	var in services.DocumentationInput
	if !decodeValid(w, r, &in, validateDocumentation) {
		return
	}
	doc, err := h.svc.CreateDocumentation(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to create documentation")
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *ContentHandler) UpdateDocumentation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in services.DocumentationInput
	if !decodeValid(w, r, &in, validateDocumentation) {
		return
	}
	doc, err := h.svc.UpdateDocumentation(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.log, err, "documentation not found", "failed to update documentation")
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *ContentHandler) DeleteDocumentation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDocumentation(r.Context(), id); err != nil {
		writeError(w, r, h.log, err, "documentation not found", "failed to delete documentation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) DeleteSlider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSlider(r.Context(), id); err != nil {
		writeError(w, r, h.log, err, "slider not found", "failed to delete slider")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteGallery(r.Context(), id); err != nil {
		writeError(w, r, h.log, err, "gallery item not found", "failed to delete gallery item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type presignRequest struct {
	Folder   string `json:"folder"`
	Filename string `json:"filename"`
}

func (h *ContentHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var in presignRequest
	if !decodeValid(w, r, &in, func(in *presignRequest, v validation.Violations) {
		validation.OneOf("folder", in.Folder, services.UploadFolders, v)
		validation.Required("filename", in.Filename, v)
	}) {
		return
	}
	ticket, err := h.svc.PresignUpload(r.Context(), in.Folder, in.Filename)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to sign upload")
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// decodeValid decodes the JSON body into dst and runs check on it,
// writing a 400 and returning false on any problem.
func decodeValid[T any](w http.ResponseWriter, r *http.Request, dst *T, check func(*T, validation.Violations)) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	v := make(validation.Violations)
	check(dst, v)
	if !v.Empty() {
		httpx.JSONViolations(w, "validation failed", v)
		return false
	}
	return true
}

func validatePost(in *services.PostInput, v validation.Violations) {
	validation.Required("title", in.Title, v)
	validation.MaxLen("title", in.Title, 255, v)
	validation.NonNegativeInt("sort_order", in.SortOrder, v)
}

func validateDocumentation(in *services.DocumentationInput, v validation.Violations) {
	validation.Required("title", in.Title, v)
	validation.MaxLen("title", in.Title, 255, v)
	validation.Required("file_path", in.FilePath, v)
	if in.Size < 0 {
		v["size"] = "must_not_be_negative"
	}
}
