package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/internal/storage"
)

// UploadFolders are the key prefixes accepted for direct uploads.
var UploadFolders = []string{"news", "documentation", "sliders", "highlights", "galleries", "companies", "workers"}

// ContentService reads and writes the CMS-backed sections of the site.
type ContentService struct {
	db    *gorm.DB
	media Media
	log   *slog.Logger
}

func NewContentService(db *gorm.DB, media Media, log *slog.Logger) *ContentService {
	return &ContentService{db: db, media: media, log: log.With(slog.String("component", "content"))}
}

// NewsFilter holds the optional filters of the news list.
type NewsFilter struct {
	Status   string
	Category string
	Search   string
	Tag      string
}

// DocumentationFilter holds the optional filters of the documentation list.
type DocumentationFilter struct {
	Status   string
	Type     string
	Category string
	Search   string
}

// ─────────────────────────────────────────────────────────────────────────────
// News
// ─────────────────────────────────────────────────────────────────────────────

func (s *ContentService) ListNews(ctx context.Context, f NewsFilter) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	err := s.db.WithContext(ctx).
		Scopes(
			statusScope("published", f.Status),
			categoryScope("category_id", f.Category),
			searchScope(f.Search, "title", "body"),
		).
		Preload("Category").
		Order("created_at DESC").Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		posts = slices.DeleteFunc(posts, func(p models.Post) bool {
			return !slices.ContainsFunc(p.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
		})
	}
	for i := range posts {
		posts[i].Cover = s.media.ResolveURL(ctx, posts[i].Cover)
	}
	return posts, nil
}

func (s *ContentService) GetNews(ctx context.Context, id uint64, status string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Scopes(statusScope("published", status)).
		Preload("Category").
		First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get news %d: %w", id, err)
	}
	post.Cover = s.media.ResolveURL(ctx, post.Cover)
	return &post, nil
}

// ListCategories returns the categories of one kind, sort_order ascending.
func (s *ContentService) ListCategories(ctx context.Context, kind, status string) ([]models.Category, error) {
	cats := make([]models.Category, 0)
	err := s.db.WithContext(ctx).
		Scopes(statusScope("status", status)).
		Where("kind = ?", kind).
		Order("sort_order ASC").Order("id ASC").
		Find(&cats).Error
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", kind, err)
	}
	return cats, nil
}

// PostInput is the writable part of a news post.
type PostInput struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Cover      string   `json:"cover"`
	Tags       []string `json:"tags"`
	CategoryID *uint64  `json:"category_id,string"`
	Published  *bool    `json:"published"`
	SortOrder  int      `json:"sort_order"`
}

func (in PostInput) apply(p *models.Post) {
	p.Title = strings.TrimSpace(in.Title)
	p.Slug = slugify(p.Title)
	p.Body = in.Body
	p.Cover = in.Cover
	p.Tags = in.Tags
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.CategoryID = in.CategoryID
	p.Published = in.Published == nil || *in.Published
	p.SortOrder = in.SortOrder
}

func (s *ContentService) CreateNews(ctx context.Context, in PostInput) (*models.Post, error) {
	var post models.Post
	in.apply(&post)
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create news: %w", err)
	}
	return s.GetNews(ctx, post.ID, statusOf(post.Published))
}

func (s *ContentService) UpdateNews(ctx context.Context, id uint64, in PostInput) (*models.Post, error) {
	var post models.Post
	if err := s.first(ctx, &post, id); err != nil {
		return nil, err
	}
	in.apply(&post)
	if err := s.db.WithContext(ctx).Omit("Category").Save(&post).Error; err != nil {
		return nil, fmt.Errorf("update news %d: %w", id, err)
	}
	return s.GetNews(ctx, post.ID, statusOf(post.Published))
}

func (s *ContentService) DeleteNews(ctx context.Context, id uint64) error {
	return s.softDelete(ctx, &models.Post{}, id)
}

// ReplaceNewsCover uploads a new cover, points the post at it and removes
// the previous object. If the row cannot be updated the new object is
// removed again so no orphan is left behind.
func (s *ContentService) ReplaceNewsCover(ctx context.Context, id uint64, filename string, r io.Reader, size int64, contentType string) (*models.Post, error) {
	var post models.Post
	if err := s.first(ctx, &post, id); err != nil {
		return nil, err
	}
	key, err := s.media.Upload(ctx, objectKey("news", filename), r, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).Update("cover", key)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if derr := s.media.Delete(ctx, key); derr != nil {
			s.log.WarnContext(ctx, "orphaned cover object", slog.String("key", key), slog.String("error", derr.Error()))
		}
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update cover %d: %w", id, err)
	}

	if old := post.Cover; old != "" && !storage.IsAbsoluteURL(old) {
		if derr := s.media.Delete(ctx, old); derr != nil {
			s.log.WarnContext(ctx, "old cover not removed", slog.String("path", old), slog.String("error", derr.Error()))
		}
	}
	return s.GetNews(ctx, id, statusOf(post.Published))
}

// ─────────────────────────────────────────────────────────────────────────────
// Documentation
// ─────────────────────────────────────────────────────────────────────────────

func (s *ContentService) ListDocumentation(ctx context.Context, f DocumentationFilter) ([]models.Documentation, error) {
	docs := make([]models.Documentation, 0)
	q := s.db.WithContext(ctx).
		Scopes(
			statusScope("status", f.Status),
			categoryScope("category_id", f.Category),
			searchScope(f.Search, "title", "subtitle"),
		)
	if t := strings.TrimSpace(f.Type); t != "" {
		q = q.Where("LOWER(type) = ?", strings.ToLower(t))
	}
	err := q.Preload("Category").Order("created_at DESC").Order("id DESC").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documentation: %w", err)
	}
	for i := range docs {
		s.decorateDoc(ctx, &docs[i])
	}
	return docs, nil
}

func (s *ContentService) GetDocumentation(ctx context.Context, id uint64) (*models.Documentation, error) {
	var doc models.Documentation
	err := s.db.WithContext(ctx).Preload("Category").First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get documentation %d: %w", id, err)
	}
	s.decorateDoc(ctx, &doc)
	return &doc, nil
}

// decorateDoc fills type and size when the row lacks them, then signs the
// file path. Size lookups are best effort.
func (s *ContentService) decorateDoc(ctx context.Context, d *models.Documentation) {
	if d.Type == "" {
		d.Type = models.DocTypeFromPath(d.FilePath)
	}
	if d.Size == 0 && d.FilePath != "" {
		d.Size = s.media.Size(ctx, d.FilePath)
	}
	d.FilePath = s.media.ResolveURL(ctx, d.FilePath)
}

// DocumentationInput is the writable part of a documentation entry.
type DocumentationInput struct {
	Title      string  `json:"title"`
	Subtitle   string  `json:"subtitle"`
	Type       string  `json:"type"`
	FilePath   string  `json:"file_path"`
	Size       int64   `json:"size"`
	Status     *bool   `json:"status"`
	CategoryID *uint64 `json:"category_id,string"`
}

func (in DocumentationInput) apply(d *models.Documentation) {
	d.Title = strings.TrimSpace(in.Title)
	d.Subtitle = in.Subtitle
	d.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if d.Type == "" {
		d.Type = models.DocTypeFromPath(in.FilePath)
	}
	d.FilePath = in.FilePath
	d.Size = in.Size
	d.Status = in.Status == nil || *in.Status
	d.CategoryID = in.CategoryID
}

func (s *ContentService) CreateDocumentation(ctx context.Context, in DocumentationInput) (*models.Documentation, error) {
	var doc models.Documentation
	in.apply(&doc)
	if doc.Size == 0 && doc.FilePath != "" {
		doc.Size = s.media.Size(ctx, doc.FilePath)
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, fmt.Errorf("create documentation: %w", err)
	}
	return s.GetDocumentation(ctx, doc.ID)
}

func (s *ContentService) UpdateDocumentation(ctx context.Context, id uint64, in DocumentationInput) (*models.Documentation, error) {
	var doc models.Documentation
	if err := s.first(ctx, &doc, id); err != nil {
		return nil, err
	}
	in.apply(&doc)
	if err := s.db.WithContext(ctx).Omit("Category").Save(&doc).Error; err != nil {
		return nil, fmt.Errorf("update documentation %d: %w", id, err)
	}
	return s.GetDocumentation(ctx, id)
}

func (s *ContentService) DeleteDocumentation(ctx context.Context, id uint64) error {
	return s.softDelete(ctx, &models.Documentation{}, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Sliders, highlight, galleries
// ─────────────────────────────────────────────────────────────────────────────

func (s *ContentService) ListSliders(ctx context.Context, status string) ([]models.Slider, error) {
	sliders := make([]models.Slider, 0)
	err := s.db.WithContext(ctx).
		Scopes(statusScope("status", status)).
		Order("sort_order ASC").Order("id ASC").
		Find(&sliders).Error
	if err != nil {
		return nil, fmt.Errorf("list sliders: %w", err)
	}
	for i := range sliders {
		sliders[i].Image = s.media.ResolveURL(ctx, sliders[i].Image)
	}
	return sliders, nil
}

func (s *ContentService) DeleteSlider(ctx context.Context, id uint64) error {
	return s.softDelete(ctx, &models.Slider{}, id)
}

// LatestHighlight returns the newest matching highlight, or nil when there is none.
func (s *ContentService) LatestHighlight(ctx context.Context, status string) (*models.Highlight, error) {
	var hl models.Highlight
	err := s.db.WithContext(ctx).
		Scopes(statusScope("status", status)).
		Order("created_at DESC").Order("id DESC").
		Take(&hl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest highlight: %w", err)
	}
	hl.Image = s.media.ResolveURL(ctx, hl.Image)
	return &hl, nil
}

func (s *ContentService) ListGalleries(ctx context.Context, status, kind string) ([]models.GalleryItem, error) {
	items := make([]models.GalleryItem, 0)
	q := s.db.WithContext(ctx).Scopes(statusScope("status", status))
	if kind = strings.TrimSpace(kind); kind != "" {
		q = q.Where("kind = ?", strings.ToLower(kind))
	}
	if err := q.Order("sort_order ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}
	for i := range items {
		items[i].MediaPath = s.media.ResolveURL(ctx, items[i].MediaPath)
	}
	return items, nil
}

func (s *ContentService) DeleteGallery(ctx context.Context, id uint64) error {
	return s.softDelete(ctx, &models.GalleryItem{}, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Menus, footer
// ─────────────────────────────────────────────────────────────────────────────

// ListMenus returns headers with their sub-entries, both sort_order ascending.
func (s *ContentService) ListMenus(ctx context.Context, status string) ([]models.Menu, error) {
	menus := make([]models.Menu, 0)
	active := ActiveOnly(status)
	err := s.db.WithContext(ctx).
		Scopes(statusScope("status", status)).
		Preload("Category").
		Preload("SubMenus", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", active).Order("sort_order ASC").Order("id ASC")
		}).
		Preload("SubMenus.Category").
		Order("sort_order ASC").Order("id ASC").
		Find(&menus).Error
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	for i := range menus {
		if menus[i].SubMenus == nil {
			menus[i].SubMenus = []models.SubMenu{}
		}
	}
	return menus, nil
}

func (s *ContentService) ListFooter(ctx context.Context, status, section string) ([]models.FooterContent, error) {
	items := make([]models.FooterContent, 0)
	q := s.db.WithContext(ctx).Scopes(statusScope("status", status))
	if section = strings.TrimSpace(section); section != "" {
		q = q.Where("section = ?", section)
	}
	if err := q.Order("sort_order ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list footer: %w", err)
	}
	for i := range items {
		items[i].Icon = s.media.ResolveURL(ctx, items[i].Icon)
	}
	return items, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Uploads
// ─────────────────────────────────────────────────────────────────────────────

// UploadTicket lets a browser PUT a file straight into the bucket.
type UploadTicket struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *ContentService) PresignUpload(ctx context.Context, folder, filename string) (*UploadTicket, error) {
	if !slices.Contains(UploadFolders, folder) {
		return nil, fmt.Errorf("%w: unknown folder %q", ErrInvalidInput, folder)
	}
	key := objectKey(folder, filename)
	u, err := s.media.PresignUpload(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadTicket{Key: key, URL: u}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func (s *ContentService) first(ctx context.Context, dst any, id uint64) error {
	err := s.db.WithContext(ctx).First(dst, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ContentService) softDelete(ctx context.Context, model any, id uint64) error {
	return softDelete(s.db.WithContext(ctx), model, id)
}

func softDelete(db *gorm.DB, model any, id uint64) error {
	res := db.Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("delete %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// objectKey builds "<folder>/<uuid><ext>" so uploads never collide.
func objectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return folder + "/" + uuid.NewString() + ext
}

func statusOf(active bool) string {
	if active {
		return ""
	}
	return "false"
}
