// Package models mirrors the relational tables of the portal.
// Identifiers are 64-bit and always serialized as decimal strings.
package models

import (
	"path"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category kinds.
const (
	CategoryNews          = "news"
	CategoryDocumentation = "documentation"
)

// Category groups news posts or documentation files.
type Category struct {
	ID        uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Kind      string         `gorm:"size:30;not null;index" json:"kind"`
	Name      string         `gorm:"size:150;not null" json:"name"`
	Slug      string         `gorm:"size:180;index" json:"slug"`
	SortOrder int            `gorm:"not null" json:"sort_order"`
	Status    bool           `gorm:"not null;index" json:"status"`
}

func (Category) TableName() string { return "categories" }

// Post is a news/blog entry.
type Post struct {
	ID         uint64                      `gorm:"primaryKey" json:"id,string"`
	CreatedAt  time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
	DeletedAt  gorm.DeletedAt              `gorm:"index" json:"-"`
	Title      string                      `gorm:"size:255;not null" json:"title"`
	Slug       string                      `gorm:"size:300;index" json:"slug"`
	Body       string                      `gorm:"type:text" json:"body"`
	Cover      string                      `gorm:"size:500" json:"cover"`
	Tags       datatypes.JSONSlice[string] `json:"tags"`
	CategoryID *uint64                     `gorm:"index" json:"category_id,string"`
	Category   *Category                   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Published  bool                        `gorm:"not null;index" json:"published"`
	SortOrder  int                         `gorm:"not null" json:"sort_order"`
}

func (Post) TableName() string { return "posts" }

// Documentation is a downloadable file in the documentation library.
type Documentation struct {
	ID         uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Subtitle   string         `gorm:"size:500" json:"subtitle"`
	Type       string         `gorm:"size:20" json:"type"`
	FilePath   string         `gorm:"size:500" json:"file_path"`
	Size       int64          `gorm:"not null" json:"size"`
	Status     bool           `gorm:"not null;index" json:"status"`
	CategoryID *uint64        `gorm:"index" json:"category_id,string"`
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Documentation) TableName() string { return "documentations" }

// DocTypeFromPath infers a documentation type from the file extension,
// e.g. "laporan/2024.PDF" -> "pdf". Paths without an extension yield "file".
func DocTypeFromPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if ext == "" {
		return "file"
	}
	return ext
}

// Slider is a homepage carousel entry.
type Slider struct {
	ID          uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"size:255" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	Link        string         `gorm:"size:500" json:"link"`
	SortOrder   int            `gorm:"not null;index" json:"sort_order"`
	Status      bool           `gorm:"not null;index" json:"status"`
}

func (Slider) TableName() string { return "sliders" }

// Highlight is the homepage banner; only the latest active one is shown.
type Highlight struct {
	ID          uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"size:255" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	Link        string         `gorm:"size:500" json:"link"`
	Status      bool           `gorm:"not null;index" json:"status"`
}

func (Highlight) TableName() string { return "highlights" }

// Gallery kinds.
const (
	GalleryPhoto = "photo"
	GalleryVideo = "video"
)

// GalleryItem is a photo or video in the media gallery.
type GalleryItem struct {
	ID          uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"size:255" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Kind        string         `gorm:"size:10;not null;index" json:"type"`
	MediaPath   string         `gorm:"size:500" json:"media_path"`
	SortOrder   int            `gorm:"not null;index" json:"sort_order"`
	Status      bool           `gorm:"not null;index" json:"status"`
}

func (GalleryItem) TableName() string { return "galleries" }

// Menu types.
const (
	MenuLink     = "link"
	MenuCategory = "category"
	MenuDropdown = "dropdown"
)

// Menu is a top-level navigation header.
type Menu struct {
	ID         uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Type       string         `gorm:"size:20;not null" json:"type"`
	URL        string         `gorm:"size:500" json:"url"`
	CategoryID *uint64        `gorm:"index" json:"category_id,string"`
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SortOrder  int            `gorm:"not null;index" json:"sort_order"`
	Status     bool           `gorm:"not null;index" json:"status"`
	SubMenus   []SubMenu      `gorm:"foreignKey:MenuID" json:"sub_menus"`
}

func (Menu) TableName() string { return "menus" }

// SubMenu is a second-level navigation entry under a Menu.
type SubMenu struct {
	ID         uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	MenuID     uint64         `gorm:"index;not null" json:"menu_id,string"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Type       string         `gorm:"size:20;not null" json:"type"`
	URL        string         `gorm:"size:500" json:"url"`
	CategoryID *uint64        `gorm:"index" json:"category_id,string"`
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SortOrder  int            `gorm:"not null" json:"sort_order"`
	Status     bool           `gorm:"not null" json:"status"`
}

func (SubMenu) TableName() string { return "sub_menus" }

// FooterContent is one block of the site footer (contact, links, social).
type FooterContent struct {
	ID        uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Section   string         `gorm:"size:50;not null;index" json:"section"`
	Title     string         `gorm:"size:255" json:"title"`
	Content   string         `gorm:"type:text" json:"content"`
	URL       string         `gorm:"size:500" json:"url"`
	Icon      string         `gorm:"size:500" json:"icon"`
	SortOrder int            `gorm:"not null;index" json:"sort_order"`
	Status    bool           `gorm:"not null;index" json:"status"`
}

func (FooterContent) TableName() string { return "footer_contents" }

// Visitor is an append-only page-view event.
type Visitor struct {
	ID        uint64    `gorm:"primaryKey" json:"id,string"`
	IP        string    `gorm:"size:64;not null;index" json:"ip"`
	PageURL   string    `gorm:"size:1000" json:"page_url"`
	Country   *string   `gorm:"size:100" json:"country"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Visitor) TableName() string { return "visitors" }
