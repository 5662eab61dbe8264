package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/models"
)

// UnknownIP is recorded when no client address can be determined.
const UnknownIP = "unknown"

// UnknownCountry labels events whose country could not be resolved.
const UnknownCountry = "Unknown"

// Locator resolves an IP to a country; nil means unknown.
type Locator interface {
	Country(ctx context.Context, ip string) *string
}

// VisitorService records page views and aggregates them.
type VisitorService struct {
	db      *gorm.DB
	locator Locator
	now     func() time.Time
	log     *slog.Logger
}

func NewVisitorService(db *gorm.DB, locator Locator, log *slog.Logger) *VisitorService {
	return &VisitorService{db: db, locator: locator, now: time.Now, log: log.With(slog.String("component", "visitor"))}
}

// ClientIP picks the explicit address, else the first X-Forwarded-For
// entry, else UnknownIP.
func ClientIP(explicit, forwardedFor string) string {
	if ip := strings.TrimSpace(explicit); ip != "" {
		return ip
	}
	first, _, _ := strings.Cut(forwardedFor, ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return UnknownIP
}

// Record stores one page view. The country lookup never fails the write.
func (s *VisitorService) Record(ctx context.Context, pageURL, ip string) (*models.Visitor, error) {
	if ip == "" {
		ip = UnknownIP
	}
	v := models.Visitor{
		IP:        ip,
		PageURL:   strings.TrimSpace(pageURL),
		CreatedAt: s.now().UTC(),
	}
	if ip != UnknownIP && s.locator != nil {
		v.Country = s.locator.Country(ctx, ip)
	}
	if err := s.db.WithContext(ctx).Create(&v).Error; err != nil {
		return nil, fmt.Errorf("record visitor: %w", err)
	}
	return &v, nil
}

// StatsFilter narrows the aggregation. Zero dates are open bounds; End is
// inclusive of the whole day.
type StatsFilter struct {
	Start time.Time
	End   time.Time
	Page  string
}

type CountryCount struct {
	Country string `json:"country" gorm:"column:country"`
	Count   int64  `json:"count" gorm:"column:visits"`
}

type VisitorStats struct {
	Total     int64          `json:"total"`
	UniqueIPs int64          `json:"unique_ips"`
	Countries []CountryCount `json:"countries"`
}

func (s *VisitorService) Stats(ctx context.Context, f StatsFilter) (*VisitorStats, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Visitor{})
		if !f.Start.IsZero() {
			db = db.Where("created_at >= ?", f.Start)
		}
		if !f.End.IsZero() {
			db = db.Where("created_at < ?", f.End.AddDate(0, 0, 1))
		}
		if p := strings.TrimSpace(f.Page); p != "" {
			db = db.Where("page_url = ?", p)
		}
		return db
	}
	db := s.db.WithContext(ctx)

	stats := VisitorStats{Countries: make([]CountryCount, 0)}
	if err := db.Scopes(scope).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count visitors: %w", err)
	}
	if err := db.Scopes(scope).Distinct("ip").Count(&stats.UniqueIPs).Error; err != nil {
		return nil, fmt.Errorf("count unique visitors: %w", err)
	}
	err := db.Scopes(scope).
		Select("COALESCE(country, '" + UnknownCountry + "') AS country, COUNT(*) AS visits").
		Group("COALESCE(country, '" + UnknownCountry + "')").
		Order("visits DESC").Order("country ASC").
		Scan(&stats.Countries).Error
	if err != nil {
		return nil, fmt.Errorf("group visitors by country: %w", err)
	}
	return &stats, nil
}

type YearCount struct {
	Year   int   `json:"year"`
	Unique int64 `json:"unique"`
	Total  int64 `json:"total"`
}

type VisitorSummary struct {
	Current    YearCount `json:"current"`
	Previous   YearCount `json:"previous"`
	GrowthRate float64   `json:"growth_rate"`
}

// Summary compares a calendar year with the one before. GrowthRate is the
// percentage change in unique visitors, 0 when the prior year had none.
func (s *VisitorService) Summary(ctx context.Context, year int) (*VisitorSummary, error) {
	if year <= 0 {
		year = s.now().Year()
	}
	cur, err := s.yearCount(ctx, year)
	if err != nil {
		return nil, err
	}
	prev, err := s.yearCount(ctx, year-1)
	if err != nil {
		return nil, err
	}
	return &VisitorSummary{Current: cur, Previous: prev, GrowthRate: GrowthRate(cur.Unique, prev.Unique)}, nil
}

func (s *VisitorService) yearCount(ctx context.Context, year int) (YearCount, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	yc := YearCount{Year: year}
	base := func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Visitor{}).Where("created_at >= ? AND created_at < ?", from, to)
	}
	db := s.db.WithContext(ctx)
	if err := db.Scopes(base).Count(&yc.Total).Error; err != nil {
		return yc, fmt.Errorf("count visitors %d: %w", year, err)
	}
	if err := db.Scopes(base).Distinct("ip").Count(&yc.Unique).Error; err != nil {
		return yc, fmt.Errorf("count unique visitors %d: %w", year, err)
	}
	return yc, nil
}

// GrowthRate returns (cur-prev)/prev as a percentage rounded to two decimals.
func GrowthRate(cur, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	rate := float64(cur-prev) / float64(prev) * 100
	return math.Round(rate*100) / 100
}
