// Package geo resolves visitor IP addresses to a country name.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kerjaberkah/portal/internal/config"
)

// LocalCountry is reported for loopback and private addresses.
const LocalCountry = "Localhost"

var (
	geoCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_geo_cache_hits_total",
		Help: "Country lookups served from the in-memory cache.",
	})
	geoCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_geo_cache_misses_total",
		Help: "Country lookups that went to the geolocation service.",
	})
	geoLookupErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_geo_lookup_errors_total",
		Help: "Failed calls to the geolocation service.",
	})
)

// Locator looks up countries through an ip-api compatible HTTP service.
type Locator struct {
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, string]
	log        *slog.Logger
}

// New creates a Locator. A nil httpClient gets one with cfg.Timeout.
func New(cfg config.GeoConfig, httpClient *http.Client, log *slog.Logger) *Locator {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 1024
	}
	return &Locator{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		cache:      expirable.NewLRU[string, string](size, nil, cfg.CacheTTL),
		log:        log.With(slog.String("component", "geo")),
	}
}

// IsLocal reports whether ip is loopback, private, link-local or unspecified.
func IsLocal(ip string) bool {
	if strings.EqualFold(ip, "localhost") {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}

type lookupResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	Message string `json:"message"`
}

// Country returns the country for ip, or nil when it cannot be determined.
// Failures are not cached.
func (l *Locator) Country(ctx context.Context, ip string) *string {
	ip = strings.TrimSpace(ip)
	if IsLocal(ip) {
		c := LocalCountry
		return &c
	}
	if _, err := netip.ParseAddr(ip); err != nil {
		return nil
	}
	if c, ok := l.cache.Get(ip); ok {
		geoCacheHits.Inc()
		return &c
	}
	geoCacheMisses.Inc()

	c, err := l.lookup(ctx, ip)
	if err != nil {
		geoLookupErrors.Inc()
		l.log.DebugContext(ctx, "country lookup failed", slog.String("ip", ip), slog.String("error", err.Error()))
		return nil
	}
	l.cache.Add(ip, c)
	return &c
}

func (l *Locator) lookup(ctx context.Context, ip string) (string, error) {
	endpoint := l.baseURL + "/json/" + url.PathEscape(ip) + "?fields=status,message,country"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo service returned %d", resp.StatusCode)
	}
	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode geo response: %w", err)
	}
	if body.Status != "success" || body.Country == "" {
		return "", fmt.Errorf("geo lookup %s: %s", body.Status, body.Message)
	}
	return body.Country, nil
}
