package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/MikeSquared-Agency/sibyl/internal/metrics"
)

const (
	userAgent     = "SpiritualClarityApp/1.0"
	searchRadiusM = 5000
	maxPlaces     = 5
	httpTimeout   = 30 * time.Second
	maxBody       = 4 << 20
)

type cachedCoords struct {
	coords  Coordinates
	expires time.Time
}

type Client struct {
	nominatimURL string
	overpassURL  string
	client       *http.Client
	logger       *slog.Logger
	metrics      *metrics.Metrics

	cache *lru.Cache[string, cachedCoords]
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

func NewClient(nominatimURL, overpassURL string, cacheSize int, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, cachedCoords](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &Client{
		nominatimURL: strings.TrimRight(nominatimURL, "/"),
		overpassURL:  overpassURL,
		client:       &http.Client{Timeout: httpTimeout},
		logger:       logger,
		metrics:      m,
		cache:        cache,
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

// Close releases idle HTTP connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves query to coordinates, serving repeats from the cache.
func (c *Client) Geocode(ctx context.Context, query string) (Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return Coordinates{}, ErrLocationNotFound
	}

	if entry, ok := c.cache.Get(key); ok && c.now().Before(entry.expires) {
		c.metrics.GeoLookup("geocode", "cache_hit")
		return entry.coords, nil
	}

	// The shared lookup outlives any one caller; each caller stops waiting
	// on its own context.
	ch := c.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpTimeout)
		defer cancel()
		coords, err := c.geocode(lookupCtx, query)
		if err != nil {
			return Coordinates{}, err
		}
		c.cache.Add(key, cachedCoords{coords: coords, expires: c.now().Add(c.ttl)})
		return coords, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		c.metrics.GeoLookup("geocode", "canceled")
		return Coordinates{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		c.metrics.GeoLookup("geocode", "error")
		c.logger.Warn("geocode failed", "query", query, "error", res.Err)
		return Coordinates{}, res.Err
	}
	c.metrics.GeoLookup("geocode", "ok")
	return res.Val.(Coordinates), nil
}

func (c *Client) geocode(ctx context.Context, query string) (Coordinates, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.nominatimURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	body, err := c.do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Coordinates{}, fmt.Errorf("decode geocode: %w", err)
	}
	if len(results) == 0 {
		return Coordinates{}, ErrLocationNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

type overpassResponse struct {
	Elements []struct {
		Type string            `json:"type"`
		ID   int64             `json:"id"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Nearby lists up to five venues matching category within 5km of at.
func (c *Client) Nearby(ctx context.Context, at Coordinates, category Category) ([]Place, error) {
	query := overpassQuery(at, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.overpassURL, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("create overpass request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain")

	body, err := c.do(req)
	if err != nil {
		c.metrics.GeoLookup("places", "error")
		return nil, fmt.Errorf("overpass: %w", err)
	}

	var resp overpassResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.GeoLookup("places", "error")
		return nil, fmt.Errorf("decode overpass: %w", err)
	}
	c.metrics.GeoLookup("places", "ok")
	c.logger.Debug("overpass lookup", "category", category, "elements", len(resp.Elements))

	places := make([]Place, 0, maxPlaces)
	for _, el := range resp.Elements {
		if len(places) == maxPlaces {
			break
		}
		places = append(places, toPlace(el.Tags, category))
	}
	return places, nil
}

func overpassQuery(at Coordinates, category Category) string {
	tags := category.AmenityPattern()
	around := fmt.Sprintf("(around:%d,%g,%g)", searchRadiusM, at.Lat, at.Lon)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"~"%[1]s"]%[2]s;
  way["amenity"~"%[1]s"]%[2]s;
  node["leisure"~"fitness_centre|sports_centre"]%[2]s;
);
out center 10;`, tags, around)
}

func toPlace(tags map[string]string, category Category) Place {
	p := Place{
		Name:    "Local venue",
		Type:    string(category),
		Address: "Address unavailable",
	}
	if name := tags["name"]; name != "" {
		p.Name = name
	}
	if t := tags["amenity"]; t != "" {
		p.Type = t
	} else if t := tags["leisure"]; t != "" {
		p.Type = t
	}
	if street := tags["addr:street"]; street != "" {
		p.Address = strings.TrimSpace(tags["addr:housenumber"] + " " + street)
	}
	return p
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxBody {
		return nil, fmt.Errorf("response exceeds %d bytes", maxBody)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
