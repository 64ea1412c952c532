// Package geo resolves a free-text location with Nominatim and lists nearby
// venues from the Overpass API. Both are public OpenStreetMap services, so
// geocodes are cached and identical in-flight lookups are collapsed.
package geo

import (
	"errors"
	"strings"
)

var ErrLocationNotFound = errors.New("location not found")

// Category is the kind of local recommendation requested.
type Category string

const (
	CategoryDating   Category = "dating"
	CategoryGym      Category = "gym"
	CategoryJobs     Category = "jobs"
	CategoryWellness Category = "wellness"
	CategorySocial   Category = "social"
)

var amenityPatterns = map[Category]string{
	CategoryDating:   "cafe|bar|restaurant",
	CategoryGym:      "fitness_centre|sports_centre",
	CategoryJobs:     "coworking_space|library",
	CategoryWellness: "spa|yoga|meditation",
	CategorySocial:   "community_centre|club",
}

// AmenityPattern is the OSM amenity regex used for the category.
func (c Category) AmenityPattern() string {
	if p, ok := amenityPatterns[c]; ok {
		return p
	}
	return "cafe"
}

// Location is a user-supplied place. State is optional.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country"`
}

// Query joins the non-empty parts as "city, state, country".
func (l Location) Query() string {
	var parts []string
	for _, p := range []string{l.City, l.State, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Place struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Address string `json:"address"`
}
