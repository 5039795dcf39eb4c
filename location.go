package herdline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Coordinates is a decoded report location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// ParseLocation decodes a stored location string. Two encodings are in the
// wild: a JSON object {"latitude":..,"longitude":..} and a comma-joined
// "lat,lon" pair. Both must keep decoding.
func ParseLocation(s string) (*Coordinates, error) {
	if s == "" {
		return nil, fmt.Errorf("empty location")
	}

	if strings.HasPrefix(strings.TrimSpace(s), "{") {
		var coords Coordinates
		if err := json.Unmarshal([]byte(s), &coords); err == nil {
			return &coords, nil
		}
	}

	parts := strings.Split(s, ",")
	if len(parts) == 2 {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if latErr == nil && lonErr == nil {
			return &Coordinates{Latitude: lat, Longitude: lon}, nil
		}
	}

	return nil, fmt.Errorf("unparseable location: %s", s)
}

// EncodeLocation renders the canonical encoding for new writes. Decoding
// keeps accepting both legacy forms.
func EncodeLocation(c Coordinates) string {
	b, _ := json.Marshal(c)
	return string(b)
}
