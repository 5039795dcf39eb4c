package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/client"
	"github.com/herdline/herdline/internal/usecase"
)

// GeocoderGateway resolves coordinates to a human readable address through a
// nominatim-compatible reverse geocoding endpoint.
type GeocoderGateway struct {
	client *client.Client
	cache  *cache.Cache
}

func NewGeocoderGateway(cl *client.Client) *GeocoderGateway {
	return &GeocoderGateway{
		client: cl,
		cache:  cache.New(10*time.Minute, 15*time.Minute),
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

func (g *GeocoderGateway) ResolveAddress(ctx context.Context, coords herdline.Coordinates) (string, error) {

	cacheKey := coords.String()
	if cached, found := g.cache.Get(cacheKey); found {
		return cached.(string), nil
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", coords.Latitude))
	query.Set("lon", fmt.Sprintf("%f", coords.Longitude))

	var resp reverseResponse
	err := g.client.GetJSON(ctx, "/reverse?"+query.Encode(), &resp)
	if err != nil {
		return "", fmt.Errorf("failed to reverse geocode %s: %v", cacheKey, err)
	}

	if resp.DisplayName == "" {
		return "", fmt.Errorf("no address found for %s", cacheKey)
	}

	g.cache.Set(cacheKey, resp.DisplayName, cache.DefaultExpiration)

	return resp.DisplayName, nil
}

var _ usecase.AddressResolver = (*GeocoderGateway)(nil)
