package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

const metersPerMile = 1609.344

// DistanceProvider returns the driving distance in miles from the business origin to destination.
type DistanceProvider interface {
	Miles(ctx context.Context, destination string) (float64, error)
}

// ZeroDistance is used when no lookup key is configured. Every address is 0 miles away.
type ZeroDistance struct{}

func (ZeroDistance) Miles(context.Context, string) (float64, error) { return 0, nil }

// GoogleDistance asks the Directions API for a route and reads the first leg.
type GoogleDistance struct {
	Client *maps.Client
	Origin string
}

// NewDistanceProvider picks GoogleDistance when apiKey is set and ZeroDistance otherwise.
// opts are appended after the key, so tests can point the client at a local server.
func NewDistanceProvider(apiKey, origin string, opts ...maps.ClientOption) (DistanceProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return ZeroDistance{}, nil
	}
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("init maps client: %w", err)
	}
	return GoogleDistance{Client: c, Origin: origin}, nil
}

// Miles fails only when the request could not be completed. A response without a usable
// route (no routes, non-OK status, bad body) counts as 0 miles.
func (g GoogleDistance) Miles(ctx context.Context, destination string) (float64, error) {
	reqID := utils.RequestID(ctx)
	routes, _, err := g.Client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      g.Origin,
		Destination: destination,
	})
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, domain.UpstreamError{Service: "distance", Err: err}
		}
		utils.LogEvent(reqID, "distance", "lookup", "no usable route, using 0 miles", zap.Error(err))
		return 0, nil
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 || routes[0].Legs[0] == nil {
		utils.LogEvent(reqID, "distance", "lookup", "empty route, using 0 miles")
		return 0, nil
	}
	meters := routes[0].Legs[0].Distance.Meters
	if meters <= 0 {
		return 0, nil
	}
	return float64(meters) / metersPerMile, nil
}
