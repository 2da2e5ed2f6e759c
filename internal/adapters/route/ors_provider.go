package route

import (
	"errors"
	"net/http"
	"time"

	"eco-route-engine/internal/ports"

	"github.com/sirupsen/logrus"
)

// ORSRouteProvider implements the routing oracle using OpenRouteService.
//
// It coordinates:
//   - Directions queries (per-leg distance/duration/geometry)
//   - Address geocoding with a persistent cache
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	maxAttempts  int
	geocodeCache ports.GeocodeCache
	log          *logrus.Entry
}

type Options struct {
	APIKey       string
	BaseURL      string        // defaults to the public ORS endpoint
	Profile      string        // defaults to driving-car
	Timeout      time.Duration // per-call HTTP timeout
	MaxAttempts  int           // bounded retries for transient failures
	GeocodeCache ports.GeocodeCache
}

func NewORSRouteProvider(opts Options) (*ORSRouteProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	if opts.Profile == "" {
		opts.Profile = "driving-car"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 4
	}

	provider := &ORSRouteProvider{
		session:      &http.Client{Timeout: opts.Timeout},
		apiKey:       opts.APIKey,
		baseURL:      opts.BaseURL,
		profile:      opts.Profile,
		maxAttempts:  opts.MaxAttempts,
		geocodeCache: opts.GeocodeCache,
		log:          logrus.WithField("component", "ors"),
	}

	return provider, nil
}
