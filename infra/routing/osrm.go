// Package routing provides the HTTP implementation of the core routing
// collaborator, speaking the OSRM route service protocol.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kfranzke/leitstelle/auth"
	"github.com/kfranzke/leitstelle/core/logger"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/routing"
	infralogger "github.com/kfranzke/leitstelle/infra/logger"
)

// Config holds the OSRM client settings.
type Config struct {
	// BaseURL is the OSRM server root, e.g. http://localhost:5000.
	BaseURL string `koanf:"base_url" json:"base_url"`
	// TimeoutSeconds bounds each route request.
	TimeoutSeconds int `koanf:"timeout_seconds" json:"timeout_seconds"`
	// Auth configures OAuth2 client credentials for hosted providers.
	Auth auth.Conf `koanf:"auth" json:"auth"`
}

// Client queries an OSRM server for routes. Flying vehicles never hit the
// road network, so ModeFlying short-circuits to a straight line.
type Client struct {
	baseURL string
	client  *http.Client
	cred    *auth.ClientCred
	log     logger.Logger
}

// NewClient creates an OSRM routing client.
func NewClient(cfg Config) *Client {
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		log:     infralogger.New("osrm-client"),
	}
	if cfg.Auth.Enabled() {
		c.cred = auth.NewClientCred(cfg.Auth)
	}
	return c
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route implements routing.Router. Errors propagate to the caller, which
// falls back to a straight-line estimate.
func (c *Client) Route(ctx context.Context, origin, dest model.Position, mode routing.Mode) (routing.Route, error) {
	if mode == routing.ModeFlying || c.baseURL == "" {
		return routing.Route{}, fmt.Errorf("osrm: no road profile for mode %s", mode)
	}
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?%s",
		c.baseURL, origin.Lon, origin.Lat, dest.Lon, dest.Lat,
		url.Values{"overview": {"full"}, "geometries": {"geojson"}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return routing.Route{}, fmt.Errorf("osrm: build request: %w", err)
	}
	if c.cred != nil {
		if err := c.cred.SetAuthHeader(req); err != nil {
			return routing.Route{}, fmt.Errorf("osrm: auth: %w", err)
		}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return routing.Route{}, fmt.Errorf("osrm: request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warnf("close response body: %v", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return routing.Route{}, fmt.Errorf("osrm: status %d", resp.StatusCode)
	}
	var out osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return routing.Route{}, fmt.Errorf("osrm: decode: %w", err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return routing.Route{}, fmt.Errorf("osrm: no route (code %s)", out.Code)
	}
	best := out.Routes[0]
	path := make([]model.Position, 0, len(best.Geometry.Coordinates))
	for _, c := range best.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		path = append(path, model.Position{Lat: c[1], Lon: c[0]})
	}
	return routing.Route{Path: path, DurationS: best.Duration}, nil
}
