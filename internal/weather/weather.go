// Package weather is a thin client over the hosted weather proxy. It only
// assembles candidate stats for round publishing; presentation-side unit
// formatting lives with the clients.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wettergames/cityguess/internal/game"
)

// City identifies a location the proxy can report on.
type City struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// Client fetches daily weather snapshots from the proxy.
type Client struct {
	baseURL string
	client  *http.Client
}

// New returns a client for the proxy at baseURL. httpClient may be nil to
// use http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

// Daily fetches the day's stats for one city. Values arrive already in
// canonical units (°C, mm, percent, km/h, hPa).
func (c *Client) Daily(ctx context.Context, day string, city City) (game.Stats, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(city.Lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(city.Lng, 'f', -1, 64))
	q.Set("date", day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/daily?"+q.Encode(), nil)
	if err != nil {
		return game.Stats{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return game.Stats{}, fmt.Errorf("fetching daily stats for %s: %w", city.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return game.Stats{}, fmt.Errorf("weather proxy returned %d for %s: %s", resp.StatusCode, city.Name, raw)
	}

	var stats game.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return game.Stats{}, fmt.Errorf("decoding daily stats for %s: %w", city.Name, err)
	}
	return stats, nil
}

// Candidates fetches the day's stats for every city and assembles the
// round's candidate list. One failing city fails the whole batch; partial
// rounds are never playable.
func (c *Client) Candidates(ctx context.Context, day string, cities []City) ([]game.Candidate, error) {
	cands := make([]game.Candidate, 0, len(cities))
	for _, city := range cities {
		stats, err := c.Daily(ctx, day, city)
		if err != nil {
			return nil, err
		}
		cands = append(cands, game.Candidate{
			ID:     city.ID,
			Name:   city.Name,
			Region: city.Region,
			Lat:    city.Lat,
			Lng:    city.Lng,
			Stats:  stats,
		})
	}
	return cands, nil
}
