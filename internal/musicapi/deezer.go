package musicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultDeezerBaseURL is the public Deezer API root.
const DefaultDeezerBaseURL = "https://api.deezer.com"

// DeezerClient searches the public Deezer catalogue. Search needs no
// credentials.
type DeezerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDeezerClient creates a client for baseURL (DefaultDeezerBaseURL when
// empty).
func NewDeezerClient(baseURL string, timeout time.Duration) *DeezerClient {
	if baseURL == "" {
		baseURL = DefaultDeezerBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DeezerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type deezerSearchResponse struct {
	Data  []deezerTrack `json:"data"`
	Total int           `json:"total"`
	Error *deezerError  `json:"error,omitempty"`
}

type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerTrack struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	Preview  string `json:"preview"`
	Artist   struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		Title       string `json:"title"`
		CoverMedium string `json:"cover_medium"`
	} `json:"album"`
}

// SearchTracks queries GET /search and maps the hits to Track values.
func (c *DeezerClient) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var result deezerSearchResponse
	if err := c.doRequest(ctx, "search", params, &result); err != nil {
		return nil, err
	}

	// Deezer reports quota and parameter errors with HTTP 200.
	if result.Error != nil {
		return nil, fmt.Errorf("deezer api error: %s (%d): %s", result.Error.Type, result.Error.Code, result.Error.Message)
	}

	tracks := make([]Track, 0, len(result.Data))
	for _, dt := range result.Data {
		tracks = append(tracks, convertTrack(dt))
	}
	return tracks, nil
}

func (c *DeezerClient) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	apiURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("deezer api error: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func convertTrack(dt deezerTrack) Track {
	return Track{
		ExternalID: strconv.FormatInt(dt.ID, 10),
		Title:      dt.Title,
		Artist:     dt.Artist.Name,
		Album:      dt.Album.Title,
		Provider:   ProviderDeezer,
		Duration:   dt.Duration,
		PreviewURL: dt.Preview,
		CoverURL:   dt.Album.CoverMedium,
	}
}
