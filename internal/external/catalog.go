package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CatalogClient reads show schedules from the upstream catalog service.
// Used only by the sync-shows command; the API never calls out to it.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// CatalogShow is the upstream schedule entry that sync-shows imports.
type CatalogShow struct {
	ExternalID string    `json:"id"`
	ScreenID   int64     `json:"screen_id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	BasePrice  int64     `json:"base_price"`
	Rows       int       `json:"rows"`
	RowSeats   int       `json:"row_seats"`
}

func NewCatalogClient(cfg CatalogConfig) *CatalogClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &CatalogClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ListUpcoming fetches shows scheduled after the given time, paged.
func (cc *CatalogClient) ListUpcoming(ctx context.Context, after time.Time, page, pageSize int) ([]CatalogShow, error) {
	url := fmt.Sprintf("%s/api/v1/shows?after=%s&page=%d&pageSize=%d",
		cc.baseURL, after.UTC().Format(time.RFC3339), page, pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := cc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var shows []CatalogShow
	if err := json.NewDecoder(resp.Body).Decode(&shows); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return shows, nil
}
