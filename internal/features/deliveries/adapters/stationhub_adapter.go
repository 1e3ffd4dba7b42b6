package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parcel-ops/internal/core/config"
	"parcel-ops/internal/core/httpclient"
	"parcel-ops/internal/core/logger"
	"parcel-ops/internal/features/deliveries/domain"
	"parcel-ops/internal/features/deliveries/ports"

	"go.uber.org/zap"
)

// findPageSize is the page size FindDelivery scans with.
const findPageSize = 50

// findPageCap bounds how many pages FindDelivery will walk before giving up.
const findPageCap = 40

// StationHubAdapter implements the AssignmentProvider and CompletionSubmitter
// ports against the station hub REST API.
type StationHubAdapter struct {
	// client is the HTTP client used for hub requests.
	client *http.Client
	// config holds the hub connection details.
	config config.StationHubConfig
}

// NewStationHubAdapter creates a new instance of StationHubAdapter.
func NewStationHubAdapter(cfg config.StationHubConfig) *StationHubAdapter {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StationHubAdapter{
		client: httpclient.NewBearerClient(timeout, cfg.APIToken),
		config: cfg,
	}
}

// FetchDeliveries fetches one assignment page from the hub and flattens it
// into per-parcel records.
func (a *StationHubAdapter) FetchDeliveries(ctx context.Context, page, size int) (*domain.DeliveryPage, error) {
	url := fmt.Sprintf("%s/api/v1/assignments?page=%d&size=%d", a.config.URL, page, size)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("station hub returned status: %d", resp.StatusCode)
	}

	var hp hubPage
	if err := json.NewDecoder(resp.Body).Decode(&hp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := flattenPage(hp)
	if result.Skipped > 0 {
		logger.Get().Warn("Skipped malformed hub records",
			zap.Int("page", page),
			zap.Int("skipped", result.Skipped),
		)
	}
	return result, nil
}

// FindDelivery walks assignment pages until it locates the record matching
// both identifiers. Returns ports.ErrNotFound when the hub has no such record.
func (a *StationHubAdapter) FindDelivery(ctx context.Context, assignmentID, parcelID string) (*domain.DeliveryRecord, error) {
	for page := 0; page < findPageCap; page++ {
		dp, err := a.FetchDeliveries(ctx, page, findPageSize)
		if err != nil {
			return nil, err
		}

		for i := range dp.Records {
			r := &dp.Records[i]
			if r.ParcelID == parcelID && (assignmentID == "" || r.AssignmentID == assignmentID) {
				record := *r
				return &record, nil
			}
		}

		if page >= dp.Page.TotalPages-1 {
			break
		}
	}
	return nil, ports.ErrNotFound
}

// SubmitCompletion issues the status update that closes one parcel. The
// idempotency key travels as a header so retried submissions are safe
// hub-side. Local state is never touched: callers re-fetch to observe the
// result.
func (a *StationHubAdapter) SubmitCompletion(ctx context.Context, assignmentID string, completion domain.CompletionRequest) error {
	url := fmt.Sprintf("%s/api/v1/assignments/%s/status", a.config.URL, assignmentID)

	body, err := json.Marshal(completion)
	if err != nil {
		return fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if completion.IdempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", completion.IdempotencyKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ports.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("station hub rejected completion with status: %d", resp.StatusCode)
	}
	return nil
}

// UpdateParcelFields issues a partial field update keyed by parcel id.
func (a *StationHubAdapter) UpdateParcelFields(ctx context.Context, parcelID string, fields map[string]interface{}) error {
	url := fmt.Sprintf("%s/api/v1/parcels/%s", a.config.URL, parcelID)

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal field update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ports.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("station hub rejected field update with status: %d", resp.StatusCode)
	}
	return nil
}

// HealthCheck verifies that the hub API is reachable and the token is valid.
func (a *StationHubAdapter) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v1/assignments?page=0&size=1", a.config.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("health check failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}
	return nil
}
