package watersync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aquastream/collections_backend/utils"
)

// DeviceAPI is the surface of the upstream device-collection API the
// reconciliation engine consumes.
type DeviceAPI interface {
	Devices(ctx context.Context) ([]Device, error)
	DeviceCollections(ctx context.Context, deviceId string, ds string, de string) ([]CollectionEntry, error)
}

// APIError is a non-success status returned by the upstream API itself, as
// opposed to a transport failure. It is not retryable: the upstream has
// answered, just not with data.
type APIError struct {
	Descr string
}

func (e *APIError) Error() string {
	return e.Descr
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	baseURL := strings.TrimSpace(os.Getenv("WATER_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://soliton.net.ua/water/api"
	}
	timeout := time.Duration(utils.IntFromEnv("WATER_API_TIMEOUT_SECONDS", 30)) * time.Second

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type devicesResponse struct {
	Status  string   `json:"status"`
	Devices []Device `json:"devices"`
}

type collectionsResponse struct {
	Status  string            `json:"status"`
	Data    []CollectionEntry `json:"data"`
	Descr   string            `json:"descr"`
	Address string            `json:"address"`
}

// Devices fetches the full device list. A non-nil error means the API call
// itself failed; an empty slice with nil error means the fleet is empty.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	body, err := c.post(ctx, "/devices", map[string]string{})
	if err != nil {
		return nil, err
	}

	var parsed devicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode devices response: %w", err)
	}
	if parsed.Devices == nil {
		return nil, fmt.Errorf("no devices returned from API")
	}
	return parsed.Devices, nil
}

// DeviceCollections fetches collection entries for one device over an
// inclusive YYYY-MM-DD date range.
func (c *Client) DeviceCollections(ctx context.Context, deviceId string, ds string, de string) ([]CollectionEntry, error) {
	body, err := c.post(ctx, "/device_inkas.php", map[string]string{
		"device_id": deviceId,
		"ds":        ds,
		"de":        de,
	})
	if err != nil {
		return nil, err
	}

	var parsed collectionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode collections response: %w", err)
	}
	if parsed.Status != "success" {
		return nil, &APIError{Descr: parsed.Descr}
	}
	return parsed.Data, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("water api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
