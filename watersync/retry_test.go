package watersync

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedAPI struct {
	devices     []Device
	devicesErr  error
	collectFn   func(call int) ([]CollectionEntry, error)
	collectCall int
}

func (s *scriptedAPI) Devices(ctx context.Context) ([]Device, error) {
	return s.devices, s.devicesErr
}

func (s *scriptedAPI) DeviceCollections(ctx context.Context, deviceId string, ds string, de string) ([]CollectionEntry, error) {
	s.collectCall++
	return s.collectFn(s.collectCall)
}

func TestFetchWithRetryTransientFailureThenSuccess(t *testing.T) {
	api := &scriptedAPI{
		collectFn: func(call int) ([]CollectionEntry, error) {
			if call < 3 {
				return nil, errors.New("connection reset")
			}
			return []CollectionEntry{{Date: "2025-01-15", Banknotes: "100"}}, nil
		},
	}

	entries, err := FetchWithRetry(context.Background(), api, "42", "2025-01-15", 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if api.collectCall != 3 {
		t.Errorf("calls = %d, want 3", api.collectCall)
	}
}

func TestFetchWithRetryAPIErrorNotRetried(t *testing.T) {
	api := &scriptedAPI{
		collectFn: func(call int) ([]CollectionEntry, error) {
			return nil, &APIError{Descr: "no data for device"}
		},
	}

	_, err := FetchWithRetry(context.Background(), api, "42", "2025-01-15", 3, 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if api.collectCall != 1 {
		t.Errorf("calls = %d, want 1 (no retry on API status error)", api.collectCall)
	}
}

func TestFetchWithRetryExhaustion(t *testing.T) {
	api := &scriptedAPI{
		collectFn: func(call int) ([]CollectionEntry, error) {
			return nil, errors.New("timeout")
		},
	}

	_, err := FetchWithRetry(context.Background(), api, "42", "2025-01-15", 3, 0)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.HasPrefix(err.Error(), "All attempts failed") {
		t.Errorf("err = %q, want All attempts failed prefix", err.Error())
	}
	if api.collectCall != 3 {
		t.Errorf("calls = %d, want 3", api.collectCall)
	}
}

func TestFetchWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &scriptedAPI{
		collectFn: func(call int) ([]CollectionEntry, error) {
			cancel()
			return nil, errors.New("timeout")
		},
	}

	_, err := FetchWithRetry(ctx, api, "42", "2025-01-15", 3, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
