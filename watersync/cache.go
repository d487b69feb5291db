package watersync

import (
	"context"
	"time"

	"github.com/aquastream/collections_backend/config"
)

const devicesCacheKey = "water:devices"

// CachedDevices serves the device list from Redis when a fresh copy exists,
// falling back to the API. Interactive bot commands hit this instead of the
// upstream so repeated /devices calls do not hammer the API.
func CachedDevices(ctx context.Context, api DeviceAPI) ([]Device, error) {
	var cached []Device
	if found, err := config.GetRedisObject(devicesCacheKey, &cached); err == nil && found && len(cached) > 0 {
		return cached, nil
	}

	devices, err := api.Devices(ctx)
	if err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(devicesCacheKey, devices, 10*time.Minute); err != nil {
		config.LogError(config.GetLogger(), "watersync", "CachedDevices", "cache devices", nil, err)
	}
	return devices, nil
}
