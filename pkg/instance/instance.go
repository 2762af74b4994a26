package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

// ID identifies this process in logs. STOREFRONT_INSTANCE_ID wins, then the
// platform dyno name, then the hostname.
func ID() string {
	if id := env.Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
