package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces every storefront variable.
const Prefix = "STOREFRONT_"

// Get returns STOREFRONT_<key>, then the bare key, then fallback. Blank
// values count as unset.
func Get(key, fallback string) string {
	if val := lookup(Prefix + key); val != "" {
		return val
	}
	if val := lookup(key); val != "" {
		return val
	}
	return fallback
}

// Bool reads a variable through Get. Unparseable values yield fallback.
func Bool(key string, fallback bool) bool {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return val
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
