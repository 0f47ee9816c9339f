package catalog

import (
	"fmt"

	"github.com/jaakkos/brainstorm/internal/domain"
)

// requireString extracts a non-empty string from args by key.
func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// optionalString returns args[key] or fallback when absent or not a string.
func optionalString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// optionalFloat64 extracts a float64 from args by key, returning the fallback if not present.
func optionalFloat64(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// requireCollection reads the collection argument and checks it names a known collection.
func requireCollection(args map[string]any) (domain.Collection, error) {
	raw, err := requireString(args, "collection")
	if err != nil {
		return "", err
	}
	return domain.ParseCollection(raw)
}
