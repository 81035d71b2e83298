package utils

import (
	"strings"
)

// NormalizeDistrict trims a raw district name and strips the city prefixes
// some exports carry, so "臺南市東區", "市東區" and "東區" group as one
// district.
func NormalizeDistrict(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.TrimPrefix(normalized, "臺南市")
	normalized = strings.TrimPrefix(normalized, "台南市")
	normalized = strings.TrimPrefix(normalized, "市")
	return normalized
}

// NormalizeLocation canonicalizes a location description so records written
// with irregular spacing resolve to the same site key.
func NormalizeLocation(raw string) string {
	normalized := strings.ReplaceAll(raw, "　", " ")
	normalized = strings.Join(strings.Fields(normalized), " ")
	return normalized
}
