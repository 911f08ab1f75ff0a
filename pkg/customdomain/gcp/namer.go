package gcp

import (
	"fmt"
	"math"
	"strings"
)

// newResourceName joins the component prefix and a resource name, truncating
// both sides evenly when the result would exceed maxLength. GCP enforces
// different limits per resource type (63 for most compute resources, 28 for
// service account IDs), so callers pass the limit in.
func (d *CustomDomain) newResourceName(name string, maxLength int) string {
	resourceName := fmt.Sprintf("%s-%s", d.prefix, name)

	if len(resourceName) <= maxLength {
		return resourceName
	}

	surplus := len(resourceName) - maxLength
	prefixSurplus := int(math.Ceil(float64(surplus) / 2))
	nameSurplus := surplus - prefixSurplus

	// Truncate each part, keeping at least one character so the join never
	// produces a leading or doubled dash.
	var shortPrefix string
	if prefixSurplus < len(d.prefix) {
		shortPrefix = d.prefix[:len(d.prefix)-prefixSurplus]
	} else {
		shortPrefix = d.prefix[:1]
	}

	var shortName string
	if nameSurplus < len(name) {
		shortName = name[:len(name)-nameSurplus]
	} else {
		shortName = name[:1]
	}

	resourceName = fmt.Sprintf("%s-%s",
		strings.TrimRight(shortPrefix, "-"),
		strings.TrimRight(shortName, "-"),
	)

	// When one part bottoms out at a single character the even split above
	// is not enough.
	if len(resourceName) > maxLength {
		resourceName = strings.TrimRight(resourceName[:maxLength], "-")
	}

	return resourceName
}
