package cache

import (
	"fmt"
	"time"
)

// ServiceListTTL bounds staleness of the cached service catalog. Service
// definitions change on the order of months.
const ServiceListTTL = 6 * time.Hour

// ServiceListKey is the cache key for the full Open311 service catalog.
func ServiceListKey() string {
	return "open311:services"
}

// ServiceMetadataKey is the cache key for one service's attribute form.
func ServiceMetadataKey(code string) string {
	return fmt.Sprintf("open311:service-metadata:%s", code)
}
