package pricing

import "sync"

// PricingSource indicates where a price came from
type PricingSource string

const (
	// PricingSourceAPI means the price came from a live Pricing API call
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache means the price came from the in-memory cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourceNA means no price could be determined
	PricingSourceNA PricingSource = "N/A"
)

var (
	// EC2PricingCache caches hourly prices by "region:instanceType"
	EC2PricingCache = make(map[string]float64)

	// EC2PricingCacheLock protects EC2PricingCache
	EC2PricingCacheLock sync.RWMutex
)

// MonthlyHours is the approximate number of hours in a month
// (365 days / 12 months * 24 hours)
const MonthlyHours = 730.0
