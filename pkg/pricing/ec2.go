package pricing

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// GetInstanceHourlyPriceWithSource returns the hourly price for an EC2 instance
// and the source of the pricing
func GetInstanceHourlyPriceWithSource(instanceType, region string) (float64, string) {
	PricingInitOnce.Do(InitPricingClient)

	cacheKey := fmt.Sprintf("%s:%s", region, instanceType)

	EC2PricingCacheLock.RLock()
	if price, exists := EC2PricingCache[cacheKey]; exists {
		EC2PricingCacheLock.RUnlock()
		return price, string(PricingSourceCache)
	}
	EC2PricingCacheLock.RUnlock()

	if PricingClient != nil {
		price, err := getEC2PriceFromAPI(instanceType, region)
		if err == nil {
			EC2PricingCacheLock.Lock()
			EC2PricingCache[cacheKey] = price
			EC2PricingCacheLock.Unlock()

			return price, string(PricingSourceAPI)
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"instanceType": instanceType,
			"region":       region,
		}).Warn("error getting price from Pricing API")
	}

	// No fallback price tables; callers render N/A
	return 0, string(PricingSourceNA)
}

// CalculateMonthlyCostWithSource returns the estimated monthly cost for a
// running instance and the source of the pricing
func CalculateMonthlyCostWithSource(instanceType, region string) (float64, string) {
	hourlyPrice, source := GetInstanceHourlyPriceWithSource(instanceType, region)

	if source == string(PricingSourceNA) {
		return 0, string(PricingSourceNA)
	}

	return hourlyPrice * MonthlyHours, source
}
