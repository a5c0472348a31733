package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minefleet/spindle/pkg/pricing"
)

// priceJSON is a trimmed Pricing API product document
const priceJSON = `{
  "product": {"attributes": {"instanceType": "t3.medium"}},
  "terms": {
    "OnDemand": {
      "SKU.JRTCKXETXF": {
        "priceDimensions": {
          "SKU.JRTCKXETXF.6YS6EN2CT7": {
            "unit": "Hrs",
            "pricePerUnit": {"USD": "0.0416000000"}
          }
        }
      }
    }
  }
}`

func TestExtractOnDemandPrice(t *testing.T) {
	t.Parallel()

	price, err := pricing.ExtractOnDemandPrice(priceJSON)
	require.NoError(t, err)
	assert.InDelta(t, 0.0416, price, 0.0001)
}

func TestExtractOnDemandPriceMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
	}{
		{name: "not json", json: "nope"},
		{name: "no terms", json: `{"product": {}}`},
		{name: "no on-demand", json: `{"terms": {}}`},
		{name: "empty on-demand", json: `{"terms": {"OnDemand": {}}}`},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := pricing.ExtractOnDemandPrice(testCase.json)
			assert.Error(t, err)
		})
	}
}

// TestCachedPrice seeds the cache directly so no API call is attempted.
func TestCachedPrice(t *testing.T) {
	pricing.EC2PricingCacheLock.Lock()
	pricing.EC2PricingCache["us-east-1:t3.medium"] = 0.0416
	pricing.EC2PricingCacheLock.Unlock()

	price, source := pricing.GetInstanceHourlyPriceWithSource("t3.medium", "us-east-1")
	assert.InDelta(t, 0.0416, price, 0.0001)
	assert.Equal(t, string(pricing.PricingSourceCache), source)
}

func TestCalculateMonthlyCost(t *testing.T) {
	pricing.EC2PricingCacheLock.Lock()
	pricing.EC2PricingCache["us-east-1:m5.large"] = 0.1
	pricing.EC2PricingCacheLock.Unlock()

	cost, source := pricing.CalculateMonthlyCostWithSource("m5.large", "us-east-1")
	assert.InDelta(t, 73.0, cost, 0.001)
	assert.Equal(t, string(pricing.PricingSourceCache), source)
}
