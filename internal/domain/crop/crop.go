// Package crop holds the crop catalog: training categories, baseline yields
// and prices, and the fixed historical yield tables.
package crop

import "strings"

// Crops with a baseline entry. Anything else is an open-world crop and uses
// the default rates.
const (
	Wheat     = "wheat"
	Rice      = "rice"
	Corn      = "corn"
	Soybeans  = "soybeans"
	Cotton    = "cotton"
	Sugarcane = "sugarcane"
)

// Defaults for crops missing from the catalog.
const (
	DefaultBaseYield = 4000.0
	DefaultBasePrice = 25.0
)

// oneHot lists the categories the regressor was trained on, sorted.
var oneHot = []string{Corn, Cotton, Rice, Soybeans, Wheat}

var baseYields = map[string]float64{
	Wheat:     4500,
	Rice:      6000,
	Corn:      3200,
	Soybeans:  2800,
	Cotton:    1500,
	Sugarcane: 8000,
}

var basePrices = map[string]float64{
	Wheat:     22,
	Rice:      28,
	Corn:      18,
	Soybeans:  35,
	Cotton:    52,
	Sugarcane: 15,
}

// Months labels the six periods of a historical series.
var Months = [6]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

var history = map[string][6]int{
	Wheat:    {3800, 3900, 4100, 4300, 4400, 4500},
	Rice:     {5200, 5300, 5500, 5700, 5900, 6000},
	Corn:     {2800, 2900, 3000, 3100, 3150, 3200},
	Soybeans: {2400, 2500, 2600, 2700, 2750, 2800},
}

// Normalize folds a crop name to its catalog key.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// OneHotCategories returns the one-hot crop categories in feature order.
func OneHotCategories() []string {
	out := make([]string, len(oneHot))
	copy(out, oneHot)
	return out
}

// Known reports whether name has its own baseline entry.
func Known(name string) bool {
	_, ok := baseYields[Normalize(name)]
	return ok
}

// BaseYield returns the baseline yield for name, or DefaultBaseYield.
func BaseYield(name string) float64 {
	if v, ok := baseYields[Normalize(name)]; ok {
		return v
	}
	return DefaultBaseYield
}

// BasePrice returns the baseline price for name, or DefaultBasePrice.
func BasePrice(name string) float64 {
	if v, ok := basePrices[Normalize(name)]; ok {
		return v
	}
	return DefaultBasePrice
}

// Price moves inversely to the relative deviation of yield from the crop's
// baseline yield. A yield equal to the baseline returns the base price.
func Price(name string, yield float64) float64 {
	return BasePrice(name) * (1 - 0.1*(yield/BaseYield(name)-1))
}

// History returns the fixed six-period table for name, if there is one.
func History(name string) ([6]int, bool) {
	h, ok := history[Normalize(name)]
	return h, ok
}
