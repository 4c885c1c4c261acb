package shipping

import "strings"

// Method is one priced delivery option for a destination.
type Method struct {
	MethodID     string `json:"method_id"`
	Name         string `json:"name"`
	PriceInCents int64  `json:"price_in_cents"`
	EtaLabel     string `json:"eta_label"`
}

const (
	MethodStandard = "standard"
	MethodExpress  = "express"
)

// defaultPriceInCents applies to destinations missing from the rate table.
const defaultPriceInCents = 3990

// rate table in cents, keyed by normalized city name
var cityRates = map[string]int64{
	"sao paulo":      1490,
	"são paulo":      1490,
	"osasco":         1290,
	"guarulhos":      1590,
	"campinas":       1690,
	"rio de janeiro": 2490,
	"niteroi":        2390,
	"santos":         1890,
	"curitiba":       2590,
	"florianopolis":  2790,
	"porto alegre":   2990,
	"salvador":       2990,
	"recife":         3190,
	"fortaleza":      3390,
	"natal":          3290,
	"manaus":         3990,
	"belem":          3590,
	"brasilia":       2790,
	"goiania":        2890,
	"cuiaba":         3090,
	"campo grande":   2990,
}

// Quote returns the delivery methods priced for a destination. Unknown
// cities fall back to the default rate rather than failing; the lookup is a
// pure function of city and state.
func Quote(city, state string) []Method {
	key := strings.ToLower(strings.TrimSpace(city))
	price, ok := cityRates[key]
	if !ok {
		price = defaultPriceInCents
	}

	return []Method{
		{
			MethodID:     MethodStandard,
			Name:         "Standard",
			PriceInCents: price,
			EtaLabel:     "5-8 business days",
		},
		{
			MethodID:     MethodExpress,
			Name:         "Express",
			PriceInCents: price + 1500,
			EtaLabel:     "1-3 business days",
		},
	}
}
