package bankstream

// Currency is an ISO-4217 currency code.
type Currency string

// The closed set of currencies accounts can be denominated in.
const (
	USD Currency = "USD"
	ILS Currency = "ILS"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CAD Currency = "CAD"
)

var currencyNames = map[Currency]string{
	USD: "US Dollar",
	ILS: "Israeli Shekel",
	EUR: "Euro",
	GBP: "British Pound",
	JPY: "Japanese Yen",
	CAD: "Canadian Dollar",
}

// DisplayName returns the human readable name of the currency, or the raw
// code when the currency is outside the known set.
func (c Currency) DisplayName() string {
	if name, ok := currencyNames[c]; ok {
		return name
	}

	return string(c)
}

func (c Currency) String() string {
	return string(c)
}
