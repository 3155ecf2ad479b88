package bankstream

// CustomerCategory is the variant of a customer record. The set is closed:
// new categories are added by extending the detail builder map below, not
// by introducing new types.
type CustomerCategory string

const (
	// CategoryIndividual is a natural person
	CategoryIndividual CustomerCategory = "individual"
	// CategoryBusiness is a registered company
	CategoryBusiness CustomerCategory = "business"
	// CategoryVIP is a premium customer
	CategoryVIP CustomerCategory = "vip"
)

// categoryUnknown labels customers whose category is outside the known set
const categoryUnknown = "unknown"

// Customer is the directory record that owns accounts. It is read only
// from the transfer engine's perspective; the fields after Category are
// populated depending on the category.
type Customer struct {
	ID       string           `db:"id"`
	Name     string           `db:"name"`
	Category CustomerCategory `db:"category"`

	NationalID                 string `db:"national_id"`
	BusinessRegistrationNumber string `db:"business_registration_number"`
	VIPLevel                   string `db:"vip_level"`
}

// Type returns the wire name of the customer's category, or "unknown" for
// categories outside the closed set.
func (c *Customer) Type() string {
	if _, known := customerDetailBuilders[c.Category]; known {
		return string(c.Category)
	}

	return categoryUnknown
}

// customerDetailBuilders maps each category to the function that fills in
// its category specific event fields. This is a capability lookup, not a
// type switch: adding a category means adding an entry here.
var customerDetailBuilders = map[CustomerCategory]func(*Customer, *CustomerDetails){
	CategoryIndividual: func(c *Customer, d *CustomerDetails) {
		d.Type = string(CategoryIndividual)
		d.PersonalID = c.NationalID
	},
	CategoryBusiness: func(c *Customer, d *CustomerDetails) {
		d.Type = string(CategoryBusiness)
		d.BusinessNumber = c.BusinessRegistrationNumber
	},
	CategoryVIP: func(c *Customer, d *CustomerDetails) {
		d.Type = string(CategoryVIP)
		d.PersonalID = "VIP-" + c.ID
	},
}

// BuildCustomerDetails returns the customer block embedded in a transaction
// event. Unknown categories produce a block labeled "unknown" rather than
// an error.
func BuildCustomerDetails(c *Customer) CustomerDetails {
	details := CustomerDetails{
		ID:   c.ID,
		Name: c.Name,
		Type: categoryUnknown,
	}

	if build, known := customerDetailBuilders[c.Category]; known {
		build(c, &details)
	}

	return details
}
