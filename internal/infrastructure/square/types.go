package square

// Wire types for the Square REST API. Only the fields the import pipeline
// reads are declared; everything else in the responses is ignored.

// errorResponse is the envelope Square returns on failed requests
type errorResponse struct {
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

// listMerchantsResponse is the body of GET /v2/merchants
type listMerchantsResponse struct {
	Merchant []merchantObject `json:"merchant"`
}

type merchantObject struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	Country      string `json:"country"`
	LanguageCode string `json:"language_code"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// listLocationsResponse is the body of GET /v2/locations
type listLocationsResponse struct {
	Locations []locationObject `json:"locations"`
}

type locationObject struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Address       *addressObject `json:"address"`
	PhoneNumber   string         `json:"phone_number"`
	BusinessHours *businessHours `json:"business_hours"`
	Timezone      string         `json:"timezone"`
	Status        string         `json:"status"`
}

type addressObject struct {
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	Locality     string `json:"locality"`
	AdminArea    string `json:"administrative_district_level_1"`
	PostalCode   string `json:"postal_code"`
}

type businessHours struct {
	Periods []businessHoursPeriod `json:"periods"`
}

type businessHoursPeriod struct {
	DayOfWeek      string `json:"day_of_week"`
	StartLocalTime string `json:"start_local_time"`
	EndLocalTime   string `json:"end_local_time"`
}

// listCatalogResponse is the body of GET /v2/catalog/list, paginated via
// the cursor
type listCatalogResponse struct {
	Cursor  string          `json:"cursor"`
	Objects []catalogObject `json:"objects"`
}

type catalogObject struct {
	Type         string        `json:"type"`
	ID           string        `json:"id"`
	CategoryData *categoryData `json:"category_data"`
	ItemData     *itemData     `json:"item_data"`
}

type categoryData struct {
	Name string `json:"name"`
}

type itemData struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	CategoryID  string             `json:"category_id"`
	ProductType string             `json:"product_type"`
	Variations  []catalogVariation `json:"variations"`
}

// catalogVariation is a variation object nested inside an item
type catalogVariation struct {
	Type              string             `json:"type"`
	ID                string             `json:"id"`
	ItemVariationData *itemVariationData `json:"item_variation_data"`
}

type itemVariationData struct {
	Name                string `json:"name"`
	PriceMoney          *money `json:"price_money"`
	ServiceDuration     int64  `json:"service_duration"` // milliseconds
	AvailableForBooking bool   `json:"available_for_booking"`
}

type money struct {
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
}

const (
	catalogTypeCategory = "CATEGORY"
	catalogTypeItem     = "ITEM"

	productTypeAppointmentsService = "APPOINTMENTS_SERVICE"

	locationStatusActive = "ACTIVE"
)
