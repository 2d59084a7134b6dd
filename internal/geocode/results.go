package geocode

// AutocompleteResult is one structured-address completion, normalized
// from the provider's payload.
type AutocompleteResult struct {
	Formatted   string  `json:"formatted"`
	Street      string  `json:"street,omitempty"`
	HouseNumber string  `json:"houseNumber,omitempty"`
	City        string  `json:"city,omitempty"`
	Postcode    string  `json:"postcode,omitempty"`
	State       string  `json:"state,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"countryCode,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	PlaceID     string  `json:"placeId"`
	ResultType  string  `json:"resultType"`
}

// Address is the structured part of a free-text provider record.
type Address struct {
	Road        string `json:"road,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	City        string `json:"city,omitempty"`
	Town        string `json:"town,omitempty"`
	Village     string `json:"village,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Place is one raw candidate from the free-text provider, already mapped
// out of the provider-specific payload but not yet deduplicated or
// ranked.
type Place struct {
	DisplayName string
	Lat         float64
	Lon         float64
	Address     Address
}

// AddressResult is the single resolved address for KindAddress queries.
// A nil *AddressResult means no candidate was found.
type AddressResult struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
	Address     Address `json:"address"`
}
