package geoapify

// autocompleteResponse matches the provider's format=json payload.
type autocompleteResponse struct {
	Results []autocompleteResult `json:"results"`
}

type autocompleteResult struct {
	Formatted   string  `json:"formatted"`
	Street      string  `json:"street"`
	HouseNumber string  `json:"housenumber"`
	City        string  `json:"city"`
	Postcode    string  `json:"postcode"`
	State       string  `json:"state"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	PlaceID     string  `json:"place_id"`
	ResultType  string  `json:"result_type"`
}
