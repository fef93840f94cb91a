package location

import "strconv"

// RangeRule maps a contiguous numeric postal-code range to a region. Rules
// are hand-curated for the metros where the upstream location matcher is
// known to misbehave on specific valid codes; any code inside the range
// resolves deterministically, with no network dependency, to the region's
// canonical code.
type RangeRule struct {
	Low           int
	High          int
	Alias         string
	CanonicalCode string
	City          string
	Region        string
}

var rangeRules = []RangeRule{
	{Low: 110001, High: 110096, Alias: "delhi", CanonicalCode: "110001", City: "New Delhi", Region: "Delhi"},
	{Low: 122001, High: 122108, Alias: "haryana", CanonicalCode: "122001", City: "Gurugram", Region: "Haryana"},
	{Low: 160001, High: 160047, Alias: "chandigarh", CanonicalCode: "160001", City: "Chandigarh", Region: "Chandigarh"},
	{Low: 201001, High: 201318, Alias: "up-ncr", CanonicalCode: "201001", City: "Ghaziabad", Region: "Uttar Pradesh"},
	{Low: 226001, High: 226031, Alias: "uttar-pradesh-e", CanonicalCode: "226001", City: "Lucknow", Region: "Uttar Pradesh"},
	{Low: 302001, High: 302039, Alias: "rajasthan", CanonicalCode: "302001", City: "Jaipur", Region: "Rajasthan"},
	{Low: 380001, High: 380063, Alias: "gujarat", CanonicalCode: "380001", City: "Ahmedabad", Region: "Gujarat"},
	{Low: 400001, High: 400104, Alias: "mumbai-br", CanonicalCode: "400001", City: "Mumbai", Region: "Maharashtra"},
	{Low: 403001, High: 403806, Alias: "goa", CanonicalCode: "403001", City: "Panaji", Region: "Goa"},
	{Low: 411001, High: 411062, Alias: "pune-br", CanonicalCode: "411001", City: "Pune", Region: "Maharashtra"},
	{Low: 500001, High: 500104, Alias: "telangana", CanonicalCode: "500001", City: "Hyderabad", Region: "Telangana"},
	{Low: 560001, High: 560110, Alias: "karnataka", CanonicalCode: "560001", City: "Bengaluru", Region: "Karnataka"},
	{Low: 600001, High: 600123, Alias: "tamil-nadu-1", CanonicalCode: "600001", City: "Chennai", Region: "Tamil Nadu"},
	{Low: 700001, High: 700110, Alias: "west-bengal", CanonicalCode: "700001", City: "Kolkata", Region: "West Bengal"},
}

// ResolveByRange evaluates the range table against a postal code and
// synthesizes a Resolution on match. Non-numeric codes never match.
func ResolveByRange(postalCode string) (*Resolution, bool) {
	n, err := strconv.Atoi(postalCode)
	if err != nil {
		return nil, false
	}
	for _, rule := range rangeRules {
		if n >= rule.Low && n <= rule.High {
			return &Resolution{
				InputCode:     postalCode,
				CanonicalCode: rule.CanonicalCode,
				PartitionID:   PartitionOrAlias(rule.Alias),
				PartitionName: rule.Alias,
				City:          rule.City,
				Region:        rule.Region,
			}, true
		}
	}
	return nil, false
}
