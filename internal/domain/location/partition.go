// Package location maps user postal codes to the catalog partitions the
// upstream shop serves stock from. Stock levels are partition-specific, so
// every catalog fetch must be anchored to a resolved partition.
package location

// partitionIDs maps a human-readable region alias to the opaque partition
// identifier the upstream catalog uses internally. The table is static and
// loaded at startup; the upstream site has no endpoint that enumerates it.
var partitionIDs = map[string]string{
	"goa":                    "66506005147d6c73c1110115",
	"telangana":              "66506004aa64743ceefbed25",
	"pune-br":                "66506004a7cddee1b8adb014",
	"solapur-br":             "66506004145c16635e6cc914",
	"nashik-br":              "66506002c8f2d6e221b9193a88",
	"aurangabad-br":          "66506002aa64743ceefbecf1",
	"chhattisgarh":           "66506002998183e1b1935f41",
	"mumbai-br":              "66506000c8f2d6e221b9193a",
	"dadra-and-nagar-haveli": "6650600062e3d963520d0bc3",
	"west-bengal":            "6650600024e61363e088c526",
	"odisha":                 "66505ffeaf6a3c7411d2f62c",
	"sikkim":                 "66505ffe91ab653d60a3df2d",
	"tripura":                "66505ffe78117873bb53b6ad",
	"mizoram":                "66505ffd998183e1b1935e21",
	"meghalaya":              "66505ffd672747740fb389c7",
	"nagaland":               "66505ffd24e61363e088c4a5",
	"manipur":                "66505ffbf40e263cf5588098",
	"jharkhand":              "66505ffb998183e1b1935dee",
	"assam":                  "66505ffb6510ee3d5903fef8",
	"bihar":                  "66505ff9af6a3c7411d2f55f",
	"arunachal-pradesh":      "66505ff978117873bb53b643",
	"uttar-pradesh-e":        "66505ff924e61363e088c414",
	"up-ncr":                 "66505ff8c8f2d6e221b9180c",
	"uttrakhand":             "66505ff8a7cddee1b8adae9d",
	"rajasthan":              "66505ff824e61363e088c3dd",
	"jandk":                  "66505ff6f40e263cf5587fb5",
	"madhya-pradesh":         "66505ff6d9346de216752cd7",
	"ladakh":                 "66505ff6145c16635e6cc7c1",
	"haryana":                "66505ff5af6a3c7411d2f4b2",
	"tamil-nadu-1":           "66505ff578117873bb53b56a",
	"delhi":                  "66505ff5145c16635e6cc74d",
	"punjab":                 "66505ff3998183e1b1935d0e",
	"andhra-pradesh":         "66505ff378117873bb53b542",
	"pondicherry":            "66505ff312a50963f24870e8",
	"kerala":                 "66505ff2998183e1b1935ccd",
	"himachal-pradesh":       "66505ff26510ee3d5903fda9",
	"chandigarh":             "66505ff1672747740fb388ec",
	"karnataka":              "66505ff0998183e1b1935c75",
	"gujarat":                "66505ff06510ee3d5903fd42",
	"daman-and-diu":          "66505ff024e61363e088c306",
}

// LookupPartition returns the partition identifier for a region alias.
func LookupPartition(alias string) (string, bool) {
	id, ok := partitionIDs[alias]
	return id, ok
}

// PartitionOrAlias returns the partition identifier for the alias, or the
// alias itself when the table has no entry. The upstream location response
// carries only the alias, and unknown aliases are still usable as identifiers
// for grouping purposes.
func PartitionOrAlias(alias string) string {
	if id, ok := partitionIDs[alias]; ok {
		return id
	}
	return alias
}
