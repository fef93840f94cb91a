package scraper

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockwatch/backend/internal/domain/catalog"
	"github.com/stockwatch/backend/internal/domain/location"
)

// flexString tolerates the site sending a field as either a JSON string or a
// number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// locationEnvelope is the shape of the site's internal location response.
type locationEnvelope struct {
	Records []locationRecord `json:"records"`
}

type locationRecord struct {
	Pincode  flexString `json:"pincode"`
	Substore string     `json:"substore"`
	City     string     `json:"city"`
	State    string     `json:"state"`
}

// parseLocationResponse picks the record whose code exactly equals the input,
// falling back to the first returned record (partial match). The winning
// record's own code becomes the canonical code: it is the code the site's
// matcher demonstrably accepts for this partition.
func parseLocationResponse(body []byte, inputCode string) (*location.Resolution, bool) {
	var env locationEnvelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Records) == 0 {
		return nil, false
	}

	rec := env.Records[0]
	for _, r := range env.Records {
		if string(r.Pincode) == inputCode {
			rec = r
			break
		}
	}

	if rec.Substore == "" {
		return nil, false
	}

	return &location.Resolution{
		InputCode:     inputCode,
		CanonicalCode: string(rec.Pincode),
		PartitionID:   location.PartitionOrAlias(rec.Substore),
		PartitionName: rec.Substore,
		City:          rec.City,
		Region:        rec.State,
	}, true
}

// productEnvelope is the shape of the site's internal product-listing
// response.
type productEnvelope struct {
	Data []rawProduct `json:"data"`
}

// rawProduct is one listing item as the site reports it. Available is the
// partition-specific allocation; InventoryQuantity is the site's total
// warehouse stock and must never feed the in-stock signal, because partitions
// with zero local allocation would read as in stock.
type rawProduct struct {
	ID                string          `json:"_id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Alias             string          `json:"alias"`
	Price             decimal.Decimal `json:"price"`
	ComparePrice      decimal.Decimal `json:"compare_price"`
	Available         int             `json:"available"`
	InventoryQuantity int             `json:"inventory_quantity"`
	Images            []rawImage      `json:"images"`
}

// rawImage tolerates both the object form {"image": "..."} / {"url": "..."}
// and a bare string.
type rawImage struct {
	URL string
}

func (i *rawImage) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		i.URL = s
		return nil
	}
	var obj struct {
		Image string `json:"image"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Image != "" {
		i.URL = obj.Image
	} else {
		i.URL = obj.URL
	}
	return nil
}

// parseProductResponse extracts the raw items from one listing response.
func parseProductResponse(body []byte) ([]rawProduct, error) {
	var env productEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// toSnapshot maps a raw listing item to the domain snapshot, keyed on the
// partition-specific availability.
func (p rawProduct) toSnapshot(baseURL string) catalog.ProductSnapshot {
	return catalog.NewProductSnapshot(
		p.ID,
		p.SKU,
		p.Name,
		p.Alias,
		p.Price,
		p.ComparePrice,
		p.Available,
		p.firstImageURL(),
		productURL(baseURL, p.Alias),
	)
}

func (p rawProduct) firstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

func productURL(baseURL, alias string) string {
	if alias == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/en/product/" + alias
}
