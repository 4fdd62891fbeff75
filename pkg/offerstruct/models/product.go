package models

// ProductBlock is the contiguous row range describing one product.
type ProductBlock struct {
	// Index is the block's position in sheet order (0-based).
	Index int `json:"index"`
	// Ref is the deterministic product reference, set by the pipeline.
	Ref          string `json:"ref,omitempty"`
	StartRow     int    `json:"start_row"`
	EndRow       int    `json:"end_row"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	CustomDesign string `json:"custom_design,omitempty"`
}

// Contains reports whether row lies in [StartRow, EndRow].
func (b ProductBlock) Contains(row int) bool {
	return row >= b.StartRow && row <= b.EndRow
}

// Offer flags.
const (
	FlagMagnitudeCorrected = "magnitude_corrected"
	FlagMagnitudeSuspect   = "magnitude_suspect"
)

// PriceOffer is one (route, quantity) price point of a product, or the
// route's sample offer when IsSample is set.
type PriceOffer struct {
	ProductRef         string   `json:"product_ref"`
	Block              int      `json:"block"`
	Row                int      `json:"row"`
	RouteName          string   `json:"route_name"`
	Quantity           *float64 `json:"quantity"`
	QuantityUnit       string   `json:"quantity_unit,omitempty"`
	PriceUSD           *float64 `json:"price_usd"`
	PriceRUB           *float64 `json:"price_rub"`
	DeliveryDays       *int     `json:"delivery_days"`
	IsSample           bool     `json:"is_sample"`
	SamplePrice        *float64 `json:"sample_price"`
	SampleCurrency     string   `json:"sample_currency,omitempty"`
	SampleDeliveryDays *int     `json:"sample_delivery_days"`
	Flags              []string `json:"flags,omitempty"`
}

// Product is the assembled catalog entity handed to persistence.
type Product struct {
	Ref          string         `json:"ref"`
	Index        int            `json:"index"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	CustomDesign string         `json:"custom_design,omitempty"`
	StartRow     int            `json:"start_row"`
	EndRow       int            `json:"end_row"`
	Offers       []PriceOffer   `json:"offers"`
	Images       []ProductImage `json:"images"`
}

// MainImage returns the product's main image, if any.
func (p Product) MainImage() (ProductImage, bool) {
	for _, img := range p.Images {
		if img.Role == ImageMain {
			return img, true
		}
	}
	return ProductImage{}, false
}
