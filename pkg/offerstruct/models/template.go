package models

// Role is the semantic meaning of a spreadsheet column.
type Role string

const (
	RoleUnknown        Role = ""
	RoleName           Role = "name"
	RoleDescription    Role = "description"
	RoleCustomDesign   Role = "custom_design"
	RoleImage          Role = "image"
	RoleQuantity       Role = "quantity"
	RolePriceUSD       Role = "price_usd"
	RolePriceRUB       Role = "price_rub"
	RoleDelivery       Role = "delivery_days"
	RoleTotal          Role = "total"
	RoleSamplePrice    Role = "sample_price"
	RoleSampleDelivery Role = "sample_delivery_days"
)

// RouteScoped reports whether the role repeats once per shipping route.
func (r Role) RouteScoped() bool {
	switch r {
	case RoleQuantity, RolePriceUSD, RolePriceRUB, RoleDelivery, RoleTotal, RoleSamplePrice, RoleSampleDelivery:
		return true
	}
	return false
}

// ColumnRole is the role assigned to one column.
type ColumnRole struct {
	Column int     `json:"column"`
	Role   Role    `json:"role"`
	Route  string  `json:"route,omitempty"`
	Score  float64 `json:"score"`
	Header string  `json:"header,omitempty"`
}

// Currency codes used for totals and sample prices.
const (
	CurrencyUSD = "USD"
	CurrencyRUB = "RUB"
)

// Route groups the columns of one shipping method. A zero column means absent.
type Route struct {
	Name              string `json:"name"`
	QuantityCol       int    `json:"quantity_col,omitempty"`
	PriceUSDCol       int    `json:"price_usd_col,omitempty"`
	PriceRUBCol       int    `json:"price_rub_col,omitempty"`
	DeliveryCol       int    `json:"delivery_col,omitempty"`
	TotalCol          int    `json:"total_col,omitempty"`
	TotalCurrency     string `json:"total_currency,omitempty"`
	SamplePriceCol    int    `json:"sample_price_col,omitempty"`
	SamplePriceCur    string `json:"sample_price_currency,omitempty"`
	SampleDeliveryCol int    `json:"sample_delivery_col,omitempty"`
	QuantityUnit      string `json:"quantity_unit,omitempty"`
}

// Column returns the column holding role in this route, 0 if absent.
func (r Route) Column(role Role) int {
	switch role {
	case RoleQuantity:
		return r.QuantityCol
	case RolePriceUSD:
		return r.PriceUSDCol
	case RolePriceRUB:
		return r.PriceRUBCol
	case RoleDelivery:
		return r.DeliveryCol
	case RoleTotal:
		return r.TotalCol
	case RoleSamplePrice:
		return r.SamplePriceCol
	case RoleSampleDelivery:
		return r.SampleDeliveryCol
	}
	return 0
}

// SetColumn records the column for role. It returns false if the role is
// already taken in this route.
func (r *Route) SetColumn(role Role, col int) bool {
	if r.Column(role) != 0 {
		return false
	}
	switch role {
	case RoleQuantity:
		r.QuantityCol = col
	case RolePriceUSD:
		r.PriceUSDCol = col
	case RolePriceRUB:
		r.PriceRUBCol = col
	case RoleDelivery:
		r.DeliveryCol = col
	case RoleTotal:
		r.TotalCol = col
	case RoleSamplePrice:
		r.SamplePriceCol = col
	case RoleSampleDelivery:
		r.SampleDeliveryCol = col
	default:
		return false
	}
	return true
}

// HasPrice reports whether the route has at least one unit-price column.
func (r Route) HasPrice() bool {
	return r.PriceUSDCol != 0 || r.PriceRUBCol != 0
}

// Columns returns every column used by the route, in role order.
func (r Route) Columns() []int {
	var cols []int
	for _, c := range []int{r.QuantityCol, r.PriceUSDCol, r.PriceRUBCol, r.DeliveryCol, r.TotalCol, r.SamplePriceCol, r.SampleDeliveryCol} {
		if c != 0 {
			cols = append(cols, c)
		}
	}
	return cols
}

// TemplateProfile is the inferred column layout of one file.
// It is produced once and read by every later stage.
type TemplateProfile struct {
	// Name is "auto" for inferred profiles or the preset name.
	Name string `json:"name"`
	// HeaderTop is the first physical header row.
	HeaderTop int `json:"header_top"`
	// HeaderRow is the last physical header row; data starts below it.
	HeaderRow          int          `json:"header_row"`
	Columns            []ColumnRole `json:"columns"`
	Routes             []Route      `json:"routes"`
	NameColumn         int          `json:"name_column,omitempty"`
	DescriptionColumn  int          `json:"description_column,omitempty"`
	CustomDesignColumn int          `json:"custom_design_column,omitempty"`
	ImageColumns       []int        `json:"image_columns,omitempty"`
	// Confidence is the fraction of expected roles found, in [0,1].
	Confidence  float64      `json:"confidence"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// RouteColumns returns every route-scoped column in route order.
func (p *TemplateProfile) RouteColumns() []int {
	var cols []int
	for _, r := range p.Routes {
		cols = append(cols, r.Columns()...)
	}
	return cols
}
