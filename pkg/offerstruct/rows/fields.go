package rows

import (
	"fmt"
	"strings"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/numparse"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

// Extractor reads price offers out of product blocks.
type Extractor struct {
	keywords     *template.KeywordTable
	decimalComma bool
	policy       MagnitudePolicy
}

// NewExtractor returns an Extractor that recognises sample rows and units
// with kw and parses numbers in kw's locale.
func NewExtractor(kw *template.KeywordTable, policy MagnitudePolicy) *Extractor {
	if policy.Target == "" {
		policy.Target = TargetQuantity
	}
	return &Extractor{keywords: kw, decimalComma: kw.DecimalComma, policy: policy}
}

// Extract builds one offer per non-empty quantity cell of every route over
// the block's rows, plus at most one sample offer per route. Unusable cells
// degrade to missing fields and are reported as diagnostics.
func (e *Extractor) Extract(grid *models.CellGrid, profile *models.TemplateProfile, block models.ProductBlock) ([]models.PriceOffer, []models.Diagnostic) {
	x := &blockExtraction{e: e, grid: grid, block: block}
	for _, route := range profile.Routes {
		x.route(route)
	}
	return x.offers, x.diags
}

// blockExtraction is the per-call state of Extract.
type blockExtraction struct {
	e      *Extractor
	grid   *models.CellGrid
	block  models.ProductBlock
	offers []models.PriceOffer
	diags  []models.Diagnostic
}

func (x *blockExtraction) route(r models.Route) {
	seen := make(map[float64]int)
	var sample *models.PriceOffer

	for row := x.block.StartRow; row <= x.block.EndRow; row++ {
		if r.QuantityCol == 0 {
			break
		}
		qtyCell := x.grid.Raw(row, r.QuantityCol)
		if qtyCell.IsBlank() {
			continue
		}

		if text, ok := qtyCell.Value.(string); ok && x.e.keywords.IsSample(text) {
			if sample == nil {
				sample = x.newOffer(r, row)
				sample.IsSample = true
			}
			x.fillSampleFromRow(sample, r, row)
			continue
		}

		qty, ok := x.quantity(r, row, qtyCell)
		if !ok {
			continue
		}
		if prev, dup := seen[qty]; dup {
			x.diag(models.CodeDuplicateOffer, models.SeverityWarning, row, r.QuantityCol, r.Name,
				fmt.Sprintf("quantity %s repeats row %d; kept the first", formatNumber(qty), prev))
			continue
		}

		o := x.newOffer(r, row)
		o.Quantity = &qty
		o.QuantityUnit = x.unit(r, qtyCell)
		o.PriceUSD = x.price(r, row, r.PriceUSDCol)
		o.PriceRUB = x.price(r, row, r.PriceRUBCol)
		o.DeliveryDays = x.days(r, row, r.DeliveryCol)
		x.crossCheck(r, row, o)
		fixed := *o.Quantity
		if fixed != qty {
			if prev, dup := seen[fixed]; dup {
				x.diag(models.CodeDuplicateOffer, models.SeverityWarning, row, r.QuantityCol, r.Name,
					fmt.Sprintf("corrected quantity %s repeats row %d; kept the first", formatNumber(fixed), prev))
				continue
			}
		}
		// Keyed by the emitted quantity only.
		seen[fixed] = row
		x.offers = append(x.offers, *o)
	}

	if r.SamplePriceCol != 0 || r.SampleDeliveryCol != 0 {
		sample = x.fillSampleFromColumns(sample, r)
	}
	if sample != nil {
		x.offers = append(x.offers, *sample)
	}
}

func (x *blockExtraction) newOffer(r models.Route, row int) *models.PriceOffer {
	return &models.PriceOffer{
		ProductRef: x.block.Ref,
		Block:      x.block.Index,
		Row:        row,
		RouteName:  r.Name,
	}
}

func (x *blockExtraction) quantity(r models.Route, row int, c models.Cell) (float64, bool) {
	q, ok := numparse.Cell(c, x.e.decimalComma)
	if !ok {
		x.diag(models.CodeUnparseableValue, models.SeverityWarning, row, r.QuantityCol, r.Name,
			fmt.Sprintf("quantity %q is not a number", c.String()))
		return 0, false
	}
	if !plausibleQuantity(q) {
		x.diag(models.CodeImplausibleValue, models.SeverityWarning, row, r.QuantityCol, r.Name,
			fmt.Sprintf("quantity %s outside %d..%d", formatNumber(q), MinQuantity, MaxQuantity))
		return 0, false
	}
	return q, true
}

// unit prefers a unit written in the cell over the header's.
func (x *blockExtraction) unit(r models.Route, c models.Cell) string {
	if text, ok := c.Value.(string); ok {
		if u := x.e.keywords.Unit(text); u != "" {
			return u
		}
	}
	return r.QuantityUnit
}

// price reads a merge-aware unit price; nil when absent or unusable.
func (x *blockExtraction) price(r models.Route, row, col int) *float64 {
	if col == 0 {
		return nil
	}
	c := x.grid.Value(row, col)
	if c.IsBlank() {
		return nil
	}
	p, ok := numparse.Cell(c, x.e.decimalComma)
	if !ok {
		x.diag(models.CodeUnparseableValue, models.SeverityWarning, row, col, r.Name,
			fmt.Sprintf("price %q is not a number", c.String()))
		return nil
	}
	if !plausiblePrice(p) {
		x.diag(models.CodeImplausibleValue, models.SeverityWarning, row, col, r.Name,
			fmt.Sprintf("price %s outside %g..%g", formatNumber(p), MinPrice, float64(MaxPrice)))
		return nil
	}
	return &p
}

// days reads a merge-aware delivery time; nil when absent or unusable.
func (x *blockExtraction) days(r models.Route, row, col int) *int {
	if col == 0 {
		return nil
	}
	c := x.grid.Value(row, col)
	if c.IsBlank() {
		return nil
	}
	d, ok := ParseDays(c)
	if !ok {
		x.diag(models.CodeUnparseableValue, models.SeverityWarning, row, col, r.Name,
			fmt.Sprintf("delivery time %q is not a day count", c.String()))
		return nil
	}
	if !plausibleDays(d) {
		x.diag(models.CodeImplausibleValue, models.SeverityWarning, row, col, r.Name,
			fmt.Sprintf("delivery time %d days outside %d..%d", d, MinDays, MaxDays))
		return nil
	}
	return &d
}

// total reads the reference total of a row, if the route has one.
func (x *blockExtraction) total(r models.Route, row int) (float64, bool) {
	if r.TotalCol == 0 {
		return 0, false
	}
	c := x.grid.Value(row, r.TotalCol)
	if c.IsBlank() {
		return 0, false
	}
	t, ok := numparse.Cell(c, x.e.decimalComma)
	if !ok || t <= 0 {
		x.diag(models.CodeUnparseableValue, models.SeverityInfo, row, r.TotalCol, r.Name,
			fmt.Sprintf("total %q is not a positive number", c.String()))
		return 0, false
	}
	return t, true
}

// crossCheck compares quantity x price with the reference total in the
// total's currency and applies the magnitude policy.
func (x *blockExtraction) crossCheck(r models.Route, row int, o *models.PriceOffer) {
	total, ok := x.total(r, row)
	if !ok {
		return
	}
	price, priceCol := o.PriceUSD, r.PriceUSDCol
	if r.TotalCurrency == models.CurrencyRUB {
		price, priceCol = o.PriceRUB, r.PriceRUBCol
	}
	if price == nil {
		return
	}

	m := checkMagnitude(*o.Quantity, *price, total, x.e.policy)
	if !m.Suspect() {
		return
	}

	col := r.QuantityCol
	o.Flags = append(o.Flags, models.FlagMagnitudeSuspect)
	if m.Corrected {
		to := m.To
		switch m.Field {
		case TargetQuantity:
			o.Quantity = &to
		case TargetPrice:
			col = priceCol
			if r.TotalCurrency == models.CurrencyRUB {
				o.PriceRUB = &to
			} else {
				o.PriceUSD = &to
			}
		}
		o.Flags = append(o.Flags, models.FlagMagnitudeCorrected)
	}
	x.diag(models.CodeMagnitudeSuspect, models.SeverityWarning, row, col, r.Name, m.message(total))
}

// fillSampleFromRow takes the price and delivery cells of a sample row.
func (x *blockExtraction) fillSampleFromRow(s *models.PriceOffer, r models.Route, row int) {
	if s.SamplePrice == nil {
		if p := x.price(r, row, r.PriceUSDCol); p != nil {
			s.SamplePrice, s.SampleCurrency = p, models.CurrencyUSD
		} else if p := x.price(r, row, r.PriceRUBCol); p != nil {
			s.SamplePrice, s.SampleCurrency = p, models.CurrencyRUB
		}
	}
	if s.SampleDeliveryDays == nil {
		s.SampleDeliveryDays = x.days(r, row, r.DeliveryCol)
	}
}

// fillSampleFromColumns completes (or creates) the route's sample offer
// from dedicated sample columns, taking the first value in the block.
func (x *blockExtraction) fillSampleFromColumns(s *models.PriceOffer, r models.Route) *models.PriceOffer {
	var (
		price    *float64
		days     *int
		firstRow int
	)
	for row := x.block.StartRow; row <= x.block.EndRow; row++ {
		if price == nil {
			if price = x.price(r, row, r.SamplePriceCol); price != nil && firstRow == 0 {
				firstRow = row
			}
		}
		if days == nil {
			if days = x.days(r, row, r.SampleDeliveryCol); days != nil && firstRow == 0 {
				firstRow = row
			}
		}
	}
	if price == nil && days == nil {
		return s
	}

	if s == nil {
		s = x.newOffer(r, firstRow)
		s.IsSample = true
	}
	if s.SamplePrice == nil && price != nil {
		s.SamplePrice = price
		s.SampleCurrency = r.SamplePriceCur
		if s.SampleCurrency == "" {
			s.SampleCurrency = models.CurrencyUSD
		}
	}
	if s.SampleDeliveryDays == nil {
		s.SampleDeliveryDays = days
	}
	return s
}

func (x *blockExtraction) diag(code models.DiagnosticCode, sev models.Severity, row, col int, route, msg string) {
	x.diags = append(x.diags, models.Diagnostic{
		Code:     code,
		Severity: sev,
		Row:      row,
		Column:   col,
		Route:    route,
		Message:  strings.TrimSpace(msg),
	})
}
