package offerstruct

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// Assemble joins blocks with their offers and images by block index. Every
// block becomes a product, in block order; a block without offers is kept
// and reported as NoPricing. Offers and images keep their input order.
// When report is non-nil its product and offer counts are updated.
func Assemble(blocks []models.ProductBlock, offers []models.PriceOffer, imgs []models.ProductImage, report *models.ExtractionReport) []models.Product {
	offersByBlock := lo.GroupBy(offers, func(o models.PriceOffer) int { return o.Block })
	imagesByBlock := lo.GroupBy(imgs, func(img models.ProductImage) int { return img.Block })

	products := make([]models.Product, 0, len(blocks))
	nOffers := 0
	for _, b := range blocks {
		p := models.Product{
			Ref:          b.Ref,
			Index:        b.Index,
			Name:         b.Name,
			Description:  b.Description,
			CustomDesign: b.CustomDesign,
			StartRow:     b.StartRow,
			EndRow:       b.EndRow,
			Offers:       offersByBlock[b.Index],
			Images:       imagesByBlock[b.Index],
		}
		if p.Offers == nil {
			p.Offers = []models.PriceOffer{}
			if report != nil {
				report.Add(models.Diagnostic{
					Code:     models.CodeNoPricing,
					Severity: models.SeverityWarning,
					Row:      b.StartRow,
					Message:  fmt.Sprintf("product %q (rows %d-%d) has no price offers", b.Name, b.StartRow, b.EndRow),
				})
			}
		}
		if p.Images == nil {
			p.Images = []models.ProductImage{}
		}
		nOffers += len(p.Offers)
		products = append(products, p)
	}

	if report != nil {
		report.Products = len(products)
		report.Offers = nOffers
	}
	return products
}
