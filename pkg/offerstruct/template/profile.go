package template

import (
	"fmt"
	"sort"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// DefaultRoute labels route columns whose header names no route.
const DefaultRoute = "default"

// profileBuilder accumulates column roles into a TemplateProfile.
type profileBuilder struct {
	profile *models.TemplateProfile
	routes  map[string]int // label -> index into profile.Routes
}

func newProfileBuilder(name string, headerTop, headerRow int) *profileBuilder {
	return &profileBuilder{
		profile: &models.TemplateProfile{
			Name:      name,
			HeaderTop: headerTop,
			HeaderRow: headerRow,
		},
		routes: make(map[string]int),
	}
}

// columnSpec is one classified column before it is placed in the profile.
type columnSpec struct {
	col      int
	role     models.Role
	route    string
	score    float64
	header   string
	currency string
	unit     string
}

func (b *profileBuilder) add(c columnSpec) {
	p := b.profile

	if c.role.RouteScoped() {
		if c.route == "" {
			c.route = DefaultRoute
		}
		c.route = b.placeInRoute(c)
		p.Columns = append(p.Columns, models.ColumnRole{
			Column: c.col, Role: c.role, Route: c.route, Score: c.score, Header: c.header,
		})
		return
	}

	var slot *int
	switch c.role {
	case models.RoleName:
		slot = &p.NameColumn
	case models.RoleDescription:
		slot = &p.DescriptionColumn
	case models.RoleCustomDesign:
		slot = &p.CustomDesignColumn
	case models.RoleImage:
		p.ImageColumns = append(p.ImageColumns, c.col)
	default:
		return
	}
	if slot != nil {
		if *slot != 0 {
			p.Diagnostics = append(p.Diagnostics, models.Diagnostic{
				Code:     models.CodeDuplicateRole,
				Severity: models.SeverityInfo,
				Column:   c.col,
				Message:  fmt.Sprintf("column %d repeats role %s already held by column %d", c.col, c.role, *slot),
			})
			return
		}
		*slot = c.col
	}
	p.Columns = append(p.Columns, models.ColumnRole{
		Column: c.col, Role: c.role, Score: c.score, Header: c.header,
	})
}

// placeInRoute stores a route-scoped column. A role repeated within one
// route opens the next numbered route with the same label.
func (b *profileBuilder) placeInRoute(c columnSpec) string {
	p := b.profile
	for n := 1; ; n++ {
		label := c.route
		if n > 1 {
			label = fmt.Sprintf("%s#%d", c.route, n)
		}
		idx, ok := b.routes[label]
		if !ok {
			p.Routes = append(p.Routes, models.Route{Name: label})
			idx = len(p.Routes) - 1
			b.routes[label] = idx
		}
		r := &p.Routes[idx]
		if !r.SetColumn(c.role, c.col) {
			continue
		}
		switch c.role {
		case models.RoleTotal:
			r.TotalCurrency = c.currency
		case models.RoleSamplePrice:
			r.SamplePriceCur = c.currency
		case models.RoleQuantity:
			r.QuantityUnit = c.unit
		}
		return label
	}
}

// finish orders columns and scores the profile.
func (b *profileBuilder) finish() *models.TemplateProfile {
	p := b.profile
	sort.SliceStable(p.Columns, func(i, j int) bool {
		return p.Columns[i].Column < p.Columns[j].Column
	})
	p.Confidence = Confidence(p)
	if p.NameColumn == 0 {
		p.Diagnostics = append(p.Diagnostics, models.Diagnostic{
			Code:     models.CodeNoNameColumn,
			Severity: models.SeverityError,
			Row:      p.HeaderRow,
			Message:  "no product-name column recognised",
		})
	}
	return p
}

// Confidence is the fraction of the expected roles present: a name column
// plus one route holding both a quantity and a unit price.
func Confidence(p *models.TemplateProfile) float64 {
	found := 0
	if p.NameColumn != 0 {
		found++
	}
	bestRoute := 0
	for _, r := range p.Routes {
		n := 0
		if r.QuantityCol != 0 {
			n++
		}
		if r.HasPrice() {
			n++
		}
		if n > bestRoute {
			bestRoute = n
		}
	}
	return float64(found+bestRoute) / 3
}
