package template

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// ErrUnknownTemplate indicates a template selector matched no preset.
var ErrUnknownTemplate = eris.New("unknown template")

// PresetColumn binds one spreadsheet column to a role.
type PresetColumn struct {
	// Column is the column letter, e.g. "D".
	Column string `mapstructure:"column" yaml:"column" json:"column"`
	Role   string `mapstructure:"role" yaml:"role" json:"role"`
	// Route groups route-scoped columns; empty means "default".
	Route string `mapstructure:"route" yaml:"route" json:"route,omitempty"`
	// Currency applies to total and sample price columns (USD when empty).
	Currency string `mapstructure:"currency" yaml:"currency" json:"currency,omitempty"`
	// Unit applies to quantity columns.
	Unit string `mapstructure:"unit" yaml:"unit" json:"unit,omitempty"`
}

// Preset is a named, fixed template layout.
type Preset struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	// HeaderRow is the last header row; data starts on the next row.
	HeaderRow int `mapstructure:"header_row" yaml:"header_row" json:"header_row"`
	// HeaderRows is the header depth in rows (1 when zero).
	HeaderRows int            `mapstructure:"header_rows" yaml:"header_rows" json:"header_rows,omitempty"`
	Columns    []PresetColumn `mapstructure:"columns" yaml:"columns" json:"columns"`
}

// Profile converts the preset into a TemplateProfile scored with the same
// confidence rule as inferred profiles.
func (p Preset) Profile() (*models.TemplateProfile, error) {
	if p.HeaderRow < 1 {
		return nil, eris.Errorf("template %q: header_row must be at least 1", p.Name)
	}
	depth := p.HeaderRows
	if depth < 1 {
		depth = 1
	}
	top := p.HeaderRow - depth + 1
	if top < 1 {
		top = 1
	}

	b := newProfileBuilder(p.Name, top, p.HeaderRow)
	for _, pc := range p.Columns {
		col, err := excelize.ColumnNameToNumber(strings.TrimSpace(pc.Column))
		if err != nil {
			return nil, eris.Wrapf(err, "template %q: column %q", p.Name, pc.Column)
		}
		role := models.Role(strings.TrimSpace(pc.Role))
		if !knownRole(role) {
			return nil, eris.Errorf("template %q: column %s: unknown role %q", p.Name, pc.Column, pc.Role)
		}
		currency := strings.ToUpper(strings.TrimSpace(pc.Currency))
		if currency == "" {
			currency = models.CurrencyUSD
		}
		b.add(columnSpec{
			col:      col,
			role:     role,
			route:    pc.Route,
			score:    1,
			currency: currency,
			unit:     pc.Unit,
		})
	}
	return b.finish(), nil
}

func knownRole(r models.Role) bool {
	if r == models.RoleUnknown {
		return false
	}
	if r.RouteScoped() {
		return true
	}
	switch r {
	case models.RoleName, models.RoleDescription, models.RoleCustomDesign, models.RoleImage:
		return true
	}
	return false
}

// SelectPreset resolves a template selector. "" and "auto" return nil,
// meaning the layout is inferred. A number picks the preset by 1-based
// position; anything else matches a preset name case-insensitively.
func SelectPreset(presets []Preset, selector string) (*Preset, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, AutoName) {
		return nil, nil
	}

	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(presets) {
			return nil, eris.Wrapf(ErrUnknownTemplate, "template: index %d out of range 1..%d", n, len(presets))
		}
		return &presets[n-1], nil
	}

	for i := range presets {
		if strings.EqualFold(presets[i].Name, selector) {
			return &presets[i], nil
		}
	}
	return nil, eris.Wrapf(ErrUnknownTemplate, "template: %q", selector)
}
