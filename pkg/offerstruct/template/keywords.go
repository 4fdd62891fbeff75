package template

import (
	"embed"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

//go:embed keywords/*.yaml
var builtinTables embed.FS

// DefaultLocale is the keyword table used when none is configured.
const DefaultLocale = "ru"

// sampleKey is the pseudo-role that turns a price or delivery header into
// its sample variant.
const sampleKey = "sample"

// ErrUnknownLocale indicates no built-in keyword table exists for a locale.
var ErrUnknownLocale = eris.New("unknown keyword locale")

// Keyword is one weighted header word.
type Keyword struct {
	Word   string  `yaml:"word" json:"word"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// KeywordTable is a versioned, per-locale set of header keywords.
type KeywordTable struct {
	Version      int                  `yaml:"version" json:"version"`
	Locale       string               `yaml:"locale" json:"locale"`
	DecimalComma bool                 `yaml:"decimal_comma" json:"decimal_comma"`
	Roles        map[string][]Keyword `yaml:"roles" json:"roles"`
	Routes       map[string][]string  `yaml:"routes" json:"routes"`
	Units        map[string][]string  `yaml:"units" json:"units"`

	roles  map[string][]Keyword
	routes []alias
	units  []alias
}

type alias struct {
	name  string
	words []string
}

// rolePrecedence breaks score ties; earlier wins.
var rolePrecedence = []models.Role{
	models.RoleSampleDelivery,
	models.RoleSamplePrice,
	models.RoleTotal,
	models.RoleDelivery,
	models.RoleQuantity,
	models.RolePriceRUB,
	models.RolePriceUSD,
	models.RoleImage,
	models.RoleDescription,
	models.RoleCustomDesign,
	models.RoleName,
}

// tableRoles are the role keys accepted in a keyword table.
var tableRoles = map[string]bool{
	string(models.RoleName):         true,
	string(models.RoleDescription):  true,
	string(models.RoleCustomDesign): true,
	string(models.RoleImage):        true,
	string(models.RoleQuantity):     true,
	string(models.RolePriceUSD):     true,
	string(models.RolePriceRUB):     true,
	string(models.RoleDelivery):     true,
	string(models.RoleTotal):        true,
	sampleKey:                       true,
}

// Locales lists the built-in keyword tables.
func Locales() []string {
	entries, err := builtinTables.ReadDir("keywords")
	if err != nil {
		return nil
	}
	var locales []string
	for _, e := range entries {
		locales = append(locales, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(locales)
	return locales
}

// BuiltinKeywords returns the embedded table for locale.
func BuiltinKeywords(locale string) (*KeywordTable, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	data, err := builtinTables.ReadFile("keywords/" + locale + ".yaml")
	if err != nil {
		return nil, eris.Wrapf(ErrUnknownLocale, "keywords: locale %q", locale)
	}
	return ParseKeywords(data)
}

// MustBuiltinKeywords is BuiltinKeywords for tables known to exist.
func MustBuiltinKeywords(locale string) *KeywordTable {
	kt, err := BuiltinKeywords(locale)
	if err != nil {
		panic(err)
	}
	return kt
}

// LoadKeywordFile reads a keyword table from a YAML file.
func LoadKeywordFile(path string) (*KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "keywords: read %s", path)
	}
	kt, err := ParseKeywords(data)
	if err != nil {
		return nil, eris.Wrapf(err, "keywords: %s", path)
	}
	return kt, nil
}

// ParseKeywords decodes and validates a YAML keyword table.
func ParseKeywords(data []byte) (*KeywordTable, error) {
	var kt KeywordTable
	if err := yaml.Unmarshal(data, &kt); err != nil {
		return nil, eris.Wrap(err, "keywords: decode yaml")
	}
	if kt.Version <= 0 {
		return nil, eris.New("keywords: version must be positive")
	}
	if kt.Locale == "" {
		return nil, eris.New("keywords: locale is required")
	}

	kt.roles = make(map[string][]Keyword, len(kt.Roles))
	for role, words := range kt.Roles {
		if !tableRoles[role] {
			return nil, eris.Errorf("keywords: unknown role %q", role)
		}
		for _, w := range words {
			folded := Fold(w.Word)
			if folded == "" {
				return nil, eris.Errorf("keywords: empty word for role %q", role)
			}
			weight := w.Weight
			if weight <= 0 {
				weight = 1
			}
			kt.roles[role] = append(kt.roles[role], Keyword{Word: folded, Weight: weight})
		}
	}
	kt.routes = compileAliases(kt.Routes)
	kt.units = compileAliases(kt.Units)
	return &kt, nil
}

func compileAliases(m map[string][]string) []alias {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]alias, 0, len(names))
	for _, name := range names {
		a := alias{name: name}
		for _, w := range m[name] {
			if f := Fold(w); f != "" {
				a.words = append(a.words, f)
			}
		}
		out = append(out, a)
	}
	return out
}

// Fold normalises header text for matching: NFKC, Unicode case folding,
// "ё" as "е", and every space variant collapsed to a single space.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.ReplaceAll(s, "ё", "е")
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Scores returns the keyword score of every role matched by text, keyed by
// role name ("sample" included).
func (kt *KeywordTable) Scores(text string) map[string]float64 {
	folded := Fold(text)
	scores := make(map[string]float64)
	if folded == "" {
		return scores
	}
	for role, words := range kt.roles {
		for _, w := range words {
			if keywordIndex(folded, w.Word) >= 0 {
				scores[role] += w.Weight
			}
		}
	}
	return scores
}

// Classify returns the best role for a header text and its score.
// A sample keyword turns the header into a sample price or, together with
// a delivery keyword, a sample delivery column.
func (kt *KeywordTable) Classify(text string) (models.Role, float64) {
	scores := kt.Scores(text)
	if len(scores) == 0 {
		return models.RoleUnknown, 0
	}

	if s := scores[sampleKey]; s > 0 {
		if d := scores[string(models.RoleDelivery)]; d > 0 {
			return models.RoleSampleDelivery, s + d
		}
		return models.RoleSamplePrice, s + maxFloat(
			scores[string(models.RolePriceUSD)],
			scores[string(models.RolePriceRUB)],
			scores[string(models.RoleTotal)],
		)
	}

	best, bestScore := models.RoleUnknown, 0.0
	for _, role := range rolePrecedence {
		if s := scores[string(role)]; s > bestScore {
			best, bestScore = role, s
		}
	}
	return best, bestScore
}

// Currency reports RUB when text carries a rouble marker, USD otherwise.
func (kt *KeywordTable) Currency(text string) string {
	if kt.Scores(text)[string(models.RolePriceRUB)] > 0 {
		return models.CurrencyRUB
	}
	return models.CurrencyUSD
}

// IsSample reports whether text carries a sample keyword.
func (kt *KeywordTable) IsSample(text string) bool {
	return kt.Scores(text)[sampleKey] > 0
}

// Route returns the shipping route named in text, or "".
func (kt *KeywordTable) Route(text string) string {
	return firstAlias(kt.routes, Fold(text), false)
}

// Unit returns the canonical quantity unit named in text, or "".
func (kt *KeywordTable) Unit(text string) string {
	return firstAlias(kt.units, Fold(text), true)
}

// firstAlias returns the alias whose word occurs earliest in folded text.
func firstAlias(aliases []alias, folded string, wholeWord bool) string {
	if folded == "" {
		return ""
	}
	best, bestPos := "", -1
	for _, a := range aliases {
		for _, w := range a.words {
			var pos int
			if wholeWord {
				pos = wordIndex(folded, w)
			} else {
				pos = keywordIndex(folded, w)
			}
			if pos >= 0 && (bestPos < 0 || pos < bestPos) {
				best, bestPos = a.name, pos
			}
		}
	}
	return best
}

// keywordIndex finds kw in folded text. Alphabetic keywords of three letters
// or fewer only match at the start of a word.
func keywordIndex(text, kw string) int {
	if utf8.RuneCountInString(kw) > 3 || !isAlpha(kw) {
		return strings.Index(text, kw)
	}
	return wordIndex(text, kw)
}

// wordIndex finds kw at a word start, ignoring length.
func wordIndex(text, kw string) int {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return -1
		}
		i += from
		if atWordStart(text, i) {
			return i
		}
		from = i + len(kw)
	}
	return -1
}

func atWordStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func maxFloat(vs ...float64) float64 {
	m := 0.0
	for _, v := range vs {
		if v > m {
			m = v
		}
	}
	return m
}
