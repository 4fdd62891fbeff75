package rows

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// Plausibility windows per role.
const (
	MinQuantity = 1
	MaxQuantity = 10_000_000
	MinPrice    = 0.01
	MaxPrice    = 100_000
	MinDays     = 1
	MaxDays     = 365
)

var (
	digitRun = regexp.MustCompile(`\d+`)
	dateLike = regexp.MustCompile(`\d{1,4}[./-]\d{1,2}[./-]\d{1,4}`)
)

// ParseDays reads a delivery time in days. Ranges ("35-40 дней") resolve
// to their upper bound and week counts are converted to days. Calendar
// dates are rejected.
func ParseDays(c models.Cell) (int, bool) {
	if n, ok := c.Number(); ok {
		if n != math.Trunc(n) {
			n = math.Ceil(n)
		}
		return int(n), true
	}

	s, ok := c.Value.(string)
	if !ok || dateLike.MatchString(s) {
		return 0, false
	}

	best := -1
	for _, run := range digitRun.FindAllString(s, -1) {
		n, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return 0, false
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "недел") || strings.Contains(lower, "week") {
		best *= 7
	}
	return best, true
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func plausibleQuantity(q float64) bool {
	return q >= MinQuantity && q <= MaxQuantity
}

func plausiblePrice(p float64) bool {
	return p >= MinPrice && p <= MaxPrice
}

func plausibleDays(d int) bool {
	return d >= MinDays && d <= MaxDays
}
