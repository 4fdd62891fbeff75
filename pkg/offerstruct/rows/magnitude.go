package rows

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// MagnitudeTarget names the field a magnitude correction rescales first.
type MagnitudeTarget string

const (
	TargetQuantity MagnitudeTarget = "quantity"
	TargetPrice    MagnitudeTarget = "price"
)

// ParseMagnitudeTarget validates a configured target; "" means quantity.
func ParseMagnitudeTarget(s string) (MagnitudeTarget, error) {
	switch MagnitudeTarget(s) {
	case "", TargetQuantity:
		return TargetQuantity, nil
	case TargetPrice:
		return TargetPrice, nil
	}
	return "", eris.Errorf("magnitude: unknown target %q", s)
}

// MagnitudePolicy controls factor-of-ten corrections.
type MagnitudePolicy struct {
	// Correct enables rescaling; when false anomalies are only flagged.
	Correct bool
	// Target is tried first; the other field is the fallback.
	Target MagnitudeTarget
}

// magnitudeTolerance is the relative slack around a factor of exactly 10.
const magnitudeTolerance = 0.01

// magnitudeCheck is the outcome of cross-checking one offer against its
// reference total.
type magnitudeCheck struct {
	// Factor multiplies the faulty field to match the total: 10 or 0.1.
	Factor    float64
	Field     MagnitudeTarget
	From, To  float64
	Corrected bool
}

// Suspect reports whether a factor-of-ten divergence was found.
func (m magnitudeCheck) Suspect() bool { return m.Factor != 0 }

func (m magnitudeCheck) message(total float64) string {
	if !m.Corrected {
		return fmt.Sprintf("quantity x price diverges from total %s by a factor of %s; left as is",
			formatNumber(total), formatNumber(m.Factor))
	}
	return fmt.Sprintf("%s %s rescaled to %s to match total %s",
		m.Field, formatNumber(m.From), formatNumber(m.To), formatNumber(total))
}

// checkMagnitude compares quantity x price with the reference total. When
// they diverge by a factor of ten it returns the factor and, if the policy
// allows and the rescaled value stays plausible, the corrected field.
// Values already consistent with the total are never touched, so applying
// the check to its own output changes nothing.
func checkMagnitude(qty, price, total float64, policy MagnitudePolicy) magnitudeCheck {
	if qty <= 0 || price <= 0 || total <= 0 {
		return magnitudeCheck{}
	}

	ratio := total / (qty * price)
	var factor float64
	switch {
	case math.Abs(ratio-10) <= 10*magnitudeTolerance:
		factor = 10
	case math.Abs(ratio-0.1) <= 0.1*magnitudeTolerance:
		factor = 0.1
	default:
		return magnitudeCheck{}
	}

	res := magnitudeCheck{Factor: factor}
	if !policy.Correct {
		return res
	}

	order := []MagnitudeTarget{TargetQuantity, TargetPrice}
	if policy.Target == TargetPrice {
		order = []MagnitudeTarget{TargetPrice, TargetQuantity}
	}
	for _, field := range order {
		switch field {
		case TargetQuantity:
			to := roundTo(qty*factor, 6)
			if plausibleQuantity(to) && to == math.Trunc(to) {
				res.Field, res.From, res.To, res.Corrected = field, qty, to, true
				return res
			}
		case TargetPrice:
			to := roundTo(price*factor, 6)
			if plausiblePrice(to) {
				res.Field, res.From, res.To, res.Corrected = field, price, to, true
				return res
			}
		}
	}
	return res
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}
