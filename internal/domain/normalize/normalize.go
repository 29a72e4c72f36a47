// Package normalize coerces spreadsheet cells into numbers and formats numbers
// for display using the en-IN convention (12,34,567) and the rupee symbol.
//
// There is one parsing policy for every function in this package: a text cell
// keeps only its digits and decimal points, the longest valid decimal prefix of
// what remains is parsed, and anything that yields no digits or a non-finite
// value counts as unparseable. A minus sign in text is discarded.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Display sentinels.
const (
	NotApplicable = "Not Applicable"
	Dash          = "-"
	CurrencySign  = "₹"
)

// Formatting constants.
const (
	displayFractionDigits = 3
	firstGroupSize        = 3
	restGroupSize         = 2
)

// ToNumber returns the numeric value of raw. nil, blank and unparseable input
// all yield 0.
func ToNumber(raw any) float64 {
	v, _ := parse(raw)
	return v
}

// Display formats raw as an en-IN grouped number. nil or blank input gives
// NotApplicable; non-numeric text is returned unchanged.
func Display(raw any) string {
	v, ok := parse(raw)
	if !ok {
		if isBlank(raw) {
			return NotApplicable
		}
		return fmt.Sprint(raw)
	}
	return formatGrouped(v, displayFractionDigits)
}

// AchievementDisplay is Display for achievement cells: zero, nil and
// unparseable input all render as Dash.
func AchievementDisplay(raw any) string {
	v, ok := parse(raw)
	if !ok || v == 0 {
		return Dash
	}
	return formatGrouped(v, displayFractionDigits)
}

// CurrencyDisplay formats raw as rupees with en-IN grouping and no decimals.
func CurrencyDisplay(raw any) string {
	v := math.Round(ToNumber(raw))
	if v < 0 {
		return "-" + CurrencySign + formatGrouped(-v, 0)
	}
	return CurrencySign + formatGrouped(v, 0)
}

// PercentDisplay renders a ratio as a percentage with two decimals (1.2345 -> "123.45%").
func PercentDisplay(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 0
	}
	return strconv.FormatFloat(ratio*100, 'f', 2, 64) + "%"
}

// FormatCount renders a plain count the way the contest remarks show it:
// no grouping and no trailing zeros (3, 2.5, -1).
func FormatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isBlank(raw any) bool {
	switch t := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case *string:
		return t == nil || strings.TrimSpace(*t) == ""
	default:
		return false
	}
}

// parse implements the package parsing policy. ok is false when raw carries
// no usable number.
func parse(raw any) (float64, bool) {
	switch t := raw.(type) {
	case nil:
		return 0, false
	case string:
		return parseText(t)
	case *string:
		if t == nil {
			return 0, false
		}
		return parseText(*t)
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return parseText(fmt.Sprint(t))
	}
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseText keeps digits and dots, then parses the longest prefix of the form
// digits[.digits].
func parseText(s string) (float64, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteByte(c)
		}
	}
	kept := b.String()

	end, digits, dot := 0, 0, false
	for end < len(kept) {
		c := kept[end]
		if c == '.' {
			if dot {
				break
			}
			dot = true
		} else {
			digits++
		}
		end++
	}
	if digits == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(kept[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return finite(v)
}

// formatGrouped renders v with at most frac fraction digits (trailing zeros
// removed) and en-IN digit grouping: the last three integer digits, then pairs.
func formatGrouped(v float64, frac int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', frac, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")
	fracPart = strings.TrimRight(fracPart, "0")

	out := groupDigits(intPart)
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

func groupDigits(digits string) string {
	if len(digits) <= firstGroupSize {
		return digits
	}
	head := digits[:len(digits)-firstGroupSize]
	tail := digits[len(digits)-firstGroupSize:]

	var groups []string
	for len(head) > restGroupSize {
		groups = append([]string{head[len(head)-restGroupSize:]}, groups...)
		head = head[:len(head)-restGroupSize]
	}
	groups = append([]string{head}, groups...)
	return strings.Join(groups, ",") + "," + tail
}
