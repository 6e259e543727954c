package synthesis

import (
	"fmt"
	"strconv"
	"strings"
)

// currency markers recognized in extracted amount strings.
var currencyMarkers = []string{"€", "EUR", "eur", "euros", "Euros"}

// ContainsCurrency reports whether s looks like a money amount, meaning it
// carries a currency marker.
func ContainsCurrency(s string) bool {
	for _, m := range currencyMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// ParseAmount parses a French-formatted amount string such as "12 500 €" or
// "3 200,50 EUR". Thousands separators (regular, non-breaking and narrow
// spaces, or dots when a comma decimal is present) and a leading or trailing
// currency marker are tolerated. Returns false when nothing numeric remains.
func ParseAmount(s string) (float64, bool) {
	cleaned := s
	for _, m := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, m, "")
	}
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', '\t':
			return -1
		}
		return r
	}, cleaned)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}

	if strings.Contains(cleaned, ",") {
		// Comma is the decimal separator, any dots are thousands marks.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatEuro renders an amount the way French documents write it, with
// space-grouped thousands, a comma decimal when the amount is not whole,
// and a trailing euro sign.
func FormatEuro(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	whole := int64(v)
	cents := int64(v*100+0.5) - whole*100
	if cents == 100 {
		whole++
		cents = 0
	}

	digits := strconv.FormatInt(whole, 10)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(d)
	}

	out := grouped.String()
	if cents > 0 {
		out += fmt.Sprintf(",%02d", cents)
	}
	if neg {
		out = "-" + out
	}
	return out + " €"
}
