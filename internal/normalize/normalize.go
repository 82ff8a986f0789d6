// Package normalize canonicalizes single observed values. Every function is
// total: malformed input yields an empty string or nil, never an error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Name collapses whitespace and capitalizes each token.
func Name(s string) string {
	fields := strings.Fields(norm.NFC.String(s))
	for i, w := range fields {
		r, size := utf8.DecodeRuneInString(w)
		fields[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(fields, " ")
}

// Text trims and collapses internal whitespace without changing case.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Location normalizes a free-text location.
func Location(s string) string {
	return Text(s)
}

// URL returns v with an https scheme when none is present. v may be a
// string or a list, in which case the first non-empty string is used.
func URL(v any) string {
	u := firstString(v)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		u = "https://" + u
	}
	return u
}

// dateLayouts are tried in order by Date.
var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02",
}

// Date parses s as a calendar date, or returns nil.
func Date(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// CINLength is the fixed length of a corporate identification number.
const CINLength = 21

// CINPattern is the grammar of a corporate identification number: listing
// class, industry code, state, incorporation year, company category, serial.
var CINPattern = regexp.MustCompile(`^[A-Z]\d{5}[A-Z]{2}\d{4}[A-Z]{3}\d{6}$`)

// CIN upper-cases and validates a corporate identification number. v may be
// a string or a list. Malformed identifiers are logged and dropped.
func CIN(v any) string {
	raw := firstString(v)
	if raw == "" {
		return ""
	}
	cin := strings.ToUpper(raw)
	if len(cin) != CINLength || !CINPattern.MatchString(cin) {
		zap.L().Warn("normalize: invalid CIN dropped",
			zap.String("cin", raw),
			zap.Int("length", len(cin)),
		)
		return ""
	}
	return cin
}

var (
	currencyReplacer = strings.NewReplacer(",", "", "₹", "", "$", "", "€", "", "£", "")
	currencyTokenRe  = regexp.MustCompile(`(?i)\b(?:inr|usd|rs)\.?`)
	amountRe         = regexp.MustCompile(`^(\d+(?:\.\d+)?)(\s*(?:-|–|to)\s*\d+(?:\.\d+)?)?\s*([a-z]*)`)
)

var unitMultipliers = map[string]float64{
	"":         1,
	"crore":    1e7,
	"crores":   1e7,
	"cr":       1e7,
	"lakh":     1e5,
	"lakhs":    1e5,
	"lac":      1e5,
	"lacs":     1e5,
	"l":        1e5,
	"million":  1e6,
	"millions": 1e6,
	"mn":       1e6,
	"m":        1e6,
	"billion":  1e9,
	"billions": 1e9,
	"bn":       1e9,
	"b":        1e9,
}

// FundingAmount parses a human-written amount such as "₹10.5 Cr" or
// "15 million" into base currency units. Unknown suffixes count as x1.
// A range like "1.5-2 Cr" resolves to its lower bound in the shared unit.
func FundingAmount(s string) *float64 {
	s = currencyReplacer.Replace(s)
	s = currencyTokenRe.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(s))

	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	if m[2] != "" {
		zap.L().Debug("normalize: funding range, using lower bound", zap.String("amount", s))
	}
	mult, ok := unitMultipliers[m[3]]
	if !ok {
		mult = 1
	}
	v := n * mult
	v = math.Round(v*100) / 100
	return &v
}

// Round2 rounds f to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case *string:
		if t == nil {
			return ""
		}
		return strings.TrimSpace(*t)
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
