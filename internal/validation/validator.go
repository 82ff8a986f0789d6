package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sells-group/bigaward-cli/internal/normalize"
)

// Validator checks a single field value.
type Validator interface {
	Field() string
	Validate(value any) Result
}

// DefaultMaxLen bounds text fields that set no explicit maximum.
const DefaultMaxLen = 255

type rules struct {
	required bool
	minLen   int
	maxLen   int
	pattern  *regexp.Regexp
	min, max *float64
	integer  bool
}

// Option configures a validator.
type Option func(*rules)

// Required makes an absent value an error.
func Required() Option { return func(r *rules) { r.required = true } }

// MinLen sets the minimum length in runes.
func MinLen(n int) Option { return func(r *rules) { r.minLen = n } }

// MaxLen sets the maximum length in runes. Zero disables the bound.
func MaxLen(n int) Option { return func(r *rules) { r.maxLen = n } }

// Pattern requires text to match expr.
func Pattern(expr string) Option {
	re := regexp.MustCompile(expr)
	return func(r *rules) { r.pattern = re }
}

// Range bounds a numeric value, inclusive.
func Range(min, max float64) Option {
	return func(r *rules) { r.min, r.max = &min, &max }
}

// AtLeast sets an inclusive lower bound on a numeric value.
func AtLeast(min float64) Option {
	return func(r *rules) { r.min = &min }
}

// Integer rejects numbers with a fractional part.
func Integer() Option { return func(r *rules) { r.integer = true } }

// base implements the shared required/optional rule. check runs only for
// present values.
type base struct {
	field string
	rules
	check func(b *base, value any) Result
}

func newBase(field string, defaults rules, check func(*base, any) Result, opts []Option) *base {
	b := &base{field: field, rules: defaults, check: check}
	for _, o := range opts {
		o(&b.rules)
	}
	return b
}

func (b *base) Field() string { return b.field }

func (b *base) Validate(value any) Result {
	value = deref(value)
	if absent(value) {
		if b.required {
			return fail(b.field, value, "Required field %s is missing", b.field)
		}
		return pass(b.field, value, "Optional field is empty")
	}
	return b.check(b, value)
}

// Text validates free text with optional length bounds and pattern.
func Text(field string, opts ...Option) Validator {
	return newBase(field, rules{maxLen: DefaultMaxLen}, checkText, opts)
}

func checkText(b *base, value any) Result {
	s, ok := value.(string)
	if !ok {
		return fail(b.field, value, "Expected string, got %T", value)
	}
	n := utf8.RuneCountInString(s)
	if n < b.minLen {
		return fail(b.field, value, "String too short (min: %d, got: %d)", b.minLen, n)
	}
	if b.maxLen > 0 && n > b.maxLen {
		return Result{
			Field:     b.field,
			Value:     value,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("String too long (max: %d, got: %d)", b.maxLen, n),
			Suggested: string([]rune(s)[:b.maxLen]),
		}
	}
	if b.pattern != nil && !b.pattern.MatchString(s) {
		return fail(b.field, value, "String doesn't match required pattern")
	}
	return pass(b.field, value, "Valid string")
}

var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,63}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// URL validates an absolute http(s) URL. A value that only lacks its scheme
// is a warning with the corrected URL suggested.
func URL(field string, opts ...Option) Validator {
	return newBase(field, rules{}, checkURL, opts)
}

func checkURL(b *base, value any) Result {
	s, ok := value.(string)
	if !ok {
		return fail(b.field, value, "Expected string URL, got %T", value)
	}
	if urlPattern.MatchString(s) {
		return pass(b.field, value, "Valid URL")
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if fixed := "https://" + s; urlPattern.MatchString(fixed) {
			return Result{
				Field:     b.field,
				Value:     value,
				Severity:  SeverityWarning,
				Message:   "URL missing protocol",
				Suggested: fixed,
			}
		}
	}
	return fail(b.field, value, "Invalid URL format")
}

// Identifier validates a corporate identification number.
func Identifier(field string, opts ...Option) Validator {
	return newBase(field, rules{}, checkIdentifier, opts)
}

func checkIdentifier(b *base, value any) Result {
	s, ok := value.(string)
	if !ok {
		return fail(b.field, value, "Expected string CIN, got %T", value)
	}
	cin := strings.ToUpper(strings.TrimSpace(s))
	if len(cin) != normalize.CINLength {
		return fail(b.field, value, "CIN must be %d characters long, got %d", normalize.CINLength, len(cin))
	}
	if !normalize.CINPattern.MatchString(cin) {
		return fail(b.field, value, "Invalid CIN format")
	}
	r := pass(b.field, value, "Valid CIN")
	if cin != s {
		r.Suggested = cin
	}
	return r
}

// dateLayouts are tried in order for text dates: ISO, day-first,
// month-first, then ISO timestamp.
var dateLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// Date validates a date value or a date string in a known layout.
func Date(field string, opts ...Option) Validator {
	return newBase(field, rules{}, checkDate, opts)
}

func checkDate(b *base, value any) Result {
	switch v := value.(type) {
	case time.Time:
		return pass(b.field, value, "Valid date")
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				r := pass(b.field, value, "Valid date string")
				r.Suggested = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				return r
			}
		}
		return fail(b.field, value, "Cannot parse date string")
	}
	return fail(b.field, value, "Expected date, got %T", value)
}

// Number validates an integer or floating point value.
func Number(field string, opts ...Option) Validator {
	return newBase(field, rules{}, checkNumber, opts)
}

func checkNumber(b *base, value any) Result {
	f, ok := toFloat(value)
	if !ok {
		return fail(b.field, value, "Expected number, got %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fail(b.field, value, "Number is not finite")
	}
	if b.integer && f != math.Trunc(f) {
		return fail(b.field, value, "Expected integer, got %v", f)
	}
	if b.min != nil && f < *b.min {
		return fail(b.field, value, "Number below minimum (min: %v, got: %v)", *b.min, f)
	}
	if b.max != nil && f > *b.max {
		return fail(b.field, value, "Number above maximum (max: %v, got: %v)", *b.max, f)
	}
	return pass(b.field, value, "Valid number")
}

// Bool validates a boolean flag.
func Bool(field string, opts ...Option) Validator {
	return newBase(field, rules{}, checkBool, opts)
}

func checkBool(b *base, value any) Result {
	if _, ok := value.(bool); !ok {
		return fail(b.field, value, "Expected boolean, got %T", value)
	}
	return pass(b.field, value, "Valid boolean")
}

type critical struct {
	Validator
}

// Critical escalates hard failures of v to critical severity.
func Critical(v Validator) Validator {
	return critical{v}
}

func (c critical) Validate(value any) Result {
	r := c.Validator.Validate(value)
	if r.Hard() {
		r.Severity = SeverityCritical
	}
	return r
}

func absent(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
