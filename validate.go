package sheetsync

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DataType classifies the raw content of a cell.
type DataType int

const (
	TypeEmpty DataType = iota
	TypeNumber
	TypeDate
	TypeFormula
	TypeText
)

// String returns the wire name for the DataType.
func (dt DataType) String() string {
	switch dt {
	case TypeEmpty:
		return "empty"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeFormula:
		return "formula"
	case TypeText:
		return "text"
	default:
		return "text"
	}
}

// ParseDataType converts a wire name back to a DataType. Unrecognized
// names fall through to TypeText.
func ParseDataType(s string) DataType {
	switch s {
	case "empty":
		return TypeEmpty
	case "number":
		return TypeNumber
	case "date":
		return TypeDate
	case "formula":
		return TypeFormula
	default:
		return TypeText
	}
}

// MarshalJSON encodes the DataType as its wire name.
func (dt DataType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

// UnmarshalJSON decodes a DataType from its wire name.
func (dt *DataType) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	*dt = ParseDataType(s)
	return nil
}

// DateOrder selects how ambiguous two-part numeric dates are interpreted.
// The overlapping day-first/month-first layouts are a configuration choice,
// not something the detector guesses.
type DateOrder int

const (
	MonthFirst DateOrder = iota // M/D/YYYY (default)
	DayFirst                    // D/M/YYYY
)

// MaxTextLength is the cap on text cell content. Longer values are stored
// but flagged invalid.
const MaxTextLength = 1000

// ValidationResult reports the outcome of classifying and validating a raw
// cell value.
type ValidationResult struct {
	DetectedType   DataType `json:"detected_type"`
	IsValid        bool     `json:"is_valid"`
	FormattedValue string   `json:"formatted_value"`
	Errors         []string `json:"errors,omitempty"`
}

// Validator classifies raw strings into cell data types and produces
// formatted display values. The zero value uses month-first dates.
type Validator struct {
	DateOrder DateOrder
}

var numberRegexp = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

var dateLayoutRegexps = []*regexp.Regexp{
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
	regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`),
}

// IsNumber reports whether s matches the numeric grammar: optional sign,
// digits, optional fraction, optional exponent.
func IsNumber(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	if !numberRegexp.MatchString(trimmed) {
		return false
	}
	_, err := strconv.ParseFloat(trimmed, 64)
	return err == nil
}

// IsFormula reports whether s is a formula value (leading '=').
func IsFormula(s string) bool {
	return strings.HasPrefix(s, "=")
}

// LooksLikeDate reports whether s matches one of the recognized numeric
// date layouts, without checking that the parts form a real calendar date.
func LooksLikeDate(s string) bool {
	trimmed := strings.TrimSpace(s)
	for _, re := range dateLayoutRegexps {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// dateLayouts returns the time layouts to try, ordered per the configured
// date order.
func (v Validator) dateLayouts() []string {
	if v.DateOrder == DayFirst {
		return []string{"2/1/2006", "2-1-2006", "2006-1-2", "2/1/06"}
	}
	return []string{"1/2/2006", "1-2-2006", "2006-1-2", "1/2/06"}
}

// IsDate reports whether s parses as a real date under the configured
// date order.
func (v Validator) IsDate(s string) bool {
	trimmed := strings.TrimSpace(s)
	if !LooksLikeDate(trimmed) {
		return false
	}
	for _, layout := range v.dateLayouts() {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return true
		}
	}
	return false
}

// DetectType classifies a raw string. It is total: every input maps to a
// type, with unrecognized input falling through to text.
//
// Detection order matters: formulas before numbers (e.g. "=SUM(A1:A2)"),
// numbers before dates (e.g. "12" is a number, not a truncated date).
func (v Validator) DetectType(raw string) DataType {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TypeEmpty
	}
	if IsFormula(trimmed) {
		return TypeFormula
	}
	if IsNumber(trimmed) {
		return TypeNumber
	}
	if LooksLikeDate(trimmed) {
		return TypeDate
	}
	return TypeText
}

// Validate classifies raw and produces a formatted value plus any
// validation errors. Validation never blocks a write; callers store the
// raw value and attach the result to the cell.
func (v Validator) Validate(raw string) ValidationResult {
	detected := v.DetectType(raw)
	result := ValidationResult{
		DetectedType:   detected,
		IsValid:        true,
		FormattedValue: strings.TrimSpace(raw),
	}

	switch detected {
	case TypeEmpty:
		result.FormattedValue = ""

	case TypeNumber:
		num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, "Invalid number format")
			break
		}
		result.FormattedValue = FormatNumber(num)

	case TypeDate:
		if !v.IsDate(raw) {
			result.IsValid = false
			result.Errors = append(result.Errors, "Invalid date format. Use MM/DD/YYYY, YYYY-MM-DD, or similar")
		}

	case TypeFormula:
		// Syntax is not checked at this layer; the evaluator reports
		// formula errors separately.

	case TypeText:
		if len(strings.TrimSpace(raw)) > MaxTextLength {
			result.IsValid = false
			result.Errors = append(result.Errors, "Text too long (max 1000 characters)")
		}
	}

	return result
}

// FormatNumber renders a float in canonical decimal form: whole numbers
// as full integer digits without a decimal point, everything else in
// minimal notation.
func FormatNumber(num float64) string {
	if num == math.Trunc(num) && !math.IsInf(num, 0) {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	return strconv.FormatFloat(num, 'g', -1, 64)
}
