package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"legalreview/models"
)

const isoDate = "2006-01-02"

var (
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	usDatePattern    = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
	longDatePattern  = regexp.MustCompile(`(?i)(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{4})`)
	numberPattern    = regexp.MustCompile(`-?[\d,]+\.?\d*`)
	listSeparator    = regexp.MustCompile(`[,;]`)
	trueValues       = map[string]bool{"yes": true, "true": true, "1": true, "y": true}
	falseValues      = map[string]bool{"no": true, "false": true, "0": true, "n": true}
	monthAbbreviated = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// Normalize converts a raw model value into the canonical form for its
// field type. Values that do not look like their type are kept as they are.
func Normalize(raw *string, fieldType models.FieldType) *string {
	if raw == nil {
		return nil
	}

	value := strings.TrimSpace(*raw)
	if value == "" || value == "null" {
		return nil
	}

	var out string
	switch fieldType {
	case models.FieldDate:
		out = normalizeDate(value)
	case models.FieldNumber:
		out = normalizeNumber(value)
	case models.FieldBoolean:
		out = normalizeBoolean(value)
	case models.FieldList:
		out = normalizeList(value)
	default:
		out = value
	}

	return &out
}

func normalizeDate(value string) string {
	if m := isoDatePattern.FindString(value); m != "" {
		return m
	}

	if m := usDatePattern.FindString(value); m != "" {
		if t, err := time.Parse("01/02/2006", m); err == nil {
			return t.Format(isoDate)
		}
		return m
	}

	if m := longDatePattern.FindStringSubmatch(value); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		month := monthAbbreviated[strings.ToLower(m[2])]

		// time.Date rolls 31 Feb over into March
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if t.Day() == day && t.Month() == month {
			return t.Format(isoDate)
		}
		return m[0]
	}

	return value
}

func normalizeNumber(value string) string {
	m := numberPattern.FindString(value)
	if m == "" {
		return value
	}

	number := strings.ReplaceAll(m, ",", "")
	if strings.Trim(number, "-.") == "" {
		return value
	}
	return number
}

func normalizeBoolean(value string) string {
	lower := strings.ToLower(value)
	switch {
	case trueValues[lower]:
		return "true"
	case falseValues[lower]:
		return "false"
	}
	return value
}

func normalizeList(value string) string {
	if !strings.ContainsAny(value, ",;") {
		return value
	}

	var items []string
	for _, item := range listSeparator.Split(value, -1) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return strings.Join(items, ", ")
}
