package iso8583

import (
	"strings"
	"time"
)

// dateTokens maps the configuration's YYMMDD-style pattern tokens onto Go
// reference-time layout tokens. Longer tokens are replaced first so "YYYY"
// is not partially consumed by the "YY" rule.
var dateTokens = []struct{ token, layout string }{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"hh", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

func wireLayout(pattern string) string {
	out := pattern
	for _, t := range dateTokens {
		out = strings.ReplaceAll(out, t.token, t.layout)
	}
	return out
}

func isoLayout(pattern string) string {
	if strings.Contains(pattern, "hh") {
		return "2006-01-02T15:04:05"
	}
	return "2006-01-02"
}

// ToISODate reformats a date-formatted field's wire text into an ISO 8601
// calendar form, per the field's declared date_format pattern.
func ToISODate(text, pattern string) (string, error) {
	t, err := time.Parse(wireLayout(pattern), text)
	if err != nil {
		return "", err
	}
	return t.Format(isoLayout(pattern)), nil
}

// FromISODate reverses ToISODate: an ISO 8601 calendar value is reformatted
// back into the field's declared wire pattern.
func FromISODate(isoText, pattern string) (string, error) {
	t, err := time.Parse(isoLayout(pattern), isoText)
	if err != nil {
		return "", err
	}
	return t.Format(wireLayout(pattern)), nil
}
