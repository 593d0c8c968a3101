// Package paramtable implements the parameter-table extractor: an
// IPM parameter file is an IPM file whose records carry a single text
// field (by convention field 48 of an MTI=1644 record); each record's
// text is reinterpreted under a declared positional column layout and
// projected as a flat record keyed by column name.
package paramtable

import (
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/record"
)

// ParamFieldKey is the well known field carrying the parameter row text,
// by convention field 48 of an MTI=1644 record.
const ParamFieldKey = "DE48"

// ExtractRow applies layout to the positional text of a single parameter
// record, returning one flat record keyed by column name. Columns whose
// half-open range runs past the end of text, or is otherwise malformed,
// are skipped rather than failing the whole row: a parameter file mixes
// row lengths across table_ids and a layout only describes one of them.
func ExtractRow(layout config.TableLayout, text string) record.Record {
	out := record.Record{}
	for name, col := range layout.Columns {
		v, ok := sliceColumn(text, col)
		if !ok {
			continue
		}
		if col.Type == "datetime" {
			parsed, err := parseDate(v, col)
			if err != nil {
				continue
			}
			v = parsed
		}
		out[name] = record.Text(v)
	}
	return out
}

func sliceColumn(text string, col config.ColumnLayout) (string, bool) {
	if col.Start < 0 || col.Start >= col.End || col.End > len(text) {
		return "", false
	}
	return strings.TrimRight(text[col.Start:col.End], " "), true
}

// parseDate interprets a YYMMDD-style column value using col's declared
// pattern and century pivot: a 2-digit year strictly less than the pivot
// resolves to 20xx, otherwise 19xx. Returns an ISO 8601 calendar date.
func parseDate(value string, col config.ColumnLayout) (string, error) {
	pattern := col.DatePattern
	if pattern == "" {
		pattern = "YYMMDD"
	}
	if len(value) < len(pattern) {
		return "", errors.New("date value is shorter than its pattern")
	}
	yy, mm, dd, err := splitYYMMDD(value, pattern)
	if err != nil {
		return "", err
	}
	year := yy
	if strings.Contains(pattern, "YYYY") {
		// already a 4 digit year
	} else {
		if yy < col.CenturyPivot {
			year = 2000 + yy
		} else {
			year = 1900 + yy
		}
	}
	return strconv.Itoa(year) + "-" + pad2(mm) + "-" + pad2(dd), nil
}

func splitYYMMDD(value, pattern string) (year, month, day int, err error) {
	// pattern is a concatenation of YY/YYYY, MM, DD tokens, in that
	// order, each token's width matching its slice of value.
	pos := 0
	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "YYYY"):
			n, perr := strconv.Atoi(value[pos : pos+4])
			if perr != nil {
				return 0, 0, 0, perr
			}
			year = n
			pos += 4
			i += 4
		case strings.HasPrefix(pattern[i:], "YY"):
			n, perr := strconv.Atoi(value[pos : pos+2])
			if perr != nil {
				return 0, 0, 0, perr
			}
			year = n
			pos += 2
			i += 2
		case strings.HasPrefix(pattern[i:], "MM"):
			n, perr := strconv.Atoi(value[pos : pos+2])
			if perr != nil {
				return 0, 0, 0, perr
			}
			month = n
			pos += 2
			i += 2
		case strings.HasPrefix(pattern[i:], "DD"):
			n, perr := strconv.Atoi(value[pos : pos+2])
			if perr != nil {
				return 0, 0, 0, perr
			}
			day = n
			pos += 2
			i += 2
		default:
			pos++
			i++
		}
	}
	return year, month, day, nil
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// RecordReader is the narrow slice of record.RecordReader that Extract
// needs: a source of decoded IPM records (typically an *ipm.Reader).
type RecordReader interface {
	Next() (record.Record, error)
}

// Extract reads every record from r, selects those whose layout's
// table_id column equals tableID, and returns one flat record per matched
// row, positionally decomposed per layout.
func Extract(r RecordReader, layout config.TableLayout, tableID string) ([]record.Record, error) {
	var out []record.Record
	for {
		rec, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		field, ok := rec[ParamFieldKey]
		if !ok {
			continue
		}
		row := ExtractRow(layout, field.String())
		if row[layout.TableIDColumn].String() != tableID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// ListTableIDs returns the configured table_id values, sorted, so that a
// CLI can print known table IDs when none is given on the command line.
func ListTableIDs(tables map[string]config.TableLayout) []string {
	out := make([]string, 0, len(tables))
	for id := range tables {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
