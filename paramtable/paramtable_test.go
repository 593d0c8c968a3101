package paramtable

import (
	"errors"
	"io"
	"testing"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() config.TableLayout {
	return config.TableLayout{
		TableIDColumn: "table_id",
		Columns: map[string]config.ColumnLayout{
			"table_id":       {Start: 0, End: 6},
			"effective_date": {Start: 6, End: 12, Type: "datetime", DatePattern: "YYMMDD", CenturyPivot: 50},
			"description":    {Start: 12, End: 22},
		},
	}
}

func TestExtractRow(t *testing.T) {
	text := "IP0001" + "240704" + "TEST ROW  "
	row := ExtractRow(testLayout(), text)
	assert.Equal(t, "IP0001", row["table_id"].String())
	assert.Equal(t, "2024-07-04", row["effective_date"].String())
	assert.Equal(t, "TEST ROW", row["description"].String())
}

func TestExtractRow_CenturyPivot(t *testing.T) {
	layout := testLayout()
	text := "IP0001" + "990101" + "OLD ROW   "
	row := ExtractRow(layout, text)
	assert.Equal(t, "1999-01-01", row["effective_date"].String())
}

func TestExtractRow_OutOfRangeColumnSkipped(t *testing.T) {
	layout := testLayout()
	short := "IP0001" // too short for effective_date/description
	row := ExtractRow(layout, short)
	assert.Equal(t, "IP0001", row["table_id"].String())
	assert.NotContains(t, row, "effective_date")
	assert.NotContains(t, row, "description")
}

type fakeReader struct {
	rows []string
	pos  int
}

func (f *fakeReader) Next() (record.Record, error) {
	if f.pos >= len(f.rows) {
		return nil, io.EOF
	}
	text := f.rows[f.pos]
	f.pos++
	return record.Record{"DE48": record.Text(text)}, nil
}

func TestExtract_FiltersByTableID(t *testing.T) {
	layout := testLayout()
	reader := &fakeReader{rows: []string{
		"IP0001" + "240704" + "ROW ONE   ",
		"IP0002" + "240101" + "OTHER     ",
		"IP0001" + "240801" + "ROW TWO   ",
	}}

	rows, err := Extract(reader, layout, "IP0001")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ROW ONE", rows[0]["description"].String())
	assert.Equal(t, "ROW TWO", rows[1]["description"].String())
}

type errReader struct{}

func (errReader) Next() (record.Record, error) { return nil, errors.New("boom") }

func TestExtract_PropagatesError(t *testing.T) {
	_, err := Extract(errReader{}, testLayout(), "IP0001")
	assert.Error(t, err)
}

func TestListTableIDs_Sorted(t *testing.T) {
	tables := map[string]config.TableLayout{
		"IP0003": {}, "IP0001": {}, "IP0002": {},
	}
	assert.Equal(t, []string{"IP0001", "IP0002", "IP0003"}, ListTableIDs(tables))
}
