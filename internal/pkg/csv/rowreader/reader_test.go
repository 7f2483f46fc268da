package rowreader

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecsv/recoder/internal/pkg/csv"
)

type testData struct {
	comment      string
	input        string
	opts         csv.Options
	expectedRows [][]string
}

func TestRead(t *testing.T) {
	t.Parallel()

	for _, data := range getReadTestData() {
		opts := data.opts
		if opts == (csv.Options{}) {
			opts = csv.Default()
		}

		reader := WithOptions(strings.NewReader(data.input), opts)

		var rows [][]string
		for reader.Read() {
			// The row view is invalidated by the next Read -> copy
			rows = append(rows, append([]string(nil), reader.Row()...))
		}

		require.NoError(t, reader.Err(), data.comment)
		assert.Equal(t, data.expectedRows, rows, data.comment)
	}
}

func TestReadSourceError(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("broken pipe")
	source := io.MultiReader(strings.NewReader("1,2,3\n"), iotest.ErrReader(sourceErr))

	reader := New(source)
	require.True(t, reader.Read())
	assert.Equal(t, []string{"1", "2", "3"}, reader.Row())

	// The source failure ends the sequence and is reported by Err
	assert.False(t, reader.Read())
	assert.Equal(t, sourceErr, reader.Err())
	assert.False(t, reader.Read())
}

func TestReadSourceErrorMidRow(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("device gone")
	source := io.MultiReader(strings.NewReader("1,2"), iotest.ErrReader(sourceErr))

	// No partial-row recovery, the error wins over the partial progress
	reader := New(source)
	assert.False(t, reader.Read())
	assert.Equal(t, sourceErr, reader.Err())
}

func TestRowIsReused(t *testing.T) {
	t.Parallel()

	reader := New(strings.NewReader("a,b\nc,d"))

	require.True(t, reader.Read())
	first := reader.Row()
	firstCopy := append([]string(nil), first...)
	assert.Equal(t, []string{"a", "b"}, firstCopy)

	require.True(t, reader.Read())
	assert.Equal(t, []string{"c", "d"}, reader.Row())

	// The copy survives, the original view does not have to
	assert.Equal(t, []string{"a", "b"}, firstCopy)

	assert.False(t, reader.Read())
	require.NoError(t, reader.Err())
}

func getReadTestData() []testData {
	return []testData{
		{
			comment:      "empty input",
			input:        "",
			expectedRows: nil,
		},
		{
			comment:      "simple rows",
			input:        "1,2,3\r\n4,5,6",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
		{
			comment:      "lf only terminators",
			input:        "1,2,3\n4,5,6\n",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
		{
			comment:      "enclosed fields",
			input:        "1,\"2\",3\r\n4,\"5\",6",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
		{
			comment:      "doubled enclosure is an escaped enclosure",
			input:        `1,"""2",3`,
			expectedRows: [][]string{{"1", `"2`, "3"}},
		},
		{
			comment:      "terminator inside enclosure is data and keeps its CR",
			input:        "1,\"2\",3\r\n4,\"5\r\n\",6",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5\r\n", "6"}},
		},
		{
			comment:      "unterminated enclosure at end of input closes implicitly",
			input:        "1,2,3\r\n4,5,\"6",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
		{
			comment:      "data after the closing enclosure continues the field",
			input:        "1,2,3\r\n4,5,\"6\"tail",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6tail"}},
		},
		{
			comment:      "empty last column",
			input:        "1,2,3\r\n4,5,\r\n",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", ""}},
		},
		{
			comment:      "empty fields only",
			input:        ",,",
			expectedRows: [][]string{{"", "", ""}},
		},
		{
			comment:      "trailing delimiter at end of input keeps the empty field",
			input:        "1,2,",
			expectedRows: [][]string{{"1", "2", ""}},
		},
		{
			comment:      "enclosed empty field at end of input",
			input:        `1,""`,
			expectedRows: [][]string{{"1", ""}},
		},
		{
			comment:      "blank line is a row with a single empty field",
			input:        "1,2,3\r\n\r\n4,5,6",
			expectedRows: [][]string{{"1", "2", "3"}, {""}, {"4", "5", "6"}},
		},
		{
			comment:      "carriage return after a closing enclosure is discarded",
			input:        "1,2,\"3\"\r9\r\n4,5,6",
			expectedRows: [][]string{{"1", "2", "39"}, {"4", "5", "6"}},
		},
		{
			comment:      "enclosure inside an unenclosed field is data",
			input:        "1,2\"2,3",
			expectedRows: [][]string{{"1", "2\"2", "3"}},
		},
		{
			comment:      "invalid utf8 decodes to the replacement character",
			input:        "1,2,3\r\n4,5,6\xff",
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6�"}},
		},
		{
			comment:      "custom delimiter",
			input:        "1|2|3\r\n4|5|6",
			opts:         csv.Options{Delimiter: '|', Enclosure: '"'},
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
		{
			comment:      "custom delimiter does not special-case the comma",
			input:        "1,2|3,4",
			opts:         csv.Options{Delimiter: '|', Enclosure: '"'},
			expectedRows: [][]string{{"1,2", "3,4"}},
		},
		{
			comment:      "custom enclosure",
			input:        "1,#2#,3\r\n#4#,5,6",
			opts:         csv.Options{Delimiter: ',', Enclosure: '#'},
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
		{
			comment:      "multi-byte delimiter rune",
			input:        "1©2©3\r\n4©5©6",
			opts:         csv.Options{Delimiter: '©', Enclosure: '"'},
			expectedRows: [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
	}
}
