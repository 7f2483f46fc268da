package rowwriter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecsv/recoder/internal/pkg/csv"
)

type testData struct {
	comment  string
	rows     [][]string
	opts     csv.Options
	expected string
}

func TestWrite(t *testing.T) {
	t.Parallel()

	for _, data := range getWriteTestData() {
		opts := data.opts
		if opts == (csv.Options{}) {
			opts = csv.Default()
		}

		var out bytes.Buffer
		writer := WithOptions(&out, opts)
		require.NoError(t, writer.WriteAll(data.rows), data.comment)
		assert.Equal(t, data.expected, out.String(), data.comment)
	}
}

func TestWriteSinkError(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("disk full")
	writer := New(&failingWriter{err: sinkErr})

	err := writer.Write([]string{"1", "2"})
	assert.Equal(t, sinkErr, err)
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func getWriteTestData() []testData {
	return []testData{
		{
			comment:  "no enclosing needed",
			rows:     [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
			expected: "1,2,3\n4,5,6",
		},
		{
			comment:  "embedded enclosure is doubled",
			rows:     [][]string{{"1", `2"`, "3"}, {"4", `"5`, "6"}},
			expected: "1,\"2\"\"\",3\n4,\"\"\"5\",6",
		},
		{
			comment:  "embedded delimiter triggers enclosing",
			rows:     [][]string{{"1", "2,", "3"}, {"4", ",5", "6"}},
			expected: "1,\"2,\",3\n4,\",5\",6",
		},
		{
			comment:  "embedded newline triggers enclosing",
			rows:     [][]string{{"1", "2\n", "3"}, {"4", ",5", "6"}},
			expected: "1,\"2\n\",3\n4,\",5\",6",
		},
		{
			comment:  "embedded carriage return triggers enclosing",
			rows:     [][]string{{"1", "2\r3", "4"}},
			expected: "1,\"2\r3\",4",
		},
		{
			comment:  "empty fields stay unenclosed",
			rows:     [][]string{{"", "", ""}},
			expected: ",,",
		},
		{
			comment:  "crlf terminator",
			rows:     [][]string{{"1", "2"}, {"3", "4"}},
			opts:     csv.Options{Delimiter: ',', Enclosure: '"', Newline: csv.NewlineCRLF},
			expected: "1,2\r\n3,4",
		},
		{
			comment:  "custom terminator",
			rows:     [][]string{{"1", "2"}, {"3", "4"}},
			opts:     csv.Options{Delimiter: ',', Enclosure: '"', Newline: csv.NewlineCustom, CustomNewline: "\n\n"},
			expected: "1,2\n\n3,4",
		},
		{
			comment:  "custom delimiter does not special-case the comma",
			rows:     [][]string{{"1,2", "3|4"}},
			opts:     csv.Options{Delimiter: '|', Enclosure: '"', Newline: csv.NewlineLF},
			expected: "1,2|\"3|4\"",
		},
		{
			comment:  "custom enclosure",
			rows:     [][]string{{"a#b", "c"}},
			opts:     csv.Options{Delimiter: ',', Enclosure: '#', Newline: csv.NewlineLF},
			expected: "#a##b#,c",
		},
	}
}
