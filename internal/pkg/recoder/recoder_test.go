package recoder

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecsv/recoder/internal/pkg/apperr"
	"github.com/simplecsv/recoder/internal/pkg/csv"
	"github.com/simplecsv/recoder/internal/pkg/log"
	"github.com/simplecsv/recoder/internal/pkg/recoder/config"
	"github.com/simplecsv/recoder/internal/pkg/utils"
)

func TestRecodeDelimiter(t *testing.T) {
	t.Parallel()

	tempDir := fixturesDir(t)
	logs := &bytes.Buffer{}

	table := Table{
		Config:  config.Default(),
		Name:    "simple",
		InPath:  filepath.Join(tempDir, "simple.csv"),
		OutPath: filepath.Join(tempDir, "out.csv"),
	}
	table.OutputDelimiter = "|"

	require.NoError(t, recode(clock.NewMock(), log.NewTestLogger(logs), table))

	content, err := os.ReadFile(table.OutPath)
	require.NoError(t, err)
	assert.Equal(t, "id|name\n1|a,b\n2|\"x\"\"y\"", string(content))

	assert.Contains(t, logs.String(), `Recoding table "simple".`)
	assert.Contains(t, logs.String(), `Table "simple" recoded, 3 rows`)
}

func TestRecodeNewline(t *testing.T) {
	t.Parallel()

	tempDir := fixturesDir(t)

	table := Table{
		Config:  config.Default(),
		Name:    "simple",
		InPath:  filepath.Join(tempDir, "simple.csv"),
		OutPath: filepath.Join(tempDir, "out.csv"),
	}
	table.OutputNewline = csv.NewlineCRLF

	require.NoError(t, recode(clock.NewMock(), log.NewTestLogger(&bytes.Buffer{}), table))

	content, err := os.ReadFile(table.OutPath)
	require.NoError(t, err)
	assert.Equal(t, "id,name\r\n1,\"a,b\"\r\n2,\"x\"\"y\"", string(content))
}

func TestRecodeInputDialectSidecar(t *testing.T) {
	t.Parallel()

	tempDir := fixturesDir(t)
	logs := &bytes.Buffer{}

	table := Table{
		Config:         config.Default(),
		Name:           "semicolon",
		InPath:         filepath.Join(tempDir, "semicolon.csv"),
		InDialectPath:  filepath.Join(tempDir, "semicolon.csv.dialect.json"),
		OutPath:        filepath.Join(tempDir, "out.csv"),
		OutDialectPath: filepath.Join(tempDir, "out.csv.dialect.json"),
	}
	table.OutputDelimiter = "\t"

	require.NoError(t, recode(clock.NewMock(), log.NewTestLogger(logs), table))

	// The ";" delimiter comes from the input sidecar, not from the flags
	content, err := os.ReadFile(table.OutPath)
	require.NoError(t, err)
	assert.Equal(t, "id\tname\n1\tfoo\n2\tbar", string(content))

	// The output sidecar is a copy of the input one with the dialect keys updated
	sidecar, err := os.ReadFile(table.OutDialectPath)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(sidecar, &parsed))
	assert.Equal(t, map[string]any{
		"created_by": "loader",
		"delimiter":  "\t",
		"enclosure":  `"`,
		"newline":    "lf",
	}, parsed)

	assert.Contains(t, logs.String(), "dialect file updated.")
}

func TestRecodeGzip(t *testing.T) {
	t.Parallel()

	tempDir := fixturesDir(t)

	// Gzip the input fixture
	inPath := filepath.Join(tempDir, "simple.csv"+apperr.GzipFileExtension)
	gzipFile(t, filepath.Join(tempDir, "simple.csv"), inPath)

	table := Table{
		Config:  config.Default(),
		Name:    "simple",
		InPath:  inPath,
		OutPath: filepath.Join(tempDir, "out.csv"+apperr.GzipFileExtension),
	}
	table.Gzip = true

	require.NoError(t, recode(clock.NewMock(), log.NewTestLogger(&bytes.Buffer{}), table))

	// The output is gzipped
	file, err := os.Open(table.OutPath)
	require.NoError(t, err)
	reader, err := gzip.NewReader(file)
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "id,name\n1,\"a,b\"\n2,\"x\"\"y\"", string(content))
}

func TestRecodeInvalidTable(t *testing.T) {
	t.Parallel()

	err := recode(clock.NewMock(), log.NewTestLogger(&bytes.Buffer{}), Table{Config: config.Default()})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "table definition is not valid")
	}
}

// fixturesDir copies the test fixtures to a temp dir, so the test cannot modify them.
func fixturesDir(t *testing.T) string {
	t.Helper()

	_, testFile, _, _ := runtime.Caller(0)
	rootDir := filepath.Dir(testFile)

	tempDir := t.TempDir()
	require.NoError(t, utils.CopyRecursive(filepath.Join(rootDir, "fixtures"), tempDir))
	return tempDir
}

func gzipFile(t *testing.T, srcPath, trgPath string) {
	t.Helper()

	content, err := os.ReadFile(srcPath)
	require.NoError(t, err)

	out, err := os.OpenFile(trgPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, apperr.NewFilePermissions)
	require.NoError(t, err)

	w := gzip.NewWriter(out)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())
}
