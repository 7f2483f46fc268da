// Package dialect provides reading and writing of the CSV dialect sidecar file.
package dialect

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/iancoleman/orderedmap"

	"github.com/simplecsv/recoder/internal/pkg/apperr"
	"github.com/simplecsv/recoder/internal/pkg/csv"
	"github.com/simplecsv/recoder/internal/pkg/utils"
)

// Dialect is a parsed dialect sidecar of a CSV table.
// The original content is always preserved, so it is represented as an OrderedMap:
// the setters only update the related keys, unknown keys pass through untouched.
type Dialect struct {
	path     string
	exists   bool
	modified bool
	content  *orderedmap.OrderedMap // decoded JSON content

	delimiter rune
	enclosure rune
	newline   csv.Newline
}

// New creates an empty sidecar with the default dialect.
func New() *Dialect {
	return &Dialect{
		content:   orderedmap.New(),
		delimiter: csv.DefaultDelimiter,
		enclosure: csv.DefaultEnclosure,
		newline:   csv.NewlineLF,
	}
}

// Load reads the sidecar file, a missing file yields the default dialect.
func Load(path string) (*Dialect, error) {
	content, found, err := loadContent(path)
	if err != nil {
		return nil, err
	}

	d := &Dialect{path: path, exists: found, content: content}

	// Load delimiter
	if d.delimiter, err = charKey(content, "delimiter", csv.DefaultDelimiter); err != nil {
		return nil, err
	}

	// Load enclosure
	if d.enclosure, err = charKey(content, "enclosure", csv.DefaultEnclosure); err != nil {
		return nil, err
	}

	// Load newline
	d.newline = csv.NewlineLF
	if val, ok := content.Get("newline"); ok {
		str, ok := val.(string)
		if !ok {
			return nil, apperr.UserErrorf("unexpected type \"%T\" of the dialect \"newline\" key", val)
		}
		if err := d.newline.UnmarshalText([]byte(str)); err != nil {
			return nil, apperr.UserErrorf("invalid dialect file: %w", err)
		}
	}

	return d, nil
}

// WriteTo stores the dialect, preserving unknown keys of the original file.
func (d *Dialect) WriteTo(path string) error {
	// Encode JSON
	data, jsonErr := json.MarshalIndent(d.content, "", "    ")
	if jsonErr != nil {
		return fmt.Errorf("cannot encode dialect to JSON: %w", jsonErr)
	}

	// Write to file
	return os.WriteFile(path, data, apperr.NewFilePermissions)
}

func (d *Dialect) Exists() bool {
	return d.exists
}

func (d *Dialect) Modified() bool {
	return d.modified
}

func (d *Dialect) Delimiter() rune {
	return d.delimiter
}

func (d *Dialect) Enclosure() rune {
	return d.enclosure
}

func (d *Dialect) Newline() csv.Newline {
	return d.newline
}

// Options assembles reader/writer options from the dialect.
func (d *Dialect) Options() csv.Options {
	return csv.Options{
		Delimiter: d.delimiter,
		Enclosure: d.enclosure,
		Newline:   d.newline,
	}
}

func (d *Dialect) SetDelimiter(c rune) {
	d.content.Set("delimiter", string(c))
	d.delimiter = c
	d.modified = true
}

func (d *Dialect) SetEnclosure(c rune) {
	d.content.Set("enclosure", string(c))
	d.enclosure = c
	d.modified = true
}

func (d *Dialect) SetNewline(n csv.Newline) {
	d.content.Set("newline", n.String())
	d.newline = n
	d.modified = true
}

// charKey loads a single-character string key.
func charKey(content *orderedmap.OrderedMap, key string, def rune) (rune, error) {
	val, ok := content.Get(key)
	if !ok {
		return def, nil
	}

	str, ok := val.(string)
	if !ok {
		return 0, apperr.UserErrorf("unexpected type \"%T\" of the dialect \"%s\" key", val, key)
	}
	if utf8.RuneCountInString(str) != 1 {
		return 0, apperr.UserErrorf("unexpected length \"%d\" of the dialect \"%s\" key. Expected 1 char", len(str), key)
	}

	c, _ := utf8.DecodeRuneInString(str)
	return c, nil
}

func loadContent(path string) (content *orderedmap.OrderedMap, found bool, err error) {
	if found, err = utils.FileExists(path); err != nil {
		return nil, false, err
	} else if !found {
		// Return empty map, file will be created
		return orderedmap.New(), false, nil
	}

	// Read file
	contentBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	// Parse JSON
	content = orderedmap.New()
	if err := json.Unmarshal(contentBytes, content); err != nil {
		return nil, false, err
	}

	return content, true, nil
}
