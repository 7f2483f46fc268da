// Package rowwriter provides streaming encoding of CSV rows.
package rowwriter

import (
	"io"
	"unicode/utf8"

	"github.com/simplecsv/recoder/internal/pkg/csv"
)

// Writer encodes rows to the output stream.
//
// A field is enclosed only when it contains the enclosure character, the
// delimiter, "\n" or "\r". The decision is made lazily on the first such
// character, so clean fields are written through without a pre-scan pass.
// An embedded enclosure character is escaped by doubling it.
//
// The line terminator is written before every row except the very first one,
// the output never ends with a terminator.
//
// Writes go straight to the sink, a failed write aborts immediately and bytes
// already written stay written. Callers wanting buffering wrap the sink.
//
// The Writer is not safe for concurrent use.
type Writer struct {
	opts       csv.Options
	out        io.Writer
	rowWritten bool
	scratch    [utf8.UTFMax]byte
}

// New creates a Writer with the default dialect, see csv.Default.
func New(w io.Writer) *Writer {
	return WithOptions(w, csv.Default())
}

// WithOptions creates a Writer with a custom dialect.
func WithOptions(w io.Writer, opts csv.Options) *Writer {
	return &Writer{opts: opts, out: w}
}

// Write encodes one row.
func (w *Writer) Write(row []string) error {
	// Only write the terminator if at least one row was already written
	if w.rowWritten {
		if err := w.writeString(w.opts.Terminator()); err != nil {
			return err
		}
	}

	for i, field := range row {
		if i > 0 {
			if err := w.writeRune(w.opts.Delimiter); err != nil {
				return err
			}
		}
		if err := w.writeField(field); err != nil {
			return err
		}
	}

	w.rowWritten = true
	return nil
}

// WriteAll encodes the rows, it stops on the first error.
func (w *Writer) WriteAll(rows [][]string) error {
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeField(field string) error {
	quoted := false
	for i, c := range field {
		if !quoted {
			if c != w.opts.Enclosure && c != w.opts.Delimiter && c != '\n' && c != '\r' {
				continue
			}

			// First reserved character found, open the enclosure
			// and replay the clean prefix verbatim.
			quoted = true
			if err := w.writeRune(w.opts.Enclosure); err != nil {
				return err
			}
			if err := w.writeString(field[:i]); err != nil {
				return err
			}
		}

		if err := w.writeRune(c); err != nil {
			return err
		}
		if c == w.opts.Enclosure {
			// Escape by doubling
			if err := w.writeRune(c); err != nil {
				return err
			}
		}
	}

	if !quoted {
		// No reserved character, the field goes out byte for byte
		return w.writeString(field)
	}

	return w.writeRune(w.opts.Enclosure)
}

func (w *Writer) writeRune(c rune) error {
	n := utf8.EncodeRune(w.scratch[:], c)
	_, err := w.out.Write(w.scratch[:n])
	return err
}

func (w *Writer) writeString(s string) error {
	_, err := io.WriteString(w.out, s)
	return err
}
