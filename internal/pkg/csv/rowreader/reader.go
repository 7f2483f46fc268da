// Package rowreader provides streaming decoding of CSV rows.
package rowreader

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"
	"unsafe"

	"github.com/simplecsv/recoder/internal/pkg/csv"
)

const (
	// LineBufferSize is the initial size of the buffered line source, it is auto-scaled.
	LineBufferSize = 64 * 1024
	// FieldBufferSize is the initial capacity of the field accumulation buffer.
	FieldBufferSize = 512
)

// The scanner is a finite-state machine, one transition per decoded character.
type scanState int

const (
	stateNeutral scanState = iota
	stateInField
	stateInQuotedField
	stateQuoteInQuotedField
	stateEndOfRow
)

// Reader assembles one row per Read call from the input stream.
// Lines are pulled from the source up to and including the next "\n" byte
// and decoded with the replacement character substituted for invalid UTF-8,
// a broken encoding never fails the parse.
//
// A "\r" is discarded outside enclosures (CRLF inputs are normalized),
// inside an enclosure it is kept verbatim.
// There is no "malformed CSV" error: every input produces some row structure,
// an unterminated enclosure at the end of input closes implicitly.
//
// The Reader is not safe for concurrent use.
type Reader struct {
	opts csv.Options
	in   *bufio.Reader

	state      scanState
	fieldBuf   []byte   // bytes of all fields of the current row
	fieldStart int      // offset in fieldBuf where the pending field begins
	bounds     []int    // start/end offset pairs into fieldBuf, one pair per flushed field
	row        []string // row view, rebuilt by each Read call
	err        error
	done       bool
}

// New creates a Reader with the default dialect, see csv.Default.
func New(r io.Reader) *Reader {
	return WithOptions(r, csv.Default())
}

// WithOptions creates a Reader with a custom dialect.
// Only the Delimiter and Enclosure options are used, reading accepts
// both LF and CRLF row terminators without configuration.
func WithOptions(r io.Reader, opts csv.Options) *Reader {
	return &Reader{
		opts:     opts,
		in:       bufio.NewReaderSize(r, LineBufferSize),
		fieldBuf: make([]byte, 0, FieldBufferSize),
	}
}

// Read advances the reader to the next row.
// It returns false when the input was already exhausted before the row began,
// or when the source failed, see Err.
//
// A missing terminator on the last row is not an error: the row read up to
// the end of input, including an unterminated final field, is still returned.
func (r *Reader) Read() bool {
	if r.done {
		return false
	}

	// Reset the scratch buffers, capacity is kept
	r.row = r.row[:0]
	r.fieldBuf = r.fieldBuf[:0]
	r.bounds = r.bounds[:0]
	r.fieldStart = 0
	r.state = stateNeutral

	chunks := 0
	for {
		line, err := r.in.ReadBytes('\n')
		if len(line) > 0 {
			chunks++
			r.scanChunk(line)
			if r.state == stateEndOfRow {
				break
			}
		}

		if err != nil {
			r.done = true
			if !errors.Is(err, io.EOF) {
				// Source failure is fatal, no partial-row recovery
				r.err = err
				return false
			}

			// Nothing was pulled for this row -> clean end of the sequence
			if chunks == 0 {
				return false
			}

			// Source exhausted mid row, the scanner never saw a terminator.
			// Flush the pending field and return the partial row.
			// The pending field counts if it holds data, if an enclosure was
			// just closed, or if the row already has fields (then the input
			// ended with a delimiter and the empty trailing field is kept).
			if len(r.fieldBuf) > r.fieldStart || r.state == stateQuoteInQuotedField || len(r.bounds) > 0 {
				r.flushField(stateNeutral)
			}
			break
		}
	}

	r.buildRow()
	return true
}

// Row returns the last row read by Read.
//
// The returned slice and its strings alias the internal scratch buffers
// and are overwritten by the next Read call.
// Callers retaining rows across calls must copy both.
func (r *Reader) Row() []string {
	return r.row
}

// Err returns the first source error encountered, if any.
// End of input is not an error.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) scanChunk(chunk []byte) {
	for i := 0; i < len(chunk) && r.state != stateEndOfRow; {
		// Invalid sequences decode to utf8.RuneError and pass
		// through the state machine as ordinary data.
		c, size := utf8.DecodeRune(chunk[i:])
		i += size
		r.scanRune(c)
	}
}

func (r *Reader) scanRune(c rune) {
	switch r.state {
	case stateNeutral:
		switch {
		case c == r.opts.Enclosure:
			// Start of an enclosed field
			r.state = stateInQuotedField
		case c == r.opts.Delimiter:
			// Empty field
			r.flushField(stateNeutral)
		case c == '\n':
			r.flushField(stateEndOfRow)
		case c == '\r':
			// Eat it and keep going
		default:
			r.appendRune(c)
			r.state = stateInField
		}
	case stateInField:
		switch {
		case c == r.opts.Delimiter:
			r.flushField(stateNeutral)
		case c == '\n':
			r.flushField(stateEndOfRow)
		case c == '\r':
			// Eat it and keep going
		default:
			// The enclosure is ordinary data inside an unenclosed field
			r.appendRune(c)
		}
	case stateInQuotedField:
		if c == r.opts.Enclosure {
			r.state = stateQuoteInQuotedField
		} else {
			// Everything else is data, including the delimiter, "\n" and "\r"
			r.appendRune(c)
		}
	case stateQuoteInQuotedField:
		switch {
		case c == r.opts.Enclosure:
			// Doubled enclosure -> one literal enclosure character
			r.appendRune(c)
			r.state = stateInQuotedField
		case c == r.opts.Delimiter:
			r.flushField(stateNeutral)
		case c == '\n':
			r.flushField(stateEndOfRow)
		case c == '\r':
			// Carriage return after an enclosed field, discard
		default:
			// Data right after the closing enclosure continues the field literally
			r.appendRune(c)
			r.state = stateInField
		}
	case stateEndOfRow:
		// Unreachable, scanChunk stops once the row ends
	}
}

// flushField closes the pending field and records its bounds.
func (r *Reader) flushField(next scanState) {
	r.bounds = append(r.bounds, r.fieldStart, len(r.fieldBuf))
	r.fieldStart = len(r.fieldBuf)
	r.state = next
}

func (r *Reader) appendRune(c rune) {
	r.fieldBuf = utf8.AppendRune(r.fieldBuf, c)
}

// buildRow converts the recorded bounds to string views over fieldBuf.
// The strings share the buffer to avoid a per-field allocation,
// which is why Read invalidates the previous row.
func (r *Reader) buildRow() {
	for i := 0; i < len(r.bounds); i += 2 {
		start, end := r.bounds[i], r.bounds[i+1]
		if start == end {
			r.row = append(r.row, "")
			continue
		}
		r.row = append(r.row, unsafe.String(&r.fieldBuf[start], end-start))
	}
}
