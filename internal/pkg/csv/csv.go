// Package csv provides the shared configuration of the CSV row reader and writer.
package csv

import "fmt"

const (
	NewlineLF Newline = iota + 1
	NewlineCRLF
	NewlineCustom
)

const (
	DefaultDelimiter = ','
	DefaultEnclosure = '"'
)

// Newline is the line terminator style written between output rows.
type Newline uint

// Options describe one CSV dialect.
// They are consumed by the reader/writer constructors and are immutable afterwards.
// The delimiter and the enclosure must differ, it is not validated,
// behavior of the reader and the writer is undefined if they coincide.
type Options struct {
	Delimiter rune
	Enclosure rune
	Newline   Newline
	// CustomNewline is the terminator written if Newline = NewlineCustom.
	CustomNewline string
}

// Default returns options for the most common dialect:
// comma delimiter, double-quote enclosure, LF line terminator.
func Default() Options {
	return Options{
		Delimiter: DefaultDelimiter,
		Enclosure: DefaultEnclosure,
		Newline:   NewlineLF,
	}
}

// Terminator returns the line terminator bytes selected by the options.
func (o Options) Terminator() string {
	switch o.Newline {
	case NewlineCRLF:
		return "\r\n"
	case NewlineCustom:
		return o.CustomNewline
	default:
		return "\n"
	}
}

func (n Newline) String() string {
	str, err := n.StringOrErr()
	if err != nil {
		panic(err)
	}
	return str
}

func (n Newline) StringOrErr() (string, error) {
	switch n {
	case NewlineLF:
		return "lf", nil
	case NewlineCRLF:
		return "crlf", nil
	case NewlineCustom:
		return "custom", nil
	default:
		return "", fmt.Errorf(`unexpected value "%v" for "newline"`, uint(n))
	}
}

func (n Newline) MarshalText() ([]byte, error) {
	str, err := n.StringOrErr()
	return []byte(str), err
}

func (n *Newline) UnmarshalText(b []byte) error {
	// Convert "newline" string value to numeric constant
	str := string(b)
	switch str {
	case "lf":
		*n = NewlineLF
	case "crlf":
		*n = NewlineCRLF
	case "custom":
		*n = NewlineCustom
	default:
		return fmt.Errorf(`unexpected value "%s" for "newline", use "lf", "crlf" or "custom"`, str)
	}

	return nil
}
