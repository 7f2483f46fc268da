// Package config provides recoding configuration.
package config

import (
	"time"
	"unicode/utf8"

	"github.com/c2h5oh/datasize"

	"github.com/simplecsv/recoder/internal/pkg/apperr"
	"github.com/simplecsv/recoder/internal/pkg/csv"
)

type ByteSize = datasize.ByteSize

type Config struct {
	// Input dialect, used if the input table has no dialect sidecar
	InputDelimiter string `json:"inputDelimiter" mapstructure:"input-delimiter" validate:"required"`
	InputEnclosure string `json:"inputEnclosure" mapstructure:"input-enclosure" validate:"required"`

	// Output dialect
	OutputDelimiter     string      `json:"outputDelimiter" mapstructure:"output-delimiter" validate:"required"`
	OutputEnclosure     string      `json:"outputEnclosure" mapstructure:"output-enclosure" validate:"required"`
	OutputNewline       csv.Newline `json:"outputNewline" mapstructure:"output-newline" validate:"required"`
	OutputCustomNewline string      `json:"outputCustomNewline" mapstructure:"output-custom-newline"` // if OutputNewline = NewlineCustom

	// GZIP configuration
	Gzip            bool              `json:"gzip" mapstructure:"gzip"`
	GzipLevel       int               `json:"gzipLevel" mapstructure:"gzip-level" validate:"min=1,max=9"`
	GzipConcurrency uint32            `json:"gzipConcurrency" mapstructure:"gzip-concurrency"` // 0 means auto = number of CPU threads
	GzipBlockSize   datasize.ByteSize `json:"gzipBlockSize" mapstructure:"gzip-block-size" validate:"min=32768"`

	// BufferSize of the output buffer, it is used if GZIP is disabled.
	// If Gzip is enabled, the total buffer size is GzipConcurrency * GzipBlockSize.
	BufferSize datasize.ByteSize `json:"bufferSize" mapstructure:"buffer-size" validate:"min=32768"`

	LogInterval LogIntervalConfig `json:"logInterval" mapstructure:",squash"`
}

// LogIntervalConfig configures the delay between progress log messages,
// it grows exponentially from Initial to Maximum.
type LogIntervalConfig struct {
	Multiplier float64       `json:"multiplier" mapstructure:"log-interval-multiplier" validate:"min=1"`
	Initial    time.Duration `json:"initial" mapstructure:"log-interval-initial" validate:"required"`
	Maximum    time.Duration `json:"maximum" mapstructure:"log-interval-maximum" validate:"required"`
}

func Default() Config {
	return Config{
		InputDelimiter:  string(csv.DefaultDelimiter),
		InputEnclosure:  string(csv.DefaultEnclosure),
		OutputDelimiter: string(csv.DefaultDelimiter),
		OutputEnclosure: string(csv.DefaultEnclosure),
		OutputNewline:   csv.NewlineLF,
		Gzip:            false,
		GzipLevel:       2,               // 1 - BestSpeed, 9 - BestCompression
		GzipConcurrency: 0,               // 0 = auto = number of CPU threads
		GzipBlockSize:   2 * datasize.MB, // so total buffer size is by default: GzipConcurrency (number of CPU threads) * GzipBlockSize
		BufferSize:      20 * datasize.MB,
		LogInterval: LogIntervalConfig{
			Multiplier: 1.5,
			Initial:    10 * time.Second,
			Maximum:    15 * time.Minute,
		},
	}
}

// InputOptions assembles the reader options from the configured input dialect.
func (c Config) InputOptions() (csv.Options, error) {
	delimiter, err := charValue(c.InputDelimiter, "input-delimiter")
	if err != nil {
		return csv.Options{}, err
	}
	enclosure, err := charValue(c.InputEnclosure, "input-enclosure")
	if err != nil {
		return csv.Options{}, err
	}
	return csv.Options{Delimiter: delimiter, Enclosure: enclosure, Newline: csv.NewlineLF}, nil
}

// OutputOptions assembles the writer options from the configured output dialect.
func (c Config) OutputOptions() (csv.Options, error) {
	delimiter, err := charValue(c.OutputDelimiter, "output-delimiter")
	if err != nil {
		return csv.Options{}, err
	}
	enclosure, err := charValue(c.OutputEnclosure, "output-enclosure")
	if err != nil {
		return csv.Options{}, err
	}
	return csv.Options{
		Delimiter:     delimiter,
		Enclosure:     enclosure,
		Newline:       c.OutputNewline,
		CustomNewline: c.OutputCustomNewline,
	}, nil
}

func charValue(value string, flag string) (rune, error) {
	if utf8.RuneCountInString(value) != 1 {
		return 0, apperr.UserErrorf(`unexpected length "%d" of the "%s" value. Expected 1 char`, len(value), flag)
	}
	c, _ := utf8.DecodeRuneInString(value)
	return c, nil
}
