// Package recoder provides recoding of a CSV table from one dialect to another.
package recoder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/simplecsv/recoder/internal/pkg/apperr"
	"github.com/simplecsv/recoder/internal/pkg/csv/rowreader"
	"github.com/simplecsv/recoder/internal/pkg/csv/rowwriter"
	"github.com/simplecsv/recoder/internal/pkg/dialect"
	"github.com/simplecsv/recoder/internal/pkg/log"
	"github.com/simplecsv/recoder/internal/pkg/pool"
	"github.com/simplecsv/recoder/internal/pkg/recoder/closer"
	"github.com/simplecsv/recoder/internal/pkg/recoder/config"
	"github.com/simplecsv/recoder/internal/pkg/recoder/progress"
	"github.com/simplecsv/recoder/internal/pkg/utils"
)

// Table defines one recoding: an input CSV table, an output CSV table
// and the dialects of both sides.
type Table struct {
	config.Config  `json:"config" mapstructure:",squash"`
	Name           string `json:"name" mapstructure:"table-name" validate:"required"`
	InPath         string `json:"inputPath" mapstructure:"table-input-path" validate:"required"`
	InDialectPath  string `json:"inputDialectPath" mapstructure:"table-input-dialect-path"`
	OutPath        string `json:"outputPath" mapstructure:"table-output-path" validate:"required"`
	OutDialectPath string `json:"outputDialectPath" mapstructure:"table-output-dialect-path"`
}

// Recode reads all rows of the input table and writes them in the output dialect.
func Recode(logger log.Logger, table Table) error {
	return recode(clock.New(), logger, table)
}

func recode(clk clock.Clock, logger log.Logger, table Table) (err error) {
	logger.Infof("Recoding table \"%s\".", table.Name)

	// Validate
	val := validator.New()
	if err := val.Struct(table); err != nil {
		return fmt.Errorf(`table definition is not valid: %w`, err)
	}

	// Input dialect: flags provide the default, the sidecar file, if any, takes precedence
	inOpts, err := table.InputOptions()
	if err != nil {
		return err
	}
	var inDialect *dialect.Dialect
	if table.InDialectPath != "" {
		if inDialect, err = dialect.Load(table.InDialectPath); err != nil {
			return err
		}
		if inDialect.Exists() {
			inOpts = inDialect.Options()
		}
	}

	// Output dialect comes from the flags only
	outOpts, err := table.OutputOptions()
	if err != nil {
		return err
	}

	// Get file size
	fileSize, err := utils.FileSize(table.InPath)
	if err != nil {
		return err
	}

	// Log progress while the input is consumed
	progressLogger := progress.NewLogger(clk, logger, table.LogInterval, fileSize, fmt.Sprintf(`Table "%s" recoding`, table.Name))
	defer func() {
		_ = progressLogger.Close()
	}()

	pools := pool.New(table.BufferSize, table.GzipLevel, table.GzipBlockSize, int(table.GzipConcurrency))

	// Open the input chain, closed in LIFO order
	var inClosers closer.Closers
	defer func() {
		if closeErr := inClosers.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	in, err := openInput(pools, table.InPath, progressLogger.NewMeter, &inClosers)
	if err != nil {
		return err
	}

	// Open the output chain.
	// It is closed explicitly before the summary, so the buffers are flushed,
	// the deferred close only covers the error paths.
	var outClosers closer.Closers
	outClosed := false
	defer func() {
		if !outClosed {
			_ = outClosers.Close()
		}
	}()
	out, err := openOutput(pools, table, &outClosers)
	if err != nil {
		return err
	}

	// Read all rows from the input table and write them in the output dialect
	reader := rowreader.WithOptions(in, inOpts)
	writer := rowwriter.WithOptions(out, outOpts)
	rows := uint64(0)
	for reader.Read() {
		if err := writer.Write(reader.Row()); err != nil {
			return fmt.Errorf("cannot write row to \"%s\": %w", table.OutPath, err)
		}
		rows++
	}

	// Check if no error
	if reader.Err() != nil {
		return fmt.Errorf("error when reading CSV \"%s\": %w", table.InPath, reader.Err())
	}

	// Flush and close the output
	if err := outClosers.Close(); err != nil {
		return err
	}
	outClosed = true

	// Write the output dialect sidecar, it is a copy of the input sidecar
	// with the dialect keys set to the output values
	if table.OutDialectPath != "" {
		outDialect := inDialect
		if outDialect == nil {
			outDialect = dialect.New()
		}
		outDialect.SetDelimiter(outOpts.Delimiter)
		outDialect.SetEnclosure(outOpts.Enclosure)
		outDialect.SetNewline(outOpts.Newline)
		if err := outDialect.WriteTo(table.OutDialectPath); err != nil {
			return err
		}
	}

	// Log info
	written, err := utils.FileSize(table.OutPath)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf(
		"Table \"%s\" recoded, %s rows, %s read, %s written",
		table.Name,
		humanize.Comma(int64(rows)),
		humanize.IBytes(fileSize.Bytes()),
		humanize.IBytes(written.Bytes()),
	)

	switch {
	case table.OutDialectPath == "":
		msg += "."
	case inDialect == nil || !inDialect.Exists():
		msg += ", dialect file created."
	default:
		msg += ", dialect file updated."
	}

	logger.Info(msg)
	return nil
}

// openInput opens the input file.
// The progress meter measures the raw file bytes, so with a compressed input
// the progress tracks the compressed stream.
func openInput(pools *pool.Pools, path string, meter func(io.Reader) io.Reader, closers *closer.Closers) (io.Reader, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	closers.Append(func() error {
		return file.Close()
	})

	in := meter(file)

	// Add decompression
	if strings.HasSuffix(path, apperr.GzipFileExtension) {
		gzipReader, err := pools.GZIPReaderFrom(in)
		if err != nil {
			return nil, fmt.Errorf("cannot create gzip reader: %w", err)
		}
		closers.
			Append(func() error {
				pools.PutGZIPReader(gzipReader)
				return nil
			}).
			Append(func() error {
				return gzipReader.Close()
			})
		in = gzipReader
	}

	return in, nil
}

func openOutput(pools *pool.Pools, table Table, closers *closer.Closers) (io.Writer, error) {
	file, err := os.OpenFile(table.OutPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, apperr.NewFilePermissions)
	if err != nil {
		return nil, err
	}
	closers.Append(func() error {
		return file.Close()
	})

	// Add gzip compression
	if table.Gzip {
		gzipWriter, err := pools.GZIPWriterTo(file)
		if err != nil {
			return nil, fmt.Errorf("cannot create gzip writer: %w", err)
		}
		closers.
			Append(func() error {
				pools.PutGZIPWriter(gzipWriter)
				return nil
			}).
			Append(func() error {
				return gzipWriter.Close()
			})
		return gzipWriter, nil
	}

	bufferWriter := pools.BufferedWriterTo(file)
	closers.
		Append(func() error {
			pools.PutBufferedWriter(bufferWriter)
			return nil
		}).
		Append(func() error {
			return bufferWriter.Flush()
		})
	return bufferWriter, nil
}
