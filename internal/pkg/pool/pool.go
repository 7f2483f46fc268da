// Package pool provides reusing of buffered and GZIP readers and writers to optimize memory usage.
package pool

import (
	"bufio"
	"io"
	"runtime"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/klauspost/pgzip"
)

// Pools hold reusable buffered writers and GZIP readers/writers.
// One Pools instance is configured per recoder and shared by all its runs.
type Pools struct {
	bufferWriters *sync.Pool
	gzipReaders   *sync.Pool
	gzipWriters   *sync.Pool
}

// New creates the pools.
// The bufferSize is the size of a plain output buffer, used when GZIP is disabled.
// The gzipBlocks value 0 means the number of CPU threads.
func New(bufferSize datasize.ByteSize, gzipLevel int, gzipBlockSize datasize.ByteSize, gzipBlocks int) *Pools {
	// Use threads count as default concurrency value
	if gzipBlocks == 0 {
		gzipBlocks = runtime.GOMAXPROCS(0)
	}

	return &Pools{
		bufferWriters: &sync.Pool{
			New: func() any {
				return bufio.NewWriterSize(nil, int(bufferSize.Bytes()))
			},
		},
		gzipReaders: &sync.Pool{
			New: func() any {
				return &pgzip.Reader{}
			},
		},
		gzipWriters: &sync.Pool{
			New: func() any {
				w, err := pgzip.NewWriterLevel(nil, gzipLevel)
				if err != nil {
					panic(err)
				}
				err = w.SetConcurrency(int(gzipBlockSize.Bytes()), gzipBlocks)
				if err != nil {
					panic(err)
				}
				return w
			},
		},
	}
}

// BufferedWriterTo gets a buffered writer from the pool.
func (p *Pools) BufferedWriterTo(w io.Writer) *bufio.Writer {
	out := p.bufferWriters.Get().(*bufio.Writer)
	out.Reset(w)
	return out
}

// PutBufferedWriter adds the writer back to the pool.
func (p *Pools) PutBufferedWriter(w *bufio.Writer) {
	p.bufferWriters.Put(w)
}

// GZIPReaderFrom gets a GZIP reader from the pool.
func (p *Pools) GZIPReaderFrom(r io.Reader) (out *pgzip.Reader, err error) {
	defer func() {
		if panicValue := recover(); panicValue != nil && err == nil {
			if panicErr, ok := panicValue.(error); ok {
				err = panicErr
			}
		}
	}()

	out = p.gzipReaders.Get().(*pgzip.Reader)
	if err := out.Reset(r); err != nil {
		return nil, err
	}

	return out, nil
}

// PutGZIPReader adds the reader back to the pool.
func (p *Pools) PutGZIPReader(r *pgzip.Reader) {
	p.gzipReaders.Put(r)
}

// GZIPWriterTo gets a GZIP writer from the pool.
func (p *Pools) GZIPWriterTo(w io.Writer) (out *pgzip.Writer, err error) {
	defer func() {
		if panicValue := recover(); panicValue != nil && err == nil {
			if panicErr, ok := panicValue.(error); ok {
				err = panicErr
			}
		}
	}()

	out = p.gzipWriters.Get().(*pgzip.Writer)
	out.Reset(w)

	return out, nil
}

// PutGZIPWriter adds the writer back to the pool.
func (p *Pools) PutGZIPWriter(w *pgzip.Writer) {
	p.gzipWriters.Put(w)
}
