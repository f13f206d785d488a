// Package tabular reads and writes the CSV and XLSX tables that flow between build steps.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultChunkRows bounds the rows held in memory per chunk.
const DefaultChunkRows = 1_000_000

// CSVOptions configures the chunked CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	// SkipMalformed drops rows the CSV parser rejects instead of failing;
	// they are counted on the chunk and the reader.
	SkipMalformed bool
	TrimSpace  bool
	ChunkRows  int // rows per chunk; <= 0 uses DefaultChunkRows
	Limit      int // stop after this many data rows; 0 = no limit
}

// Chunk is one bounded batch of data rows. Offset is the zero-based index of
// the first row in the chunk among all data rows of the file.
type Chunk struct {
	Offset    int
	Rows      [][]string
	Malformed int
}

// ChunkReader yields a CSV file as bounded chunks of rows after consuming
// the header row.
type ChunkReader struct {
	reader    *csv.Reader
	header    Header
	opts      CSVOptions
	read      int
	malformed int
	done      bool
}

// NewChunkReader reads the header row from r and prepares chunked reads.
func NewChunkReader(r io.Reader, opts CSVOptions) (*ChunkReader, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	if opts.ChunkRows <= 0 {
		opts.ChunkRows = DefaultChunkRows
	}

	first, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty input, no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	return &ChunkReader{reader: reader, header: NewHeader(first), opts: opts}, nil
}

// Header returns the parsed header of the file.
func (c *ChunkReader) Header() Header { return c.header }

// Rows returns the number of data rows read so far.
func (c *ChunkReader) Rows() int { return c.read }

// Malformed returns the number of rows skipped under SkipMalformed.
func (c *ChunkReader) Malformed() int { return c.malformed }

// Next returns the next chunk, or io.EOF when the input (or the row limit)
// is exhausted. The final chunk may be shorter than ChunkRows.
func (c *ChunkReader) Next(ctx context.Context) (*Chunk, error) {
	if c.done {
		return nil, io.EOF
	}

	size := c.opts.ChunkRows
	if c.opts.Limit > 0 && c.opts.Limit-c.read < size {
		size = c.opts.Limit - c.read
	}

	chunk := &Chunk{Offset: c.read, Rows: make([][]string, 0, min(size, 4096))}
	for len(chunk.Rows) < size {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		record, err := c.reader.Read()
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if c.opts.SkipMalformed && errors.As(err, &perr) {
				chunk.Malformed++
				continue
			}
			return nil, eris.Wrapf(err, "csv: read row %d", c.read+len(chunk.Rows)+chunk.Malformed+1)
		}

		if c.opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}
		chunk.Rows = append(chunk.Rows, record)
	}

	c.read += len(chunk.Rows)
	c.malformed += chunk.Malformed
	if c.opts.Limit > 0 && c.read >= c.opts.Limit {
		c.done = true
	}

	if len(chunk.Rows) == 0 && chunk.Malformed == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

// ReadCSVFile reads a small lookup table fully into memory.
func ReadCSVFile(path string, opts CSVOptions) (Header, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(f, opts)
}

// ReadCSV reads every data row from r into memory, ignoring ChunkRows.
func ReadCSV(r io.Reader, opts CSVOptions) (Header, [][]string, error) {
	cr, err := NewChunkReader(r, opts)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for {
		chunk, err := cr.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, chunk.Rows...)
	}
	return cr.Header(), rows, nil
}
