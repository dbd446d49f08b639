package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/shengjiex98/pwcet-safety/utils"
)

// Header is the CSV column order.
var Header = []string{"window", "hits", "utilization", "confidence", "phase_count", "distribution"}

type Writer interface {
	Write(Record) error
	Flush() error
}

// NewWriter returns a writer for format "csv" or "json" ("jsonl" is accepted as an alias).
func NewWriter(format string, w io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case "csv":
		return NewCSVWriter(w), nil
	case "json", "jsonl":
		return NewJSONWriter(w), nil
	default:
		return nil, utils.ConfigErrorf("unknown output format %q", format)
	}
}

// CSVWriter writes the header before the first record, or on Flush if nothing was written.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (c *CSVWriter) writeHeader() error {
	if c.wroteHeader {
		return nil
	}
	c.wroteHeader = true
	return c.w.Write(Header)
}

func (c *CSVWriter) Write(r Record) error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	return c.w.Write([]string{
		strconv.Itoa(r.Window),
		strconv.Itoa(r.Hits),
		r.Utilization.String(),
		strconv.FormatFloat(r.Confidence, 'g', -1, 64),
		strconv.Itoa(r.PhaseCount),
		r.Distribution,
	})
}

func (c *CSVWriter) Flush() error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// JSONWriter writes one JSON object per line.
type JSONWriter struct {
	buf *bufio.Writer
	enc *json.Encoder
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	buf := bufio.NewWriter(w)
	return &JSONWriter{buf: buf, enc: json.NewEncoder(buf)}
}

func (j *JSONWriter) Write(r Record) error {
	return j.enc.Encode(r)
}

func (j *JSONWriter) Flush() error {
	return j.buf.Flush()
}
