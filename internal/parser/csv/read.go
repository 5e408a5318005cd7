// Package csv reads the tabular source file into a header row plus raw
// records. It is the opaque-source boundary of the pipeline: everything it
// produces is loosely typed strings, and all interpretation happens
// downstream in the sanitizer.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Options control CSV parsing behavior.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// TrimSpace trims edge whitespace from every field.
	TrimSpace bool
	// LazyQuotes is passed through to encoding/csv.
	LazyQuotes bool
	// Encoding selects the source byte encoding: "" or "utf-8" (auto with
	// windows-1252 fallback), "windows-1252", "latin-1".
	Encoding string
}

// DefaultOptions returns the options used for typical retail exports.
func DefaultOptions() Options {
	return Options{Comma: ',', TrimSpace: true}
}

// ReadFile reads the whole source file.
//
// Errors:
//   - Propagates open/read errors verbatim; the caller decides which are
//     fatal (a missing source file is, per the pipeline contract).
func ReadFile(path string, opt Options) (header []string, records [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Read(f, opt)
}

// Read parses CSV from r into a header row and raw records.
//
// Behavior:
//   - The UTF-8 BOM, if present, is stripped before the header is read.
//   - Ragged rows are tolerated (FieldsPerRecord=-1); short rows surface as
//     missing fields, which the sanitizer treats as nulls.
//   - Empty input yields an empty header and no records, not an error.
func Read(r io.Reader, opt Options) (header []string, records [][]string, err error) {
	dec, err := decodeReader(r, opt.Encoding)
	if err != nil {
		return nil, nil, err
	}

	comma := opt.Comma
	if comma == 0 {
		comma = ','
	}

	cr := csv.NewReader(dec)
	cr.Comma = comma
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return header, records, nil
		}
		if err != nil {
			return header, records, fmt.Errorf("csv read line %d: %w", line+1, err)
		}
		line++

		if opt.TrimSpace {
			for i, v := range rec {
				rec[i] = strings.TrimSpace(v)
			}
		}

		if header == nil {
			header = append([]string(nil), rec...)
			continue
		}
		records = append(records, append([]string(nil), rec...))
	}
}

// decodeReader wraps r so the CSV reader always sees UTF-8.
//
// With Encoding unset the input is sniffed: a UTF-8 BOM is stripped, valid
// UTF-8 passes through, and anything else is decoded as Windows-1252 (the
// usual culprit for spreadsheet exports with accented customer names).
func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		data = bytes.TrimPrefix(data, bomUTF8)
		if !utf8.Valid(data) {
			return decoded(data, charmap.Windows1252)
		}
		return bytes.NewReader(data), nil

	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil

	case "latin-1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil

	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", enc)
	}
}

func decoded(data []byte, cm *charmap.Charmap) (io.Reader, error) {
	var e encoding.Encoding = cm
	out, _, err := transform.Bytes(e.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("csv: decode %s: %w", cm, err)
	}
	return bytes.NewReader(out), nil
}
