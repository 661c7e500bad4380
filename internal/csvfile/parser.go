// Package csvfile reads the daily visitor export into header-keyed records.
package csvfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/Veraticus/visitor-sync/internal/model"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// ParseFile parses the CSV file at path.
func ParseFile(path string) ([]model.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", common.ErrParse, path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	records, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse reads comma-separated input whose first row is the header. Every
// following row becomes a record mapping trimmed header names to trimmed
// values. Rows with a different field count than the header are an error.
// A leading UTF-8 byte order mark is skipped.
func Parse(r io.Reader) ([]model.Record, error) {
	buffered := bufio.NewReader(r)
	if prefix, err := buffered.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = buffered.Discard(len(byteOrderMark))
	}

	reader := csv.NewReader(buffered)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", common.ErrParse, err)
	}

	for i, header := range headers {
		headers[i] = strings.TrimSpace(header)
	}

	records := make([]model.Record, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
		}

		record := make(model.Record, len(headers))
		for i, header := range headers {
			record[header] = strings.TrimSpace(row[i])
		}
		records = append(records, record)
	}

	return records, nil
}
