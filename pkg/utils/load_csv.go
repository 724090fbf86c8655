// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingColumns is returned by Dataset.Project when a requested column
// is absent from the header.
var ErrMissingColumns = errors.New("missing columns")

// Dataset is a CSV file held in memory: a header and string cells.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// ReadDataset loads the CSV file at path. The first record is the header.
func ReadDataset(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()
	return ParseDataset(file)
}

// ParseDataset reads a CSV stream whose first record is the header.
func ParseDataset(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read() // Read the header
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("error reading CSV header: empty file")
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	ds := &Dataset{Header: headers}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row %d: %w", len(ds.Rows)+2, err)
		}
		ds.Rows = append(ds.Rows, record)
	}
	return ds, nil
}

// Index returns the position of column name, or -1.
func (d *Dataset) Index(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Drop removes column name from the header and every row. It reports
// whether the column was present.
func (d *Dataset) Drop(name string) bool {
	idx := d.Index(name)
	if idx < 0 {
		return false
	}
	d.Header = append(d.Header[:idx:idx], d.Header[idx+1:]...)
	for i, row := range d.Rows {
		if idx < len(row) {
			d.Rows[i] = append(row[:idx:idx], row[idx+1:]...)
		}
	}
	return true
}

// Project returns, for every row, the cells of cols in the given order.
func (d *Dataset) Project(cols []string) ([][]string, error) {
	idx := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		idx[i] = d.Index(c)
		if idx[i] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	out := make([][]string, len(d.Rows))
	for r, row := range d.Rows {
		cells := make([]string, len(idx))
		for i, j := range idx {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}
		out[r] = cells
	}
	return out, nil
}
