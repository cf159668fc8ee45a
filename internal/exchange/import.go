package exchange

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoURLs is returned when an import file holds no usable URL
var ErrNoURLs = errors.New("file contains no valid URLs")

// ImportFile reads the URLs listed in path
func ImportFile(path string) ([]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	urls, err := ReadURLs(f, format)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return urls, nil
}

// ReadURLs extracts URLs from r. txt takes one URL per line, csv the first
// column, json and yaml a list of strings or of objects with a url key. Only
// values starting with http are kept; duplicates keep their first position.
func ReadURLs(r io.Reader, format Format) ([]string, error) {
	var raw []string
	var err error
	switch format {
	case FormatTXT:
		raw, err = readLines(r)
	case FormatCSV:
		raw, err = readCSV(r)
	case FormatJSON:
		raw, err = readDocument(r, json.Unmarshal)
	case FormatYAML:
		raw, err = readDocument(r, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if !strings.HasPrefix(u, "http") || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	return urls, nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

func readCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var out []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if len(rec) > 0 {
			out = append(out, rec[0])
		}
	}
}

func readDocument(r io.Reader, unmarshal func([]byte, any) error) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc []any
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("expected a list: %w", err)
	}
	out := make([]string, 0, len(doc))
	for _, entry := range doc {
		switch v := entry.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if u, ok := v["url"].(string); ok {
				out = append(out, u)
			}
		}
	}
	return out, nil
}
