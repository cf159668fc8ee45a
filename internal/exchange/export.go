package exchange

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ytget/yt-queue/internal/model"
)

// DefaultExportName is the suggested base name of export files
const DefaultExportName = "yt-queue-export"

// txtSeparator ends each record in txt exports
var txtSeparator = strings.Repeat("-", 20)

var (
	// ErrNoFields is returned when an export selects no field
	ErrNoFields = errors.New("select at least one field")
	// ErrNoItems is returned when there is nothing to export
	ErrNoItems = errors.New("nothing to export")
)

// ExportFile writes items to path in the format given by its extension
func ExportFile(path string, items []model.QueueItem, fields []Field) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, format, items, fields)
}

// Write encodes the selected fields of items in format
func Write(w io.Writer, format Format, items []model.QueueItem, fields []Field) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	if len(items) == 0 {
		return ErrNoItems
	}

	switch format {
	case FormatTXT:
		return writeTXT(w, items, fields)
	case FormatCSV:
		return writeCSV(w, items, fields)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		return enc.Encode(records(items, fields))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(orderedRecords(items, fields)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func writeTXT(w io.Writer, items []model.QueueItem, fields []Field) error {
	var b strings.Builder
	for _, it := range items {
		for _, f := range fields {
			fmt.Fprintf(&b, "%s: %s\n", f.Label(), f.Value(it))
		}
		b.WriteString(txtSeparator + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCSV(w io.Writer, items []model.QueueItem, fields []Field) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = string(f)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, it := range items {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = f.Value(it)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// records keys each item by field name; encoding/json sorts map keys
func records(items []model.QueueItem, fields []Field) []map[string]string {
	out := make([]map[string]string, 0, len(items))
	for _, it := range items {
		rec := make(map[string]string, len(fields))
		for _, f := range fields {
			rec[string(f)] = f.Value(it)
		}
		out = append(out, rec)
	}
	return out
}

// orderedRecords keeps the field order of the selection in yaml output
func orderedRecords(items []model.QueueItem, fields []Field) []*yaml.Node {
	out := make([]*yaml.Node, 0, len(items))
	for _, it := range items {
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range fields {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: string(f)},
				&yaml.Node{Kind: yaml.ScalarNode, Value: f.Value(it), Style: yaml.DoubleQuotedStyle},
			)
		}
		out = append(out, n)
	}
	return out
}
