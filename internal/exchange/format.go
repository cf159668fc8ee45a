package exchange

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ytget/yt-queue/internal/model"
)

// Format is a file format understood by import and export
type Format string

const (
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the export formats in menu order
var Formats = []Format{FormatTXT, FormatJSON, FormatCSV, FormatYAML}

// ErrUnsupportedFormat is returned for files that are none of the known formats
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Unknown is written for fields without a value
const Unknown = "unknown"

// Field is an exportable attribute of a queue item
type Field string

const (
	FieldTitle        Field = "title"
	FieldURL          Field = "url"
	FieldFilesize     Field = "filesize"
	FieldViewCount    Field = "view_count"
	FieldUploadDate   Field = "upload_date"
	FieldQuality      Field = "quality"
	FieldDownloadPath Field = "download_path"
	FieldThumbnailURL Field = "thumbnail_url"
)

// Fields lists every exportable field in the order they are offered
var Fields = []Field{
	FieldTitle, FieldURL, FieldFilesize, FieldViewCount,
	FieldUploadDate, FieldQuality, FieldDownloadPath, FieldThumbnailURL,
}

// Label returns the human name of a field used in txt exports
func (f Field) Label() string {
	switch f {
	case FieldTitle:
		return "Title"
	case FieldURL:
		return "URL"
	case FieldFilesize:
		return "Size"
	case FieldViewCount:
		return "Views"
	case FieldUploadDate:
		return "Upload date"
	case FieldQuality:
		return "Quality"
	case FieldDownloadPath:
		return "Saved to"
	case FieldThumbnailURL:
		return "Thumbnail"
	}
	return string(f)
}

// Value returns the exported value of field for item
func (f Field) Value(item model.QueueItem) string {
	var v string
	switch f {
	case FieldTitle:
		v = item.GetDisplayTitle()
	case FieldURL:
		v = item.URL
	case FieldFilesize:
		v = item.TotalSize
	case FieldViewCount:
		if item.ViewCount > 0 {
			v = strconv.FormatInt(item.ViewCount, 10)
		}
	case FieldUploadDate:
		v = item.UploadDate
	case FieldQuality:
		v = item.FormatLabel()
	case FieldDownloadPath:
		v = item.Path()
	case FieldThumbnailURL:
		v = item.ThumbnailURL
	}
	if v == "" {
		return Unknown
	}
	return v
}

// FormatFromPath derives the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "txt", "text", "list":
		return FormatTXT, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// DetectFormat uses the extension when it is known and otherwise sniffs the
// content of the file
func DetectFormat(path string) (Format, error) {
	if f, err := FormatFromPath(path); err == nil {
		return f, nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect format of %s: %w", path, err)
	}
	switch {
	case mt.Is("application/json"):
		return FormatJSON, nil
	case mt.Is("text/csv"):
		return FormatCSV, nil
	case mt.Is("text/plain"):
		return FormatTXT, nil
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, path, mt.String())
}
