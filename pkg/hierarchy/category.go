package hierarchy

import "strings"

// FileCategory groups MIME types that share an icon.
type FileCategory string

const (
	CategoryImage       FileCategory = "image"
	CategoryDocument    FileCategory = "document"
	CategorySpreadsheet FileCategory = "spreadsheet"
	CategoryArchive     FileCategory = "archive"
	CategoryAudio       FileCategory = "audio"
	CategoryVideo       FileCategory = "video"
	CategoryGeneric     FileCategory = "generic"
)

var spreadsheetTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true, // xlsx
	"application/vnd.ms-excel": true, // xls
	"text/csv":                 true,
	"application/csv":          true,
}

var archiveTypes = map[string]bool{
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-rar-compressed": true,
	"application/vnd.rar":          true,
}

// CategoryForMIME resolves the icon category for a MIME type. First match wins.
func CategoryForMIME(mime string) FileCategory {
	mime = strings.ToLower(strings.TrimSpace(mime))
	// Drop parameters such as "; charset=utf-8"
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch {
	case strings.HasPrefix(mime, "image/"):
		return CategoryImage
	case mime == "application/pdf":
		return CategoryDocument
	case spreadsheetTypes[mime]:
		return CategorySpreadsheet
	case archiveTypes[mime]:
		return CategoryArchive
	case strings.HasPrefix(mime, "audio/"):
		return CategoryAudio
	case strings.HasPrefix(mime, "video/"):
		return CategoryVideo
	}
	return CategoryGeneric
}
