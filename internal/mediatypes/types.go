package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the classified type of a file.
type FileType string

const (
	// FileTypeImage represents a standard raster image file.
	FileTypeImage FileType = "image"
	// FileTypeRaw represents a camera RAW file.
	FileTypeRaw FileType = "raw"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeDocument represents a document file.
	FileTypeDocument FileType = "document"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// SortField specifies which field to sort by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByName sorts results by filename.
	SortByName SortField = "name"
	// SortByDate sorts results by modification time.
	SortByDate SortField = "date"
	// SortBySize sorts results by file size.
	SortBySize SortField = "size"
	// SortByType sorts results by file type.
	SortByType SortField = "type"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "desc"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".jpe": true, ".jfif": true,
	".png": true, ".gif": true, ".bmp": true, ".webp": true,
	".svg": true, ".ico": true, ".tiff": true, ".tif": true,
	".heic": true, ".heif": true, ".avif": true,
	".ppm": true, ".pgm": true, ".pbm": true, ".pnm": true,
	".hdr": true, ".exr": true,
}

// RawExtensions maps file extensions to whether they are camera RAW formats.
// Covers the major camera vendors plus the generic .raw/.dng containers.
var RawExtensions = map[string]bool{
	".cr2": true, ".cr3": true, ".crw": true, // Canon
	".nef": true, ".nrw": true, // Nikon
	".arw": true, ".srf": true, ".sr2": true, // Sony
	".raf": true, // Fujifilm
	".orf": true, // Olympus
	".rw2": true, // Panasonic
	".pef": true, // Pentax
	".rwl": true, // Leica
	".iiq": true, // Phase One
	".3fr": true, // Hasselblad
	".x3f": true, // Sigma
	".kdc": true, ".dcr": true, // Kodak
	".srw": true, // Samsung
	".erf": true, // Epson
	".dng": true, ".raw": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".mpg": true, ".mpeg": true, ".3gp": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".vob": true,
	".ogv": true, ".mts": true, ".m2ts": true, ".ts": true,
	".mxf": true, ".divx": true, ".m2v": true,
}

// DocumentExtensions maps file extensions to whether they are document formats.
var DocumentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true,
	".xlsx": true, ".ppt": true, ".pptx": true, ".txt": true,
	".rtf": true,
}

// Classify returns the FileType for a path based on its extension.
func Classify(path string) FileType {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case RawExtensions[ext]:
		return FileTypeRaw
	case ImageExtensions[ext]:
		return FileTypeImage
	case VideoExtensions[ext]:
		return FileTypeVideo
	case DocumentExtensions[ext]:
		return FileTypeDocument
	default:
		return FileTypeOther
	}
}

// IsMedia reports whether the type has visual content a thumbnail can be
// decoded from (as opposed to placeholder-only types).
func IsMedia(t FileType) bool {
	return t == FileTypeImage || t == FileTypeRaw || t == FileTypeVideo
}
