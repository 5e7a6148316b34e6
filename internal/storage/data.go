package storage

import "strings"

// StoredResource describes one persisted resource.
type StoredResource struct {
	id       string
	path     string
	mimeType string
	size     int
}

func NewStoredResource(id string, path string, mimeType string, size int) StoredResource {
	return StoredResource{
		id:       id,
		path:     path,
		mimeType: mimeType,
		size:     size,
	}
}

func (s StoredResource) ID() string {
	return s.id
}

// Path is the file location for file-backed stores and empty otherwise.
func (s StoredResource) Path() string {
	return s.path
}

func (s StoredResource) MimeType() string {
	return s.mimeType
}

func (s StoredResource) Size() int {
	return s.size
}

var extensionsByMime = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/avif":    ".avif",
	"image/x-icon":  ".ico",
	"image/tiff":    ".tiff",
}

// ExtensionFor picks a file extension from the MIME type, falling back to
// the filename's extension and then to ".bin".
func ExtensionFor(mimeType string, filename string) string {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if ext, ok := extensionsByMime[mimeType]; ok {
		return ext
	}
	if i := strings.LastIndexByte(filename, '.'); i >= 0 && i < len(filename)-1 {
		ext := strings.ToLower(filename[i:])
		if len(ext) <= 6 && !strings.ContainsAny(ext, `/\`) {
			return ext
		}
	}
	return ".bin"
}
