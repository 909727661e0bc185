package extract

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// API payload limits. Oversized sources fail the item, not the batch.
const (
	maxImageBytes = int64(4_500_000) // API caps images near 5MB; stay under
	maxPDFBytes   = int64(10_000_000)
)

// mediaTypes maps file extensions to API media types.
var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// mediaTypeFor returns the media type for a source path, or an error for
// unsupported formats.
func mediaTypeFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mt, ok := mediaTypes[ext]
	if !ok {
		return "", eris.Errorf("extract: unsupported source format %q", ext)
	}
	return mt, nil
}

// loadSource reads a source file, enforces the size limit for its media
// type, and returns the media type plus base64 payload.
func loadSource(path string) (mediaType, data string, err error) {
	mediaType, err = mediaTypeFor(path)
	if err != nil {
		return "", "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", "", eris.Wrapf(err, "extract: stat source %s", path)
	}

	limit := maxImageBytes
	if mediaType == "application/pdf" {
		limit = maxPDFBytes
	}
	if info.Size() > limit {
		return "", "", eris.Errorf("extract: source %s is %d bytes, over the %d byte limit", path, info.Size(), limit)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", eris.Wrapf(err, "extract: read source %s", path)
	}

	return mediaType, base64.StdEncoding.EncodeToString(raw), nil
}
