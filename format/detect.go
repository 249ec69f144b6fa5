// Package format provides media-kind detection for the labtract library.
package format

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/tsawler/labtract/model"
)

// Detect determines the media kind from a filename extension.
// Returns MediaAuto for unrecognized extensions.
func Detect(filename string) model.MediaKind {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return model.MediaPDF
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return model.MediaImage
	default:
		return model.MediaAuto
	}
}

// DetectFromMagic checks leading magic bytes to determine the media kind.
// This is more reliable than extension-based detection and is what the
// preprocessor uses to resolve MediaAuto before branch selection.
// Returns MediaAuto if the kind cannot be determined.
func DetectFromMagic(data []byte) model.MediaKind {
	if len(data) < 4 {
		return model.MediaAuto
	}

	// PDF magic: %PDF
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return model.MediaPDF
	}

	// PNG magic: \x89PNG
	if bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}) {
		return model.MediaImage
	}

	// JPEG magic: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return model.MediaImage
	}

	// TIFF magic: II*\x00 (little-endian) or MM\x00* (big-endian)
	if bytes.HasPrefix(data, []byte{'I', 'I', 0x2A, 0x00}) ||
		bytes.HasPrefix(data, []byte{'M', 'M', 0x00, 0x2A}) {
		return model.MediaImage
	}

	// BMP magic: BM
	if data[0] == 'B' && data[1] == 'M' {
		return model.MediaImage
	}

	return model.MediaAuto
}
