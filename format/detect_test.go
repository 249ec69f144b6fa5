package format

import (
	"testing"

	"github.com/tsawler/labtract/model"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     model.MediaKind
	}{
		{"report.pdf", model.MediaPDF},
		{"report.PDF", model.MediaPDF},
		{"scan.png", model.MediaImage},
		{"scan.jpg", model.MediaImage},
		{"scan.JPEG", model.MediaImage},
		{"scan.tiff", model.MediaImage},
		{"scan.bmp", model.MediaImage},
		{"report.docx", model.MediaAuto},
		{"noextension", model.MediaAuto},
	}

	for _, tt := range tests {
		got := Detect(tt.filename)
		if got != tt.want {
			t.Errorf("Detect(%q): Expected %v, got %v", tt.filename, tt.want, got)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want model.MediaKind
	}{
		{"pdf", []byte("%PDF-1.7\n"), model.MediaPDF},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, model.MediaImage},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, model.MediaImage},
		{"tiff le", []byte{'I', 'I', 0x2A, 0x00}, model.MediaImage},
		{"tiff be", []byte{'M', 'M', 0x00, 0x2A}, model.MediaImage},
		{"bmp", []byte{'B', 'M', 0x76, 0x01}, model.MediaImage},
		{"text", []byte("hello world"), model.MediaAuto},
		{"short", []byte{0x01}, model.MediaAuto},
		{"empty", nil, model.MediaAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFromMagic(tt.data)
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
