package preprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/ocr"
)

// fakeRecognizer returns canned lines, optionally after a delay.
type fakeRecognizer struct {
	lines []ocr.Line
	err   error
	delay time.Duration
}

func (f fakeRecognizer) RecognizeLines(_ []byte) ([]ocr.Line, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.lines, f.err
}

func testConfig() Config {
	cfg := DefaultConfig()
	// Image decoding is irrelevant for fake-backed tests.
	cfg.Enhance = false
	cfg.Deskew = false
	return cfg
}

func imageDoc(data []byte) *model.Document {
	return model.NewDocument(data, model.MediaImage, model.ReportCBC)
}

func TestRunKeepsOrderAndConfidence(t *testing.T) {
	rec := fakeRecognizer{lines: []ocr.Line{
		{Text: "Hemoglobin 13.5", Confidence: 0.9, Top: 100, Bottom: 120},
		{Text: "smudge", Confidence: 0.1, Top: 40, Bottom: 60},
		{Text: "Patient Name", Confidence: 0.8, Top: 10, Bottom: 30},
	}}

	p := NewWithRecognizer(testConfig(), rec)
	lines, err := p.Run(context.Background(), imageDoc([]byte("img")))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The smudge falls below the 0.3 floor; survivors sort by Y.
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "Patient Name" || lines[1].Text != "Hemoglobin 13.5" {
		t.Errorf("Expected vertical ordering, got %q then %q", lines[0].Text, lines[1].Text)
	}
	if lines[1].Y != 110 {
		t.Errorf("Expected Y midpoint 110, got %v", lines[1].Y)
	}
}

func TestRunUnreadableWhenAllBelowFloor(t *testing.T) {
	rec := fakeRecognizer{lines: []ocr.Line{
		{Text: "noise", Confidence: 0.05},
		{Text: "more noise", Confidence: 0.2},
	}}

	p := NewWithRecognizer(testConfig(), rec)
	_, err := p.Run(context.Background(), imageDoc([]byte("img")))
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("Expected ErrUnreadableDocument, got: %v", err)
	}
}

func TestRunUnreadableWhenNoLines(t *testing.T) {
	p := NewWithRecognizer(testConfig(), fakeRecognizer{})
	_, err := p.Run(context.Background(), imageDoc([]byte("img")))
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("Expected ErrUnreadableDocument, got: %v", err)
	}
}

func TestRunBudgetExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Budget = 10 * time.Millisecond

	rec := fakeRecognizer{
		delay: 200 * time.Millisecond,
		lines: []ocr.Line{{Text: "Hemoglobin 13.5", Confidence: 0.9}},
	}

	p := NewWithRecognizer(cfg, rec)
	_, err := p.Run(context.Background(), imageDoc([]byte("img")))
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("Expected ErrUnreadableDocument on budget overrun, got: %v", err)
	}
}

func TestRunRecognizerErrorIsNotUnreadable(t *testing.T) {
	rec := fakeRecognizer{err: fmt.Errorf("engine exploded")}

	p := NewWithRecognizer(testConfig(), rec)
	_, err := p.Run(context.Background(), imageDoc([]byte("img")))
	if err == nil {
		t.Fatal("Expected an error")
	}
	if errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("Engine failures should not masquerade as unreadable documents: %v", err)
	}
}

func TestRunUnrecognizedMedia(t *testing.T) {
	p := NewWithRecognizer(testConfig(), fakeRecognizer{})
	doc := model.NewDocument([]byte("plain text, no magic"), model.MediaAuto, model.ReportCBC)
	_, err := p.Run(context.Background(), doc)
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("Expected ErrUnreadableDocument, got: %v", err)
	}
}

func TestRunAutoDetectsImage(t *testing.T) {
	rec := fakeRecognizer{lines: []ocr.Line{
		{Text: "Hemoglobin 13.5", Confidence: 0.9},
	}}

	p := NewWithRecognizer(testConfig(), rec)
	doc := model.NewDocument(encodeTestPNG(t), model.MediaAuto, model.ReportCBC)
	lines, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("Expected 1 line, got %d", len(lines))
	}
}

func TestRunPDFWithoutTextOrScans(t *testing.T) {
	p := NewWithRecognizer(testConfig(), fakeRecognizer{})
	doc := model.NewDocument([]byte("%PDF-1.4\nnot really a pdf"), model.MediaPDF, model.ReportCBC)
	_, err := p.Run(context.Background(), doc)
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("Expected ErrUnreadableDocument, got: %v", err)
	}
}

func TestExtractPageScans(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	doc := bytes.Join([][]byte{
		[]byte("%PDF-1.4\n1 0 obj\n<</Subtype /Image /Filter /DCTDecode /Length 10>>\nstream\n"),
		jpeg,
		[]byte("\nendstream\nendobj\n2 0 obj\n<</Filter /DCTDecode>>\nstream\n"),
		jpeg,
		[]byte("\nendstream\n%%EOF"),
	}, nil)

	scans := extractPageScans(doc)
	if len(scans) != 2 {
		t.Fatalf("Expected 2 page scans, got %d", len(scans))
	}
	for i, scan := range scans {
		if !bytes.Equal(scan, jpeg) {
			t.Errorf("Scan %d: Expected JPEG payload, got % x", i, scan)
		}
	}
}

func TestExtractPageScansIgnoresNonJPEG(t *testing.T) {
	doc := []byte("<</Filter /DCTDecode>>\nstream\nnot a jpeg\nendstream")
	if scans := extractPageScans(doc); len(scans) != 0 {
		t.Errorf("Expected no scans for non-JPEG payload, got %d", len(scans))
	}
}

func TestPrepareImagePassthroughOnDecodeFailure(t *testing.T) {
	cfg := DefaultConfig()
	p := NewWithRecognizer(cfg, fakeRecognizer{})

	data := []byte("definitely not an image")
	if got := p.prepareImage(data); !bytes.Equal(got, data) {
		t.Error("Expected undecodable bytes to pass through untouched")
	}
}

func TestPrepareImageProducesPNG(t *testing.T) {
	cfg := DefaultConfig()
	p := NewWithRecognizer(cfg, fakeRecognizer{})

	out := p.prepareImage(encodeTestPNG(t))
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("Expected PNG output, decode failed: %v", err)
	}
}

func TestEstimateSkewOnBlankImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.White)
		}
	}
	if angle := estimateSkew(img); angle != 0 {
		t.Errorf("Expected 0 skew for blank image, got %v", angle)
	}
}

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.White)
		}
	}
	// A horizontal dark band, like a text row.
	for x := 5; x < 55; x++ {
		for y := 18; y < 22; y++ {
			img.Set(x, y, color.Black)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
