package preprocess

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/labtract/format"
	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/ocr"
)

// ErrUnreadableDocument is returned when no usable text could be recognized
// in the document. It means "cannot extract", not "empty report".
var ErrUnreadableDocument = errors.New("preprocess: no readable text in document")

// Recognizer produces recognized lines from image bytes. Implementations
// must be safe for concurrent use; the preprocessor recognizes pages in
// parallel.
type Recognizer interface {
	RecognizeLines(image []byte) ([]ocr.Line, error)
}

// Config controls preprocessing.
type Config struct {
	// MinConfidence is the floor below which recognized lines are
	// discarded, in [0,1].
	MinConfidence float64
	// Budget caps the wall-clock time spent on recognition. Zero means
	// the caller's context is the only limit. Exceeding the budget aborts
	// with ErrUnreadableDocument rather than returning a partial result.
	Budget time.Duration
	// Enhance applies the contrast/sharpen chain before OCR.
	Enhance bool
	// Deskew estimates and corrects small page rotations before OCR.
	Deskew bool
	// Workers bounds concurrent page recognitions for multi-page input.
	Workers int
}

// DefaultConfig returns the default preprocessing configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.3,
		Budget:        30 * time.Second,
		Enhance:       true,
		Deskew:        true,
		Workers:       4,
	}
}

// Preprocessor converts documents into text lines.
type Preprocessor struct {
	cfg Config
	rec Recognizer
}

// New creates a Preprocessor backed by the default Tesseract recognizer.
func New(cfg Config) *Preprocessor {
	return NewWithRecognizer(cfg, TesseractRecognizer{})
}

// NewWithRecognizer creates a Preprocessor with a custom recognition
// backend.
func NewWithRecognizer(cfg Config, rec Recognizer) *Preprocessor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Preprocessor{cfg: cfg, rec: rec}
}

// Run converts one document into text lines in page-then-vertical order.
func (p *Preprocessor) Run(ctx context.Context, doc *model.Document) ([]model.TextLine, error) {
	if p.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Budget)
		defer cancel()
	}

	media := doc.Media
	if media == model.MediaAuto {
		media = format.DetectFromMagic(doc.Data)
	}

	var lines []model.TextLine
	var err error
	switch media {
	case model.MediaImage:
		lines, err = p.recognizePage(ctx, doc.Data, 0)
	case model.MediaPDF:
		lines, err = p.runPDF(ctx, doc.Data)
	default:
		return nil, fmt.Errorf("%w: unrecognized media", ErrUnreadableDocument)
	}
	if err != nil {
		return nil, err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.Confidence >= p.cfg.MinConfidence {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no lines above confidence %.2f", ErrUnreadableDocument, p.cfg.MinConfidence)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Page != kept[j].Page {
			return kept[i].Page < kept[j].Page
		}
		return kept[i].Y < kept[j].Y
	})
	return kept, nil
}

// recognizePage runs the image branch for one page: enhancement, deskew,
// then OCR, honoring the context deadline.
func (p *Preprocessor) recognizePage(ctx context.Context, data []byte, page int) ([]model.TextLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: recognition budget exceeded", ErrUnreadableDocument)
	}

	data = p.prepareImage(data)

	type result struct {
		lines []ocr.Line
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		lines, err := p.rec.RecognizeLines(data)
		ch <- result{lines: lines, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: recognition budget exceeded", ErrUnreadableDocument)
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("preprocess: recognition failed: %w", r.err)
		}
		lines := make([]model.TextLine, 0, len(r.lines))
		for _, l := range r.lines {
			lines = append(lines, model.TextLine{
				Text:       l.Text,
				Page:       page,
				Y:          float64(l.Top+l.Bottom) / 2,
				Confidence: l.Confidence,
			})
		}
		return lines, nil
	}
}

// runPDF reads the embedded text layer, falling back to OCR of the
// embedded page scans for PDFs with no extractable text.
func (p *Preprocessor) runPDF(ctx context.Context, data []byte) ([]model.TextLine, error) {
	lines, err := extractTextLayer(data)
	if err == nil && len(lines) > 0 {
		return lines, nil
	}

	scans := extractPageScans(data)
	if len(scans) == 0 {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
		}
		return nil, fmt.Errorf("%w: PDF has no text layer and no page scans", ErrUnreadableDocument)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	pageLines := make([][]model.TextLine, len(scans))
	for i, scan := range scans {
		i, scan := i, scan
		g.Go(func() error {
			recognized, err := p.recognizePage(ctx, scan, i)
			if err != nil {
				return err
			}
			pageLines[i] = recognized
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reassemble in page order regardless of completion order.
	var all []model.TextLine
	for _, pl := range pageLines {
		all = append(all, pl...)
	}
	return all, nil
}

// TesseractRecognizer is the default Recognizer, backed by the ocr package.
// A fresh OCR client is created per call; gosseract clients are not safe
// for concurrent use.
type TesseractRecognizer struct {
	// Language is a "+"-separated Tesseract language list. Empty means
	// the engine default (eng).
	Language string
}

// RecognizeLines implements Recognizer.
func (r TesseractRecognizer) RecognizeLines(image []byte) ([]ocr.Line, error) {
	client, err := ocr.New()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if r.Language != "" {
		if err := client.SetLanguage(r.Language); err != nil {
			return nil, err
		}
	}
	return client.RecognizeLines(image)
}
