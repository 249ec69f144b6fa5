// Package preprocess normalizes an input document into recognized text
// lines with positional metadata.
//
// Two input branches exist. Raster images are enhanced (grayscale,
// contrast, sharpening), deskewed, and handed to the OCR engine. PDFs are
// read through their embedded text layer when one exists; scanned PDFs
// without a text layer fall back to recovering the embedded page scans and
// running them through the image branch, one page at a time.
//
// The OCR engine sits behind the [Recognizer] interface, so the pipeline
// depends only on "given image bytes, produce lines"; the default
// implementation wraps the ocr package (Tesseract). Tests substitute fakes.
//
// Lines below the configured confidence floor are discarded. A document
// that yields no usable lines, or whose recognition exceeds the configured
// wall-clock budget, fails with [ErrUnreadableDocument]; no partial result
// is ever returned for a timed-out recognition.
package preprocess
