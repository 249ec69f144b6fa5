package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	// Register decoders for the raster formats scanners produce.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const (
	// maxSkewDegrees bounds the rotation search; document scans are
	// rarely off by more than a few degrees.
	maxSkewDegrees = 5.0
	// skewStepDegrees is the search granularity.
	skewStepDegrees = 0.5
	// minSkewDegrees below which rotation is not worth the resampling.
	minSkewDegrees = 0.4
	// estimateWidth is the downscaled width used for skew estimation.
	estimateWidth = 256
)

// prepareImage decodes, deskews, and enhances an image, re-encoding it as
// PNG for the OCR engine. Bytes that fail to decode are passed through
// untouched; the engine may still handle them.
func (p *Preprocessor) prepareImage(data []byte) []byte {
	if !p.cfg.Enhance && !p.cfg.Deskew {
		return data
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	if p.cfg.Deskew {
		if angle := estimateSkew(img); math.Abs(angle) >= minSkewDegrees {
			img = imaging.Rotate(img, -angle, color.White)
		}
	}
	if p.cfg.Enhance {
		img = enhance(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return data
	}
	return buf.Bytes()
}

// enhance applies the standard document-scan cleanup chain.
func enhance(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)
	out = imaging.Sharpen(out, 1.0)
	return out
}

// estimateSkew returns the estimated rotation of the text baseline in
// degrees (positive = counter-clockwise). It scores candidate angles by
// the variance of the horizontal ink projection: correctly oriented text
// concentrates ink into sharp row bands, maximizing variance.
func estimateSkew(img image.Image) float64 {
	gray := downscaleGray(img, estimateWidth)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	// Collect dark pixels once.
	type pt struct{ x, y int }
	var ink []pt
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y < 128 {
				ink = append(ink, pt{x, y})
			}
		}
	}
	if len(ink) == 0 {
		return 0
	}

	bestAngle, bestScore := 0.0, -1.0
	for angle := -maxSkewDegrees; angle <= maxSkewDegrees; angle += skewStepDegrees {
		rad := angle * math.Pi / 180
		sin, cos := math.Sin(rad), math.Cos(rad)

		hist := make([]int, h+w)
		for _, p := range ink {
			row := int(float64(p.y)*cos - float64(p.x)*sin)
			row += w // offset so negative projections stay in range
			if row >= 0 && row < len(hist) {
				hist[row]++
			}
		}

		if score := variance(hist); score > bestScore {
			bestScore = score
			bestAngle = angle
		}
	}
	return bestAngle
}

func variance(hist []int) float64 {
	var sum float64
	for _, v := range hist {
		sum += float64(v)
	}
	mean := sum / float64(len(hist))

	var acc float64
	for _, v := range hist {
		d := float64(v) - mean
		acc += d * d
	}
	return acc / float64(len(hist))
}

// downscaleGray produces a small grayscale copy for estimation work.
func downscaleGray(img image.Image, targetWidth int) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	if w > targetWidth {
		h = h * targetWidth / w
		w = targetWidth
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
