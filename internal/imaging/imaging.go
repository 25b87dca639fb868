// internal/imaging/imaging.go
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/png" // registers the PNG decoder used by image.Decode

	"github.com/stackvity/receipt-gateway/internal/domain"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// thresholdLevel is the binarization cutoff spec §4.5 step 2 names:
// grayscale -> normalize -> threshold at 128 -> JPEG.
const thresholdLevel = 128

// Preprocess degrades an original image buffer into the local
// grayscale/normalize/threshold/JPEG variant used when the aligner is
// unavailable (spec §4.5 step 2's degrade path).
func Preprocess(buf []byte) ([]byte, error) {
	img, _, err := decode(buf)
	if err != nil {
		return nil, domain.NewInternalError("failed to decode image for local preprocessing", err)
	}

	gray := toGrayscale(img)
	normalize(gray)
	threshold(gray, thresholdLevel)

	out := &bytes.Buffer{}
	if err := jpeg.Encode(out, gray, &jpeg.Options{Quality: 90}); err != nil {
		return nil, domain.NewInternalError("failed to encode preprocessed JPEG", err)
	}
	return out.Bytes(), nil
}

func decode(buf []byte) (image.Image, string, error) {
	if img, err := webp.Decode(bytes.NewReader(buf)); err == nil {
		return img, "webp", nil
	}
	return image.Decode(bytes.NewReader(buf))
}

func toGrayscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray
}

// normalize stretches the grayscale histogram to span the full [0,255]
// range, so a flat/underexposed receipt photo doesn't collapse entirely to
// one side of the threshold.
func normalize(gray *image.Gray) {
	bounds := gray.Bounds()
	min, max := uint8(255), uint8(0)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if max <= min {
		return
	}
	scale := 255.0 / float64(max-min)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			stretched := uint8(float64(v-min) * scale)
			gray.SetGray(x, y, color.Gray{Y: stretched})
		}
	}
}

func threshold(gray *image.Gray, level uint8) {
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y >= level {
				gray.SetGray(x, y, color.Gray{Y: 255})
			} else {
				gray.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
}
