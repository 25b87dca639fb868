// internal/imaging/imaging_test.go
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func fixtureJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			// a diagonal gradient gives normalize() a real min/max spread to stretch
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) * 8)})
		}
	}
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode fixture JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocess_ProducesBinarizedGrayscaleJPEG(t *testing.T) {
	out, err := Preprocess(fixtureJPEG(t))
	if err != nil {
		t.Fatalf("Preprocess returned error: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Preprocess output did not decode as JPEG: %v", err)
	}

	bounds := decoded.Bounds()
	seenBlack, seenWhite := false, false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := decoded.At(x, y).RGBA()
			v := uint8(r >> 8)
			// JPEG is lossy, so allow slack around the two binarized poles
			// instead of requiring exact 0/255.
			if v < 40 {
				seenBlack = true
			}
			if v > 215 {
				seenWhite = true
			}
		}
	}
	if !seenBlack || !seenWhite {
		t.Errorf("expected output to contain both near-black and near-white pixels after thresholding, seenBlack=%v seenWhite=%v", seenBlack, seenWhite)
	}
}

func TestPreprocess_InvalidBufferReturnsError(t *testing.T) {
	_, err := Preprocess([]byte("not an image"))
	if err == nil {
		t.Fatal("expected an error decoding an invalid buffer")
	}
}

func TestNormalize_LeavesFlatImageUnchangedWithoutPanicking(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 100
	}
	normalize(gray) // max == min: must be a no-op, not a divide-by-zero panic
	for _, v := range gray.Pix {
		if v != 100 {
			t.Errorf("normalize mutated a flat image, got %d want 100", v)
		}
	}
}

func TestThreshold_SplitsAtLevel(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 127})
	gray.SetGray(1, 0, color.Gray{Y: 128})

	threshold(gray, 128)

	if gray.GrayAt(0, 0).Y != 0 {
		t.Errorf("pixel below threshold = %d, want 0", gray.GrayAt(0, 0).Y)
	}
	if gray.GrayAt(1, 0).Y != 255 {
		t.Errorf("pixel at threshold = %d, want 255", gray.GrayAt(1, 0).Y)
	}
}
