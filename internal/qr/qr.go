// internal/qr/qr.go
package qr

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
)

// Decoded is one QR code found in a buffer.
type Decoded struct {
	Data     string
	Format   entities.QRFormat
	Location entities.QRLocation
}

// Decode scans buf for a single QR code, returning ok=false if none was
// found or the buffer could not be decoded as an image — both are
// recoverable conditions in the caller's step 3 (spec §4.5).
func Decode(buf []byte) (Decoded, bool) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return Decoded{}, false
	}

	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Decoded{}, false
	}

	reader := qrcode.NewQRCodeReader()
	result, err := reader.Decode(bitmap, nil)
	if err != nil {
		return Decoded{}, false
	}

	return Decoded{
		Data:     result.GetText(),
		Format:   Classify(result.GetText()),
		Location: boundingBox(result),
	}, true
}

func boundingBox(result *gozxing.Result) entities.QRLocation {
	points := result.GetResultPoints()
	if len(points) == 0 {
		return entities.QRLocation{}
	}
	minX, minY := points[0].GetX(), points[0].GetY()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.GetX() < minX {
			minX = p.GetX()
		}
		if p.GetX() > maxX {
			maxX = p.GetX()
		}
		if p.GetY() < minY {
			minY = p.GetY()
		}
		if p.GetY() > maxY {
			maxY = p.GetY()
		}
	}
	return entities.QRLocation{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}

// SelectFromBuffers implements spec §4.5 step 3's cross-buffer selection:
// warped is tried first and wins outright if it yields a code; preprocessed
// is only consulted when warped yielded none.
func SelectFromBuffers(warped, preprocessed []byte) (Decoded, bool) {
	if d, ok := Decode(warped); ok {
		return d, true
	}
	return Decode(preprocessed)
}

// Classify applies spec §4.5 step 3's classification rules to a decoded
// QR payload.
func Classify(data string) entities.QRFormat {
	if strings.Contains(data, "fn=") || strings.Contains(data, "&fn=") {
		return entities.QRFormatFiscal
	}
	if strings.Contains(data, "t=") && strings.Contains(data, "s=") && strings.Contains(data, "fp=") {
		return entities.QRFormatFiscal
	}
	if strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
		return entities.QRFormatURL
	}
	return entities.QRFormatUnknown
}
