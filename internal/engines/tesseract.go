// internal/engines/tesseract.go
package engines

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/stackvity/receipt-gateway/internal/domain"
	"go.uber.org/zap"
)

var _ TextRecognizer = (*TesseractClient)(nil)

// DefaultTesseractLang is the multilingual model spec §4.1 defaults to when
// no lang override is supplied.
const DefaultTesseractLang = "rus+eng"

// TesseractClient calls the Tesseract-based OCR service over HTTP.
type TesseractClient struct {
	t    *transport
	lang string
}

// NewTesseractClient creates a new TesseractClient instance using
// DefaultTesseractLang.
func NewTesseractClient(baseURL string, timeout time.Duration, logger *zap.Logger) *TesseractClient {
	return &TesseractClient{t: newTransport("tesseract", baseURL, timeout, logger), lang: DefaultTesseractLang}
}

type ocrResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognize implements TextRecognizer.
func (c *TesseractClient) Recognize(ctx context.Context, buf []byte) (RecognizeResult, error) {
	query := url.Values{}
	query.Set("lang", c.lang)

	respBody, err := c.t.postMultipart(ctx, "/api/v1/recognize", query, "file", "image.jpg", buf)
	if err != nil {
		return RecognizeResult{}, err
	}

	var parsed ocrResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return RecognizeResult{}, domain.NewInternalError("failed to decode tesseract response", err)
	}

	return RecognizeResult{Text: parsed.Text, Confidence: parsed.Confidence}, nil
}
