// internal/engines/paddleocr.go
package engines

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stackvity/receipt-gateway/internal/domain"
	"go.uber.org/zap"
)

var _ TextRecognizer = (*PaddleOCRClient)(nil)

// PaddleOCRClient calls the PaddleOCR-based OCR service over HTTP.
type PaddleOCRClient struct {
	t *transport
}

// NewPaddleOCRClient creates a new PaddleOCRClient instance.
func NewPaddleOCRClient(baseURL string, timeout time.Duration, logger *zap.Logger) *PaddleOCRClient {
	return &PaddleOCRClient{t: newTransport("paddleocr", baseURL, timeout, logger)}
}

// Recognize implements TextRecognizer.
func (c *PaddleOCRClient) Recognize(ctx context.Context, buf []byte) (RecognizeResult, error) {
	respBody, err := c.t.postMultipart(ctx, "/api/v1/recognize", nil, "file", "image.jpg", buf)
	if err != nil {
		return RecognizeResult{}, err
	}

	var parsed ocrResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return RecognizeResult{}, domain.NewInternalError("failed to decode paddleocr response", err)
	}

	return RecognizeResult{Text: parsed.Text, Confidence: parsed.Confidence}, nil
}
