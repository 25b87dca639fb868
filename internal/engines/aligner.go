// internal/engines/aligner.go
package engines

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/stackvity/receipt-gateway/internal/domain"
	"go.uber.org/zap"
)

var _ ImageAligner = (*AlignerClient)(nil)

// AlignerClient calls the classical image aligner/preprocessor service
// over HTTP (spec §6).
type AlignerClient struct {
	t *transport
}

// NewAlignerClient creates a new AlignerClient instance.
func NewAlignerClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AlignerClient {
	return &AlignerClient{t: newTransport("aligner", baseURL, timeout, logger)}
}

type alignerResponse struct {
	Warped       string `json:"warped"`
	Preprocessed string `json:"preprocessed"`
}

// Align implements ImageAligner.
func (c *AlignerClient) Align(ctx context.Context, buf []byte, opts AlignOptions) (AlignResult, error) {
	query := url.Values{}
	query.Set("mode", string(opts.Mode))
	query.Set("aggressive", fmt.Sprintf("%t", opts.Aggressive))
	query.Set("apply_ocr_prep", fmt.Sprintf("%t", opts.ApplyOCRPrep))
	query.Set("simplify_percent", fmt.Sprintf("%g", opts.SimplifyPercent))

	respBody, err := c.t.postMultipart(ctx, "/api/v1/align", query, "image", "image.jpg", buf)
	if err != nil {
		return AlignResult{}, err
	}

	var parsed alignerResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return AlignResult{}, domain.NewInternalError("failed to decode aligner response", err)
	}

	warped, err := base64.StdEncoding.DecodeString(parsed.Warped)
	if err != nil {
		return AlignResult{}, domain.NewInternalError("failed to decode aligner warped payload", err)
	}
	preprocessed, err := base64.StdEncoding.DecodeString(parsed.Preprocessed)
	if err != nil {
		return AlignResult{}, domain.NewInternalError("failed to decode aligner preprocessed payload", err)
	}

	return AlignResult{Warped: warped, Preprocessed: preprocessed}, nil
}
