// internal/engines/transport.go
package engines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"go.uber.org/zap"
)

// retryableStatuses is the set of upstream statuses C1 retries, per
// spec §4.1.
var retryableStatuses = map[int]struct{}{
	http.StatusRequestTimeout:      {},
	http.StatusRequestEntityTooLarge: {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// transport is the shared stateless HTTP caller all three engine clients
// embed: uniform per-request timeout, up to 3 attempts on retryable
// statuses, exponential backoff capped at 10s (spec §4.1). It holds no
// per-request state, so a single instance is safe to share across workers.
type transport struct {
	name       string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

func newTransport(name, baseURL string, timeout time.Duration, logger *zap.Logger) *transport {
	return &transport{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger.Named(name),
	}
}

// postMultipart uploads fieldName=buf as a multipart form to path (with the
// given query parameters appended), retrying per the policy above, and
// returns the raw response body on a 2xx.
func (t *transport) postMultipart(ctx context.Context, path string, query url.Values, fieldName, filename string, buf []byte) ([]byte, error) {
	const operation = "engines.transport.postMultipart"

	targetURL := t.baseURL + path
	if len(query) > 0 {
		targetURL += "?" + query.Encode()
	}

	var body []byte
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.MaxInterval = 10 * time.Second
	boWithRetries := backoff.WithMaxRetries(bo, 2) // 3 total attempts

	attempt := 0
	op := func() error {
		attempt++
		reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()

		reqBody, contentType, err := buildMultipartBody(fieldName, filename, buf)
		if err != nil {
			return backoff.Permanent(domain.NewInternalError("failed to build multipart body", err))
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, targetURL, reqBody)
		if err != nil {
			return backoff.Permanent(domain.NewInternalError("failed to build engine request", err))
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := t.httpClient.Do(req)
		if err != nil {
			t.logger.Warn("engine call failed, will retry", zap.String("operation", operation), zap.Int("attempt", attempt), zap.Error(err))
			return domain.NewBackendTransientError(t.name, err)
		}
		defer resp.Body.Close()

		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return domain.NewBackendTransientError(t.name, readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body = respBody
			return nil
		}

		if _, retryable := retryableStatuses[resp.StatusCode]; retryable {
			t.logger.Warn("engine returned retryable status", zap.String("operation", operation), zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			return domain.NewBackendTransientError(t.name, fmt.Errorf("status %d", resp.StatusCode))
		}

		return backoff.Permanent(domain.NewBackendFatalError(t.name, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))))
	}

	if err := backoff.Retry(op, boWithRetries); err != nil {
		if perm, ok := err.(*backoff.PermanentError); ok {
			return nil, perm.Err
		}
		return nil, err
	}

	return body, nil
}

func buildMultipartBody(fieldName, filename string, buf []byte) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(buf); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
