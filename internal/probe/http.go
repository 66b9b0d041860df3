package probe

import (
	"context"
	"net/http"

	"github.com/backmassage/galleryscan/internal/naming"
)

// HTTPChecker probes http(s) URLs. Without verification it sends HEAD and
// falls back to GET when the server rejects HEAD (405, 501). With
// verification it always sends GET and decodes the start of the body.
type HTTPChecker struct {
	Client    *http.Client // nil uses http.DefaultClient
	UserAgent string
	Verify    bool
}

// Exists reports whether target answered 2xx (and decoded, with Verify).
func (h *HTTPChecker) Exists(ctx context.Context, target string) bool {
	if h.Verify {
		return h.fetchAndVerify(ctx, target)
	}
	status, ok := h.status(ctx, http.MethodHead, target)
	if !ok {
		return false
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status, ok = h.status(ctx, http.MethodGet, target)
		if !ok {
			return false
		}
	}
	return isSuccess(status)
}

func (h *HTTPChecker) status(ctx context.Context, method, target string) (int, bool) {
	resp, err := h.do(ctx, method, target)
	if err != nil {
		return 0, false
	}
	release(resp.Body)
	return resp.StatusCode, true
}

func (h *HTTPChecker) fetchAndVerify(ctx context.Context, target string) bool {
	resp, err := h.do(ctx, http.MethodGet, target)
	if err != nil {
		return false
	}
	defer release(resp.Body)
	if !isSuccess(resp.StatusCode) {
		return false
	}
	return Verify(resp.Body, naming.ExtOf(target))
}

func (h *HTTPChecker) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
