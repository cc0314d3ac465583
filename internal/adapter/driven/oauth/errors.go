package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 4 << 10

// TransportError classifies a failure to obtain any response at all.
func TransportError(op string, svc model.ServiceName, err error) error {
	kind := model.KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = model.KindNetworkTimeout
	}
	return model.NewError(kind, op, err).WithService(svc)
}

// StatusError classifies a non-2xx API response. 401 means the access token
// was rejected; 429 is a rate limit; anything else is a network failure.
func StatusError(op string, svc model.ServiceName, resp *http.Response) error {
	body := readErrorBody(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return model.Errorf(model.KindTokenExpired, op, "status %d", resp.StatusCode).WithService(svc)
	case http.StatusTooManyRequests:
		return rateLimited(op, svc, resp, body)
	default:
		return model.Errorf(model.KindNetwork, op, "status %d: %s", resp.StatusCode, body).WithService(svc)
	}
}

func rateLimited(op string, svc model.ServiceName, resp *http.Response, body string) error {
	msg := fmt.Sprintf("status %d", resp.StatusCode)
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		msg += ", retry after " + ra + "s"
	}
	if body != "" {
		msg += ": " + body
	}
	return model.Errorf(model.KindRateLimited, op, "%s", msg).WithService(svc)
}

func readErrorBody(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return strings.TrimSpace(string(data))
}

// IsSuccess reports whether code is 2xx.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
