// Package oauth holds the pieces shared by the vendor adapters: the outbound
// HTTP transport stack, the OAuth token endpoint client, and HTTP error
// classification.
package oauth

import (
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"
	"golang.org/x/time/rate"
)

// TransportOptions configures NewHTTPClient.
type TransportOptions struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration
	// RatePerSecond throttles outbound requests; zero disables throttling.
	RatePerSecond float64
	Burst         int
}

// NewHTTPClient builds the client shared by all vendor adapters. The stack,
// outermost first:
//  1. go-github-ratelimit (backs off when a server signals a rate limit window)
//  2. httpcache (ETag/Cache-Control conditional caching of GET lookups)
//  3. throttle (client-side token bucket)
//  4. http.DefaultTransport
func NewHTTPClient(opts TransportOptions) *http.Client {
	var base http.RoundTripper = http.DefaultTransport
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		base = NewThrottledTransport(base, rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst))
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = base

	client := github_ratelimit.NewClient(cacheTransport)
	client.Timeout = opts.Timeout
	return client
}

// ThrottledTransport delays each request until the limiter grants a token.
type ThrottledTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

// NewThrottledTransport wraps next with limiter.
func NewThrottledTransport(next http.RoundTripper, limiter *rate.Limiter) *ThrottledTransport {
	return &ThrottledTransport{limiter: limiter, next: next}
}

func (t *ThrottledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
