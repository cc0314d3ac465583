package driven

import "net/http"

// HTTPClient is the subset of *http.Client the vendor adapters depend on.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
