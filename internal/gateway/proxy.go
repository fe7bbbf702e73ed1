package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/joao-fontenele/freshbasket/internal/identity"
)

// forwardedHeaders are copied from the client request to the upstream.
var forwardedHeaders = append([]string{"Content-Type", "Accept"}, identity.Headers...)

// ServiceProxy forwards requests to one upstream service.
type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// ForwardRequest sends r to path on the upstream, keeping its method, body,
// query string and identity headers.
func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, err
	}

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	return p.client.Do(req)
}
