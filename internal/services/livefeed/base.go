package livefeed

import (
	"context"
	"fmt"
	"strings"

	"MandiPulse/internal/domain/models"
	xhttp "MandiPulse/pkg/http"
)

// Source is one external live price feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context, commodity string) ([]models.PriceRecord, error)
}

// httpBase holds the upstream base URL and the shared JSON client.
type httpBase struct {
	baseURL string
	client  *xhttp.Client
}

func newHTTPBase(baseURL string, client *xhttp.Client) httpBase {
	if client == nil {
		client = xhttp.NewClient()
	}
	return httpBase{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// getJSON issues GET baseURL+path and decodes the body into dest.
func (b httpBase) getJSON(ctx context.Context, path string, query map[string][]string, headers map[string]string, dest interface{}) error {
	if b.baseURL == "" {
		return fmt.Errorf("base url not configured")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
		Headers:     headers,
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}
