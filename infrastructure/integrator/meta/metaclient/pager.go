package metaclient

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	metadomain "github.com/vfg2006/ads-sync/infrastructure/integrator/meta/domain"
)

// Pager walks a paged Graph edge lazily, one request per Next call. It stops
// at the first page without paging.next or at the first error.
type Pager struct {
	client  *MetaClient
	nextURL string
	retry   bool
	records []jsoniter.RawMessage
	pages   int
	err     error
}

func newPager(client *MetaClient, firstURL string, retry bool) *Pager {
	return &Pager{client: client, nextURL: firstURL, retry: retry}
}

// Next fetches the following page. It returns false once the edge is
// exhausted or a request failed; check Err to tell them apart.
func (p *Pager) Next(ctx context.Context) bool {
	if p.err != nil || p.nextURL == "" {
		return false
	}

	var (
		body []byte
		err  error
	)
	if p.retry {
		body, err = p.client.getWithRetry(ctx, p.nextURL)
	} else {
		body, err = p.client.get(ctx, p.nextURL)
	}
	if err != nil {
		p.err = err
		p.records = nil
		return false
	}

	var page metadomain.Page
	if err := json.Unmarshal(body, &page); err != nil {
		p.err = fmt.Errorf("decoding page %d: %w", p.pages+1, err)
		p.records = nil
		return false
	}

	p.pages++
	p.records = page.Data
	p.nextURL = page.Paging.Next

	return true
}

// Records returns the raw records of the current page
func (p *Pager) Records() []jsoniter.RawMessage {
	return p.records
}

func (p *Pager) Err() error {
	return p.err
}

// Pages is the number of pages fetched so far
func (p *Pager) Pages() int {
	return p.pages
}
