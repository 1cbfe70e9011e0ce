package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
)

// StaticProvider serves exchange rates from an in-memory table. Used for
// tests and for deployments with operator-pinned rates.
type StaticProvider struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewStaticProvider creates a provider seeded with the given rates, keyed
// "FROM/TO".
func NewStaticProvider(seed map[string]decimal.Decimal) *StaticProvider {
	rates := make(map[string]decimal.Decimal, len(seed))
	for pair, rate := range seed {
		rates[pair] = rate
	}

	return &StaticProvider{rates: rates}
}

// Rate resolves a pair, falling back to the inverse pair when only the
// opposite direction is seeded.
func (p *StaticProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if rate, ok := p.rates[from+"/"+to]; ok {
		return rate, nil
	}

	if inverse, ok := p.rates[to+"/"+from]; ok && inverse.IsPositive() {
		return decimal.NewFromInt(1).DivRound(inverse, 12), nil
	}

	return decimal.Zero, fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, from, to)
}

// SetRate pins a rate for a pair.
func (p *StaticProvider) SetRate(from, to string, rate decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rates[from+"/"+to] = rate
}

// HTTPProvider fetches rates from an external rate service. Lookups are
// retried with exponential backoff before surfacing ErrRateUnavailable;
// the caller never guesses a rate.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a new HTTPProvider.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type rateResponse struct {
	Rate string `json:"rate"`
}

// Rate fetches the rate for a currency pair.
func (p *HTTPProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	var rate decimal.Decimal

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	err := backoff.Retry(func() error {
		fetched, err := p.fetch(ctx, from, to)
		if err != nil {
			return err
		}
		rate = fetched
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", domain.ErrRateUnavailable, from, to, err)
	}

	return rate, nil
}

func (p *HTTPProvider) fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/rates?from=%s&to=%s", p.baseURL, url.QueryEscape(from), url.QueryEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, backoff.Permanent(err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, backoff.Permanent(fmt.Errorf("no rate for pair"))
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate service returned %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}

	rate, err := decimal.NewFromString(body.Rate)
	if err != nil {
		return decimal.Zero, backoff.Permanent(err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, backoff.Permanent(fmt.Errorf("non-positive rate %s", body.Rate))
	}

	return rate, nil
}
