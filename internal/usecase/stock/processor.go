package stock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxAttempts = 5
	defaultBackoff     = 5 * time.Millisecond
)

type IntentResult struct {
	Intent   Intent
	Applied  bool
	Attempts int
	Err      error
}

// Processor applies intents against the ledger. Intents run concurrently; writes
// to the same sku are serialized through the store's version check and retried
// on conflict, so no delta is ever lost.
type Processor struct {
	store       ProductStore
	log         *zap.Logger
	maxAttempts int
	backoff     time.Duration
}

type ProcessorOption func(*Processor)

func WithMaxAttempts(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithBackoff(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.backoff = d }
}

func NewProcessor(store ProductStore, log *zap.Logger, opts ...ProcessorOption) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{
		store:       store,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs every intent and waits for all of them. Results keep the order
// of intents. A failing intent never stops the others.
func (p *Processor) Process(ctx context.Context, tenantID string, intents []Intent) []IntentResult {
	results := make([]IntentResult, len(intents))

	var g errgroup.Group
	for i, in := range intents {
		g.Go(func() error {
			results[i] = p.apply(ctx, tenantID, in)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Processor) apply(ctx context.Context, tenantID string, in Intent) IntentResult {
	res := IntentResult{Intent: in}
	if !in.TransactionType.Mutates() {
		return res
	}

	for res.Attempts < p.maxAttempts {
		res.Attempts++

		cur, err := p.store.FetchByID(ctx, tenantID, in.ProductSKU)
		if err != nil {
			res.Err = fmt.Errorf("fetch %s: %w", in.ProductSKU, err)
			break
		}

		next, changed := ApplyIntent(*cur, in)
		if !changed {
			p.log.Debug("intent matched no stock bucket",
				zap.String("tenant_id", tenantID),
				zap.String("sku", in.ProductSKU),
				zap.String("variant", in.VariantCode),
				zap.String("store", in.StoreCode))
			res.Err = nil
			return res
		}

		_, err = p.store.Update(ctx, tenantID, in.ProductSKU, next)
		if err == nil {
			res.Applied = true
			res.Err = nil
			return res
		}
		res.Err = fmt.Errorf("update %s: %w", in.ProductSKU, err)
		if !errors.Is(err, ErrVersionConflict) {
			break
		}

		p.log.Debug("stock write lost version race, retrying",
			zap.String("tenant_id", tenantID),
			zap.String("sku", in.ProductSKU),
			zap.Int("attempt", res.Attempts))
		if !p.sleep(ctx, res.Attempts) {
			res.Err = fmt.Errorf("update %s: %w", in.ProductSKU, ctx.Err())
			break
		}
	}

	if res.Err != nil {
		p.log.Warn("stock intent failed",
			zap.String("tenant_id", tenantID),
			zap.String("intent", in.String()),
			zap.Int("attempt", res.Attempts),
			zap.Error(res.Err))
	}
	return res
}

func (p *Processor) sleep(ctx context.Context, attempt int) bool {
	if p.backoff <= 0 {
		return ctx.Err() == nil
	}
	d := p.backoff*time.Duration(attempt) + time.Duration(rand.Int64N(int64(p.backoff)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Failed filters the results that did not apply.
func Failed(results []IntentResult) []IntentResult {
	var out []IntentResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
