package purge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-cf-cache/internal/interfaces"
	"go-cf-cache/internal/metrics"
	"go-cf-cache/internal/scheduler"
)

// Batcher collects purge-by-URL requests per zone and sends them to
// Cloudflare in batches
type Batcher struct {
	purger        interfaces.Purger
	domain        string
	maxBatchSize  int
	flushInterval time.Duration
	logger        *zap.Logger

	mu      sync.Mutex
	pending map[string][]string            // zone -> urls in first-seen order
	seen    map[string]map[string]struct{} // zone -> queued urls

	sendTimeout time.Duration

	flusher *scheduler.Scheduler
}

// DefaultSendTimeout bounds a single purge request
const DefaultSendTimeout = 30 * time.Second

// NewBatcher creates a Batcher. URLs are rewritten to domain when it is set.
func NewBatcher(purger interfaces.Purger, domain string, maxBatchSize int, flushInterval time.Duration, logger *zap.Logger) *Batcher {
	if maxBatchSize <= 0 {
		maxBatchSize = 30
	}

	b := &Batcher{
		purger:        purger,
		domain:        domain,
		maxBatchSize:  maxBatchSize,
		flushInterval: flushInterval,
		logger:        logger,
		sendTimeout:   DefaultSendTimeout,
		pending:       make(map[string][]string),
		seen:          make(map[string]map[string]struct{}),
	}
	b.flusher = scheduler.New(flushInterval, func(ctx context.Context) {
		if err := b.Flush(ctx); err != nil {
			b.logger.Warn("Scheduled purge flush failed", zap.Error(err))
		}
	})
	return b
}

// SetSendTimeout bounds each purge request. Non-positive values are ignored.
func (b *Batcher) SetSendTimeout(d time.Duration) {
	if d > 0 {
		b.sendTimeout = d
	}
}

// Start begins periodic flushing
func (b *Batcher) Start() {
	b.flusher.Start()
	b.logger.Info("Purge batcher started",
		zap.Duration("flush_interval", b.flushInterval),
		zap.Int("max_batch_size", b.maxBatchSize))
}

// Stop halts periodic flushing and sends whatever is still queued. An
// in-flight scheduled flush completes before the final one runs.
func (b *Batcher) Stop(ctx context.Context) error {
	b.flusher.Stop()
	return b.Flush(ctx)
}

// Add rewrites and queues urls for zone, returning the rewritten URLs.
// A zone that reaches the batch size is sent immediately on the caller's goroutine.
func (b *Batcher) Add(ctx context.Context, zone string, urls ...string) []string {
	rewritten := RewriteURLs(urls, b.domain)
	if zone == "" || len(rewritten) == 0 {
		return rewritten
	}

	b.mu.Lock()
	seen, ok := b.seen[zone]
	if !ok {
		seen = make(map[string]struct{})
		b.seen[zone] = seen
	}

	queued := 0
	for _, u := range rewritten {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		b.pending[zone] = append(b.pending[zone], u)
		queued++
	}

	var full [][]string
	for len(b.pending[zone]) >= b.maxBatchSize {
		chunk := append([]string(nil), b.pending[zone][:b.maxBatchSize]...)
		full = append(full, chunk)
		b.pending[zone] = b.pending[zone][b.maxBatchSize:]
		for _, u := range chunk {
			delete(seen, u)
		}
	}
	if len(b.pending[zone]) == 0 {
		delete(b.pending, zone)
		delete(b.seen, zone)
	}
	b.mu.Unlock()

	metrics.RecordPurgeURLs("queued", queued)
	metrics.RecordPurgeURLs("duplicate", len(rewritten)-queued)

	for _, chunk := range full {
		_ = b.send(ctx, zone, chunk)
	}

	return rewritten
}

// Pending returns the number of URLs queued for zone
func (b *Batcher) Pending(zone string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending[zone])
}

// Flush sends every queued URL. Zones are flushed concurrently; failed
// batches are dropped and the first error is returned.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	pending := b.pending
	b.pending = make(map[string][]string)
	b.seen = make(map[string]map[string]struct{})
	b.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	var g errgroup.Group
	for zone, urls := range pending {
		zone, urls := zone, urls
		g.Go(func() error {
			var firstErr error
			for start := 0; start < len(urls); start += b.maxBatchSize {
				end := min(start+b.maxBatchSize, len(urls))
				if err := b.send(ctx, zone, urls[start:end]); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		})
	}
	return g.Wait()
}

// send issues one purge request. A batch holds URLs from many callers, so it
// is detached from ctx's cancellation and bounded by sendTimeout instead.
func (b *Batcher) send(ctx context.Context, zone string, urls []string) error {
	batchID := uuid.Must(uuid.NewV7()).String()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.sendTimeout)
	defer cancel()

	err := b.purger.PurgeByURL(sendCtx, zone, urls)
	metrics.RecordPurgeBatch(err == nil)
	if err != nil {
		b.logger.Error("Purge batch failed",
			zap.String("batch_id", batchID),
			zap.String("zone", zone),
			zap.Int("count", len(urls)),
			zap.Error(err))
		return fmt.Errorf("purge batch %s for zone %s: %w", batchID, zone, err)
	}

	b.logger.Debug("Purge batch sent",
		zap.String("batch_id", batchID),
		zap.String("zone", zone),
		zap.Int("count", len(urls)))
	return nil
}
