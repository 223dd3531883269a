package audience

import (
	"context"
	"iter"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
)

const (
	DefaultPreviewLimit = 10
	MaxPreviewLimit     = 100
	DefaultResolveLimit = 10000
	DefaultBatchSize    = 500
)

// DefaultSampleFields are the profile fields returned in a preview sample.
var DefaultSampleFields = []string{"_id", "name", "email", "studentProfile"}

// Options controls a single Resolve call.
type Options struct {
	// Preview returns a small sample of profiles instead of the id list.
	Preview bool
	Limit   int
	Skip    int
}

func (o Options) limit() int {
	if o.Preview {
		if o.Limit <= 0 {
			return DefaultPreviewLimit
		}
		return sanitizer.Clamp(o.Limit, 1, MaxPreviewLimit)
	}
	if o.Limit <= 0 {
		return DefaultResolveLimit
	}
	return o.Limit
}

func (o Options) skip() int {
	return max(o.Skip, 0)
}

// Result of resolving a filter. Total counts every match regardless of the
// page limit.
type Result struct {
	UserIDs []string         `json:"userIds"`
	Total   int64            `json:"total"`
	Sample  []map[string]any `json:"sample,omitempty"`
}

// Resolver turns a filter into the set of matching recipient ids.
type Resolver interface {
	Resolve(ctx context.Context, f Filter, opts Options) (Result, error)
	Batches(ctx context.Context, f Filter, size int) iter.Seq2[[]string, error]
}

type pageFunc func(ctx context.Context, skip, limit int) ([]string, error)

// batches pages through ids until a page comes back short. Iteration stops
// after the first error.
func batches(ctx context.Context, size int, page pageFunc) iter.Seq2[[]string, error] {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return func(yield func([]string, error) bool) {
		for skip := 0; ; skip += size {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			ids, err := page(ctx, skip, size)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(ids) > 0 && !yield(ids, nil) {
				return
			}
			if len(ids) < size {
				return
			}
		}
	}
}

// ResolverOption configures a resolver.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	sampleFields []string
	logger       *slog.Logger
}

// WithSampleFields overrides the fields projected into preview samples.
func WithSampleFields(fields ...string) ResolverOption {
	return func(c *resolverConfig) {
		if len(fields) > 0 {
			c.sampleFields = fields
		}
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(c *resolverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
