package audience

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryResolver resolves filters against an in-memory set of profiles.
// Each profile must carry an "_id".
type MemoryResolver struct {
	mu       sync.RWMutex
	profiles []map[string]any
	cfg      resolverConfig
}

func NewMemoryResolver(profiles []map[string]any, opts ...ResolverOption) *MemoryResolver {
	r := &MemoryResolver{cfg: resolverConfig{sampleFields: DefaultSampleFields}}
	for _, opt := range opts {
		opt(&r.cfg)
	}
	r.Add(profiles...)
	return r
}

// Add appends profiles, keeping them ordered by id.
func (r *MemoryResolver) Add(profiles ...map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = append(r.profiles, profiles...)
	slices.SortStableFunc(r.profiles, func(a, b map[string]any) int {
		return strings.Compare(profileID(a), profileID(b))
	})
}

func (r *MemoryResolver) Resolve(ctx context.Context, f Filter, opts Options) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	matches := r.matching(f)
	res := Result{Total: int64(len(matches)), UserIDs: []string{}}

	lo := min(opts.skip(), len(matches))
	hi := min(lo+opts.limit(), len(matches))
	for _, p := range matches[lo:hi] {
		res.UserIDs = append(res.UserIDs, profileID(p))
		if opts.Preview {
			res.Sample = append(res.Sample, r.project(p))
		}
	}
	return res, nil
}

func (r *MemoryResolver) Batches(ctx context.Context, f Filter, size int) iter.Seq2[[]string, error] {
	if err := f.Validate(); err != nil {
		return func(yield func([]string, error) bool) { yield(nil, err) }
	}
	return batches(ctx, size, func(_ context.Context, skip, limit int) ([]string, error) {
		matches := r.matching(f)
		lo := min(skip, len(matches))
		hi := min(lo+limit, len(matches))
		ids := make([]string, 0, hi-lo)
		for _, p := range matches[lo:hi] {
			ids = append(ids, profileID(p))
		}
		return ids, nil
	})
}

func (r *MemoryResolver) matching(f Filter) []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []map[string]any
	for _, p := range r.profiles {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *MemoryResolver) project(p map[string]any) map[string]any {
	out := make(map[string]any, len(r.cfg.sampleFields))
	for _, field := range r.cfg.sampleFields {
		if v, ok := p[field]; ok {
			out[field] = v
		}
	}
	return out
}

func profileID(p map[string]any) string {
	switch id := p["_id"].(type) {
	case string:
		return id
	case bson.ObjectID:
		return id.Hex()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
