package templates

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

const (
	DefaultTemplate         = "welcome"
	DefaultAdvancedTemplate = "dynamic_welcome"
)

// Registry holds templates by name. It is built once and read-only after
// construction, so it is safe for concurrent use.
type Registry struct {
	templates        map[string]Template
	fallback         string
	advancedFallback string
	logger           *slog.Logger
}

type RegistryOption func(*Registry)

// WithTemplates adds templates, replacing any with the same name.
func WithTemplates(tpls ...Template) RegistryOption {
	return func(r *Registry) {
		for _, t := range tpls {
			r.templates[t.Name] = t
		}
	}
}

// WithDefault sets the template used when a lookup misses.
func WithDefault(name string) RegistryOption {
	return func(r *Registry) { r.fallback = name }
}

// WithAdvancedDefault sets the fallback for advanced lookups.
func WithAdvancedDefault(name string) RegistryOption {
	return func(r *Registry) { r.advancedFallback = name }
}

func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

// NewRegistry builds a registry from options. It holds no templates unless
// WithTemplates is given; see DefaultRegistry for the built-in catalog.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		templates:        make(map[string]Template),
		fallback:         DefaultTemplate,
		advancedFallback: DefaultAdvancedTemplate,
		logger:           logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry returns a registry preloaded with the built-in catalog.
// Options are applied after it, so WithTemplates can override entries.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	return NewRegistry(append([]RegistryOption{WithTemplates(Builtin()...)}, opts...)...)
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) (Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Get returns the named template, falling back to the default template when
// it is unknown. The fallback is logged at warn level. ErrTemplateNotFound is
// returned only when the fallback is missing too.
func (r *Registry) Get(ctx context.Context, name string) (Template, error) {
	return r.get(ctx, name, r.fallback)
}

// GetAdvanced is Get with the advanced fallback.
func (r *Registry) GetAdvanced(ctx context.Context, name string) (Template, error) {
	return r.get(ctx, name, r.advancedFallback)
}

func (r *Registry) get(ctx context.Context, name, fallback string) (Template, error) {
	if t, ok := r.templates[name]; ok {
		return t, nil
	}
	t, ok := r.templates[fallback]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "unknown template, using fallback",
		logger.Template(name),
		slog.String("fallback", fallback),
	)
	return t, nil
}

// Names lists registered template names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
