package templates

import (
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

var placeholderRegex = regexp.MustCompile(`\{\{(\w+)(?:\|(\w+))?\}\}`)

// Renderer interpolates strings and renders templates. The zero value is not
// usable; create one with NewRenderer.
type Renderer struct {
	location *time.Location
	language language.Tag
	logger   *slog.Logger
}

type RendererOption func(*Renderer)

// WithLocation sets the zone for date and time formatters. Default UTC.
func WithLocation(loc *time.Location) RendererOption {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithLanguage sets the locale for the number formatter. Default English.
func WithLanguage(tag language.Tag) RendererOption {
	return func(r *Renderer) {
		r.language = tag
	}
}

func WithRendererLogger(log *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if log != nil {
			r.logger = log
		}
	}
}

func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		location: time.UTC,
		language: language.English,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = NewRenderer()

// Interpolate renders s with the default renderer.
func Interpolate(s string, vars Vars) string {
	return defaultRenderer.Interpolate(s, vars)
}

// InterpolateValue deep-interpolates v with the default renderer.
func InterpolateValue(v any, vars Vars) any {
	return defaultRenderer.InterpolateValue(v, vars)
}

// Interpolate replaces {{name}} and {{name|formatter}} placeholders. Missing
// or nil variables render as [name].
func (r *Renderer) Interpolate(s string, vars Vars) string {
	out, _ := r.interpolate(s, vars)
	return out
}

func (r *Renderer) interpolate(s string, vars Vars) (string, []string) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	var missing []string
	out := placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderRegex.FindStringSubmatch(match)
		key, formatter := groups[1], groups[2]
		v, ok := vars[key]
		if !ok || v == nil {
			missing = append(missing, key)
			return "[" + key + "]"
		}
		if formatter != "" {
			return r.format(v, formatter)
		}
		return stringify(v)
	})
	return out, missing
}

// InterpolateValue returns a copy of v with every string leaf of nested maps
// and slices interpolated. Named map and slice types come back as
// map[string]any and []any. Other values are returned as is.
func (r *Renderer) InterpolateValue(v any, vars Vars) any {
	switch x := v.(type) {
	case string:
		return r.Interpolate(x, vars)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = r.InterpolateValue(item, vars)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = r.InterpolateValue(item, vars)
		}
		return out
	case []string:
		out := make([]string, len(x))
		for i, item := range x {
			out[i] = r.Interpolate(item, vars)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(x))
		for k, item := range x {
			out[k] = r.Interpolate(item, vars)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = r.InterpolateValue(iter.Value().Interface(), vars)
		}
		return out
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = r.InterpolateValue(rv.Index(i).Interface(), vars)
		}
		return out
	}
	return v
}
