package templates

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
)

const (
	DefaultType     = "system"
	DefaultPriority = "normal"
	DefaultChannel  = "in_app"
)

// Render renders tpl with the default renderer.
func Render(ctx context.Context, tpl Template, vars Vars) Rendered {
	return defaultRenderer.Render(ctx, tpl, vars)
}

// Render turns a template and a variable bag into notification content. It
// never fails: missing variables render as [name] placeholders and are
// logged at debug level.
//
// Advanced templates drop actions whose condition is false and tag metadata
// with templateType "advanced". Static templates keep every action.
func (r *Renderer) Render(ctx context.Context, tpl Template, vars Vars) Rendered {
	var missing []string
	interp := func(s string) string {
		out, m := r.interpolate(s, vars)
		missing = append(missing, m...)
		return out
	}

	out := Rendered{
		Type:        tpl.Type,
		Title:       interp(tpl.Title.Eval(vars)),
		Message:     interp(tpl.Message.Eval(vars)),
		Priority:    strings.TrimSpace(interp(tpl.Priority.Eval(vars))),
		Channels:    sanitizer.DeduplicateStrings(tpl.Channels.Eval(vars)),
		SenderModel: tpl.SenderModel,
		Metadata:    map[string]any{},
		Snapshot: Snapshot{
			Name:      tpl.Name,
			Version:   tpl.Version,
			Variables: cloneVars(vars),
			Processed: tpl.Advanced,
		},
	}
	if out.Type == "" {
		out.Type = DefaultType
	}
	if out.Priority == "" {
		out.Priority = DefaultPriority
	}
	if len(out.Channels) == 0 {
		out.Channels = []string{DefaultChannel}
	}
	if tpl.Sender != "" {
		out.Sender = interp(tpl.Sender)
	}

	for _, a := range tpl.Actions.Eval(vars) {
		if tpl.Advanced && a.Condition != "" && !EvalCondition(a.Condition, vars) {
			continue
		}
		a.Label = interp(a.Label)
		a.URL = interp(a.URL)
		if a.Payload != nil {
			a.Payload = r.InterpolateValue(a.Payload, vars)
		}
		out.Actions = append(out.Actions, a)
	}

	if tpl.Navigation != nil {
		out.Metadata["navigation"] = r.InterpolateValue(tpl.Navigation, vars)
	}
	if extra, ok := vars["metadata"].(map[string]any); ok {
		maps.Copy(out.Metadata, extra)
	}
	if tpl.Advanced {
		out.Metadata["templateType"] = "advanced"
	}

	if len(missing) > 0 {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "template rendered with missing variables",
			logger.Template(tpl.Name),
			slog.Any("missing", sanitizer.DeduplicateStrings(missing)),
		)
	}
	return out
}
