// Package templates renders named notification templates into channel-ready
// content.
//
// A Template's fields are Field values: either a Literal or a Conditional
// whose branches are condition expressions evaluated against the variable
// bag ({{var}}, !{{var}}, {{var}} == "value"). Strings are interpolated with
// {{name}} and {{name|formatter}} placeholders; a missing variable renders as
// [name] so gaps stay visible in the output.
//
// Formatters: date, time, datetime, capitalize, uppercase, lowercase, number,
// currency and short.
//
//	reg := templates.DefaultRegistry()
//	tpl, err := reg.Get(ctx, "friend_request")
//	if err != nil {
//		return err
//	}
//	out := templates.NewRenderer().Render(ctx, tpl, templates.Vars{"senderName": "ana"})
//	// out.Title == "New Friend Request"
//
// Registries are explicit values; extra templates can be loaded from YAML
// with LoadFile and passed to NewRegistry or DefaultRegistry via
// WithTemplates.
package templates
