// Package validator builds declarative input checks out of small Rule
// values and collects every failure into a ValidationErrors slice.
//
// Each rule pairs a Check func with a ValidationError carrying the field
// name, a human message and a translation key. Apply runs the rules and
// returns nil or the failures:
//
//	err := validator.Apply(
//	    validator.Required("name", a.Name),
//	    validator.MaxLen("name", a.Name, 200),
//	    validator.InList("priority", n.Priority, priorities),
//	)
//
// ValidationErrors matches apperr.ErrValidation under errors.Is, so callers
// can wrap it with a package sentinel and still have the HTTP layer map it
// to 400 and render the field messages.
//
// Rules are stateless; the package holds no globals.
package validator
