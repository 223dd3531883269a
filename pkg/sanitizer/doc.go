// Package sanitizer provides small, stateless helpers for cleaning text,
// contact details and numbers before they are stored or rendered.
//
// Helpers compose with Apply and Compose:
//
//	clean := sanitizer.Compose(sanitizer.StripHTML, sanitizer.NormalizeWhitespace)
//	preview := sanitizer.Truncate(clean(body), 200, "...")
package sanitizer
