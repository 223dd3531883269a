// Package apperr defines the error kinds shared by the notification,
// audience and outreach packages.
//
// Packages declare their own sentinel errors that wrap one of the kinds
// below, so callers can branch on the kind with errors.Is without knowing
// every package-specific sentinel:
//
//	if apperr.IsNotFound(err) {
//		// respond with 404
//	}
//
// Kinds:
//
//   - ErrValidation: malformed input, never retried
//   - ErrNotFound: missing entity or ownership mismatch
//   - ErrState: operation not allowed in the current state
//   - ErrChannelDelivery: a single channel adapter failed; never surfaced by dispatch
//   - ErrStore: persistence failure, always propagated
package apperr
