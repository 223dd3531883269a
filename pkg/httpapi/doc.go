// Package httpapi exposes the notification and outreach services over HTTP.
//
// Requests are authenticated upstream; the proxy passes the caller through
// the X-User-ID, X-User-Model and X-User-Roles headers. Recipient routes
// live under /notifications and /me/outreach-messages and act on the
// caller's own records. Operator routes live under /admin and require one
// of the operator roles.
//
// Handlers are typed: Wrap binds the request with the given binders (JSONBody,
// Query, Path) into a struct and renders the returned Response. Every JSON
// body is an Envelope; errors map to status codes by their apperr kind:
//
//	validation      400 validation_error
//	not found       404 not_found
//	invalid state   409 invalid_state
//	delivery        502 delivery_failed
//	upstream        502 upstream_failed
//	anything else   500 internal_error
//
// Example:
//
//	h := httpapi.NewRouter(notificationSvc, outreachSvc,
//		httpapi.WithLogger(log),
//		httpapi.WithRoutes(func(r chi.Router) {
//			r.Handle("/metrics", promhttp.Handler())
//		}),
//	)
package httpapi
