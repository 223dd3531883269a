// Package webhook delivers JSON events to subscriber endpoints.
//
// Sender retries temporary failures (network errors, timeouts, 5xx, 408, 425
// and 429) with a configurable Backoff and gives up immediately on other 4xx
// responses. When a signing secret is configured every request carries an
// X-Notifykit-Signature header of the form "t=<unix>,v1=<hex>", where the MAC
// is HMAC-SHA256 over "<unix>.<body>". Receivers check it with Verify:
//
//	err := webhook.Verify(secret, body, r.Header.Get(webhook.SignatureHeader), 5*time.Minute, time.Now())
package webhook
