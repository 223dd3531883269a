// Package outreach sends operator-authored messages to large audiences.
//
// An Audience saves a filter from package audience. A Message targets a
// saved audience or an inline filter and starts as a draft. SendMessage
// resolves the recipients, writes one Receipt per recipient, then creates
// and dispatches notifications in fixed-size batches through a Notifier,
// normally *notifications.Service. The draft to sent transition is claimed
// atomically, so a message is never sent twice.
//
// Receipts collect tracking events (seen, opened, click) and feed
// MessageAnalytics.
package outreach
