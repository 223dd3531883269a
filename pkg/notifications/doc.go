// Package notifications stores notifications and delivers them across
// channels.
//
// A Service creates notifications, either directly or by rendering a
// template from a templates.Registry, persists them through a Storage and
// hands due ones to a Dispatcher. The Dispatcher sends each notification to
// all of its channels concurrently, waits for every channel to settle and
// records one ChannelResult per channel. A failing channel never fails the
// dispatch; only a failure to persist the outcome does.
//
// # Basic Usage
//
//	store := notifications.NewMemoryStorage()
//	contacts := notifications.NewContactDirectory(
//	    notifications.WithContactResolver("User", resolver),
//	)
//	dispatcher := notifications.NewDispatcher(store,
//	    notifications.WithDeliverer(notifications.ChannelEmail,
//	        notifications.NewEmailDeliverer(mailer, contacts)),
//	)
//	svc := notifications.NewService(store, dispatcher)
//
//	n, err := svc.CreateFromTemplate(ctx,
//	    notifications.Recipient{ID: userID, Model: "User"},
//	    "friend_request", templates.Vars{"senderName": "ana"},
//	)
//
// # Lifecycle
//
// Status moves forward through unread, read and acknowledged, or sideways to
// archived, which is terminal. Every mutation is scoped to the owning
// recipient; a mismatch is reported as ErrNotificationNotFound. Deleted
// notifications are hidden from every read.
//
// # Scheduling
//
// Notifications with ScheduledFor in the future are stored but not
// dispatched. A Scheduler calls Service.DispatchDue on an interval. When
// several workers share a store, configure WithDispatchGuard with a
// RedisDispatchGuard so a notification is dispatched by one of them only.
package notifications
