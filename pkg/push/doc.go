// Package push sends mobile push notifications through the Expo push API.
//
//	client := push.NewExpoClient(cfg, push.WithExpoLogger(log))
//	tickets, err := client.Send(ctx, push.Message{
//		To:    "ExponentPushToken[xxxxxxxx]",
//		Title: "New Friend Request",
//		Body:  "Ana sent you a friend request",
//		Data:  map[string]any{"notificationId": id},
//	})
//
// A transport failure or non-2xx response is returned as an error. Per-message
// rejections (for example DeviceNotRegistered) come back as tickets with
// Status "error"; callers decide whether to log or act on them.
package push
