// Package redis connects to Redis. notifykit uses it for the distributed
// dispatch guard that keeps a scheduled notification from being delivered
// twice when several workers poll for due notifications.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	guard := notifications.NewRedisDispatchGuard(client, time.Minute)
package redis
