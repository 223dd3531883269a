// Package async provides futures and a settle-all fan-out helper.
//
// Async starts a function in a goroutine and returns a Future:
//
//	f := async.Async(ctx, filter, resolver.count)
//	total, err := f.Await()
//
// Settle runs one task per item and waits for all of them, isolating
// failures, timeouts and panics per task. The notification dispatcher uses it
// to deliver one notification to every channel at once:
//
//	outcomes := async.Settle(ctx, 10*time.Second, channels,
//		func(ctx context.Context, ch Channel) (struct{}, error) {
//			return struct{}{}, deliverers[ch].Deliver(ctx, n)
//		})
//	for i, o := range outcomes {
//		if o.Err != nil {
//			log.Warn("channel failed", "channel", channels[i], "error", o.Err)
//		}
//	}
package async
