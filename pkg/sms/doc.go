// Package sms sends text messages through Amazon SNS.
//
// SNSSender publishes directly to a phone number. LogSender only logs the
// message and is used when SNS is not configured:
//
//	sender, err := sms.NewSNSSender(ctx, cfg, sms.WithSNSLogger(log))
//	if err != nil {
//		return err
//	}
//	err = sender.SendSMS(ctx, sms.SendSMSParams{To: "+15551234567", Message: "Your code is 1234"})
package sms
