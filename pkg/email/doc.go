// Package email sends transactional email through Postmark, or writes it to
// disk in development.
//
// Both senders implement EmailSender and validate SendEmailParams before
// doing any work:
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Your order shipped",
//		BodyHTML: html,
//		BodyText: text,
//		Tag:      "order_shipped",
//	})
//
// Failures wrap ErrInvalidParams, ErrInvalidConfig or ErrFailedToSendEmail.
package email
