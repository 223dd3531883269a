package templates

// Builtin returns the template catalog shipped with the service.
func Builtin() []Template {
	return []Template{
		{
			Name:     "welcome",
			Version:  "1.0",
			Title:    Literal("Welcome to Meridian!"),
			Message:  Literal("Hi {{name|capitalize}}, welcome to Meridian! We're excited to have you on board."),
			Priority: Literal("normal"),
			Channels: Literal([]string{"in_app", "email"}),
			Actions: Literal([]Action{
				{ID: "complete_profile", Label: "Complete Profile", Type: ActionLink, URL: "/profile/complete", Style: "primary"},
			}),
		},
		{
			Name:     "org_invitation",
			Version:  "1.0",
			Title:    Literal("Organization Invitation"),
			Message:  Literal("You have been invited to join <strong>{{orgName}}</strong> as <em>{{role|capitalize}}</em>."),
			Priority: Literal("high"),
			Channels: Literal([]string{"in_app", "email"}),
			Actions: Literal([]Action{
				{
					ID: "accept_invitation", Label: "Accept", Type: ActionAPICall, Method: "POST", Style: "success",
					URL:     "/org-invites/{{invitationId}}/accept",
					Payload: map[string]any{"invitationId": "{{invitationId}}"},
				},
				{
					ID: "decline_invitation", Label: "Decline", Type: ActionAPICall, Method: "POST", Style: "secondary",
					URL:     "/org-invites/{{invitationId}}/decline",
					Payload: map[string]any{"invitationId": "{{invitationId}}"},
				},
			}),
		},
		{
			Name:        "friend_request",
			Version:     "1.0",
			Title:       Literal("New Friend Request"),
			Message:     Literal("<strong>{{senderName|capitalize}}</strong> has sent you a friend request."),
			Priority:    Literal("normal"),
			Channels:    Literal([]string{"in_app", "push"}),
			Sender:      "{{sender}}",
			SenderModel: "User",
			Navigation: map[string]any{
				"type":     "navigate",
				"route":    "MainTabs",
				"params":   map[string]any{"screen": "Friends", "params": map[string]any{"initialTab": "requests"}},
				"deepLink": "meridian://friends/requests",
			},
			Actions: Literal([]Action{
				{
					ID: "accept_friend_request", Label: "Accept", Type: ActionAPICall, Method: "POST", Style: "success",
					URL: "/friend-request/accept/{{friendshipId}}", Icon: "material-symbols:person-check-rounded",
				},
				{
					ID: "reject_friend_request", Label: "Reject", Type: ActionAPICall, Method: "POST", Style: "danger",
					URL: "/friend-request/reject/{{friendshipId}}", Icon: "material-symbols:person-cancel-rounded",
				},
			}),
		},
		{
			Name:       "org_message_new",
			Version:    "1.0",
			Title:      Literal("{{orgName}} has posted a new announcement"),
			Message:    Literal("{{messagePreview}}"),
			Priority:   Literal("normal"),
			Channels:   Literal([]string{"in_app", "push"}),
			Navigation: orgNavigation(),
			Actions: Literal([]Action{
				{ID: "view_announcement", Label: "View Announcement", Type: ActionLink, URL: "meridian://organization/{{orgId}}", Style: "primary"},
			}),
		},
		{
			Name:        "org_member_applied",
			Version:     "1.0",
			Title:       Literal("New Member Applied"),
			Message:     Literal("<strong>{{senderName|capitalize}}</strong> has applied to join <strong>{{orgName}}</strong>."),
			Priority:    Literal("normal"),
			Channels:    Literal([]string{"in_app", "push"}),
			Sender:      "{{sender}}",
			SenderModel: "User",
			Navigation:  orgNavigation(),
			Actions: Literal([]Action{
				{ID: "go_to_application", Label: "Go to Application", Type: ActionLink, URL: "/club-dashboard/{{orgName}}?page=2", Style: "primary"},
			}),
		},
		{
			Name:       "org_approval_needed",
			Version:    "1.0",
			Title:      Literal("Organization Needs Approval"),
			Message:    Literal("A new organization <strong>{{orgName}}</strong> is pending approval."),
			Priority:   Literal("high"),
			Channels:   Literal([]string{"in_app", "push"}),
			Navigation: orgNavigation(),
			Actions: Literal([]Action{
				{ID: "review_approval", Label: "Review and Approve", Type: ActionLink, URL: "/org-management", Style: "primary"},
			}),
		},
		{
			Name:     "event_reminder",
			Version:  "1.0",
			Title:    Literal("Event Reminder"),
			Message:  Literal("Your event <strong>{{eventName}}</strong> starts in <em>{{timeUntil}}</em> at {{startTime|time}}."),
			Priority: Literal("high"),
			Channels: Literal([]string{"in_app", "push"}),
			Navigation: map[string]any{
				"type":     "navigate",
				"route":    "Events",
				"params":   map[string]any{"screen": "EventDetails", "params": map[string]any{"eventId": "{{eventId}}"}},
				"deepLink": "meridian://events/{{eventId}}",
			},
			Actions: Literal(eventActions("")),
		},
		{
			Name:     "achievement_unlocked",
			Version:  "1.0",
			Title:    Literal("Achievement Unlocked! 🏆"),
			Message:  Literal("Congratulations! You've earned the <strong>{{badgeName}}</strong> badge for {{achievementDescription|short}}."),
			Priority: Literal("normal"),
			Channels: Literal([]string{"in_app", "email"}),
			Actions: Literal([]Action{
				{ID: "view_badge", Label: "View Badge", Type: ActionLink, URL: "/badges/{{badgeId}}", Style: "success"},
				{
					ID: "share_achievement", Label: "Share", Type: ActionAPICall, Method: "POST", Style: "info",
					URL:     "/api/achievements/share",
					Payload: map[string]any{"badgeId": "{{badgeId}}"},
				},
			}),
		},
		{
			Name:     "payment_received",
			Version:  "1.0",
			Title:    Literal("Payment Received"),
			Message:  Literal("You received <strong>{{amount|currency}}</strong> from <em>{{senderName|capitalize}}</em> on {{paymentDate|date}}."),
			Priority: Literal("normal"),
			Channels: Literal([]string{"in_app", "email"}),
			Actions: Literal([]Action{
				{ID: "view_transaction", Label: "View Details", Type: ActionLink, URL: "/transactions/{{transactionId}}", Style: "primary"},
			}),
		},
		{
			Name:     "admin_outreach_message",
			Version:  "1.0",
			Title:    Literal("{{title}}"),
			Message:  Literal("{{messagePreview}}"),
			Priority: Literal("normal"),
			Channels: Literal([]string{"in_app", "email"}),
			Navigation: map[string]any{
				"type":     "navigate",
				"route":    "OutreachMessage",
				"params":   map[string]any{"messageId": "{{outreachMessageId}}"},
				"deepLink": "meridian://outreach/{{outreachMessageId}}",
			},
			Actions: Literal([]Action{
				{ID: "view_outreach", Label: "View Message", Type: ActionLink, URL: "meridian://outreach/{{outreachMessageId}}", Style: "primary"},
			}),
		},
		{
			Name:     "dynamic_welcome",
			Version:  "2.0",
			Advanced: true,
			Title:    Literal("Welcome to Meridian!"),
			Message: Conditional(
				Literal("Hi {{name|capitalize}}, welcome to Meridian! Please complete your profile."),
				When("{{hasProfile}}", "Welcome back, {{name|capitalize}}! Your profile is complete."),
			),
			Priority: Literal("normal"),
			Channels: Literal([]string{"in_app", "email"}),
			Actions: Conditional(
				Literal([]Action{{ID: "explore", Label: "Explore", Type: ActionLink, URL: "/dashboard", Style: "secondary"}}),
				When("!{{hasProfile}}", []Action{
					{ID: "complete_profile", Label: "Complete Profile", Type: ActionLink, URL: "/profile/complete", Style: "primary"},
				}),
			),
		},
		{
			Name:     "smart_event_reminder",
			Version:  "2.0",
			Advanced: true,
			Title:    Literal("Event Reminder"),
			Message: Conditional(
				Literal("Your event <strong>{{eventName}}</strong> starts in <em>{{timeUntil}}</em> at {{startTime|time}}."),
				When("{{isUrgent}}", "🚨 URGENT: Your event <strong>{{eventName}}</strong> starts in <em>{{timeUntil}}</em>!"),
			),
			Priority: Conditional(
				Literal("normal"),
				When("{{isUrgent}}", "urgent"),
				When("{{isToday}}", "high"),
			),
			Channels: Conditional(
				Literal([]string{"in_app"}),
				When("{{isUrgent}}", []string{"in_app", "push", "email"}),
				When("{{isToday}}", []string{"in_app", "push"}),
			),
			Actions: Literal(eventActions("{{canJoin}}")),
		},
	}
}

func orgNavigation() map[string]any {
	return map[string]any{
		"type":     "navigate",
		"route":    "OrganizationProfile",
		"params":   map[string]any{"orgId": "{{orgId}}"},
		"deepLink": "meridian://organization/{{orgId}}",
	}
}

func eventActions(joinCondition string) []Action {
	return []Action{
		{ID: "view_event", Label: "View Event", Type: ActionLink, URL: "/events/{{eventId}}", Style: "primary"},
		{ID: "join_now", Label: "Join Now", Type: ActionLink, URL: "/events/{{eventId}}/join", Style: "success", Condition: joinCondition},
	}
}
