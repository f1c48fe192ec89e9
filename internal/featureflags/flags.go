package featureflags

// Flags read by the service layer.
const (
	EngagementNotifications = "engagement_notifications"
	SuggestedUsers          = "suggested_users"
)

// defaults apply to known flags that FEATURE_FLAGS leaves unset.
var defaults = map[string]bool{
	EngagementNotifications: true,
	SuggestedUsers:          true,
}
