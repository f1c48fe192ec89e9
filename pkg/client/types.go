package client

import "livaulislam/internal/models"

// Wire types shared with the service.
type (
	Session           = models.Session
	AuthResult        = models.AuthResult
	AuthEvent         = models.AuthEvent
	Profile           = models.Profile
	ProfileUpdate     = models.ProfileUpdate
	ProfilePage       = models.ProfilePage
	Article           = models.Article
	ArticleDetail     = models.ArticleDetail
	Comment           = models.Comment
	HomeFeed          = models.HomeFeed
	Page              = models.Page
	SearchResults     = models.SearchResults
	CommunityOverview = models.CommunityOverview
	AboutPage         = models.AboutPage
	Dashboard         = models.Dashboard
	Notification      = models.Notification
	NotificationInbox = models.NotificationInbox
	LikeState         = models.LikeState
	FollowState       = models.FollowState
)

// Auth-state event types delivered to SessionStore listeners.
const (
	EventInitialSession = "INITIAL_SESSION"
	EventSignedIn       = models.AuthEventSignedIn
	EventSignedOut      = models.AuthEventSignedOut
	EventUserUpdated    = models.AuthEventUserUpdated
)
