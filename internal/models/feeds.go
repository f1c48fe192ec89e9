package models

// HomeFeed is the landing page payload.
type HomeFeed struct {
	Featured []*Article `json:"featured"`
	Recent   []*Article `json:"recent"`
	Trending []*Article `json:"trending"`
}

// Page is a paginated article list.
type Page struct {
	Articles []*Article `json:"articles"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

// SearchResults holds article and profile matches for a query.
type SearchResults struct {
	Query    string     `json:"query"`
	Articles []*Article `json:"articles"`
	Profiles []*Profile `json:"profiles"`
}

// TopicCount is a tag and the number of published articles carrying it.
type TopicCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// CommunityStats are site-wide totals.
type CommunityStats struct {
	Users    int64 `json:"users"`
	Articles int64 `json:"articles"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// CommunityOverview is the community page payload.
type CommunityOverview struct {
	Stats          CommunityStats   `json:"stats"`
	TrendingTopics []TopicCount     `json:"trending_topics"`
	SuggestedUsers []*Profile       `json:"suggested_users"`
	TopAuthors     []*AuthorSummary `json:"top_authors"`
	RecentActivity []*Article       `json:"recent_activity"`
}

// DashboardStats are the totals of one author.
type DashboardStats struct {
	Articles  int64 `json:"articles"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
	Views     int64 `json:"views"`
	Likes     int64 `json:"likes"`
	Comments  int64 `json:"comments"`
}

// Dashboard is the author dashboard payload.
type Dashboard struct {
	Stats  DashboardStats `json:"stats"`
	Recent []*Article     `json:"recent"`
}

// ProfilePage is the public profile payload.
type ProfilePage struct {
	Profile   *Profile     `json:"profile"`
	Stats     ProfileStats `json:"stats"`
	Following bool         `json:"following"`
	IsOwner   bool         `json:"is_owner"`
}

// AboutPage is static product information with live community totals.
type AboutPage struct {
	Name     string         `json:"name"`
	Tagline  string         `json:"tagline"`
	Mission  string         `json:"mission"`
	Features []string       `json:"features"`
	Stats    CommunityStats `json:"stats"`
}
