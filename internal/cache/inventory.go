package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ArticleKeyPrefix = "article:%s"
	ProfileKeyPrefix = "profile:%s"
	HomeFeedKey      = "feed:home"
	CommunityKey     = "community:stats"
	TopicsKey        = "community:topics"
)

const (
	ArticleTTL   = 10 * time.Minute
	ProfileTTL   = 5 * time.Minute
	HomeFeedTTL  = 30 * time.Second
	CommunityTTL = time.Minute
)

func ArticleKey(id uuid.UUID) string {
	return fmt.Sprintf(ArticleKeyPrefix, id)
}

func ProfileKey(id uuid.UUID) string {
	return fmt.Sprintf(ProfileKeyPrefix, id)
}

// Invalidate deletes keys, ignoring a missing client.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateFeeds drops the aggregated pages that list articles.
func InvalidateFeeds(ctx context.Context) {
	Invalidate(ctx, HomeFeedKey, CommunityKey, TopicsKey)
}

func InvalidateProfile(ctx context.Context, id uuid.UUID) {
	Invalidate(ctx, ProfileKey(id))
}
