package cache

import (
	"context"
	"fmt"
	"time"
)

// FeedTTL bounds how stale a cached global feed page may be between writes.
const FeedTTL = 30 * time.Second

const feedKeyPrefix = "feed:global:"

// FeedKey returns the cache key for one page of the global feed.
func FeedKey(page int) string {
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("%s%d", feedKeyPrefix, page)
}

// InvalidateFeed drops every cached global feed page. Called after any post
// create, edit, or delete.
func InvalidateFeed(ctx context.Context) error {
	if Client == nil {
		return nil
	}

	iter := Client.Scan(ctx, 0, feedKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return Client.Del(ctx, keys...).Err()
}
