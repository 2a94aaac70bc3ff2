// Package observability provides Prometheus metrics for the domain.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_posts_created_total",
		Help: "Total number of posts created",
	})

	// CommentsCreated counts successfully created comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_comments_created_total",
		Help: "Total number of comments created",
	})

	// FollowRequests counts follow/unfollow requests by action and outcome.
	// Idempotent no-ops are labeled "noop".
	FollowRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_follow_requests_total",
		Help: "Total follow and unfollow requests by action and outcome",
	}, []string{"action", "outcome"})
)
