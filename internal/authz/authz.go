// Package authz holds the pure authorization rules for posts and follows.
// Handlers resolve the acting user explicitly and pass its id in; nothing
// here reads request state.
package authz

import "quill/internal/models"

// CanModify reports whether the acting user may edit or delete the post.
// Only the post's author may.
func CanModify(actorID uint, post *models.Post) bool {
	return post != nil && post.AuthorID == actorID
}

// CanFollow reports whether the acting user may follow the author.
// Self-follow is forbidden by application logic, not by the data layer.
func CanFollow(actorID, authorID uint) bool {
	return actorID != authorID
}
