package auth

import "github.com/embrace-blog/embrace/internal/model"

// CanMutate reports whether the actor may edit or delete the post. Only the
// author may. The lifecycle controller re-checks this on every mutation; the
// UI gate alone is not trusted.
func CanMutate(actor *model.Actor, post *model.Post) bool {
	if actor == nil || post == nil {
		return false
	}
	return actor.ID != "" && actor.ID == post.AuthorID
}
