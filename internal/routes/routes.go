// Package routes defines HTTP route constants for the application.
package routes

const (
	RobotsPath = "/robots.txt"

	// SSE
	SSEPath = "/sse"

	// Public read surface
	PostBySlug  = "/posts/{slug}"
	PostsByList = "/api/posts"

	// Mutation surface; the only way UI code reaches the lifecycle
	// controller.
	APIPosts   = "/api/posts/{id}"
	APIPostNew = "/api/posts/new"

	// Media preview
	MediaPreview = "/media/{id}/preview"
)
