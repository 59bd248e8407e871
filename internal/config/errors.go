package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Auth errors
	ErrAuthHeaderRequired  = "Authorization header required"
	ErrInternalServerError = "Internal server error"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"

	// Media errors
	ErrMediaStoreInit = "Error initializing media store"
)
