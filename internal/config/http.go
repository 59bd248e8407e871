package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"

	CTypeHTML = "text/html"
	CTypeJSON = "application/json"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

// Featured image content types accepted on upload. Checked before any
// network call is made.
const (
	CTypePNG  = "image/png"
	CTypeJPG  = "image/jpg"
	CTypeJPEG = "image/jpeg"
	CTypeGIF  = "image/gif"
)
