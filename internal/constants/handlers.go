package constants

// File upload constants
const (
	// MaxUploadSize is the default maximum request body size in bytes (20MB)
	MaxUploadSize = 20 << 20

	// ImageFormField is the multipart field carrying the profile image
	ImageFormField = "image"
)
