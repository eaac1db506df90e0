package blob

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when uploaded bytes do not decode as a supported image.
var ErrNotImage = errors.New("file is not a supported image (jpeg, png, gif, webp, bmp)")

// DetectImage reads the image header from r and returns its MIME type.
// r is rewound to the start so it can be uploaded afterwards.
func DetectImage(r io.ReadSeeker) (string, error) {
	_, format, err := image.DecodeConfig(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("rewind image: %w", seekErr)
	}
	if err != nil {
		return "", ErrNotImage
	}
	return "image/" + format, nil
}
