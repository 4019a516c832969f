package debrief

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageSize = 5 << 20

var ErrNotAnImage = errors.New("attachment is not an image")

// EncodeImage embeds raw image bytes as a self-contained data URI.
func EncodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty attachment")
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("attachment is %d bytes, limit is %d", len(data), MaxImageSize)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotAnImage, mtype.String())
	}

	return fmt.Sprintf("data:%s;base64,%s", mtype.String(), base64.StdEncoding.EncodeToString(data)), nil
}

// ImageMediaType returns the media type declared by a data URI, or "" when
// the value is not one.
func ImageMediaType(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ""
	}
	mediaType, _, ok := strings.Cut(rest, ";")
	if !ok {
		return ""
	}
	return mediaType
}
