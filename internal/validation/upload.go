package validation

import (
	"fmt"
)

// MaxImageSize is the upper bound for an uploaded post image.
const MaxImageSize = 2 << 20 // 2 MiB

// allowedImageTypes maps accepted MIME types to the extension stored on disk.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// ExtensionForImageType returns the storage extension for a sniffed MIME
// type, or false when the type is not an accepted image format.
func ExtensionForImageType(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[contentType]
	return ext, ok
}

// ValidateImageUpload checks the size and sniffed MIME type of an uploaded
// image. The contentType must come from content sniffing, never from the
// client-supplied header.
func ValidateImageUpload(size int64, contentType string) Errors {
	errs := Errors{}
	if size > MaxImageSize {
		errs["imageFile"] = fmt.Sprintf("Image cannot exceed %dMB", MaxImageSize/(1<<20))
		return errs
	}
	if _, ok := ExtensionForImageType(contentType); !ok {
		errs["imageFile"] = "Please choose a valid image (JPEG, PNG, GIF)"
	}
	return errs
}
