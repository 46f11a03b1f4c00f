package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxAvatarSize is 5MB in bytes
	MaxAvatarSize = 5 * 1024 * 1024
)

// allowedAvatarTypes maps accepted extensions to their content type
var allowedAvatarTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateAvatarFile validates the uploaded avatar format and size
func ValidateAvatarFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxAvatarSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxAvatarSize/(1024*1024)),
		}
	}

	if _, ok := AvatarContentType(fileHeader.Filename); !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG and JPEG files are allowed",
		}
	}

	return nil
}

// AvatarContentType returns the content type for an avatar filename
func AvatarContentType(filename string) (string, bool) {
	ct, ok := allowedAvatarTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}
