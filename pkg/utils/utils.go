package utils

import (
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"strings"
)

type IUtils interface {
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFileBytes(file multipart.File) ([]byte, error)
	DecodeBase64Image(data string) ([]byte, error)
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		// Phone camera JPEGs run large, leave headroom above the usual 5MB.
		maxFileSize: 10 * 1024 * 1024,
	}
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return errors.New("no file uploaded")
	}

	if file.Size > u.maxFileSize {
		return errors.New("file size exceeds limit")
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return errors.New("uploaded file is not an image")
	}

	return nil
}

func (u *utils) ReadFileBytes(file multipart.File) ([]byte, error) {
	return io.ReadAll(file)
}

// DecodeBase64Image accepts both bare base64 payloads and data URIs
// like "data:image/jpeg;base64,...".
func (u *utils) DecodeBase64Image(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.New("invalid base64 image data")
	}
	return decoded, nil
}
