package storage

import (
	"context"
	"io"
)

// UploadResult описывает загруженный объект.
type UploadResult struct {
	Key      string
	Location string
}

// FileUploader — абстракция объектного хранилища для логотипов турниров.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	PublicURL(key string) string
}
