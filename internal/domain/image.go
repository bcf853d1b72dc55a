package domain

import "context"

// ImageUpload is the raw image payload supplied with a create or update.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// ImageStore stores event images externally. Delete is best-effort: callers
// log its failure and never roll back the primary operation because of it.
type ImageStore interface {
	Upload(ctx context.Context, image *ImageUpload) (url string, err error)
	Delete(ctx context.Context, url string) error
}
