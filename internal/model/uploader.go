package model

import "context"

// Uploader publishes an encoded BOM.
type Uploader interface {
	Upload(ctx context.Context, raw []byte) error
}
