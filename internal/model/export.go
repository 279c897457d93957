package model

import (
	"errors"
	"time"
)

// ReadingListExport is the downloadable JSON document of a user's bookmarks.
type ReadingListExport struct {
	Username   string    `json:"username"`
	ExportedAt time.Time `json:"exported_at"`
	Stats      ItemStats `json:"stats"`
	Items      []Item    `json:"items"`
}

// UploadResult represents the uploaded object location
// URL is the public-facing URL (using R2 public endpoint)
// Key is the object key inside the bucket
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

const ExportFolder = "exports"

var ErrExportDisabled = errors.New("export storage is not configured")
