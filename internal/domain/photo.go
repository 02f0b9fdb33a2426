package domain

import "time"

type PhotoRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FilePath  string    `json:"file_path"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type"`
	IsEdited  bool      `json:"is_edited"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PhotoEventType string

const (
	EventPhotoUploaded PhotoEventType = "photo.uploaded"
	EventPhotoDeleted  PhotoEventType = "photo.deleted"
)

type PhotoEvent struct {
	Type      PhotoEventType `json:"type"`
	PhotoID   string         `json:"photo_id"`
	URL       string         `json:"url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
