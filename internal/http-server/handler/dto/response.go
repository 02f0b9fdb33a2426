package dto

import (
	"time"

	"photobooth/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type FieldErrorsResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type CaptureResponse struct {
	Success  bool   `json:"success"`
	Async    bool   `json:"async"`
	Attempts int    `json:"attempts"`
	File     string `json:"file,omitempty"`
	Error    string `json:"error,omitempty"`
}

type SessionResponse struct {
	State domain.EditState `json:"state"`
}

type TextResponse struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

type PhotoResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int64     `json:"size"`
	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
}

type PhotoListResponse struct {
	Photos []PhotoResponse `json:"photos"`
	Count  int             `json:"count"`
	Total  int             `json:"total"`
}

type PendingResponse struct {
	Pending []string `json:"pending"`
}

type FramesResponse struct {
	Source string                 `json:"source"`
	Frames []domain.FrameTemplate `json:"frames"`
}

type IconsResponse struct {
	Source string               `json:"source"`
	Icons  []domain.OverlayIcon `json:"icons"`
}

type LogsResponse struct {
	Lines []string `json:"lines"`
}

func NewPhotoResponse(p domain.PhotoRecord) PhotoResponse {
	return PhotoResponse{
		ID:        p.ID,
		Filename:  p.Filename,
		URL:       p.URL,
		Width:     p.Width,
		Height:    p.Height,
		Size:      p.Size,
		IsEdited:  p.IsEdited,
		CreatedAt: p.CreatedAt,
	}
}
