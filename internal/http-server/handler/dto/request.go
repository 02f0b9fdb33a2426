package dto

import "photobooth/internal/domain"

type BeginSessionRequest struct {
	Photo string `json:"photo" validate:"required"`
}

type SelectFrameRequest struct {
	FrameID string `json:"frameId"`
}

type SetTextRequest struct {
	Text string `json:"text"`
}

type AddOverlayRequest struct {
	IconID   string           `json:"iconId" validate:"required"`
	Position *domain.Position `json:"position,omitempty"`
}

type UpdateOverlayRequest struct {
	Position *domain.Position `json:"position,omitempty"`
	Size     *float64         `json:"size,omitempty" validate:"omitempty,gt=0,lte=1080"`
	Rotation *float64         `json:"rotation,omitempty" validate:"omitempty,gte=-360,lte=360"`
	ZIndex   *int             `json:"zIndex,omitempty" validate:"omitempty,gte=0"`
}

type ListPhotosRequest struct {
	Limit int `validate:"gte=0,lte=100"`
}
