package events

import "photobooth/internal/domain"

type captureFeed interface {
	Subscribe() (<-chan domain.CaptureEvent, func())
}

type logFeed interface {
	Lines() []string
	Subscribe() (<-chan string, func())
}
