package domain

const (
	CanvasSize         = 1080
	PreviewCanvasSize  = 450
	DefaultWrapWidth   = 700
	DefaultJPEGQuality = 90
	MaxFrameTextLength = 80
)

const (
	ProcessedPrefix     = "overlay_"
	DefaultSettleDelay  = 1000
	DefaultGallerySize  = 12
	DefaultPhotoListMax = 100
)

const (
	KafkaTopicPhotoEvents = "photo-events"
	KafkaGroupGallery     = "photobooth-gallery"
)

const (
	PathPrefixPhotos  = "photos/"
	PathPrefixEdited  = "edited/"
	DefaultMaxUpload  = 32 << 20
	DefaultFontFamily = "sans-serif"
	DefaultTextColor  = "#ffffff"
	DefaultFontSize   = 48
)
