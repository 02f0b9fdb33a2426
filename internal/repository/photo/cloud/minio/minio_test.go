package minio

import (
	"testing"

	"photobooth/internal/config"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		obj  string
		want string
	}{
		{
			name: "public url",
			cfg:  config.StorageConfig{Endpoint: "minio:9000", Bucket: "booth", PublicURL: "https://cdn.example.com/"},
			obj:  "photos/2026/a b.jpg",
			want: "https://cdn.example.com/booth/photos/2026/a%20b.jpg",
		},
		{
			name: "endpoint fallback",
			cfg:  config.StorageConfig{Endpoint: "localhost:9000", Bucket: "booth"},
			obj:  "edited/x.jpg",
			want: "http://localhost:9000/booth/edited/x.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewMinIORepository(tt.cfg, retry.Strategy{Attempts: 1}, &zlog.Logger)
			if err != nil {
				t.Fatalf("NewMinIORepository: %v", err)
			}
			if got := r.ObjectURL(tt.obj); got != tt.want {
				t.Errorf("ObjectURL = %q, want %q", got, tt.want)
			}
		})
	}
}
