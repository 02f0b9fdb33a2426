package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"photobooth/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid capture config: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func captureValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateCapture returns a *ValidationError listing one entry per invalid field.
func ValidateCapture(c domain.CaptureConfig) error {
	err := captureValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate capture config: %w", err)
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "http_url":
		return "must be a valid http or https URL"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// CaptureStore holds the active camera config. Updates swap the whole value.
type CaptureStore struct {
	current  atomic.Pointer[domain.CaptureConfig]
	path     string
	rejected error
	mu       sync.Mutex
}

func NewCaptureStore(initial domain.CaptureConfig, path string) (*CaptureStore, error) {
	if err := ValidateCapture(initial); err != nil {
		return nil, err
	}
	s := &CaptureStore{path: path}
	s.current.Store(&initial)
	return s, nil
}

// LoadCaptureStore prefers the persisted settings file and falls back to initial
// when the file is missing or holds an invalid config. An invalid file is
// reported by Rejected.
func LoadCaptureStore(initial domain.CaptureConfig, path string) (*CaptureStore, error) {
	s, err := NewCaptureStore(initial, path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read camera settings: %w", err)
	}

	persisted := initial
	if err := yaml.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("failed to parse camera settings: %w", err)
	}
	if err := ValidateCapture(persisted); err != nil {
		s.rejected = fmt.Errorf("camera settings %s ignored: %w", path, err)
		return s, nil
	}
	s.current.Store(&persisted)
	return s, nil
}

// Rejected returns why the persisted settings were not used, or nil.
func (s *CaptureStore) Rejected() error { return s.rejected }

func (s *CaptureStore) Load() domain.CaptureConfig {
	return *s.current.Load()
}

// Update validates next and, only if valid, persists and publishes it.
func (s *CaptureStore) Update(next domain.CaptureConfig) error {
	if err := ValidateCapture(next); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(next); err != nil {
		return err
	}
	s.current.Store(&next)
	return nil
}

func (s *CaptureStore) persist(c domain.CaptureConfig) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal camera settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write camera settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace camera settings: %w", err)
	}
	return nil
}
