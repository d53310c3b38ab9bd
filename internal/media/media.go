// Package media acquires plant photos: permission checks, picking a file from
// the "gallery", running a capture command for the "camera", and opening or
// importing image files by URI.
package media

import (
	"context"
	"errors"
	"fmt"
)

// Kind names an image source.
type Kind string

const (
	Camera  Kind = "camera"
	Gallery Kind = "gallery"
)

var (
	// ErrCancelled reports that the user backed out without choosing an image.
	ErrCancelled = errors.New("image selection cancelled")
	// ErrUnavailable reports that the source cannot be used on this device.
	ErrUnavailable = errors.New("image source unavailable")
)

// ParseKind converts a user supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Camera, Gallery:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown image source %q", s)
	}
}

// Image is a picked or captured photo.
type Image struct {
	URI string
}

// Permissions decides whether a source may be used.
type Permissions interface {
	Request(ctx context.Context, kind Kind) (granted bool, err error)
}

// Picker acquires an image from a source.
type Picker interface {
	Pick(ctx context.Context, kind Kind) (Image, error)
}

// Policy grants permissions from static configuration.
type Policy struct {
	AllowCamera  bool
	AllowGallery bool
}

func (p Policy) Request(_ context.Context, kind Kind) (bool, error) {
	switch kind {
	case Camera:
		return p.AllowCamera, nil
	case Gallery:
		return p.AllowGallery, nil
	default:
		return false, fmt.Errorf("unknown image source %q", kind)
	}
}
