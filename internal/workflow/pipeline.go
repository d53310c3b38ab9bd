// Package workflow turns a picked photo into a plant candidate and walks the
// user through accepting or discarding it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kalambet/botanic/internal/care"
	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/plantnet"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoImageSelected  = errors.New("no image selected")
	ErrNoCandidates     = errors.New("no plant found")
	ErrIdentification   = errors.New("identification failed")
	ErrInvalidState     = errors.New("invalid workflow state")
	// ErrStale is returned by Identify when a newer selection superseded it.
	ErrStale = errors.New("identification result superseded")
)

// Identifier submits an image to the identification service.
type Identifier interface {
	Identify(ctx context.Context, img plantnet.Image) (plantnet.Response, error)
}

// Describer produces care notes for a plant name.
type Describer interface {
	Describe(ctx context.Context, plantName string) (string, error)
}

// OpenFunc opens the image behind a URI and reports its content type.
type OpenFunc func(uri string) (io.ReadCloser, string, error)

// Pipeline identifies a plant and then enriches it with care notes. The two
// calls are sequential and fail independently: a failed enrichment still
// yields a candidate.
type Pipeline struct {
	Identifier Identifier
	Describer  Describer
	Open       OpenFunc
	Logger     *slog.Logger
}

// NewPipeline wires a pipeline that reads images from local files.
func NewPipeline(id Identifier, d Describer) *Pipeline {
	return &Pipeline{
		Identifier: id,
		Describer:  d,
		Open:       media.Open,
		Logger:     slog.Default(),
	}
}

// Run identifies the image at imageURI. It returns ErrNoCandidates when the
// service finds nothing and wraps ErrIdentification for transport or decode
// failures of the identification call.
func (p *Pipeline) Run(ctx context.Context, imageURI string) (collection.Candidate, error) {
	rc, contentType, err := p.Open(imageURI)
	if err != nil {
		return collection.Candidate{}, fmt.Errorf("%w: %w", ErrIdentification, err)
	}
	defer rc.Close()

	resp, err := p.Identifier.Identify(ctx, plantnet.Image{
		Name:        uploadName(imageURI),
		ContentType: uploadContentType(contentType),
		Data:        rc,
	})
	if err != nil {
		p.logger().Error("identifying plant", "image", imageURI, "error", err)
		return collection.Candidate{}, fmt.Errorf("%w: %w", ErrIdentification, err)
	}

	best, ok := plantnet.Best(resp.Results)
	if !ok {
		return collection.Candidate{}, ErrNoCandidates
	}

	name := plantnet.DisplayName(best)
	c := collection.Candidate{
		Name:   name,
		Family: plantnet.FamilyName(best),
		Care:   p.describe(ctx, name),
		Image:  imageURI,
	}
	p.logger().Debug("plant identified", "name", c.Name, "family", c.Family, "score", best.Score)
	return c, nil
}

func (p *Pipeline) describe(ctx context.Context, name string) string {
	if p.Describer == nil {
		return care.Fallback
	}
	text, err := p.Describer.Describe(ctx, name)
	if err != nil {
		p.logger().Warn("fetching care information", "plant", name, "error", err)
		return care.Fallback
	}
	if strings.TrimSpace(text) == "" {
		return care.Empty
	}
	return text
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func uploadName(uri string) string {
	base := filepath.Base(uri)
	if base == "." || base == "/" || base == "" {
		return "plant.jpg"
	}
	return base
}

// uploadContentType keeps sniffed image types and defaults everything else to JPEG.
func uploadContentType(sniffed string) string {
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return "image/jpeg"
}
