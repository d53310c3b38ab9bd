package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FilePicker picks gallery images from a path chosen up front and captures
// camera images by running an external command.
type FilePicker struct {
	// Path is the gallery file to return. Empty means the user picked nothing.
	Path string
	// CaptureCommand is run through the shell for camera captures; the token
	// {out} is replaced by the destination file.
	CaptureCommand string
	// ImageDir receives captured images.
	ImageDir string

	logger *slog.Logger
}

// NewFilePicker creates a picker that stores captures under dataDir/images.
func NewFilePicker(path, captureCommand, dataDir string) *FilePicker {
	return &FilePicker{
		Path:           path,
		CaptureCommand: captureCommand,
		ImageDir:       ImageDir(dataDir),
		logger:         slog.Default(),
	}
}

func (p *FilePicker) Pick(ctx context.Context, kind Kind) (Image, error) {
	switch kind {
	case Gallery:
		return p.pickFile()
	case Camera:
		return p.capture(ctx)
	default:
		return Image{}, fmt.Errorf("unknown image source %q", kind)
	}
}

func (p *FilePicker) pickFile() (Image, error) {
	if strings.TrimSpace(p.Path) == "" {
		return Image{}, ErrCancelled
	}
	abs, err := filepath.Abs(p.Path)
	if err != nil {
		return Image{}, fmt.Errorf("resolving %s: %w", p.Path, err)
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("picked image does not exist", "path", abs)
		return Image{}, ErrCancelled
	}
	if err != nil {
		return Image{}, fmt.Errorf("checking %s: %w", abs, err)
	}
	if info.IsDir() {
		return Image{}, fmt.Errorf("%s is a directory", abs)
	}
	return Image{URI: FileURI(abs)}, nil
}

func (p *FilePicker) capture(ctx context.Context) (Image, error) {
	if strings.TrimSpace(p.CaptureCommand) == "" {
		return Image{}, fmt.Errorf("%w: no capture command configured (media.capture_command)", ErrUnavailable)
	}
	if err := os.MkdirAll(p.ImageDir, 0o755); err != nil {
		return Image{}, fmt.Errorf("creating image directory: %w", err)
	}

	out := filepath.Join(p.ImageDir, uuid.New().String()+".jpg")
	cmdline := strings.ReplaceAll(p.CaptureCommand, "{out}", shellQuote(out))

	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		p.logger.Warn("capture command failed", "command", cmdline, "error", err)
		return Image{}, ErrCancelled
	}

	if _, err := os.Stat(out); err != nil {
		p.logger.Warn("capture command produced no image", "path", out)
		return Image{}, ErrCancelled
	}
	return Image{URI: FileURI(out)}, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
