package workflow

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kalambet/botanic/internal/care"
	"github.com/kalambet/botanic/internal/plantnet"
)

type fakeIdentifier struct {
	resp  plantnet.Response
	err   error
	calls int
	got   plantnet.Image
	data  string
}

func (f *fakeIdentifier) Identify(_ context.Context, img plantnet.Image) (plantnet.Response, error) {
	f.calls++
	f.got = img
	if img.Data != nil {
		b, _ := io.ReadAll(img.Data)
		f.data = string(b)
	}
	return f.resp, f.err
}

type fakeDescriber struct {
	text  string
	err   error
	calls int
	name  string
}

func (f *fakeDescriber) Describe(_ context.Context, name string) (string, error) {
	f.calls++
	f.name = name
	return f.text, f.err
}

func fakeOpen(uri string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("bytes:" + uri)), "image/png", nil
}

func monsteraResponse() plantnet.Response {
	return plantnet.Response{Results: []plantnet.Result{
		{Score: 0.2, Species: plantnet.Species{Slug: "philodendron"}},
		{Score: 0.8, Species: plantnet.Species{
			CommonNames: []string{"Swiss cheese plant"},
			Family:      &plantnet.Taxon{ScientificName: "Araceae"},
		}},
	}}
}

func newTestPipeline(id *fakeIdentifier, d *fakeDescriber) *Pipeline {
	p := NewPipeline(id, d)
	p.Open = fakeOpen
	return p
}

func TestPipeline_Success(t *testing.T) {
	id := &fakeIdentifier{resp: monsteraResponse()}
	d := &fakeDescriber{text: "Light: bright"}

	c, err := newTestPipeline(id, d).Run(context.Background(), "file:///photos/leaf.png")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c.Name != "Swiss cheese plant" || c.Family != "Araceae" || c.Care != "Light: bright" {
		t.Errorf("candidate = %+v", c)
	}
	if c.Image != "file:///photos/leaf.png" {
		t.Errorf("image = %q", c.Image)
	}
	if d.name != "Swiss cheese plant" {
		t.Errorf("described %q, want best match name", d.name)
	}
	if id.got.Name != "leaf.png" || id.got.ContentType != "image/png" {
		t.Errorf("upload = %q %q", id.got.Name, id.got.ContentType)
	}
	if id.data != "bytes:file:///photos/leaf.png" {
		t.Errorf("uploaded data = %q", id.data)
	}
}

func TestPipeline_NoCandidates(t *testing.T) {
	id := &fakeIdentifier{resp: plantnet.Response{Results: []plantnet.Result{}}}
	d := &fakeDescriber{text: "unused"}

	_, err := newTestPipeline(id, d).Run(context.Background(), "file:///x.jpg")
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("error = %v, want ErrNoCandidates", err)
	}
	if d.calls != 0 {
		t.Errorf("describer called %d times, want 0", d.calls)
	}
}

func TestPipeline_IdentifyError(t *testing.T) {
	id := &fakeIdentifier{err: errors.New("connection refused")}

	_, err := newTestPipeline(id, &fakeDescriber{}).Run(context.Background(), "file:///x.jpg")
	if !errors.Is(err, ErrIdentification) {
		t.Fatalf("error = %v, want ErrIdentification", err)
	}
}

func TestPipeline_OpenError(t *testing.T) {
	id := &fakeIdentifier{}
	p := newTestPipeline(id, &fakeDescriber{})
	p.Open = func(string) (io.ReadCloser, string, error) { return nil, "", errors.New("gone") }

	if _, err := p.Run(context.Background(), "file:///x.jpg"); !errors.Is(err, ErrIdentification) {
		t.Fatalf("error = %v, want ErrIdentification", err)
	}
	if id.calls != 0 {
		t.Error("identifier called despite open failure")
	}
}

func TestPipeline_EnrichmentDegrades(t *testing.T) {
	tests := []struct {
		name     string
		describe *fakeDescriber
		want     string
	}{
		{"error", &fakeDescriber{err: errors.New("503")}, care.Fallback},
		{"no choices", &fakeDescriber{err: care.ErrNoChoices}, care.Fallback},
		{"blank", &fakeDescriber{text: "   "}, care.Empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &fakeIdentifier{resp: monsteraResponse()}
			c, err := newTestPipeline(id, tt.describe).Run(context.Background(), "file:///x.jpg")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if c.Care != tt.want {
				t.Errorf("care = %q, want %q", c.Care, tt.want)
			}
			if c.Name != "Swiss cheese plant" {
				t.Errorf("name = %q", c.Name)
			}
		})
	}
}

func TestPipeline_NilDescriber(t *testing.T) {
	p := NewPipeline(&fakeIdentifier{resp: monsteraResponse()}, nil)
	p.Open = fakeOpen
	c, err := p.Run(context.Background(), "file:///x.jpg")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Care != care.Fallback {
		t.Errorf("care = %q", c.Care)
	}
}

func TestUploadContentType(t *testing.T) {
	if got := uploadContentType("application/octet-stream"); got != "image/jpeg" {
		t.Errorf("got %q", got)
	}
	if got := uploadContentType("image/webp"); got != "image/webp" {
		t.Errorf("got %q", got)
	}
}
