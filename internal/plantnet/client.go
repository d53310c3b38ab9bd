// Package plantnet is a client for the Pl@ntNet identification API.
package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://my-api.plantnet.org"
	defaultProject = "all"
	defaultTimeout = 60 * time.Second

	maxErrorBody = 4 << 10
)

// Image is the photo submitted for identification.
type Image struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// Client submits images to the identify endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	project    string
	lang       string
	organ      string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithProject selects the flora project, e.g. "all" or "weurope".
func WithProject(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.project = p
		}
	}
}

// WithLang sets the language of returned common names.
func WithLang(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		project:    defaultProject,
		organ:      "auto",
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// notFound is the body the service sends with HTTP 404 when no species matches.
type notFound struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Identify uploads img and returns the ranked candidates. A "species not
// found" answer yields an empty result list without error.
func (c *Client) Identify(ctx context.Context, img Image) (Response, error) {
	body, contentType, err := c.encodeForm(img)
	if err != nil {
		return Response{}, err
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	if c.lang != "" {
		q.Set("lang", c.lang)
	}
	endpoint := fmt.Sprintf("%s/v2/identify/%s?%s", c.baseURL, url.PathEscape(c.project), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		var nf notFound
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&nf); err == nil && nf.StatusCode == http.StatusNotFound {
			return Response{Results: []Result{}}, nil
		}
		return Response{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Response{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	if out.Results == nil {
		out.Results = []Result{}
	}
	return out, nil
}

func (c *Client) encodeForm(img Image) (io.Reader, string, error) {
	if img.Data == nil {
		return nil, "", fmt.Errorf("image data is required")
	}
	name := img.Name
	if name == "" {
		name = "plant.jpg"
	}
	ct := img.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating image part: %w", err)
	}
	if _, err := io.Copy(part, img.Data); err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	if c.organ != "" {
		if err := w.WriteField("organs", c.organ); err != nil {
			return nil, "", fmt.Errorf("writing organs field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
