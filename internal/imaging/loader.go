package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultLoadTimeout bounds a single load-and-decode when the Loader has no
// explicit timeout.
const DefaultLoadTimeout = 3 * time.Second

// maxRemoteImageBytes caps the body read for http(s) sources.
const maxRemoteImageBytes = 32 << 20

// ErrNotLoaded is returned when an image cannot be fetched or decoded
// before its deadline.
var ErrNotLoaded = errors.New("image not loaded")

// Loader fetches and decodes images from data:, file: and http(s) URLs or
// plain file paths.
//
// Every Load is bounded by Timeout and by the caller's context: whichever
// ends first makes Load return ErrNotLoaded wrapping the context error. The
// fetch goroutine is never left blocked after Load returns.
//
// Loader keeps no cache; each call decodes afresh.
type Loader struct {
	// Timeout bounds a single Load. Zero means DefaultLoadTimeout.
	Timeout time.Duration

	// Client is used for http(s) sources. Nil means http.DefaultClient.
	Client *http.Client
}

// NewLoader returns a Loader bounded by timeout.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{Timeout: timeout}
}

type loadResult struct {
	img image.Image
	err error
}

// Load fetches and decodes src.
//
// Parameters:
//   - ctx: cancels the load; its deadline applies if earlier than Timeout.
//   - src: a data: URL, file: URL, http(s) URL or file path.
//
// Returns:
//   - image.Image: the decoded bitmap.
//   - error: wraps ErrNotLoaded on any fetch, decode or deadline failure.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotLoaded, shortSource(src), err)
	}

	done := make(chan loadResult, 1)
	go func() {
		img, err := l.fetch(ctx, src)
		done <- loadResult{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrNotLoaded, shortSource(src), ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotLoaded, shortSource(src), r.err)
		}
		return r.img, nil
	}
}

func (l *Loader) fetch(ctx context.Context, src string) (image.Image, error) {
	switch scheme(src) {
	case "data":
		data, err := decodeDataURL(src)
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return img, nil
	case "http", "https":
		return l.fetchRemote(ctx, src)
	case "file":
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL: %w", err)
		}
		return openFile(u.Path)
	case "":
		return openFile(src)
	default:
		return nil, fmt.Errorf("unsupported image source scheme %q", scheme(src))
	}
}

func (l *Loader) fetchRemote(ctx context.Context, src string) (image.Image, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %s", resp.Status)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxRemoteImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func openFile(path string) (image.Image, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

// decodeDataURL returns the payload of a data: URL.
func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URL payload: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL payload: %w", err)
	}
	return []byte(s), nil
}

// ResolveSource resolves ref against base the way a document resolves an
// image reference. base is an http(s) URL, a file: URL, or a directory path.
// Absolute references (any scheme) are returned unchanged.
func ResolveSource(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || scheme(ref) != "" {
		return ref
	}
	switch scheme(base) {
	case "http", "https", "file":
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	}
	if filepath.IsAbs(ref) || base == "" {
		return ref
	}
	return filepath.Join(base, filepath.FromSlash(ref))
}

// scheme returns the lowercase URL scheme of src, or "" for paths.
// Single-letter schemes are treated as Windows drive letters.
func scheme(src string) string {
	i := strings.IndexByte(src, ':')
	if i < 2 {
		return ""
	}
	s := strings.ToLower(src[:i])
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return ""
		}
	}
	return s
}

// shortSource keeps data: URLs out of error messages and logs.
func shortSource(src string) string {
	if scheme(src) == "data" {
		if meta, _, ok := strings.Cut(src, ","); ok {
			return meta + ",..."
		}
	}
	return src
}
