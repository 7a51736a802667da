// Package transfer implements the external transfer adapter contract
// (spec.md §6): HTTPS download/upload with retry and concurrency
// sizing per spec.md §5.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/adobe/asset-compute-pipeline/internal/errors"
)

// Asset describes a download source.
type Asset struct {
	URL         string
	Headers     map[string]string
	Size        int64
	ContentType string
	RetryOK     bool // false opts out of retries
}

// Target is a single upload destination.
type Target struct {
	URL string
}

// MultiPartTarget is a multi-part upload destination (spec.md §6).
type MultiPartTarget struct {
	URLs []string
}

// Rendition is the local artifact to upload, and where to send it.
type Rendition struct {
	Path      string
	Target    *Target
	MultiPart *MultiPartTarget
}

// Adapter is the transfer contract the engine depends on.
type Adapter interface {
	Download(ctx context.Context, asset Asset, file string) error
	Upload(ctx context.Context, rendition Rendition) error
}

// DefaultConcurrency is used when the process memory limit cannot be determined.
const DefaultConcurrency = 8

// MemoryFraction is the ceiling on concurrency × chunkSize relative to
// available memory (spec.md §5).
const MemoryFraction = 0.8

// ChunkSize is the preferred chunk size for concurrent transfers.
const ChunkSize = 8 * 1024 * 1024 // 8 MiB

// HTTPSAdapter is the default Adapter: plain HTTPS GET/PUT with
// bounded retries, paced by a token-bucket limiter, and concurrency
// sized by available memory.
type HTTPSAdapter struct {
	Client      *http.Client
	MaxRetries  int
	Limiter     *rate.Limiter
	Concurrency int
}

// NewHTTPSAdapter returns an HTTPSAdapter sized per spec.md §5's
// memory-based concurrency rule.
func NewHTTPSAdapter(availableMemory int64) *HTTPSAdapter {
	concurrency := DefaultConcurrency
	if availableMemory > 0 {
		byMemory := int(float64(availableMemory) * MemoryFraction / float64(ChunkSize))
		if byMemory > 0 {
			concurrency = byMemory
		}
	}
	return &HTTPSAdapter{
		Client:      &http.Client{Timeout: 0},
		MaxRetries:  3,
		Limiter:     rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		Concurrency: concurrency,
	}
}

// Download fetches asset.URL to file, retrying transient failures
// only when asset.RetryOK is true; its zero value disables retries.
func (a *HTTPSAdapter) Download(ctx context.Context, asset Asset, file string) error {
	retries := a.MaxRetries
	if !asset.RetryOK {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := a.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		if err := a.downloadOnce(ctx, asset, file); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("download %s: %w", asset.URL, lastErr)
}

func (a *HTTPSAdapter) downloadOnce(ctx context.Context, asset Asset, file string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return err
	}
	for k, v := range asset.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d downloading %s", resp.StatusCode, asset.URL)
	}

	out, err := os.Create(file)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// Upload sends rendition.Path to its single or multi-part target,
// surfacing a dedicated RenditionTooLarge error on 413 responses.
func (a *HTTPSAdapter) Upload(ctx context.Context, rendition Rendition) error {
	if rendition.MultiPart != nil {
		return a.uploadMultiPart(ctx, rendition)
	}
	if rendition.Target == nil {
		return nil
	}
	return a.uploadOne(ctx, rendition.Path, rendition.Target.URL)
}

func (a *HTTPSAdapter) uploadMultiPart(ctx context.Context, rendition Rendition) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Concurrency)

	for _, url := range rendition.MultiPart.URLs {
		url := url
		g.Go(func() error {
			return a.uploadOne(gctx, rendition.Path, url)
		})
	}
	return g.Wait()
}

func (a *HTTPSAdapter) uploadOne(ctx context.Context, path, url string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return err
	}
	req.ContentLength = info.Size()

	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return errors.NewRenditionTooLarge(fmt.Sprintf("upload target rejected %s (413)", path), map[string]string{"url": url})
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d uploading %s", resp.StatusCode, path)
	}
	return nil
}
