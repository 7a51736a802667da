package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/adobe/asset-compute-pipeline/internal/eventsink"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/storage"
	"github.com/adobe/asset-compute-pipeline/internal/transfer"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

// FakeTransformer is a scriptable transformer.Transformer for tests.
type FakeTransformer struct {
	name     string
	man      manifest.Manifest
	Err      error
	ComputeFn func(ctx transformer.Context, input, output map[string]any) error
	calls    int32
}

// NewFakeTransformer returns a FakeTransformer whose Compute writes
// nothing and returns nil unless ComputeFn or Err is set.
func NewFakeTransformer(name string, m manifest.Manifest) *FakeTransformer {
	return &FakeTransformer{name: name, man: m}
}

func (f *FakeTransformer) Name() string                  { return f.name }
func (f *FakeTransformer) Manifest() manifest.Manifest    { return f.man }

// Compute implements transformer.Transformer.
func (f *FakeTransformer) Compute(ctx transformer.Context, input, output map[string]any) error {
	atomic.AddInt32(&f.calls, 1)
	if f.ComputeFn != nil {
		return f.ComputeFn(ctx, input, output)
	}
	return f.Err
}

// CallCount returns how many times Compute was invoked.
func (f *FakeTransformer) CallCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

// FakeStorage is a scriptable storage.Adapter for tests.
type FakeStorage struct {
	mu        sync.Mutex
	PutErr    error
	Released  []string
	nextKey   int
}

func (s *FakeStorage) Put(path string) (storage.Object, error) {
	if s.PutErr != nil {
		return storage.Object{}, s.PutErr
	}
	s.mu.Lock()
	s.nextKey++
	key := path
	s.mu.Unlock()
	return storage.Object{Key: key, PresignedURL: "https://storage.example/" + key}, nil
}

func (s *FakeStorage) Release(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released = append(s.Released, key)
	return nil
}

// FakeTransfer is a scriptable transfer.Adapter for tests.
type FakeTransfer struct {
	DownloadErr error
	UploadErr   error
	Uploaded    []transfer.Rendition
	mu          sync.Mutex
}

func (t *FakeTransfer) Download(ctx context.Context, asset transfer.Asset, file string) error {
	return t.DownloadErr
}

func (t *FakeTransfer) Upload(ctx context.Context, rendition transfer.Rendition) error {
	if t.UploadErr != nil {
		return t.UploadErr
	}
	t.mu.Lock()
	t.Uploaded = append(t.Uploaded, rendition)
	t.mu.Unlock()
	return nil
}

// FakeEventSink records every emitted event for assertion.
type FakeEventSink struct {
	mu     sync.Mutex
	Events []FakeEvent
}

// FakeEvent is one recorded Emit call.
type FakeEvent struct {
	Name    string
	Payload eventsink.Payload
}

func (s *FakeEventSink) Emit(name string, payload eventsink.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, FakeEvent{Name: name, Payload: payload})
	return nil
}

func (s *FakeEventSink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Events))
	for i, e := range s.Events {
		out[i] = e.Name
	}
	return out
}

// FakeMetricSink is a no-op metricsink.Sink that records error calls.
type FakeMetricSink struct {
	mu     sync.Mutex
	Errors []error
}

func (s *FakeMetricSink) Add(fields map[string]any) {}

func (s *FakeMetricSink) Send(kind string, fields map[string]any) {}

func (s *FakeMetricSink) HandleError(err error, context map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, err)
}
