package engine

import (
	"context"
	"sync"
	"time"
)

// engineContext is the per-activation bookkeeping the guaranteed
// cleanup path reads from: the temporary cloud objects a step
// materialized, the per-step working directories and probe-source
// downloads it owns and must remove individually, the rendition
// errors accumulated along the way, and whether a final rendition
// event has already been emitted.
type engineContext struct {
	requestID string
	baseDir   string
	startedAt time.Time

	mu              sync.Mutex
	cloudKeys       []string
	cleanupPaths    []string
	renditionErrors []error
	finalEmitted    bool
}

func newEngineContext(requestID, baseDir string) *engineContext {
	return &engineContext{requestID: requestID, baseDir: baseDir, startedAt: time.Now()}
}

func (c *engineContext) addCloudKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cloudKeys = append(c.cloudKeys, key)
}

func (c *engineContext) takeCloudKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.cloudKeys
	c.cloudKeys = nil
	return out
}

// addCleanupPath registers a file or directory under the activation's
// base directory (a step's working directory, or a probe-source
// download) that cleanup must remove individually.
func (c *engineContext) addCleanupPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupPaths = append(c.cleanupPaths, path)
}

func (c *engineContext) takeCleanupPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.cleanupPaths
	c.cleanupPaths = nil
	return out
}

func (c *engineContext) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renditionErrors = append(c.renditionErrors, err)
}

func (c *engineContext) errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.renditionErrors))
	copy(out, c.renditionErrors)
	return out
}

func (c *engineContext) setFinalEmitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalEmitted = true
}

func (c *engineContext) isFinalEmitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalEmitted
}

// transformerContext is the engine's implementation of
// transformer.Context, handed to a single step's Compute call.
type transformerContext struct {
	context.Context
	dir      string
	auth     map[string]string
	userData map[string]any
}

func (c *transformerContext) Directory() string       { return c.dir }
func (c *transformerContext) Auth() map[string]string  { return c.auth }
func (c *transformerContext) UserData() map[string]any { return c.userData }
