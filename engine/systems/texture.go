package systems

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/overrides"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

type TextureSystemConfig struct {
	Overrides overrides.OverrideInfo
	/** @brief "ktx2" or "png", see overrides.NewLoader. */
	LoaderName string
	/** @brief Reload overrides when their files change on disk. */
	Watch bool
}

type materialRequest struct {
	relativePath string
	defaults     overrides.DefaultTextures
	defaultSize  metadata.Extent2D
	onLoaded     func(*overrides.TextureOverrides)
}

/**
 * @brief Loads material texture overrides on the job system and keeps the
 * latest result of every requested material.
 */
type TextureSystem struct {
	Config *TextureSystemConfig

	loader    overrides.Loader
	watcher   *overrides.Watcher
	jobSystem *JobSystem

	mutex    sync.Mutex
	requests map[string]*materialRequest
	loaded   map[string]*overrides.TextureOverrides
	pending  sync.WaitGroup
}

func NewTextureSystem(config *TextureSystemConfig, js *JobSystem) (*TextureSystem, error) {
	if js == nil {
		err := fmt.Errorf("func NewTextureSystem - a job system is required")
		core.LogError(err.Error())
		return nil, err
	}
	loader, err := overrides.NewLoader(config.LoaderName)
	if err != nil {
		return nil, err
	}

	ts := &TextureSystem{
		Config:    config,
		loader:    loader,
		jobSystem: js,
		requests:  make(map[string]*materialRequest),
		loaded:    make(map[string]*overrides.TextureOverrides),
	}

	if config.Watch && !config.Overrides.Disable {
		w, err := overrides.NewWatcher(config.Overrides.TexturesPath)
		if err != nil {
			core.LogWarn("Texture overrides are not watched: %s", err.Error())
		} else {
			ts.watcher = w
		}
	}
	return ts, nil
}

/**
 * @brief Queues the loading of a material's overrides.
 * @param relativePath The material path relative to the textures folder.
 * @param onLoaded Optional, called from a worker once the result is stored.
 */
func (ts *TextureSystem) LoadAsync(relativePath string, defaults overrides.DefaultTextures, defaultSize metadata.Extent2D, onLoaded func(*overrides.TextureOverrides)) {
	req := &materialRequest{
		relativePath: relativePath,
		defaults:     defaults,
		defaultSize:  defaultSize,
		onLoaded:     onLoaded,
	}

	ts.mutex.Lock()
	ts.requests[relativePath] = req
	ts.mutex.Unlock()

	ts.submit(req)
}

func (ts *TextureSystem) submit(req *materialRequest) {
	ts.pending.Add(1)
	err := ts.jobSystem.Submit(JobTask{
		OnStart: func() (any, error) {
			return overrides.New(req.relativePath, req.defaults, req.defaultSize, ts.Config.Overrides, ts.loader), nil
		},
		OnComplete: func(result any) {
			o := result.(*overrides.TextureOverrides)
			ts.mutex.Lock()
			ts.loaded[req.relativePath] = o
			ts.mutex.Unlock()
			if req.onLoaded != nil {
				req.onLoaded(o)
			}
		},
		OnCompletionCallback: ts.pending.Done,
	})
	if err != nil {
		core.LogWarn("Texture overrides of %q were not loaded: %s", req.relativePath, err.Error())
		ts.pending.Done()
	}
}

// Get returns the latest overrides of a material.
func (ts *TextureSystem) Get(relativePath string) (*overrides.TextureOverrides, bool) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	o, ok := ts.loaded[relativePath]
	return o, ok
}

// Wait blocks until every queued load has finished.
func (ts *TextureSystem) Wait() {
	ts.pending.Wait()
}

/**
 * @brief Reloads the materials whose override files changed since the last
 * call. Should happen once a frame.
 * @return The relative paths of the reloaded materials.
 */
func (ts *TextureSystem) Update() []string {
	if ts.watcher == nil {
		return nil
	}
	changed := ts.watcher.Invalidate(ts.loader)
	if len(changed) == 0 {
		return nil
	}
	return ts.reload(changed)
}

func (ts *TextureSystem) reload(changedFiles []string) []string {
	files := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		files[filepath.Clean(f)] = true
	}

	var toReload []*materialRequest
	ts.mutex.Lock()
	for _, req := range ts.requests {
		if ts.usesAny(req.relativePath, files) {
			toReload = append(toReload, req)
		}
	}
	ts.mutex.Unlock()

	reloaded := make([]string, 0, len(toReload))
	for _, req := range toReload {
		core.LogDebug("Reloading texture overrides of %q", req.relativePath)
		ts.submit(req)
		reloaded = append(reloaded, req.relativePath)
	}
	return reloaded
}

// usesAny reports whether one of the material's override files is in files.
func (ts *TextureSystem) usesAny(relativePath string, files map[string]bool) bool {
	for _, postfix := range ts.Config.Overrides.Postfixes {
		p, ok := overrides.TexturePath("", relativePath, postfix, overrides.GetExtension(ts.loader))
		if ok && files[p] {
			return true
		}
	}
	return false
}

func (ts *TextureSystem) Shutdown() error {
	ts.pending.Wait()

	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	for _, o := range ts.loaded {
		o.Close()
	}
	ts.loaded = make(map[string]*overrides.TextureOverrides)

	if ts.watcher != nil {
		w := ts.watcher
		ts.watcher = nil
		return w.Close()
	}
	return nil
}
