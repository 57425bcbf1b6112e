package sensing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/scene"
)

const anchorFileExt = ".toml"

// DirectoryProvider simulates scene reconstruction from a directory of anchor
// files. Every *.toml file is one mesh anchor: creating a file adds the
// anchor, writing it updates the anchor and deleting or renaming it removes
// the anchor.
type DirectoryProvider struct {
	dir string

	updates  chan AnchorUpdate
	consumed atomic.Bool
	running  atomic.Bool

	mu     sync.Mutex
	anchor map[string]uuid.UUID // file path -> anchor id
}

func NewDirectoryProvider(dir string) *DirectoryProvider {
	return &DirectoryProvider{
		dir:     dir,
		updates: make(chan AnchorUpdate, 64),
		anchor:  make(map[string]uuid.UUID),
	}
}

// IsSupported reports whether the watched directory exists.
func (p *DirectoryProvider) IsSupported() bool {
	s, err := os.Stat(p.dir)
	return err == nil && s.IsDir()
}

// Run starts watching the directory and emits Added for every anchor file
// already present. The update sequence ends when ctx is cancelled.
func (p *DirectoryProvider) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return errors.New("directory provider already running")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.running.Store(false)
		return err
	}
	if err := watcher.Add(p.dir); err != nil {
		watcher.Close()
		p.running.Store(false)
		return err
	}

	existing, err := filepath.Glob(filepath.Join(p.dir, "*"+anchorFileExt))
	if err != nil {
		watcher.Close()
		p.running.Store(false)
		return err
	}
	slices.Sort(existing)

	go p.watch(ctx, watcher, existing)
	return nil
}

func (p *DirectoryProvider) AnchorUpdates() (<-chan AnchorUpdate, error) {
	if !p.consumed.CompareAndSwap(false, true) {
		return nil, core.ErrProviderConsumed
	}
	return p.updates, nil
}

func (p *DirectoryProvider) GenerateStaticMesh(ctx context.Context, anchor MeshAnchor) (*scene.StaticMeshShape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return GenerateStaticMesh(anchor)
}

func (p *DirectoryProvider) watch(ctx context.Context, watcher *fsnotify.Watcher, existing []string) {
	defer close(p.updates)
	defer watcher.Close()

	for _, path := range existing {
		if !p.handleFileEvent(ctx, path) {
			return
		}
	}

	for {
		select {
		case e, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(e.Name) != anchorFileExt {
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if !p.handleFileEvent(ctx, e.Name) {
					return
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if !p.handleRemove(ctx, e.Name) {
					return
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			core.LogError("anchor directory watcher: %s", err.Error())

		case <-ctx.Done():
			return
		}
	}
}

// handleFileEvent reports false once ctx is cancelled.
func (p *DirectoryProvider) handleFileEvent(ctx context.Context, path string) bool {
	anchor, err := ReadAnchorFile(path)
	if err != nil {
		// editors often write in several steps; the next write retries
		core.LogWarn("skipping anchor file: %s", err.Error())
		return ctx.Err() == nil
	}
	if len(anchor.Geometry.Faces) == 0 {
		// truncated mid-write
		core.LogDebug("anchor file %s has no faces yet", path)
		return ctx.Err() == nil
	}

	p.mu.Lock()
	prev, known := p.anchor[path]
	p.anchor[path] = anchor.ID
	p.mu.Unlock()

	if known && prev != anchor.ID {
		// the file now describes a different anchor
		if !p.emit(ctx, AnchorEventRemoved, MeshAnchor{ID: prev}) {
			return false
		}
		known = false
	}
	event := AnchorEventAdded
	if known {
		event = AnchorEventUpdated
	}
	return p.emit(ctx, event, anchor)
}

func (p *DirectoryProvider) handleRemove(ctx context.Context, path string) bool {
	p.mu.Lock()
	id, known := p.anchor[path]
	delete(p.anchor, path)
	p.mu.Unlock()

	if !known {
		return ctx.Err() == nil
	}
	return p.emit(ctx, AnchorEventRemoved, MeshAnchor{ID: id})
}

func (p *DirectoryProvider) emit(ctx context.Context, event AnchorEvent, anchor MeshAnchor) bool {
	select {
	case p.updates <- AnchorUpdate{Anchor: anchor, Event: event, Timestamp: time.Now()}:
		return true
	case <-ctx.Done():
		return false
	}
}
