package assets

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/kaelos/prism/engine/core"
)

// Watcher observes a shader directory and fires EVENT_CODE_SHADER_CHANGED
// whenever a .spv file is written, so the renderer can rebuild its
// pipelines against the new binaries.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{})}
	go w.run()
	core.LogInfo("watching %s for shader changes", dir)
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".spv" {
				continue
			}
			core.LogInfo("shader changed on disk: %s", event.Name)
			ctx := core.EventContext{Str: event.Name}
			core.EventFire(core.EVENT_CODE_SHADER_CHANGED, w, ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			core.LogWarn("shader watcher: %s", err)
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
