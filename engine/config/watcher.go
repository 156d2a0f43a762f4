package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads an AnimationConfig file whenever it changes on disk.
// Valid configs are delivered to the callback; invalid ones are logged and dropped so the
// previous config stays in effect.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(AnimationConfig)
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher starts watching a config file.
// The directory is watched rather than the file so editors that replace the file on save are still seen.
//
// Parameters:
//   - path: the config file path
//   - onChange: called from the watcher goroutine with every successfully parsed config
//
// Returns:
//   - *Watcher: the running watcher
//   - error: an error if the filesystem watch could not be established
func NewWatcher(path string, onChange func(AnimationConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadAnimationConfig(w.path)
			if err != nil {
				common.LogWarn("ignoring config change: %v", err)
				continue
			}
			common.LogInfo("reloaded animation config from %s", w.path)
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			common.LogError("config watcher: %v", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
