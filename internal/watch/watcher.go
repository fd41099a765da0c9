package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/debounce"
	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeFunc receives one settled change. relPath is relative to the watch root in native
// separators, and empty when the root is a single file.
type ChangeFunc func(target domain.WatchTarget, relPath string)

type Options struct {
	Debounce time.Duration
	Ignore   *IgnoreMatcher
	Clock    clock.Clock
}

// Watcher is a recursive filesystem watch bound to one WatchTarget.
type Watcher struct {
	target    domain.WatchTarget
	root      string
	isDir     bool
	fsw       *fsnotify.Watcher
	debouncer *debounce.Debouncer
	ignore    *IgnoreMatcher
	logger    zerolog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open starts watching target.HostPath. Directories are watched recursively; directories
// created later are added as they appear. Failures to reach the root are *FilesystemError.
func Open(target domain.WatchTarget, opts Options, onChange ChangeFunc, logger zerolog.Logger) (*Watcher, error) {
	root := filepath.Clean(target.HostPath)
	info, err := os.Stat(root)
	if err != nil {
		return nil, NewFilesystemError(root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, NewFilesystemError(root, err)
	}

	w := &Watcher{
		target: target,
		root:   root,
		isDir:  info.IsDir(),
		fsw:    fsw,
		ignore: opts.Ignore,
		logger: logger.With().Str("container", target.ContainerName).Str("host_path", root).Logger(),
		done:   make(chan struct{}),
	}
	w.debouncer = debounce.New(opts.Clock, opts.Debounce, func(rel string) {
		onChange(target, rel)
	})

	if w.isDir {
		err = w.addTree(root)
	} else {
		// Editors often replace files instead of writing them, so watch the parent and filter.
		err = fsw.Add(filepath.Dir(root))
	}
	if err != nil {
		_ = fsw.Close()
		return nil, NewFilesystemError(root, err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop()
	}()

	return w, nil
}

func (w *Watcher) Target() domain.WatchTarget {
	return w.target
}

// Close stops the watch and cancels pending notifications. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// addTree watches dir and every directory below it that is not ignored. Only a failure on dir
// itself is returned; nested failures are logged.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable directory")
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != w.root && w.ignore.Match(filepath.ToSlash(w.relative(path))) {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn().Err(err).Str("path", path).Msg("Failed to watch directory")
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn().Err(err).Msg("Filesystem events were dropped")
				continue
			}
			w.logger.Error().Err(err).Msg("Filesystem watch error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// chmod is what propagation itself does, so attribute-only events would loop back.
	if ev.Op == fsnotify.Chmod {
		return
	}

	name := filepath.Clean(ev.Name)
	if !w.isDir {
		if name != w.root {
			return
		}
		w.debouncer.Trigger("")
		return
	}

	rel := w.relative(name)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	if w.ignore.Match(filepath.ToSlash(rel)) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := w.addTree(name); err != nil {
				w.logger.Warn().Err(err).Str("path", name).Msg("Failed to watch new directory")
			}
		}
	}
	w.logger.Trace().Str("op", ev.Op.String()).Str("path", rel).Msg("Filesystem event")
	w.debouncer.Trigger(rel)
}

func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return ""
	}
	return rel
}
