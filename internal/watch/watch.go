package watch

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/source"
	"github.com/obspack/obspack/internal/vault"
)

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period after the last change before re-packing.
	// Zero means the 500ms default.
	Debounce time.Duration

	// OnPack is called after every successful pack, including the initial
	// one.
	OnPack func(*source.PackOutput)
}

// Watcher re-packs a vault whenever its markdown notes change.
type Watcher struct {
	cfg     *config.Config
	input   source.PackInput
	opts    Options
	root    string
	outPath string
}

// New resolves the vault and prepares a Watcher. The vault must exist up
// front; a vanishing vault mid-watch only fails the next pack.
func New(cfg *config.Config, input source.PackInput, opts Options) (*Watcher, error) {
	root, err := vault.Resolve(input.VaultRef, cfg.VaultRoot)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	outPath, err := filepath.Abs(source.ResolveOutputPath(input.VaultRef, input.OutputPath))
	if err != nil {
		outPath = source.ResolveOutputPath(input.VaultRef, input.OutputPath)
	}

	return &Watcher{
		cfg:     cfg,
		input:   input,
		opts:    opts,
		root:    root,
		outPath: outPath,
	}, nil
}

// Run packs once, then watches the vault tree and re-packs after each
// debounced burst of changes, until ctx is cancelled. The initial pack
// failing is fatal; later pack failures are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.pack(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	log.Printf("watching %s", w.root)

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.opts.Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(w.opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-timerCh:
			if err := w.pack(); err != nil {
				log.Printf("re-pack failed: %v", err)
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			// New directories join the watch list
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						log.Printf("failed to watch new dir %s: %v", ev.Name, addErr)
					}
					schedule()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			// Ignore our own output when it lives inside the vault
			if abs, absErr := filepath.Abs(ev.Name); absErr == nil && abs == w.outPath {
				continue
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", watchErr)
		}
	}
}

func (w *Watcher) pack() error {
	out, err := source.Pack(w.cfg, w.input)
	if err != nil {
		return err
	}
	if w.opts.OnPack != nil {
		w.opts.OnPack(out)
	}
	return nil
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
