package sceneview

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
)

// watchReaddTimeout bounds how long a watched file may stay missing after an editor replaced it.
const watchReaddTimeout = 5 * time.Second

// backgroundWatcher reloads the background image whenever its file changes.
type backgroundWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	cancel  context.CancelFunc
	done    chan struct{}
}

// WatchBackgroundTexture loads the background image from path and reloads it whenever the file changes.
func (v *Viewer) WatchBackgroundTexture(path string) error {
	if err := v.SetBackgroundTextureFile(path); err != nil {
		return err
	}
	if v.bkWatcher != nil {
		v.bkWatcher.close()
		v.bkWatcher = nil
	}
	w, err := newFsWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err = w.Add(abs); err != nil {
		_ = w.Close()
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &backgroundWatcher{watcher: w, path: abs, cancel: cancel, done: make(chan struct{})}
	go bw.run(ctx, func() {
		img, err := decodeImageFile(abs)
		if err != nil {
			log.Println("[Watcher] ERROR: reloading the background texture:", err)
			return
		}
		v.scheduler.AddIdleCallback(func() {
			if v.destroyed {
				return
			}
			v.SetBackgroundTexture(img)
			v.RedrawLater()
		})
	})
	v.bkWatcher = bw
	log.Println("[Watcher] Watching", abs, "for background texture changes")
	return nil
}

// run forwards file events until closed. Decoding happens here, off the event loop; only the result
// is handed to the scheduler.
func (bw *backgroundWatcher) run(ctx context.Context, reload func()) {
	defer close(bw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-bw.watcher.Events:
			if !ok {
				return
			}
			switch {
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
				reload()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				// editors often replace the file: wait for it to come back and watch the new one
				if bw.readd(ctx) {
					reload()
				}
			}
		case err, ok := <-bw.watcher.Errors:
			if !ok {
				return
			}
			log.Println("[Watcher] ERROR: watching the background texture:", err)
		}
	}
}

func (bw *backgroundWatcher) readd(ctx context.Context) bool {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, bw.watcher.Add(bw.path)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(watchReaddTimeout))
	if err != nil {
		log.Println("[Watcher] ERROR: the background texture", bw.path, "disappeared:", err)
		return false
	}
	return true
}

func (bw *backgroundWatcher) close() {
	bw.cancel()
	_ = bw.watcher.Close()
	<-bw.done
}
