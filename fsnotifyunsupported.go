//go:build !(freebsd || openbsd || netbsd || dragonfly || darwin || windows || linux || solaris)

package sceneview

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

func newFsWatcher() (*fsnotify.Watcher, error) {
	return nil, fmt.Errorf("%w: file watching on this platform", ErrUnsupportedCapability)
}
