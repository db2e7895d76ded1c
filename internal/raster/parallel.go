package raster

import (
	"runtime"
	"sync"
)

// parallelRows splits [0, height) into one band of rows per CPU and runs fn on each band concurrently.
func parallelRows(height int, fn func(y0, y1 int)) {
	workers := runtime.NumCPU()
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}
	band := (height + workers - 1) / workers
	workerWg := &sync.WaitGroup{}
	for y0 := 0; y0 < height; y0 += band {
		workerWg.Add(1)
		go func(y0, y1 int) {
			defer workerWg.Done()
			fn(y0, y1)
		}(y0, min(y0+band, height))
	}
	workerWg.Wait()
}
