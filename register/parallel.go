package register

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Each calls fn(i) for every i in [0, n) on at most `workers` goroutines
// (GOMAXPROCS when workers <= 0). fn must only write to slot i of any
// shared output so that results keep input order.
func Each(n, workers int, fn func(i int)) {
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
