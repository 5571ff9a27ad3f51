package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"osumap/logging"
)

// Run starts f on its own goroutine. A panic in f is logged with its stack and
// ends the process.
func Run(f func()) {
	go func() {
		defer Recover()
		f()
	}()
}

// RunEach calls f(i) for every i in [0, n) with at most workers calls in
// flight, and returns once all of them have finished.
func RunEach(n, workers int, f func(i int)) {
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		sem <- struct{}{}
		Run(func() {
			defer wg.Done()
			defer func() { <-sem }()
			f(i)
		})
	}
	wg.Wait()
}

func Recover() {
	if r := recover(); r != nil {
		HandlePanic(r)
	}
}

var exit = os.Exit

func HandlePanic(value any) {
	defer exit(1)

	buf := make([]byte, 64<<10)
	buf = buf[:runtime.Stack(buf, false)]

	logging.Error("goroutine panicked", "value", fmt.Sprint(value), "stack", string(buf))
}
