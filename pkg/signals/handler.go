// Package signals turns the first SIGINT or SIGTERM into a graceful stop.
// Registered handlers run once; a signal with no handler left exits the
// process.
package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mudler/xlog"
)

var terminationSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

var (
	signalHandlers      map[int]func()
	nextHandlerID       int
	signalHandlersMutex sync.Mutex
	signalHandlersOnce  sync.Once
)

// RegisterGracefulTerminationHandler runs fn on the next termination signal.
// The returned function unregisters it.
func RegisterGracefulTerminationHandler(fn func()) func() {
	signalHandlersOnce.Do(func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, terminationSignals...)
		go signalHandler(c)
	})

	signalHandlersMutex.Lock()
	defer signalHandlersMutex.Unlock()
	if signalHandlers == nil {
		signalHandlers = make(map[int]func())
	}
	id := nextHandlerID
	nextHandlerID++
	signalHandlers[id] = fn

	return func() {
		signalHandlersMutex.Lock()
		defer signalHandlersMutex.Unlock()
		delete(signalHandlers, id)
	}
}

func signalHandler(c chan os.Signal) {
	for sig := range c {
		signalHandlersMutex.Lock()
		handlers := signalHandlers
		signalHandlers = nil
		signalHandlersMutex.Unlock()

		if len(handlers) == 0 {
			xlog.Info("Terminating", "signal", sig.String())
			os.Exit(1)
		}

		xlog.Info("Stopping gracefully, signal again to terminate", "signal", sig.String())
		for _, fn := range handlers {
			fn()
		}
	}
}
