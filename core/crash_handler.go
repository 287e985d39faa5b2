package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
)

var (
	crashMu      sync.Mutex
	crashCleanup []func()
)

// OnCrash registers a cleanup hook run by HandleCrash before the process exits
// Used by terminal frontends to restore the screen
func OnCrash(fn func()) {
	crashMu.Lock()
	defer crashMu.Unlock()
	crashCleanup = append(crashCleanup, fn)
}

// HandleCrash runs registered cleanup hooks, prints the panic value and stack trace, and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	hooks := make([]func(), len(crashCleanup))
	copy(hooks, crashCleanup)
	crashMu.Unlock()

	// Reverse registration order, last acquired resource released first
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}

	os.Stdout.Sync()
	fmt.Fprintf(os.Stderr, "\nCRASH DETECTED: %v\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword for long-lived loops so crashes restore the terminal
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}

// PanicError carries a recovered panic value across goroutines
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Unwrap exposes the panic value when it is an error
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// Capture runs fn and converts a panic into a *PanicError
func Capture(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
