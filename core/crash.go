package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
)

var (
	crashMu    sync.Mutex
	crashHooks []func()
	crashOut   io.Writer = os.Stderr
	crashExit            = os.Exit
)

// OnCrash registers a cleanup run before the crash report is printed
// The terminal backend uses it to leave raw mode so the stack trace is readable
func OnCrash(fn func()) {
	crashMu.Lock()
	defer crashMu.Unlock()
	crashHooks = append(crashHooks, fn)
}

// HandleCrash is the unified panic handler: runs cleanup hooks, prints the stack trace, exits 1
// Contract violations anywhere in the runtime panic and end up here
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	hooks := make([]func(), len(crashHooks))
	copy(hooks, crashHooks)
	crashMu.Unlock()

	// Most recent registration first, mirrors defer order
	for i := len(hooks) - 1; i >= 0; i-- {
		runHook(hooks[i])
	}

	fmt.Fprintf(crashOut, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(crashOut, "Stack Trace:\r\n%s\r\n", debug.Stack())

	crashExit(1)
}

// runHook isolates a failing hook so the report still prints
func runHook(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// Go runs fn in a new goroutine with panic recovery routed to HandleCrash
// Use this instead of the 'go' keyword so a background panic still restores the terminal
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
