//go:build darwin

package hotkeys

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include "tap_darwin.h"
*/
import "C"

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/protab/protab/internal/chord"
)

var errTapCreate = errors.New("failed to create global event tap")

// The event tap callback has no user data, so the handler of the single
// installed tap lives here.
var activeHandler atomic.Pointer[Handler]

//export protabHandleKey
func protabHandleKey(code C.int64_t, down C.int, flags C.uint64_t) C.int {
	h := activeHandler.Load()
	if h == nil {
		return 0
	}
	ev := chord.KeyEvent{
		Code:      int64(code),
		Phase:     chord.PhaseUp,
		Modifiers: ModifiersFromFlags(uint64(flags)),
		Timestamp: time.Now(),
	}
	if down != 0 {
		ev.Phase = chord.PhaseDown
	}
	if (*h)(ev) == chord.Suppress {
		return 1
	}
	return 0
}

// Run installs the tap and blocks until ctx is done.
func (s *TapSource) Run(ctx context.Context, handler Handler) error {
	prompt := C.int(0)
	if s.Prompt {
		prompt = 1
	}
	if C.protabIsTrusted(prompt) == 0 {
		return ErrNotTrusted
	}

	if !activeHandler.CompareAndSwap(nil, &handler) {
		return ErrBusy
	}
	defer activeHandler.Store(nil)

	C.protabTapPrepare()
	result := make(chan error, 1)
	go func() {
		// The tap's run loop source is bound to the creating thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if C.protabTapRun() != 0 {
			result <- errTapCreate
			return
		}
		result <- nil
	}()

	interval := s.LivenessInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[HOOK] Event tap installed")
	for {
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			C.protabTapStop()
			return <-result
		case <-ticker.C:
			if C.protabTapEnsureEnabled() == 1 {
				log.Printf("[HOOK] Event tap was disabled, re-enabled")
			}
		}
	}
}
