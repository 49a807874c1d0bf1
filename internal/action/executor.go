package action

import (
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultShell = "/bin/bash"

// Request asks the executor to run one script.
type Request struct {
	ID      string
	Letter  rune
	Path    string
	WorkDir string
	At      time.Time
}

// NewRequest builds a request for a resolved descriptor.
func NewRequest(d Descriptor, workDir string) Request {
	return Request{
		ID:      uuid.NewString(),
		Letter:  d.Letter,
		Path:    d.Path,
		WorkDir: workDir,
		At:      time.Now(),
	}
}

// Executor runs scripts. Execute returns immediately; outcomes are not
// reported back to the caller.
type Executor interface {
	Execute(req Request)
}

// ShellExecutor runs each script as "<shell> <path>" in its own goroutine.
type ShellExecutor struct {
	Shell string
	// OnExit, when set, observes every finished run.
	OnExit func(req Request, err error)

	wg sync.WaitGroup
}

// NewShellExecutor returns an executor using /bin/bash.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{Shell: defaultShell}
}

// Execute starts the script and returns without waiting for it.
func (e *ShellExecutor) Execute(req Request) {
	shell := e.Shell
	if shell == "" {
		shell = defaultShell
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		cmd := exec.Command(shell, req.Path)
		if req.WorkDir != "" {
			if info, err := os.Stat(req.WorkDir); err == nil && info.IsDir() {
				cmd.Dir = req.WorkDir
			}
		}

		start := time.Now()
		err := cmd.Run()
		if err != nil {
			log.Printf("[ACTION] %s %s failed after %v: %v", req.ID, req.Path, time.Since(start), err)
		} else {
			log.Printf("[ACTION] %s %s finished in %v", req.ID, req.Path, time.Since(start))
		}
		if e.OnExit != nil {
			e.OnExit(req, err)
		}
	}()
}

// Wait blocks until every started script has exited.
func (e *ShellExecutor) Wait() {
	e.wg.Wait()
}
