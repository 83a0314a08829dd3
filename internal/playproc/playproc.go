// Package playproc manages the external audio player process.
//
// The player is unmanaged once started: the pipeline only watches for it to
// exit and asks it to terminate on shutdown. Its output is discarded, never
// read.
package playproc

import (
	"context"
	"os/exec"
	"sync"
	"syscall"

	"github.com/pkg/errors"
)

// Process is a handle on a running audio player.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}

	terminate sync.Once
}

// Start spawns the player command with the audio file path appended as its
// last argument. The process is killed if ctx is canceled.
func Start(ctx context.Context, argv []string, path string) (*Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty player command")
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", argv[0])
	}

	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// Done returns a channel that is closed once the player has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Alive reports whether the player is still running.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate asks the player to exit if it is still running. It is safe to
// call more than once.
func (p *Process) Terminate() {
	p.terminate.Do(func() {
		if p.Alive() {
			p.cmd.Process.Signal(syscall.SIGTERM)
		}
	})
}
