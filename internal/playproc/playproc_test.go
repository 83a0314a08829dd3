package playproc

import (
	"context"
	"testing"
	"time"
)

func TestStartEmptyCommand(t *testing.T) {
	if _, err := Start(context.Background(), nil, "song.mp3"); err == nil {
		t.Fatal("Start accepted an empty command")
	}
}

func TestDoneClosesOnExit(t *testing.T) {
	// The audio path lands in $0; the shell exits immediately.
	p, err := Start(context.Background(), []string{"sh", "-c", "exit 0"}, "song.mp3")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done was not closed after the process exited")
	}

	if p.Alive() {
		t.Fatal("Alive after the process exited")
	}

	// Terminating a dead process must be a no-op.
	p.Terminate()
	p.Terminate()
}

func TestTerminateStopsProcess(t *testing.T) {
	// The "audio path" doubles as the sleep duration here.
	p, err := Start(context.Background(), []string{"sleep"}, "60")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !p.Alive() {
		t.Fatal("process not alive right after Start")
	}

	p.Terminate()

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not stop after Terminate")
	}
}
