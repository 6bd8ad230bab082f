package xkbtool

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	restartBackoff = 5 * time.Second
	killGrace      = 2 * time.Second
)

// Watcher runs a long-lived `xkb-switch -W` child process and forwards one
// layout name per change onto Lines. It restarts the child after a fixed
// backoff if it exits unexpectedly. All layout state lives with the consumer;
// the watcher goroutine only posts lines.
type Watcher struct {
	lines  chan string
	cancel context.CancelFunc
	done   chan struct{}
	log    *zap.SugaredLogger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// StartWatch spawns the change-notification child process.
func (x *XkbSwitch) StartWatch(ctx context.Context, log *zap.SugaredLogger) (*Watcher, error) {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		lines:  make(chan string, 16),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log,
	}

	// Fail fast if the very first spawn cannot happen; later restarts are
	// best effort.
	if err := w.spawn(ctx, x.path, x.extra); err != nil {
		cancel()
		return nil, err
	}

	go w.loop(ctx, x.path, x.extra)

	return w, nil
}

// Lines delivers one layout code per detected change, in arrival order.
func (w *Watcher) Lines() <-chan string { return w.lines }

// Stop terminates the child process and waits for the reader goroutine to
// finish, so no line arrives after Stop returns. Safe to call more than once.
func (w *Watcher) Stop() {
	w.cancel()
	w.terminate()
	<-w.done
}

func (w *Watcher) spawn(ctx context.Context, path string, extra []string) error {
	cmd := exec.Command(path, append(append([]string{}, extra...), "-W")...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("watch pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s -W: %w", path, err)
	}

	w.mu.Lock()
	w.cmd = cmd
	w.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case w.lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) loop(ctx context.Context, path string, extra []string) {
	defer close(w.done)

	for {
		w.mu.Lock()
		cmd := w.cmd
		w.mu.Unlock()

		err := cmd.Wait()
		if ctx.Err() != nil {
			return
		}
		w.log.Warnw("layout watcher exited, restarting", "error", err, "backoff", restartBackoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartBackoff):
		}

		if err := w.spawn(ctx, path, extra); err != nil {
			w.log.Warnw("layout watcher restart failed", "error", err)
			continue
		}
	}
}

// terminate asks the child nicely first, then kills it after a grace period.
// The run loop owns Wait; this only signals.
func (w *Watcher) terminate() {
	w.mu.Lock()
	cmd := w.cmd
	w.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-w.done:
	case <-time.After(killGrace):
		_ = cmd.Process.Kill()
	}
}
