package providers

import (
	"bufio"
	"context"
	"os"
	"os/exec"

	"github.com/alexschlessinger/agentpipe/chunks"
	"github.com/alexschlessinger/agentpipe/lineio"
	"github.com/alexschlessinger/agentpipe/providers/mappers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CLIRunner drives one backend subprocess per execution: it launches the
// command, feeds primary output through the line demultiplexer into the
// backend's mapper, and logs diagnostic output without parsing it. The
// consumer paces reads; nothing beyond one partial line is buffered.
type CLIRunner struct {
	Name      string
	BuildArgs func(req *ExecutionRequest) (string, []string)
	NewMapper func() mappers.EventMapper
}

// Stream implements Provider
func (r *CLIRunner) Stream(ctx context.Context, req *ExecutionRequest) <-chan *chunks.Chunk {
	out := make(chan *chunks.Chunk, 16)
	go func() {
		defer close(out)
		r.run(ctx, req, out)
	}()
	return out
}

func (r *CLIRunner) run(ctx context.Context, req *ExecutionRequest, out chan<- *chunks.Chunk) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	// One mapper per execution; its tracker and flags never outlive the turn
	mapper := r.NewMapper()

	name, args := r.BuildArgs(req)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = req.WorkDir
	cmd.Env = append(os.Environ(), req.Env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.fail(ctx, out, mapper, err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.fail(ctx, out, mapper, err)
		return
	}

	zap.S().Debugw("backend_starting", "provider", r.Name, "cmd", name, "args", args)

	if err := cmd.Start(); err != nil {
		r.fail(ctx, out, mapper, err)
		return
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		// Primary output: line-demultiplexed, parsed, mapped. Reading to
		// EOF also drains in-flight output after a cancellation.
		return lineio.Scan(stdout, func(line string) error {
			for _, c := range mapLine(mapper, line) {
				if !emit(ctx, out, c) {
					// Consumer is gone; keep draining the pipe so the
					// process can exit, but stop translating
					return nil
				}
			}
			return nil
		})
	})
	g.Go(func() error {
		// Diagnostic output is logged, never parsed
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			zap.S().Debugw("backend_stderr", "provider", r.Name, "line", scanner.Text())
		}
		return nil
	})

	readErr := g.Wait()
	waitErr := cmd.Wait()

	canceled := ctx.Err() != nil
	exitErr := waitErr
	if exitErr == nil {
		exitErr = readErr
	}

	for _, c := range mapper.Finish(exitErr, canceled) {
		emitTerminal(out, c, canceled)
	}
	zap.S().Debugw("backend_finished", "provider", r.Name, "exit_err", waitErr, "canceled", canceled)
}

// fail reports a launch failure and still closes the stream properly
func (r *CLIRunner) fail(ctx context.Context, out chan<- *chunks.Chunk, mapper mappers.EventMapper, err error) {
	zap.S().Debugw("backend_launch_failed", "provider", r.Name, "error", err)
	for _, c := range mapper.Finish(err, false) {
		emit(ctx, out, c)
	}
}

// mapLine guards the translation boundary: a panic while mapping one event
// degrades to an error chunk instead of losing the rest of the turn
func mapLine(mapper mappers.EventMapper, line string) (result []*chunks.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Debugw("mapper_panic", "recovered", r)
			result = []*chunks.Chunk{chunks.Error("event translation failed", chunks.ErrCodeExecution)}
		}
	}()
	return mapper.Map(line)
}

// emit sends one chunk, giving up when the consumer cancels
func emit(ctx context.Context, out chan<- *chunks.Chunk, c *chunks.Chunk) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- c:
		return true
	}
}

// emitTerminal delivers closing chunks. After a cancellation the consumer
// may have stopped reading, so terminal delivery is best-effort there;
// otherwise message-end must arrive and the send blocks.
func emitTerminal(out chan<- *chunks.Chunk, c *chunks.Chunk, canceled bool) {
	if !canceled {
		out <- c
		return
	}
	select {
	case out <- c:
	default:
	}
}
