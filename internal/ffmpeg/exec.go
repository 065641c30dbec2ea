package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// stderrLimit bounds how much of a failed invocation's stderr is kept.
const stderrLimit = 8 << 10

// waitDelay bounds how long we wait for pipes after the process is killed.
const waitDelay = 5 * time.Second

type execResult struct {
	Stdout []byte
	Stderr string
	Err    error
}

func run(ctx context.Context, bin string, args []string) execResult {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return execResult{
		Stdout: stdout.Bytes(),
		Stderr: tail(stderr.String(), stderrLimit),
		Err:    err,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
