/*
   Copyright 2020 Docker Compose CLI authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/docker/wheelsticks/pkg/api"
)

// StatusOK runs the command with inherited stdout/stderr and succeeds iff
// the child's exit status is success.
func StatusOK(ctx context.Context, cmd *Command) error {
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	err := execCmd.Run()
	return annotate(cmd, statusError(err))
}

// StatusBit runs the command and interprets exit code 0 as false, 1 as true.
// Any other exit code, or a failure to start, is an error.
func StatusBit(ctx context.Context, cmd *Command) (bool, error) {
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stderr = os.Stderr
	err := execCmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	}
	return false, annotate(cmd, errors.Wrap(api.ErrCommandFailed, err.Error()))
}

// StatusWithinTimeResult is the outcome of StatusWithinTime.
type StatusWithinTimeResult int

const (
	// StatusFailure means the child exited within the deadline with non-zero status.
	StatusFailure StatusWithinTimeResult = iota
	// StatusSuccess means the child exited within the deadline with zero status.
	StatusSuccess
	// StatusTimedOut means the deadline elapsed before the child exited; it was killed and reaped.
	StatusTimedOut
)

// StatusWithinTime runs the command, killing and reaping it if it has not
// exited within d.
func StatusWithinTime(ctx context.Context, cmd *Command, d time.Duration) (StatusWithinTimeResult, error) {
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	p, err := startProcess(cmd, execCmd)
	if err != nil {
		return StatusFailure, annotate(cmd, errors.Wrap(api.ErrCommandFailed, err.Error()))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-p.done:
		p.reaped = true
		if err == nil {
			return StatusSuccess, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return StatusFailure, nil
		}
		return StatusFailure, annotate(cmd, errors.Wrap(api.ErrCommandFailed, err.Error()))
	case <-timer.C:
		p.close()
		return StatusTimedOut, nil
	}
}

// StdinOK runs the command with inherited stdout/stderr, feeding it input on
// a dedicated writer goroutine, and succeeds iff the child exits with
// success and the writer delivered every byte.
func StdinOK(ctx context.Context, cmd *Command, input []byte) error {
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	stdin, err := execCmd.StdinPipe()
	if err != nil {
		return annotate(cmd, errors.Wrap(api.ErrCommandFailed, "unable to open stdin: "+err.Error()))
	}
	if err := execCmd.Start(); err != nil {
		return annotate(cmd, errors.Wrap(api.ErrCommandFailed, err.Error()))
	}

	var writer errgroup.Group
	writer.Go(func() error {
		defer stdin.Close()
		_, err := stdin.Write(input)
		return err
	})

	waitErr := execCmd.Wait()
	writeErr := writer.Wait()
	if waitErr != nil {
		return annotate(cmd, statusError(waitErr))
	}
	if writeErr != nil {
		return annotate(cmd, errors.Wrap(api.ErrCommandFailed, "unable to deliver stdin: "+writeErr.Error()))
	}
	return nil
}

// StdoutUTF8 runs the command, inheriting stderr, and captures stdout as a
// UTF-8 string.
func StdoutUTF8(ctx context.Context, cmd *Command) (string, error) {
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stderr = os.Stderr
	out, err := execCmd.Output()
	if err := annotate(cmd, statusError(err)); err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", annotate(cmd, errors.Wrap(api.ErrParseFailed, "stdout is not valid UTF-8"))
	}
	return string(out), nil
}

// StderrUTF8 runs the command, inheriting stdout, and captures stderr as a
// UTF-8 string.
func StderrUTF8(ctx context.Context, cmd *Command) (string, error) {
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stdout = os.Stdout
	var stderr bytes.Buffer
	execCmd.Stderr = &stderr
	err := execCmd.Run()
	if err := annotate(cmd, statusError(err)); err != nil {
		return "", err
	}
	out := stderr.Bytes()
	if !utf8.Valid(out) {
		return "", annotate(cmd, errors.Wrap(api.ErrParseFailed, "stderr is not valid UTF-8"))
	}
	return string(out), nil
}

// StdoutJSON runs the command, inheriting stderr, and decodes stdout as JSON
// into a value of type T.
func StdoutJSON[T any](ctx context.Context, cmd *Command) (T, error) {
	var zero T
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stderr = os.Stderr
	out, err := execCmd.Output()
	if err := annotate(cmd, statusError(err)); err != nil {
		return zero, err
	}
	var value T
	if err := json.Unmarshal(out, &value); err != nil {
		return zero, annotate(cmd, errors.Wrap(api.ErrParseFailed, "unable to decode JSON from stdout: "+err.Error()))
	}
	return value, nil
}

// StdoutTable runs the command, inheriting stderr, and parses each line of
// stdout as exactly n whitespace-separated fields. Blank lines and lines
// whose first non-whitespace rune is '#' are skipped.
func StdoutTable(ctx context.Context, cmd *Command, n int) ([][]string, error) {
	execCmd := cmd.toExecCmd(ctx)
	execCmd.Stderr = os.Stderr
	out, err := execCmd.Output()
	if err := annotate(cmd, statusError(err)); err != nil {
		return nil, err
	}
	if !utf8.Valid(out) {
		return nil, annotate(cmd, errors.Wrap(api.ErrParseFailed, "stdout is not valid UTF-8"))
	}

	var rows [][]string
	lines := strings.Split(string(out), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != n {
			return nil, annotate(cmd, errors.Wrapf(api.ErrContractFailed,
				"unable to parse result line %d, expected %d fields but got %d: %q",
				i+1, n, len(fields), line))
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

// PipedOK runs a pipeline of two or more commands, connecting each stage's
// stdout to the next stage's stdin. It waits on the final stage first; if
// that stage failed, it does a non-blocking reap of every earlier stage and
// prefers reporting the earliest one that had already failed, since the root
// cause of a pipeline failure usually sits upstream. Any stage still running
// when the pipeline is torn down is killed and reaped.
func PipedOK(ctx context.Context, cmds ...*Command) error {
	if len(cmds) == 0 {
		return nil
	}
	if len(cmds) == 1 {
		return StatusOK(ctx, cmds[0])
	}

	procs := make([]*process, 0, len(cmds))
	defer func() {
		for _, p := range procs {
			p.close()
		}
	}()

	// Chain the stages over explicit pipes, closing the parent's copy of
	// each end as soon as the children hold theirs, so an exiting stage
	// propagates EOF and EPIPE through the pipeline without the parent
	// keeping any pipe alive.
	var prevRead *os.File
	for i, c := range cmds {
		execCmd := c.toExecCmd(ctx)
		execCmd.Stderr = os.Stderr
		if prevRead != nil {
			execCmd.Stdin = prevRead
		}
		var nextRead, write *os.File
		if i < len(cmds)-1 {
			var err error
			nextRead, write, err = os.Pipe()
			if err != nil {
				return annotate(c, errors.Wrap(api.ErrCommandFailed, "unable to open a pipe: "+err.Error()))
			}
			execCmd.Stdout = write
		}
		p, startErr := startProcess(c, execCmd)
		if prevRead != nil {
			_ = prevRead.Close()
		}
		if write != nil {
			_ = write.Close()
		}
		if startErr != nil {
			if nextRead != nil {
				_ = nextRead.Close()
			}
			return annotate(c, errors.Wrap(api.ErrCommandFailed, startErr.Error()))
		}
		procs = append(procs, p)
		prevRead = nextRead
	}

	lastProc := procs[len(procs)-1]
	lastErr := lastProc.wait()
	if lastErr == nil {
		return nil
	}

	for _, p := range procs[:len(procs)-1] {
		waitErr, exited := p.tryWait()
		if exited && waitErr != nil {
			return annotate(p.cmd, statusError(waitErr))
		}
	}

	return annotate(lastProc.cmd, statusError(lastErr))
}

func statusError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.Wrapf(api.ErrCommandFailed, "%s", exitErr.ProcessState.String())
	}
	return errors.Wrap(api.ErrCommandFailed, err.Error())
}

func annotate(cmd *Command, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "error with command: %s", cmd.Render())
}
