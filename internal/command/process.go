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
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// process is a scoped subprocess handle: whoever spawns one must close it on
// every exit path, success or failure. The goroutine started at spawn time
// is the only caller of exec.Cmd.Wait, so wait, tryWait and close never race
// the runtime's reaping, and a child that has not exited by teardown is
// killed and then reaped through the same channel.
type process struct {
	cmd     *Command
	execCmd *exec.Cmd
	done    chan error
	reaped  bool
}

// startProcess starts execCmd and owns its reaping from then on.
func startProcess(cmd *Command, execCmd *exec.Cmd) (*process, error) {
	if err := execCmd.Start(); err != nil {
		return nil, err
	}
	p := &process{cmd: cmd, execCmd: execCmd, done: make(chan error, 1)}
	go func() { p.done <- execCmd.Wait() }()
	return p, nil
}

// wait blocks until the child exits and returns its Wait error.
func (p *process) wait() error {
	err := <-p.done
	p.reaped = true
	return err
}

// tryWait is a non-blocking reap: exited reports whether the child had
// already exited, in which case its Wait error is returned and the child is
// now reaped.
func (p *process) tryWait() (waitErr error, exited bool) {
	if p.reaped {
		return nil, false
	}
	select {
	case err := <-p.done:
		p.reaped = true
		return err, true
	default:
		return nil, false
	}
}

// close kills and reaps the child if it has not already been reaped. Kill
// failures are logged, never propagated.
func (p *process) close() {
	if p.reaped {
		return
	}
	select {
	case <-p.done:
		p.reaped = true
		return
	default:
	}
	logrus.Debugf("Killing process %d from command: %s", p.execCmd.Process.Pid, p.cmd.Render())
	if err := p.execCmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logrus.Errorf("Error killing process %d: %v", p.execCmd.Process.Pid, err)
		return
	}
	<-p.done
	p.reaped = true
}
