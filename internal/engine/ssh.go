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

package engine

import (
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/docker/wheelsticks/internal/command"
	"github.com/docker/wheelsticks/pkg/api"
)

// SSHArgs is the flag set translated onto the `ssh` command used to reach a
// remote daemon when the resolved Host carries SSH connection detail.
type SSHArgs struct {
	Config   string
	Debug    bool
	LogLevel LogLevel
	// RawOptions is a raw, shell-quoted string of extra ssh options from the
	// Configuration Loader (e.g. "-o StrictHostKeyChecking=no -p 2222"),
	// split into argv with mattn/go-shellwords before being appended.
	RawOptions string
}

// SSH builds the base `ssh` command; callers append the destination and
// remote command with WithArgs.
func SSH(a SSHArgs) (*command.Command, error) {
	cmd := command.New("ssh")
	if a.Config != "" {
		cmd.WithArgs("-F", a.Config)
	}
	if a.LogLevel != "" {
		cmd.WithArgs("-o", "LogLevel="+sshLogLevel(a.LogLevel))
	}
	if a.Debug {
		cmd.WithArgs("-vvv")
	}
	if a.RawOptions != "" {
		extra, err := shellwords.Parse(a.RawOptions)
		if err != nil {
			return nil, errors.Wrapf(api.ErrContractFailed, "unable to parse ssh options %q: %s", a.RawOptions, err)
		}
		cmd.WithArgs(extra...)
	}
	return cmd, nil
}

func sshLogLevel(l LogLevel) string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelFatal:
		return "FATAL"
	case LogLevelWarn, LogLevelError:
		return "ERROR"
	default:
		return "ERROR"
	}
}
