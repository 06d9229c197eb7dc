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

// Package engine builds *command.Command values carrying the daemon
// selection flags every container-engine invocation shares, plus the
// Compose-specific flags layered on top of them. Nothing here runs a
// subprocess; internal/command does that.
package engine

import (
	"github.com/docker/wheelsticks/internal/command"
)

// LogLevel is one of the daemon's accepted --log-level values.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// DaemonArgs is the daemon-selection flag set passed through to every
// invocation the reconciler makes against the container engine.
type DaemonArgs struct {
	Config    string
	Context   string
	Debug     bool
	Host      string
	LogLevel  LogLevel
	TLS       bool
	TLSCACert string
	TLSCert   string
	TLSKey    string
	TLSVerify bool
}

// DefaultDaemon clears the Context and Host overrides, for operations that
// must target whichever daemon is implied by the ambient environment
// rather than an explicitly resolved one (e.g. probing `context inspect`
// itself).
func (a DaemonArgs) DefaultDaemon() DaemonArgs {
	a.Context = ""
	a.Host = ""
	return a
}

// Docker builds the base `docker <daemon-flags>` command; callers append
// the subcommand and its own arguments with WithArgs.
func Docker(a DaemonArgs) *command.Command {
	cmd := command.New("docker")
	appendDaemonArgs(cmd, a)
	return cmd
}

func appendDaemonArgs(cmd *command.Command, a DaemonArgs) {
	if a.Config != "" {
		cmd.WithArgs("--config", a.Config)
	}
	if a.Context != "" {
		cmd.WithArgs("--context", a.Context)
	}
	if a.Debug {
		cmd.WithArgs("--debug")
	}
	if a.Host != "" {
		cmd.WithArgs("--host", a.Host)
	}
	if a.LogLevel != "" {
		cmd.WithArgs("--log-level", string(a.LogLevel))
	}
	if a.TLS {
		cmd.WithArgs("--tls")
	}
	if a.TLSCACert != "" {
		cmd.WithArgs("--tlscacert", a.TLSCACert)
	}
	if a.TLSCert != "" {
		cmd.WithArgs("--tlscert", a.TLSCert)
	}
	if a.TLSKey != "" {
		cmd.WithArgs("--tlskey", a.TLSKey)
	}
	if a.TLSVerify {
		cmd.WithArgs("--tlsverify")
	}
}
