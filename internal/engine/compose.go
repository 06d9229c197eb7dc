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
	"strconv"

	"github.com/docker/wheelsticks/internal/command"
)

// ComposeArgs is the Compose-specific flag set, layered on top of
// DaemonArgs for every `compose` invocation.
type ComposeArgs struct {
	ANSI             string
	Compatibility    bool
	EnvFiles         []string
	Files            []string
	Parallel         *int
	Profiles         []string
	Progress         string
	ProjectDirectory string
	ProjectName      string
}

// Compose builds the base `docker <daemon-flags> compose <compose-flags>`
// command; callers append the compose subcommand (up, ps, build, …) and
// its own arguments with WithArgs.
func Compose(daemon DaemonArgs, compose ComposeArgs) *command.Command {
	cmd := Docker(daemon)
	cmd.WithArgs("compose")
	appendComposeArgs(cmd, compose)
	return cmd
}

func appendComposeArgs(cmd *command.Command, a ComposeArgs) {
	if a.ANSI != "" {
		cmd.WithArgs("--ansi", a.ANSI)
	}
	if a.Compatibility {
		cmd.WithArgs("--compatibility")
	}
	for _, f := range a.EnvFiles {
		cmd.WithArgs("--env-file", f)
	}
	for _, f := range a.Files {
		cmd.WithArgs("--file", f)
	}
	if a.Parallel != nil {
		cmd.WithArgs("--parallel", strconv.Itoa(*a.Parallel))
	}
	for _, p := range a.Profiles {
		cmd.WithArgs("--profile", p)
	}
	if a.Progress != "" {
		cmd.WithArgs("--progress", a.Progress)
	}
	if a.ProjectDirectory != "" {
		cmd.WithArgs("--project-directory", a.ProjectDirectory)
	}
	if a.ProjectName != "" {
		cmd.WithArgs("--project-name", a.ProjectName)
	}
}

// PullPolicy is one of the accepted --pull values for `compose up`.
type PullPolicy string

const (
	PullAlways  PullPolicy = "always"
	PullMissing PullPolicy = "missing"
	PullNever   PullPolicy = "never"
)

// UpArgs is the flag set propagated verbatim to every `compose up`
// invocation the change applier issues.
type UpArgs struct {
	NoBuild          bool
	NoStart          bool
	Pull             PullPolicy
	QuietPull        bool
	RemoveOrphans    bool
	RenewAnonVolumes bool
	Timeout          *int
	Wait             bool
	WaitTimeout      *int
}

// Up builds `compose up --detach --no-deps --no-recreate --scale
// service=count <flags> -- service`.
func Up(daemon DaemonArgs, compose ComposeArgs, up UpArgs, service string, count int) *command.Command {
	cmd := Compose(daemon, compose)
	cmd.WithArgs("up", "--detach", "--no-deps", "--no-recreate")
	if up.NoBuild {
		cmd.WithArgs("--no-build")
	}
	if up.NoStart {
		cmd.WithArgs("--no-start")
	}
	if up.Pull != "" {
		cmd.WithArgs("--pull", string(up.Pull))
	}
	if up.QuietPull {
		cmd.WithArgs("--quiet-pull")
	}
	if up.RemoveOrphans {
		cmd.WithArgs("--remove-orphans")
	}
	if up.RenewAnonVolumes {
		cmd.WithArgs("--renew-anon-volumes")
	}
	cmd.WithArgs("--scale", service+"="+strconv.Itoa(count))
	if up.Timeout != nil {
		cmd.WithArgs("--timeout", strconv.Itoa(*up.Timeout))
	}
	if up.Wait {
		cmd.WithArgs("--wait")
	}
	if up.WaitTimeout != nil {
		cmd.WithArgs("--wait-timeout", strconv.Itoa(*up.WaitTimeout))
	}
	cmd.WithArgs("--", service)
	return cmd
}

// Build builds `compose build [--dry-run] -- service…`, the applier's
// optional preamble.
func Build(daemon DaemonArgs, compose ComposeArgs, dryRun bool, services []string) *command.Command {
	cmd := Compose(daemon, compose)
	cmd.WithArgs("build")
	if dryRun {
		cmd.WithArgs("--dry-run")
	}
	cmd.WithArgs("--")
	cmd.WithArgs(services...)
	return cmd
}

// ConfigJSON builds `compose config --format json`, the desired-state
// source of truth.
func ConfigJSON(daemon DaemonArgs, compose ComposeArgs) *command.Command {
	return Compose(daemon, compose).WithArgs("config", "--format", "json")
}

// ConfigHash builds `compose config --hash '*'`, the per-service config
// hash source.
func ConfigHash(daemon DaemonArgs, compose ComposeArgs) *command.Command {
	return Compose(daemon, compose).WithArgs("config", "--hash", "*")
}

// PS builds `compose ps --all --quiet -- service…`.
func PS(daemon DaemonArgs, compose ComposeArgs, services []string) *command.Command {
	cmd := Compose(daemon, compose).WithArgs("ps", "--all", "--quiet")
	if len(services) > 0 {
		cmd.WithArgs("--")
		cmd.WithArgs(services...)
	}
	return cmd
}

// Inspect builds `docker <daemon-flags> inspect -- id…`.
func Inspect(daemon DaemonArgs, ids []string) *command.Command {
	cmd := Docker(daemon).WithArgs("inspect", "--")
	cmd.WithArgs(ids...)
	return cmd
}

// Stop builds `docker <daemon-flags> stop -- id`.
func Stop(daemon DaemonArgs, id string) *command.Command {
	return Docker(daemon).WithArgs("stop", "--", id)
}

// Remove builds `docker <daemon-flags> rm -- id`.
func Remove(daemon DaemonArgs, id string) *command.Command {
	return Docker(daemon).WithArgs("rm", "--", id)
}

// ContextInspect builds `docker <default-daemon-flags> context inspect
// --format '{{json .}}'`, using DefaultDaemon since probing the
// ambient context must not itself be routed through an explicit
// context/host override.
func ContextInspect(daemon DaemonArgs) *command.Command {
	return Docker(daemon.DefaultDaemon()).WithArgs("context", "inspect", "--format", "{{json .}}")
}
