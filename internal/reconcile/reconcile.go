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

// Package reconcile composes the manifest loader, host resolution, state
// observation, change planning and change application into one
// reconciliation pass, wrapping every step's errors with the context of
// which step and subject failed.
package reconcile

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/docker/wheelsticks/internal/apply"
	"github.com/docker/wheelsticks/internal/command"
	"github.com/docker/wheelsticks/internal/engine"
	"github.com/docker/wheelsticks/internal/host"
	"github.com/docker/wheelsticks/internal/manifest"
	"github.com/docker/wheelsticks/internal/plan"
	"github.com/docker/wheelsticks/internal/state"
)

// Options is one reconciliation's configuration, populated from CLI flags
// and defaulted from the on-disk config file where a flag is not given.
type Options struct {
	ManifestPath string
	ProjectName  string
	HostOverride string
	SSHOptions   string
	Daemon       engine.DaemonArgs
	Compose      engine.ComposeArgs
	Up           engine.UpArgs
	Build        bool
	DryRun       bool
	ServiceNames []string
}

// Run executes one reconciliation pass, returning the first failure
// encountered: load manifest, resolve host, observe desired and actual
// state, plan, apply.
func Run(ctx context.Context, opts Options, lookup manifest.LookupFunc, env host.EnvLookup) error {
	project, err := manifest.Load(opts.ManifestPath, opts.ProjectName, lookup)
	if err != nil {
		return errors.Wrapf(err, "unable to load manifest %q", opts.ManifestPath)
	}
	logrus.Debugf("Loaded project %q.", project.Name)

	resolvedHost, err := host.Resolve(ctx, opts.HostOverride, env, opts.Daemon)
	if err != nil {
		return errors.Wrap(err, "unable to resolve the container-engine daemon")
	}
	daemon := opts.Daemon
	daemon.Host = resolvedHost.URL

	workbenchDir := filepath.Join(project.Document.Workbench.Local, resolvedHost.WorkbenchDirName)
	logrus.Debugf("Using local workbench directory %q for host %q.", workbenchDir, resolvedHost.URL)

	if resolvedHost.SSH != nil {
		if err := prepareRemoteWorkbench(ctx, opts, resolvedHost, project.Document.Workbench.Remote); err != nil {
			return errors.Wrap(err, "unable to prepare the remote workbench")
		}
	}

	compose := opts.Compose
	compose.ProjectName = project.Name

	desired, err := state.GetDesired(ctx, daemon, compose)
	if err != nil {
		return errors.Wrap(err, "unable to determine the desired state")
	}

	serviceNames := opts.ServiceNames
	if len(serviceNames) == 0 {
		for name := range desired.Services {
			serviceNames = append(serviceNames, name)
		}
		sort.Strings(serviceNames)
	}

	actual, err := state.GetActual(ctx, daemon, compose, serviceNames)
	if err != nil {
		return errors.Wrap(err, "unable to determine the actual state")
	}

	changes := plan.Plan(actual, desired.Services)

	applyOpts := apply.Options{
		Build:   opts.Build,
		DryRun:  opts.DryRun,
		Up:      opts.Up,
		Daemon:  daemon,
		Compose: compose,
	}
	if err := apply.Apply(ctx, applyOpts, actual, serviceNames, changes); err != nil {
		return errors.Wrap(err, "unable to reconcile the project")
	}

	return nil
}

// prepareRemoteWorkbench makes sure the host-scoped workbench directory
// exists on an ssh-schemed daemon host before any changes are applied.
func prepareRemoteWorkbench(ctx context.Context, opts Options, h host.Host, remoteDir string) error {
	cmd, err := remoteWorkbenchCommand(h, remoteDir, engine.SSHArgs{
		Debug:      opts.Daemon.Debug,
		LogLevel:   opts.Daemon.LogLevel,
		RawOptions: opts.SSHOptions,
	})
	if err != nil {
		return err
	}
	if opts.DryRun {
		logrus.Infof("Would create the remote workbench directory with: %s", cmd.Render())
		return nil
	}
	logrus.Debugf("Creating the remote workbench directory with: %s", cmd.Render())
	return command.StatusOK(ctx, cmd)
}

// remoteWorkbenchCommand builds `ssh [flags] [user@]hostname -- mkdir -p
// <remote workbench>/<host dir>` from the resolved host's connection
// detail.
func remoteWorkbenchCommand(h host.Host, remoteDir string, args engine.SSHArgs) (*command.Command, error) {
	cmd, err := engine.SSH(args)
	if err != nil {
		return nil, err
	}
	if h.SSH.Port != nil {
		cmd.WithArgs("-p", strconv.Itoa(*h.SSH.Port))
	}
	destination := h.SSH.Hostname
	if h.SSH.User != "" {
		destination = h.SSH.User + "@" + destination
	}
	cmd.WithArgs(destination, "--", "mkdir", "-p", path.Join(remoteDir, h.WorkbenchDirName))
	return cmd, nil
}
