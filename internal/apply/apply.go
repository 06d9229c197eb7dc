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

// Package apply issues the subprocess invocations a planned sequence of
// changes implies, in strict order, tracking a rolling per-service
// container count seeded from the actual state it started from.
package apply

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/docker/wheelsticks/internal/command"
	"github.com/docker/wheelsticks/internal/engine"
	"github.com/docker/wheelsticks/internal/plan"
	"github.com/docker/wheelsticks/internal/state"
)

// Options carries the flags the applier propagates verbatim to `compose up`
// plus the build preamble and dry-run toggles.
type Options struct {
	Build   bool
	DryRun  bool
	Up      engine.UpArgs
	Daemon  engine.DaemonArgs
	Compose engine.ComposeArgs
}

// rollingState is the in-memory per-service container count the applier
// mutates as it walks the change list, seeded from the actual containers
// the reconciliation observed at the start. It is local to one
// reconciliation and never shared.
type rollingState struct {
	serviceContainerCount map[string]int
}

func newRollingState(actual []state.ActualContainer) *rollingState {
	counts := map[string]int{}
	for _, c := range actual {
		counts[c.ServiceName]++
	}
	return &rollingState{serviceContainerCount: counts}
}

// Apply issues the subprocess invocations implied by changes, in order,
// returning the first failure. serviceNames scopes the optional build
// preamble.
func Apply(ctx context.Context, opts Options, actual []state.ActualContainer, serviceNames []string, changes []plan.Change) error {
	st := newRollingState(actual)

	if opts.Build {
		if err := buildImages(ctx, opts, serviceNames); err != nil {
			return err
		}
	}

	for _, change := range changes {
		summary := summarizeChange(change)

		if opts.DryRun {
			logrus.Infof("Would %s.", summary)
			continue
		}

		logrus.Infof("Going to %s.", summary)
		if err := applyChange(ctx, opts, change, st); err != nil {
			return errors.Wrapf(err, "unable to %s", summary)
		}
	}

	return nil
}

func buildImages(ctx context.Context, opts Options, serviceNames []string) error {
	logrus.Debug("Building services.")
	return command.StatusOK(ctx, engine.Build(opts.Daemon, opts.Compose, opts.DryRun, serviceNames))
}

func summarizeChange(change plan.Change) string {
	switch change.Kind {
	case plan.Add:
		return fmt.Sprintf("add a container of %s", summarizeService(change.ServiceName, change.ServiceConfigHash))
	case plan.Keep:
		return fmt.Sprintf("keep the %s of %s", summarizeContainer(change.ContainerID), summarizeService(change.ServiceName, change.ServiceConfigHash))
	case plan.Remove:
		return fmt.Sprintf("remove the %s of %s", summarizeContainer(change.ContainerID), summarizeService(change.ServiceName, change.ServiceConfigHash))
	default:
		return "apply an unrecognized change"
	}
}

func summarizeContainer(containerID string) string {
	return fmt.Sprintf("container %s", summarizeHash(containerID))
}

func summarizeHash(hash string) string {
	if logrus.GetLevel() >= logrus.DebugLevel || len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}

func summarizeService(serviceName, serviceConfigHash string) string {
	return fmt.Sprintf("service %q with config hash %s", serviceName, summarizeHash(serviceConfigHash))
}

func applyChange(ctx context.Context, opts Options, change plan.Change, st *rollingState) error {
	switch change.Kind {
	case plan.Add:
		return addContainer(ctx, opts, change.ServiceName, st)
	case plan.Keep:
		return nil
	case plan.Remove:
		return removeContainer(ctx, opts, change.ServiceName, change.ContainerID, st)
	default:
		return errors.Errorf("unrecognized change kind %d", change.Kind)
	}
}

func addContainer(ctx context.Context, opts Options, serviceName string, st *rollingState) error {
	st.serviceContainerCount[serviceName]++
	count := st.serviceContainerCount[serviceName]

	logrus.Debugf("Scaling service %q to %d instances.", serviceName, count)
	return command.StatusOK(ctx, engine.Up(opts.Daemon, opts.Compose, opts.Up, serviceName, count))
}

func removeContainer(ctx context.Context, opts Options, serviceName, containerID string, st *rollingState) error {
	container := summarizeContainer(containerID)

	logrus.Debugf("Stopping %s.", container)
	if err := command.StatusOK(ctx, engine.Stop(opts.Daemon, containerID)); err != nil {
		return err
	}

	logrus.Debugf("Removing %s.", container)
	if err := command.StatusOK(ctx, engine.Remove(opts.Daemon, containerID)); err != nil {
		return err
	}

	st.serviceContainerCount[serviceName]--
	return nil
}
