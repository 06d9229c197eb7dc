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

// Package state observes the container engine's desired state (from
// `compose config`) and actual state (from `compose ps` + `docker
// inspect`).
package state

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/docker/wheelsticks/internal/command"
	"github.com/docker/wheelsticks/internal/engine"
	"github.com/docker/wheelsticks/pkg/api"
)

// UpdateOrder controls how a service's replica transition is interleaved.
type UpdateOrder int

const (
	// StopFirst removes the old containers before adding new ones.
	StopFirst UpdateOrder = iota
	// StartFirst adds new containers before removing the old ones.
	StartFirst
)

// DesiredService is one service's declared target.
type DesiredService struct {
	ReplicaCount      int
	ServiceConfigHash string
	UpdateOrder       UpdateOrder
}

// Desired is the full desired-state snapshot of a project.
type Desired struct {
	ProjectName string
	Services    map[string]DesiredService
}

// composeAppDefinition mirrors the JSON shape of `compose config --format json`.
type composeAppDefinition struct {
	Name     string                        `json:"name"`
	Services map[string]serviceDefinition `json:"services"`
}

type serviceDefinition struct {
	Deploy *deploy `json:"deploy"`
}

type deploy struct {
	Replicas     *int           `json:"replicas"`
	UpdateConfig *updateConfig  `json:"update_config"`
}

type updateConfig struct {
	Order string `json:"order"`
}

// GetDesired computes the desired state: the interpolated project
// definition merged with the per-service config hash.
func GetDesired(ctx context.Context, daemon engine.DaemonArgs, compose engine.ComposeArgs) (Desired, error) {
	appDefinition, err := getComposeAppDefinition(ctx, daemon, compose)
	if err != nil {
		return Desired{}, err
	}
	hashes, err := getServiceConfigHashes(ctx, daemon, compose)
	if err != nil {
		return Desired{}, err
	}

	services := make(map[string]DesiredService, len(appDefinition.Services))
	for name, def := range appDefinition.Services {
		hash, ok := hashes[name]
		if !ok {
			return Desired{}, errors.Wrapf(api.ErrContractFailed, "no config hash reported for service %q", name)
		}
		services[name] = convertServiceDefinition(def, hash)
	}

	return Desired{ProjectName: appDefinition.Name, Services: services}, nil
}

func getComposeAppDefinition(ctx context.Context, daemon engine.DaemonArgs, compose engine.ComposeArgs) (composeAppDefinition, error) {
	return command.StdoutJSON[composeAppDefinition](ctx, engine.ConfigJSON(daemon, compose))
}

func getServiceConfigHashes(ctx context.Context, daemon engine.DaemonArgs, compose engine.ComposeArgs) (map[string]string, error) {
	out, err := command.StdoutUTF8(ctx, engine.ConfigHash(daemon, compose))
	if err != nil {
		return nil, err
	}
	return parseServiceConfigHashes(out)
}

// parseServiceConfigHashes parses the "service-name hash" lines that
// `compose config --hash '*'` prints, one service per line.
func parseServiceConfigHashes(out string) (map[string]string, error) {
	hashes := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Wrapf(api.ErrContractFailed, "unable to parse config hash line %q", line)
		}
		hashes[fields[0]] = fields[1]
	}
	return hashes, nil
}

func convertServiceDefinition(def serviceDefinition, hash string) DesiredService {
	replicas := 1
	order := StopFirst
	if def.Deploy != nil {
		if def.Deploy.Replicas != nil {
			replicas = *def.Deploy.Replicas
		}
		if def.Deploy.UpdateConfig != nil && def.Deploy.UpdateConfig.Order == "start-first" {
			order = StartFirst
		}
	}
	return DesiredService{
		ReplicaCount:      replicas,
		ServiceConfigHash: hash,
		UpdateOrder:       order,
	}
}
