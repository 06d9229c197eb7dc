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

package state

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/docker/wheelsticks/internal/command"
	"github.com/docker/wheelsticks/internal/engine"
	"github.com/docker/wheelsticks/pkg/api"
)

// ActualContainer is one observed container of the project.
type ActualContainer struct {
	ContainerID       string
	ServiceName       string
	ServiceConfigHash string
}

type inspectedContainer struct {
	ID     string `json:"Id"`
	Config struct {
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
}

// GetActual computes the actual-state snapshot: every container in the
// given services' scope, with its service name and config hash read from
// labels, Docker's taking priority over Podman's.
func GetActual(ctx context.Context, daemon engine.DaemonArgs, compose engine.ComposeArgs, serviceNames []string) ([]ActualContainer, error) {
	names := append([]string(nil), serviceNames...)
	sort.Strings(names)

	out, err := command.StdoutUTF8(ctx, engine.PS(daemon, compose, names))
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	containers, err := command.StdoutJSON[[]inspectedContainer](ctx, engine.Inspect(daemon, ids))
	if err != nil {
		return nil, err
	}

	actual := make([]ActualContainer, 0, len(containers))
	for _, c := range containers {
		converted, err := convertContainer(c)
		if err != nil {
			return nil, err
		}
		actual = append(actual, converted)
	}
	return actual, nil
}

func convertContainer(c inspectedContainer) (ActualContainer, error) {
	serviceName, ok := c.Config.Labels[api.ServiceLabel]
	if !ok {
		return ActualContainer{}, errors.Wrapf(api.ErrContractFailed,
			"container %s is missing the %q label", c.ID, api.ServiceLabel)
	}
	hash, ok := api.ConfigHash(c.Config.Labels)
	if !ok {
		return ActualContainer{}, errors.Wrapf(api.ErrContractFailed,
			"container %s is missing a config-hash label", c.ID)
	}
	return ActualContainer{
		ContainerID:       c.ID,
		ServiceName:       serviceName,
		ServiceConfigHash: hash,
	}, nil
}
