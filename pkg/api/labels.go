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

package api

import (
	"fmt"

	hcversion "github.com/hashicorp/go-version"

	"github.com/docker/wheelsticks/internal/version"
)

// Labels the container engine is expected to attach to every container it
// creates on behalf of a compose service. The observer reads these; it never
// writes them.
const (
	// ProjectLabel allows tracking resources related to a project.
	ProjectLabel = "com.docker.compose.project"
	// ServiceLabel allows tracking resources related to a service.
	ServiceLabel = "com.docker.compose.service"
	// ConfigHashLabel stores the content hash of a service's effective configuration.
	ConfigHashLabel = "com.docker.compose.config-hash"
	// ContainerNumberLabel stores the container index of a replicated service.
	ContainerNumberLabel = "com.docker.compose.container-number"

	// PodmanConfigHashLabel is Podman Compose's equivalent of ConfigHashLabel.
	// Docker's label takes priority when both are present; see ConfigHash,
	// which the State Observer uses to read it.
	PodmanConfigHashLabel = "io.podman.compose.config-hash"
)

// ConfigHash returns the config-hash label value from a container's labels,
// preferring the Docker Compose label and falling back to Podman Compose's.
func ConfigHash(labels map[string]string) (string, bool) {
	if hash, ok := labels[ConfigHashLabel]; ok {
		return hash, true
	}
	hash, ok := labels[PodmanConfigHashLabel]
	return hash, ok
}

// EngineVersion is the tool's three-component version, derived from the
// build-time version stamp; the CLI surfaces it through --version. Empty
// when the stamp is not a parseable version.
var EngineVersion string

func init() {
	v, err := hcversion.NewVersion(version.Version)
	if err == nil {
		segments := v.Segments()
		if len(segments) > 2 {
			EngineVersion = fmt.Sprintf("%d.%d.%d", segments[0], segments[1], segments[2])
		}
	}
}
