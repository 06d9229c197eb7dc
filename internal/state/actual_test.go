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
	"testing"

	"gotest.tools/v3/assert"
)

func TestConvertContainerPrefersDockerLabel(t *testing.T) {
	c := inspectedContainer{ID: "abc"}
	c.Config.Labels = map[string]string{
		"com.docker.compose.service":      "web",
		"com.docker.compose.config-hash":  "hash1",
		"io.podman.compose.config-hash":   "podman-hash",
	}
	converted, err := convertContainer(c)
	assert.NilError(t, err)
	assert.Equal(t, converted.ContainerID, "abc")
	assert.Equal(t, converted.ServiceName, "web")
	assert.Equal(t, converted.ServiceConfigHash, "hash1")
}

func TestConvertContainerFallsBackToPodmanHash(t *testing.T) {
	c := inspectedContainer{ID: "abc"}
	c.Config.Labels = map[string]string{
		"com.docker.compose.service":    "web",
		"io.podman.compose.config-hash": "podman-hash",
	}
	converted, err := convertContainer(c)
	assert.NilError(t, err)
	assert.Equal(t, converted.ServiceConfigHash, "podman-hash")
}

func TestConvertContainerMissingServiceLabelFails(t *testing.T) {
	c := inspectedContainer{ID: "abc"}
	c.Config.Labels = map[string]string{"com.docker.compose.config-hash": "hash1"}
	_, err := convertContainer(c)
	assert.ErrorContains(t, err, "missing")
}

func TestConvertContainerMissingHashFails(t *testing.T) {
	c := inspectedContainer{ID: "abc"}
	c.Config.Labels = map[string]string{"com.docker.compose.service": "web"}
	_, err := convertContainer(c)
	assert.ErrorContains(t, err, "config-hash")
}
