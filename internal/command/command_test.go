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
	"testing"

	"gotest.tools/v3/assert"
)

func TestBuilderAccumulates(t *testing.T) {
	cmd := New("docker", "compose").
		WithArgs("up", "--detach").
		WithArgs("--", "web").
		WithEnv("DOCKER_HOST=ssh://example.org").
		WithDir("/tmp")

	assert.Equal(t, cmd.Program, "docker")
	assert.DeepEqual(t, cmd.Args, []string{"compose", "up", "--detach", "--", "web"})
	assert.DeepEqual(t, cmd.Env, []string{"DOCKER_HOST=ssh://example.org"})
	assert.Equal(t, cmd.Dir, "/tmp")
}

func TestRenderPlainArgs(t *testing.T) {
	cmd := New("docker", "compose", "ps", "--all", "--quiet")
	assert.Equal(t, cmd.Render(), "docker compose ps --all --quiet")
}

func TestRenderQuotesSpecialArgs(t *testing.T) {
	cases := []struct {
		name string
		arg  string
		want string
	}{
		{"empty", "", "''"},
		{"space", "a b", "'a b'"},
		{"dollar", "$HOME", "'$HOME'"},
		{"glob is plain", "*", "*"},
		{"single quote", "it's", `'it'\''s'`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, quoteArg(tc.arg), tc.want)
		})
	}
}
