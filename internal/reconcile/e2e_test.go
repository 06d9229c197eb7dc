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

package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/onsi/gomega"

	"github.com/docker/wheelsticks/internal/engine"
)

// engineStubScript stands in for the `docker` binary: it appends every
// invocation's arguments to the log file named by WHEELSTICKS_E2E_LOG, then
// answers the two read-only queries the State Observer makes. Everything
// else (ps, build, up) succeeds silently, so the recorded log is the full
// mutation trace of one reconciliation.
const engineStubScript = `#!/bin/sh
echo "$@" >> "$WHEELSTICKS_E2E_LOG"
case "$*" in
*"--format json"*) printf '{"name":"e2e","services":{"web":{},"worker":{}}}' ;;
*"--hash"*) printf 'web 1111\nworker 2222\n' ;;
esac
`

const engineStubManifest = `name: e2e
services:
  web:
    image: nginx
  worker:
    image: alpine
`

// TestRunAgainstEngineStub drives one full reconciliation against a stub
// engine that records every invocation: a manifest with two services at
// replica 1, stop-first, with no containers running, must produce exactly
// one build, one state observation, and one scale-up per service, in
// lexicographic service order.
func TestRunAgainstEngineStub(t *testing.T) {
	g := gomega.NewWithT(t)

	dir := t.TempDir()
	stub := filepath.Join(dir, "docker")
	g.Expect(os.WriteFile(stub, []byte(engineStubScript), 0o755)).To(gomega.Succeed())

	manifestPath := filepath.Join(dir, "compose.yaml")
	g.Expect(os.WriteFile(manifestPath, []byte(engineStubManifest), 0o644)).To(gomega.Succeed())

	logPath := filepath.Join(dir, "invocations.log")
	t.Setenv("WHEELSTICKS_E2E_LOG", logPath)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	opts := Options{
		ManifestPath: manifestPath,
		Build:        true,
		Daemon:       engine.DaemonArgs{},
	}
	lookup := func(string) (string, bool) { return "", false }
	env := func(name string) (string, bool) {
		if name == "DOCKER_HOST" {
			return "tcp://e2e.invalid:2375", true
		}
		return "", false
	}

	g.Expect(Run(context.Background(), opts, lookup, env)).To(gomega.Succeed())

	raw, err := os.ReadFile(logPath)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	prefix := "--host tcp://e2e.invalid:2375 compose --project-name e2e "
	g.Expect(lines).To(gomega.Equal([]string{
		prefix + "config --format json",
		prefix + "config --hash *",
		prefix + "ps --all --quiet -- web worker",
		prefix + "build -- web worker",
		prefix + "up --detach --no-deps --no-recreate --scale web=1 -- web",
		prefix + "up --detach --no-deps --no-recreate --scale worker=1 -- worker",
	}))
}

// TestRunDryRunMutatesNothing repeats the scenario in dry-run mode: the
// only invocations recorded are the read-only state observations.
func TestRunDryRunMutatesNothing(t *testing.T) {
	g := gomega.NewWithT(t)

	dir := t.TempDir()
	stub := filepath.Join(dir, "docker")
	g.Expect(os.WriteFile(stub, []byte(engineStubScript), 0o755)).To(gomega.Succeed())

	manifestPath := filepath.Join(dir, "compose.yaml")
	g.Expect(os.WriteFile(manifestPath, []byte(engineStubManifest), 0o644)).To(gomega.Succeed())

	logPath := filepath.Join(dir, "invocations.log")
	t.Setenv("WHEELSTICKS_E2E_LOG", logPath)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	opts := Options{
		ManifestPath: manifestPath,
		DryRun:       true,
		Daemon:       engine.DaemonArgs{},
	}
	lookup := func(string) (string, bool) { return "", false }
	env := func(name string) (string, bool) {
		if name == "DOCKER_HOST" {
			return "tcp://e2e.invalid:2375", true
		}
		return "", false
	}

	g.Expect(Run(context.Background(), opts, lookup, env)).To(gomega.Succeed())

	raw, err := os.ReadFile(logPath)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	prefix := "--host tcp://e2e.invalid:2375 compose --project-name e2e "
	g.Expect(lines).To(gomega.Equal([]string{
		prefix + "config --format json",
		prefix + "config --hash *",
		prefix + "ps --all --quiet -- web worker",
	}))
}
