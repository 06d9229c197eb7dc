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

// Package host resolves the effective container-engine daemon URL and, for
// an ssh:// URL, its connection components.
package host

import (
	"context"
	_ "crypto/sha256" // registers the algorithm digest.FromString relies on
	"net/url"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"

	"github.com/docker/wheelsticks/internal/command"
	"github.com/docker/wheelsticks/internal/engine"
	"github.com/docker/wheelsticks/pkg/api"
)

// SSH is the connection detail extracted from an ssh:// daemon URL.
type SSH struct {
	Hostname string
	Port     *int
	User     string
}

// Host is the resolved daemon target: the effective URL, plus SSH detail
// when the scheme is "ssh".
type Host struct {
	URL string
	SSH *SSH
	// WorkbenchDirName is the content-addressed subdirectory name a
	// host's local/remote workbench is scoped under, so two projects
	// resolving to different daemons never collide on one workbench path.
	WorkbenchDirName string
}

// workbenchDirName maps a resolved daemon URL to a stable directory name
// by hashing it, rather than sanitizing it into a filesystem-safe string.
func workbenchDirName(url string) string {
	return digest.FromString(url).Encoded()
}

// dockerContext mirrors the JSON shape of `docker context inspect`.
type dockerContext struct {
	Endpoints struct {
		Docker struct {
			Host string `json:"Host"`
		} `json:"docker"`
	} `json:"Endpoints"`
}

// EnvLookup resolves an environment variable; used in place of os.LookupEnv
// directly so tests can substitute a fixture without mutating the process
// environment.
type EnvLookup func(name string) (string, bool)

// Resolve picks the first available of: an explicit override, DOCKER_HOST,
// then the currently selected container-engine context.
func Resolve(ctx context.Context, urlOverride string, env EnvLookup, daemon engine.DaemonArgs) (Host, error) {
	effective, err := effectiveURL(ctx, urlOverride, env, daemon)
	if err != nil {
		return Host{}, err
	}

	parsed, err := url.Parse(effective)
	if err != nil {
		return Host{}, errors.Wrapf(api.ErrContractFailed, "unable to parse Docker host URL %q: %s", effective, err)
	}

	h := Host{URL: effective, WorkbenchDirName: workbenchDirName(effective)}
	if parsed.Scheme == "ssh" {
		s := &SSH{Hostname: parsed.Hostname()}
		if user := parsed.User.Username(); user != "" {
			s.User = user
		}
		if p := parsed.Port(); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				s.Port = &n
			}
		}
		h.SSH = s
	}
	return h, nil
}

func effectiveURL(ctx context.Context, urlOverride string, env EnvLookup, daemon engine.DaemonArgs) (string, error) {
	if urlOverride != "" {
		return urlOverride, nil
	}
	if v, ok := env("DOCKER_HOST"); ok {
		if !utf8.ValidString(v) {
			return "", errors.Wrap(api.ErrContractFailed, "environment variable \"DOCKER_HOST\" should be Unicode")
		}
		return v, nil
	}

	cmd := engine.ContextInspect(daemon)
	dc, err := command.StdoutJSON[dockerContext](ctx, cmd)
	if err != nil {
		return "", errors.Wrap(err, "unable to get current Docker context, try using DOCKER_HOST instead")
	}
	return dc.Endpoints.Docker.Host, nil
}

// OSEnvLookup adapts os.LookupEnv to EnvLookup.
func OSEnvLookup() EnvLookup {
	return os.LookupEnv
}
