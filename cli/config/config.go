/*
	Copyright (c) 2020 Docker Inc.

	Permission is hereby granted, free of charge, to any person
	obtaining a copy of this software and associated documentation
	files (the "Software"), to deal in the Software without
	restriction, including without limitation the rights to use, copy,
	modify, merge, publish, distribute, sublicense, and/or sell copies
	of the Software, and to permit persons to whom the Software is
	furnished to do so, subject to the following conditions:

	The above copyright notice and this permission notice shall be
	included in all copies or substantial portions of the Software.

	THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
	EXPRESS OR IMPLIED,
	INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
	FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
	IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
	HOLDERS BE LIABLE FOR ANY CLAIM,
	DAMAGES OR OTHER LIABILITY,
	WHETHER IN AN ACTION OF CONTRACT,
	TORT OR OTHERWISE,
	ARISING FROM, OUT OF OR IN CONNECTION WITH
	THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package config resolves wheelsticks' own on-disk configuration: a small
// JSON file of defaults the reconciler falls back to when a flag is not
// given. The directory holding it is resolved lazily, at load time, so an
// explicit --config flag, the WHEELSTICKS_CONFIG environment variable and
// the home-directory fallback are consulted in that order no matter when
// the flag set was built.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const fileName = "config.json"

// Dir resolves the configuration directory. flagValue is the raw value of
// the --config flag and wins when non-empty; WHEELSTICKS_CONFIG is
// consulted next, then ~/.wheelsticks.
func Dir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("WHEELSTICKS_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wheelsticks")
}

// Load reads the configuration file from dir, defaulting silently (every
// field zero-valued) when the file does not exist.
func Load(dir string) (*File, error) {
	f := &File{}
	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, errors.Wrap(err, "unable to read config file")
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal config")
	}
	return f, nil
}

// File is the wheelsticks configuration file's shape: the default log
// level, the default daemon URL override, the default manifest path, and
// extra ssh options for reaching an ssh-schemed daemon host, each used
// only when the corresponding CLI flag is not given.
type File struct {
	LogLevel     string `json:"logLevel,omitempty"`
	Host         string `json:"host,omitempty"`
	ManifestPath string `json:"manifestPath,omitempty"`
	SSHOptions   string `json:"sshOptions,omitempty"`
}
