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

package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/docker/wheelsticks/pkg/api"
)

// Project is the fully loaded, interpolated and schema-validated manifest,
// with the project name already resolved.
type Project struct {
	Name     string
	Document *Document
}

// Load reads path (YAML by default, TOML when its extension is ".toml"),
// decodes it into a generic structural value, substitutes every string
// scalar via lookup, validates the result against the minimum schema, and
// resolves the project name. nameOverride, if non-empty, wins outright.
func Load(path string, nameOverride string, lookup LookupFunc) (*Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(api.ErrContractFailed, "unable to read manifest: "+err.Error())
	}

	value, err := decode(path, raw)
	if err != nil {
		return nil, err
	}

	substituted, err := substituteValue(value, lookup)
	if err != nil {
		return nil, err
	}

	doc, err := BuildDocument(substituted)
	if err != nil {
		return nil, err
	}

	name := resolveProjectName(nameOverride, doc.Name, path)
	return &Project{Name: name, Document: doc}, nil
}

func decode(path string, raw []byte) (interface{}, error) {
	var value interface{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(raw, &value); err != nil {
			return nil, errors.Wrap(api.ErrParseFailed, "unable to decode TOML: "+err.Error())
		}
		return normalizeTOML(value), nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&value); err != nil {
		return nil, errors.Wrap(api.ErrParseFailed, "unable to decode YAML: "+err.Error())
	}
	return normalizeYAML(value), nil
}

// normalizeYAML rewrites yaml.v3's map[interface{}]interface{} (emitted by
// some decode paths) and nested structures into map[string]interface{} so
// the rest of the package only ever walks one generic shape.
func normalizeYAML(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[toString(k)] = normalizeYAML(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}

// normalizeTOML only needs the []interface{}/map[string]interface{} walk,
// since BurntSushi/toml already decodes maps as map[string]interface{}.
func normalizeTOML(value interface{}) interface{} {
	return normalizeYAML(value)
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// substituteValue walks a generic decoded value (mapping/sequence/scalar)
// and runs Substitute over every string leaf.
func substituteValue(value interface{}, lookup LookupFunc) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return Substitute(v, lookup)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			sub, err := substituteValue(e, lookup)
			if err != nil {
				return nil, err
			}
			out[k] = sub
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			sub, err := substituteValue(e, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	default:
		return v, nil
	}
}

// resolveProjectName picks the first non-empty of: explicit override, the
// interpolated document's name field, the basename of the project folder
// (the manifest's containing directory), else "default".
func resolveProjectName(override, documentName, manifestPath string) string {
	if override != "" {
		return override
	}
	if documentName != "" {
		return documentName
	}
	dir := filepath.Dir(manifestPath)
	base := filepath.Base(dir)
	if base != "" && base != "." && base != string(filepath.Separator) {
		return base
	}
	return "default"
}
