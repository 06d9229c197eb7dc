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
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/docker/wheelsticks/pkg/api"
)

// SchemaMode gates how an alien (unrecognized) field is treated while
// building a Document from a generic decoded value.
type SchemaMode string

const (
	// SchemaDefault warns on every alien field but keeps it.
	SchemaDefault SchemaMode = "default"
	// SchemaLoose keeps alien fields silently, no warning.
	SchemaLoose SchemaMode = "loose"
	// SchemaStrict turns an alien field into a load error.
	SchemaStrict SchemaMode = "strict"
)

// alienMarker and unsupportedMarker are attached to pass-through content on
// Print so a rewrite of the document visibly flags out-of-schema content.
const (
	alienMarker      = "x-wheelsticks-alien"
	alienMarkerValue = "← unknown"
	unsupportedValue = "← unsupported"
)

// unsupportedFields names keys the core recognizes but does not act on;
// they are preserved verbatim but always marked, regardless of SchemaMode.
var unsupportedFields = map[string]bool{
	"profiles": true,
}

// Workbench holds the wheelsticks extension section's local/remote paths.
type Workbench struct {
	Local  string
	Remote string
}

// ServiceSchema is the minimum per-service shape the core depends on; all
// other service fields are preserved in Extra.
type ServiceSchema struct {
	Build string
	Extra map[string]interface{}
}

// Document is the schema-validated view of a decoded manifest: the fields
// the core depends on, plus every unrecognized top-level key preserved
// as-is for round-tripping.
type Document struct {
	Name      string
	Services  map[string]ServiceSchema
	Workbench Workbench
	Mode      SchemaMode
	Extra     map[string]interface{}
	Alien     map[string]bool // top-level keys flagged alien or unsupported
}

// BuildDocument validates a generically-decoded value (the output of
// decode, after Substitute has rewritten every string scalar) against the
// minimum schema, reading x-wheelsticks for the schema mode and
// workbench paths before any other field is interpreted, since schema_mode
// governs how the rest of validation reacts to alien content.
func BuildDocument(value interface{}) (*Document, error) {
	root, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.Wrap(api.ErrParseFailed, "manifest root is not a mapping")
	}

	mode := SchemaDefault
	workbench := Workbench{Local: ".wheelsticks", Remote: ".wheelsticks"}
	if ext, ok := root["x-wheelsticks"]; ok {
		m, ok := ext.(map[string]interface{})
		if !ok {
			return nil, errors.Wrap(api.ErrParseFailed, "x-wheelsticks must be a mapping")
		}
		if v, ok := m["schema_mode"].(string); ok {
			switch SchemaMode(v) {
			case SchemaDefault, SchemaLoose, SchemaStrict:
				mode = SchemaMode(v)
			default:
				return nil, errors.Wrapf(api.ErrParseFailed, "invalid schema_mode %q", v)
			}
		}
		if v, ok := m["local_workbench"].(string); ok && v != "" {
			workbench.Local = v
		}
		if v, ok := m["remote_workbench"].(string); ok && v != "" {
			workbench.Remote = v
		}
	}

	doc := &Document{
		Services:  map[string]ServiceSchema{},
		Workbench: workbench,
		Mode:      mode,
		Extra:     map[string]interface{}{},
		Alien:     map[string]bool{},
	}

	var errs *multierror.Error
	for key, raw := range root {
		switch key {
		case "name":
			s, ok := raw.(string)
			if !ok {
				errs = multierror.Append(errs, errors.New("name must be a string"))
				continue
			}
			doc.Name = s
		case "services":
			m, ok := raw.(map[string]interface{})
			if !ok {
				errs = multierror.Append(errs, errors.New("services must be a mapping"))
				continue
			}
			for name, svcRaw := range m {
				svc, err := buildService(svcRaw)
				if err != nil {
					errs = multierror.Append(errs, errors.Wrapf(err, "service %q", name))
					continue
				}
				doc.Services[name] = svc
			}
		case "x-wheelsticks":
			// already consumed above.
		default:
			if err := doc.markAlien(key, unsupportedFields[key]); err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			doc.Extra[key] = raw
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(api.ErrParseFailed, err.Error())
	}

	if doc.Name == "" {
		// Left for the caller's project-name resolution to fill in.
	}
	return doc, nil
}

func (d *Document) markAlien(key string, unsupported bool) error {
	if unsupported {
		d.Alien[key] = true
		return nil
	}
	switch d.Mode {
	case SchemaStrict:
		return errors.Errorf("unrecognized field %q", key)
	case SchemaLoose:
		d.Alien[key] = true
		return nil
	default:
		logrus.Warnf("Unrecognized field %q in manifest; preserving as-is.", key)
		d.Alien[key] = true
		return nil
	}
}

func buildService(raw interface{}) (ServiceSchema, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return ServiceSchema{}, errors.New("service must be a mapping")
	}
	svc := ServiceSchema{Extra: map[string]interface{}{}}
	for key, value := range m {
		switch key {
		case "build":
			switch v := value.(type) {
			case string:
				svc.Build = v
			case map[string]interface{}:
				if ctx, ok := v["context"].(string); ok {
					svc.Build = ctx
				}
			}
			svc.Extra[key] = value
		default:
			svc.Extra[key] = value
		}
	}
	return svc, nil
}

// Print renders the document back to a generic value for serialization,
// restoring the `$`-doubling a round-trip requires and attaching alien
// markers to every preserved top-level key that was not part of the
// minimum schema.
func (d *Document) Print() map[string]interface{} {
	out := map[string]interface{}{}
	if d.Name != "" {
		out["name"] = doubleDollarString(d.Name)
	}
	if len(d.Services) > 0 {
		services := map[string]interface{}{}
		for name, svc := range d.Services {
			services[name] = printService(svc)
		}
		out["services"] = services
	}
	keys := make([]string, 0, len(d.Extra))
	for key := range d.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := d.Extra[key]
		if d.Alien[key] {
			marker := alienMarkerValue
			if unsupportedFields[key] {
				marker = unsupportedValue
			}
			out[key] = map[string]interface{}{
				key:         doubleDollars(value),
				alienMarker: marker,
			}
			continue
		}
		out[key] = doubleDollars(value)
	}
	return out
}

func printService(svc ServiceSchema) map[string]interface{} {
	out := map[string]interface{}{}
	for key, value := range svc.Extra {
		out[key] = doubleDollars(value)
	}
	return out
}

// doubleDollars walks a generic value and doubles every literal '$' rune in
// string scalars, the inverse of Substitute's '$$' unescaping, so that a
// printed document round-trips through another load unchanged.
func doubleDollars(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return doubleDollarString(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = doubleDollars(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = doubleDollars(e)
		}
		return out
	default:
		return value
	}
}

func doubleDollarString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '$' {
			out = append(out, '$', '$')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// String is a descriptive helper for callers that want to report the
// document's name, service count and how many alien fields it carries.
func (d *Document) String() string {
	return fmt.Sprintf("Document{name=%q, services=%d, alien=%d}", d.Name, len(d.Services), len(d.Alien))
}
