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

// Package manifest loads a Compose-style manifest: generic structural
// decode (YAML or TOML), shell-style variable substitution over every
// string scalar, then schema validation with alien-field handling.
package manifest

import (
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/docker/wheelsticks/pkg/api"
)

// LookupFunc resolves an environment variable, returning its value and
// whether it was set at all (distinct from set-but-empty).
type LookupFunc func(name string) (value string, ok bool)

// form is the substitution construct carried by one parsed variable
// reference; the evaluator dispatches on it exactly once the identifier
// and trailing expression, if any, have been parsed.
type form int

const (
	formRecommended form = iota
	formOptionalSet
	formOptionalNotEmpty
	formRequiredSet
	formRequiredNotEmpty
)

// Substitute rewrites every `$IDENT`, `${IDENT}`, `${IDENT-default}`,
// `${IDENT:-default}`, `${IDENT?message}`, `${IDENT:?message}` and `$$`
// construct in s, recursively substituting within default/message
// expressions. Any syntactically invalid construct is passed through
// unchanged. lookup is consulted for every identifier encountered; a
// value that is not valid UTF-8 is a substitution failure.
func Substitute(s string, lookup LookupFunc) (string, error) {
	var out strings.Builder
	var errs *multierror.Error
	rest := s
	for len(rest) > 0 {
		i := strings.IndexByte(rest, '$')
		if i < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:i])
		rest = rest[i:]

		consumed, text, err := parseOne(rest, lookup)
		if err != nil {
			errs = multierror.Append(errs, err)
			// Still consume what we parsed so the scan makes progress.
		}
		out.WriteString(text)
		rest = rest[consumed:]
	}
	if err := errs.ErrorOrNil(); err != nil {
		return "", errors.Wrap(api.ErrSubstitutionFailed, err.Error())
	}
	return out.String(), nil
}

// parseOne consumes one `$`-led construct from the front of s (which is
// guaranteed to start with '$') and returns how many bytes were consumed,
// the substituted text, and an error if a required variable was missing.
// On any syntactically invalid construct, it consumes exactly one literal
// '$' and returns it unchanged, so the caller resumes scanning from the
// next rune.
func parseOne(s string, lookup LookupFunc) (int, string, error) {
	if len(s) >= 2 && s[1] == '$' {
		return 2, "$", nil
	}
	if len(s) >= 2 && s[1] == '{' {
		if n, text, err, ok := parseBraced(s, lookup); ok {
			return n, text, err
		}
		return 1, "$", nil
	}
	if n, ident, ok := parseIdent(s[1:]); ok {
		value, err := lookupRecommended(ident, lookup)
		return 1 + n, value, err
	}
	return 1, "$", nil
}

// parseIdent matches [A-Za-z_][A-Za-z0-9_]* at the front of s.
func parseIdent(s string) (int, string, bool) {
	if s == "" || !isIdentStart(rune(s[0])) {
		return 0, "", false
	}
	i := 1
	for i < len(s) && isIdentCont(rune(s[i])) {
		i++
	}
	return i, s[:i], true
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// parseBraced attempts to parse a `${...}` construct starting at s[0]=='$',
// s[1]=='{'. ok is false if the content is not a recognized form, in which
// case the caller falls back to passing through a single '$'.
func parseBraced(s string, lookup LookupFunc) (int, string, error, bool) {
	end := matchingBrace(s)
	if end < 0 {
		return 0, "", nil, false
	}
	inner := s[2:end]
	total := end + 1

	n, ident, ok := parseIdent(inner)
	if !ok {
		return 0, "", nil, false
	}
	remainder := inner[n:]

	if remainder == "" {
		value, err := lookupRecommended(ident, lookup)
		return total, value, err, true
	}

	f, expr, ok := classify(remainder)
	if !ok {
		return 0, "", nil, false
	}

	value, err := lookupWithForm(ident, f, expr, lookup)
	return total, value, err, true
}

// matchingBrace returns the index of the '}' closing the '{' at s[1],
// counting brace depth so a default or message expression may itself
// contain further `${...}` references. Returns -1 when unterminated.
func matchingBrace(s string) int {
	depth := 0
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// classify splits the remainder of a braced reference (after the
// identifier) into its form and trailing expression text.
func classify(remainder string) (form, string, bool) {
	switch {
	case strings.HasPrefix(remainder, ":-"):
		return formOptionalNotEmpty, remainder[2:], true
	case strings.HasPrefix(remainder, "-"):
		return formOptionalSet, remainder[1:], true
	case strings.HasPrefix(remainder, ":?"):
		return formRequiredNotEmpty, remainder[2:], true
	case strings.HasPrefix(remainder, "?"):
		return formRequiredSet, remainder[1:], true
	default:
		return 0, "", false
	}
}

func lookupRecommended(ident string, lookup LookupFunc) (string, error) {
	value, ok := lookup(ident)
	if !ok {
		logrus.Warnf("The %q variable is not set. Defaulting to a blank string.", ident)
		return "", nil
	}
	if !utf8.ValidString(value) {
		return "", errors.Wrapf(api.ErrSubstitutionFailed, "variable %q is not valid UTF-8", ident)
	}
	return value, nil
}

func lookupWithForm(ident string, f form, expr string, lookup LookupFunc) (string, error) {
	value, ok := lookup(ident)
	if ok && !utf8.ValidString(value) {
		return "", errors.Wrapf(api.ErrSubstitutionFailed, "variable %q is not valid UTF-8", ident)
	}

	switch f {
	case formOptionalSet:
		if ok {
			return value, nil
		}
		return Substitute(expr, lookup)
	case formOptionalNotEmpty:
		if ok && value != "" {
			return value, nil
		}
		return Substitute(expr, lookup)
	case formRequiredSet:
		if ok {
			return value, nil
		}
		message, _ := Substitute(expr, lookup)
		return "", requiredError(ident, message)
	case formRequiredNotEmpty:
		if ok && value != "" {
			return value, nil
		}
		message, _ := Substitute(expr, lookup)
		return "", requiredError(ident, message)
	default:
		return "", errors.Wrapf(api.ErrUnknown, "unrecognized substitution form for %q", ident)
	}
}

func requiredError(ident, message string) error {
	if message == "" {
		return errors.Wrapf(api.ErrSubstitutionFailed, "required variable %q is not set", ident)
	}
	return errors.Wrapf(api.ErrSubstitutionFailed, "required variable %q is not set: %s", ident, message)
}

// OSLookup adapts os.LookupEnv to LookupFunc.
func OSLookup(lookupEnv func(string) (string, bool)) LookupFunc {
	return func(name string) (string, bool) {
		return lookupEnv(name)
	}
}
