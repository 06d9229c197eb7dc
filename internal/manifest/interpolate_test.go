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
	"testing"

	"gotest.tools/v3/assert"
)

func fixtureLookup(name string) (string, bool) {
	switch name {
	case "WHEELSTICKS_SOME":
		return "X", true
	case "WHEELSTICKS_THING":
		return "YZ", true
	case "WHEELSTICKS_EMPTY":
		return "", true
	default:
		return "", false
	}
}

func TestSubstitutionLaws(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"recommended set", "$WHEELSTICKS_SOME", "X"},
		{"optional-not-empty set", "${WHEELSTICKS_SOME:-d}", "X"},
		{"optional-not-empty unset", "${WHEELSTICKS_UNSET:-d}", "d"},
		{"optional-not-empty empty", "${WHEELSTICKS_EMPTY:-d}", "d"},
		{"optional-set empty", "${WHEELSTICKS_EMPTY-d}", ""},
		{"required-set empty ok", "${WHEELSTICKS_EMPTY?e}", ""},
		{"escaped dollar", "$$WHEELSTICKS_SOME", "$WHEELSTICKS_SOME"},
		{"invalid construct unchanged", "${VARIABLE/foo/bar}", "${VARIABLE/foo/bar}"},
		{"unterminated brace unchanged", "${VARIABLE", "${VARIABLE"},
		{"space after brace unchanged", "${ VARIABLE}", "${ VARIABLE}"},
		{"leading digit unchanged", "$123_VARIABLE", "$123_VARIABLE"},
		{"braced recommended", "${WHEELSTICKS_THING}", "YZ"},
		{"nested default", "${WHEELSTICKS_UNSET:-${WHEELSTICKS_SOME}}", "X"},
		{"plain text passthrough", "no substitutions here", "no substitutions here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Substitute(tc.input, fixtureLookup)
			assert.NilError(t, err)
			assert.Equal(t, got, tc.want)
		})
	}
}

func TestSubstitutionRequiredNotEmptyUnsetFails(t *testing.T) {
	_, err := Substitute("${WHEELSTICKS_UNSET:?e}", fixtureLookup)
	assert.ErrorContains(t, err, "substitution failed")
}

func TestSubstitutionRequiredSetUnsetFails(t *testing.T) {
	_, err := Substitute("${WHEELSTICKS_UNSET?must be set}", fixtureLookup)
	assert.ErrorContains(t, err, "must be set")
}

func TestSubstitutionNonUnicodeValueFails(t *testing.T) {
	lookup := func(name string) (string, bool) {
		return string([]byte{0xff, 0xfe}), true
	}
	_, err := Substitute("$WHEELSTICKS_SOME", lookup)
	assert.ErrorContains(t, err, "not valid UTF-8")
}
