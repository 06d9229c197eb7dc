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

// Package plan computes the ordered sequence of container changes that
// converges actual state to desired state: a pure function with a
// peephole pass that collapses matching Add/Remove pairs into Keep.
package plan

import (
	"sort"

	"github.com/docker/wheelsticks/internal/state"
)

// ChangeKind distinguishes the three change shapes.
type ChangeKind int

const (
	Add ChangeKind = iota
	Keep
	Remove
)

// Change is one planned mutation against a single container of a service.
// ContainerID is empty for Add (no container exists yet).
type Change struct {
	Kind              ChangeKind
	ServiceName       string
	ServiceConfigHash string
	ContainerID       string
}

// Plan computes the ordered sequence of changes: a lexicographic union of
// service names, per-service interleaved additions/removals according to
// update order, then a peephole simplification pass.
func Plan(actual []state.ActualContainer, desired map[string]state.DesiredService) []Change {
	names := unionServiceNames(actual, desired)

	var changes []Change
	for _, name := range names {
		removals := removalsFor(actual, name)
		svc, isDesired := desired[name]
		if !isDesired {
			changes = append(changes, removals...)
			continue
		}

		additions := make([]Change, svc.ReplicaCount)
		for i := range additions {
			additions[i] = Change{Kind: Add, ServiceName: name, ServiceConfigHash: svc.ServiceConfigHash}
		}

		if svc.UpdateOrder == state.StartFirst {
			changes = append(changes, alternate(additions, removals)...)
		} else {
			changes = append(changes, alternate(removals, additions)...)
		}
	}

	return simplify(changes)
}

func unionServiceNames(actual []state.ActualContainer, desired map[string]state.DesiredService) []string {
	set := map[string]bool{}
	for _, c := range actual {
		set[c.ServiceName] = true
	}
	for name := range desired {
		set[name] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// removalsFor returns a Remove change for every actual container of name,
// ordered lexicographically by container id.
func removalsFor(actual []state.ActualContainer, name string) []Change {
	var removals []Change
	for _, c := range actual {
		if c.ServiceName != name {
			continue
		}
		removals = append(removals, Change{
			Kind:              Remove,
			ServiceName:       c.ServiceName,
			ServiceConfigHash: c.ServiceConfigHash,
			ContainerID:       c.ContainerID,
		})
	}
	sort.SliceStable(removals, func(i, j int) bool {
		return removals[i].ContainerID < removals[j].ContainerID
	})
	return removals
}

// alternate zips evens and odds in lockstep, appending whichever sequence
// has a longer tail once the other is exhausted.
func alternate(evens, odds []Change) []Change {
	queue := make([]Change, 0, len(evens)+len(odds))
	i := 0
	for ; i < len(evens) && i < len(odds); i++ {
		queue = append(queue, evens[i], odds[i])
	}
	if i < len(evens) {
		queue = append(queue, evens[i:]...)
	}
	if i < len(odds) {
		queue = append(queue, odds[i:]...)
	}
	return queue
}

// simplify runs the peephole pass: pop the front two entries at a
// time; a matching (Add, Remove) or (Remove, Add) pair — same service name
// and hash — collapses into one Keep carrying the Remove's container id;
// any other pair leaves the first entry as-is and pushes the second back
// to the front of the queue for the next iteration.
func simplify(changes []Change) []Change {
	queue := append([]Change(nil), changes...)
	var out []Change

	for len(queue) > 0 {
		a := queue[0]
		if len(queue) == 1 {
			out = append(out, a)
			queue = queue[1:]
			continue
		}
		b := queue[1]

		if kept, ok := collapse(a, b); ok {
			out = append(out, kept)
			queue = queue[2:]
			continue
		}

		out = append(out, a)
		queue = queue[1:]
	}

	return out
}

func collapse(a, b Change) (Change, bool) {
	if a.Kind == Add && b.Kind == Remove && a.ServiceName == b.ServiceName && a.ServiceConfigHash == b.ServiceConfigHash {
		return Change{Kind: Keep, ServiceName: b.ServiceName, ServiceConfigHash: b.ServiceConfigHash, ContainerID: b.ContainerID}, true
	}
	if a.Kind == Remove && b.Kind == Add && a.ServiceName == b.ServiceName && a.ServiceConfigHash == b.ServiceConfigHash {
		return Change{Kind: Keep, ServiceName: a.ServiceName, ServiceConfigHash: a.ServiceConfigHash, ContainerID: a.ContainerID}, true
	}
	return Change{}, false
}
