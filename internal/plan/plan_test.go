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

package plan

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/docker/wheelsticks/internal/state"
)

func container(service, hash, id string) state.ActualContainer {
	return state.ActualContainer{ServiceName: service, ServiceConfigHash: hash, ContainerID: id}
}

func desiredService(hash string, replicas int, order state.UpdateOrder) state.DesiredService {
	return state.DesiredService{ServiceConfigHash: hash, ReplicaCount: replicas, UpdateOrder: order}
}

func add(service, hash string) Change {
	return Change{Kind: Add, ServiceName: service, ServiceConfigHash: hash}
}

func keep(service, hash, id string) Change {
	return Change{Kind: Keep, ServiceName: service, ServiceConfigHash: hash, ContainerID: id}
}

func remove(service, hash, id string) Change {
	return Change{Kind: Remove, ServiceName: service, ServiceConfigHash: hash, ContainerID: id}
}

func TestPlanZeroToZero(t *testing.T) {
	got := Plan(nil, map[string]state.DesiredService{})
	assert.Equal(t, len(got), 0)
}

func TestPlanZeroToOneStartFirst(t *testing.T) {
	got := Plan(nil, map[string]state.DesiredService{"X": desiredService("a", 1, state.StartFirst)})
	assert.DeepEqual(t, got, []Change{add("X", "a")})
}

func TestPlanZeroToOneStopFirst(t *testing.T) {
	got := Plan(nil, map[string]state.DesiredService{"X": desiredService("a", 1, state.StopFirst)})
	assert.DeepEqual(t, got, []Change{add("X", "a")})
}

func TestPlanOneToZero(t *testing.T) {
	got := Plan([]state.ActualContainer{container("X", "a", "0")}, map[string]state.DesiredService{})
	assert.DeepEqual(t, got, []Change{remove("X", "a", "0")})
}

func TestPlanTwoToTwoEqualHashStartFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1")}
	desired := map[string]state.DesiredService{"X": desiredService("a", 2, state.StartFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{keep("X", "a", "0"), keep("X", "a", "1")})
}

func TestPlanTwoToTwoEqualHashStopFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1")}
	desired := map[string]state.DesiredService{"X": desiredService("a", 2, state.StopFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{keep("X", "a", "0"), keep("X", "a", "1")})
}

func TestPlanTwoToTwoUnequalHashStartFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1")}
	desired := map[string]state.DesiredService{"X": desiredService("b", 2, state.StartFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{
		add("X", "b"), remove("X", "a", "0"), add("X", "b"), remove("X", "a", "1"),
	})
}

func TestPlanTwoToTwoUnequalHashStopFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1")}
	desired := map[string]state.DesiredService{"X": desiredService("b", 2, state.StopFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{
		remove("X", "a", "0"), add("X", "b"), remove("X", "a", "1"), add("X", "b"),
	})
}

func TestPlanThreeToFiveEqualHashStartFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1"), container("X", "a", "2")}
	desired := map[string]state.DesiredService{"X": desiredService("a", 5, state.StartFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{
		keep("X", "a", "0"), keep("X", "a", "1"), keep("X", "a", "2"), add("X", "a"), add("X", "a"),
	})
}

func TestPlanThreeToFiveEqualHashStopFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1"), container("X", "a", "2")}
	desired := map[string]state.DesiredService{"X": desiredService("a", 5, state.StopFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{
		keep("X", "a", "0"), keep("X", "a", "1"), keep("X", "a", "2"), add("X", "a"), add("X", "a"),
	})
}

func TestPlanThreeToFiveUnequalHashStartFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1"), container("X", "a", "2")}
	desired := map[string]state.DesiredService{"X": desiredService("b", 5, state.StartFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{
		add("X", "b"), remove("X", "a", "0"),
		add("X", "b"), remove("X", "a", "1"),
		add("X", "b"), remove("X", "a", "2"),
		add("X", "b"), add("X", "b"),
	})
}

func TestPlanThreeToFiveUnequalHashStopFirst(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1"), container("X", "a", "2")}
	desired := map[string]state.DesiredService{"X": desiredService("b", 5, state.StopFirst)}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{
		remove("X", "a", "0"), add("X", "b"),
		remove("X", "a", "1"), add("X", "b"),
		remove("X", "a", "2"), add("X", "b"),
		add("X", "b"), add("X", "b"),
	})
}

func TestPlanMultipleServices(t *testing.T) {
	actual := []state.ActualContainer{
		container("X", "a", "0"),
		container("Y", "b", "1"),
		container("Y", "b", "2"),
		container("Z", "c", "3"),
		container("Z", "c", "4"),
	}
	desired := map[string]state.DesiredService{
		"X": desiredService("d", 1, state.StopFirst),
		"Y": desiredService("b", 3, state.StartFirst),
		"Z": desiredService("e", 1, state.StopFirst),
	}
	got := Plan(actual, desired)
	assert.DeepEqual(t, got, []Change{
		remove("X", "a", "0"), add("X", "d"),
		keep("Y", "b", "1"), keep("Y", "b", "2"), add("Y", "b"),
		remove("Z", "c", "3"), add("Z", "e"), remove("Z", "c", "4"),
	})
}

func TestPlanIsDeterministic(t *testing.T) {
	actual := []state.ActualContainer{container("X", "a", "0"), container("X", "a", "1")}
	desired := map[string]state.DesiredService{"X": desiredService("b", 2, state.StopFirst)}
	first := Plan(actual, desired)
	second := Plan(actual, desired)
	assert.DeepEqual(t, first, second)
}

func TestSimplifyIsIdempotent(t *testing.T) {
	changes := []Change{add("X", "b"), remove("X", "a", "0"), add("X", "b"), remove("X", "a", "1")}
	once := simplify(changes)
	twice := simplify(once)
	assert.DeepEqual(t, once, twice)
}
