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

package apply

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"

	"github.com/docker/wheelsticks/internal/plan"
	"github.com/docker/wheelsticks/internal/state"
)

func TestSummarizeChangeAdd(t *testing.T) {
	logrus.SetLevel(logrus.InfoLevel)
	change := plan.Change{Kind: plan.Add, ServiceName: "web", ServiceConfigHash: "abcdef0123456789"}
	got := summarizeChange(change)
	assert.Equal(t, got, `add a container of service "web" with config hash abcdef01`)
}

func TestSummarizeChangeKeepAndRemove(t *testing.T) {
	logrus.SetLevel(logrus.InfoLevel)
	keep := plan.Change{Kind: plan.Keep, ServiceName: "web", ServiceConfigHash: "abcdef0123456789", ContainerID: "cid0123456789"}
	assert.Equal(t, summarizeChange(keep), `keep the container cid01234 of service "web" with config hash abcdef01`)

	remove := plan.Change{Kind: plan.Remove, ServiceName: "web", ServiceConfigHash: "abcdef0123456789", ContainerID: "cid0123456789"}
	assert.Equal(t, summarizeChange(remove), `remove the container cid01234 of service "web" with config hash abcdef01`)
}

func TestSummarizeHashShowsFullAtDebugLevel(t *testing.T) {
	prev := logrus.GetLevel()
	defer logrus.SetLevel(prev)

	logrus.SetLevel(logrus.DebugLevel)
	assert.Equal(t, summarizeHash("abcdef0123456789"), "abcdef0123456789")

	logrus.SetLevel(logrus.InfoLevel)
	assert.Equal(t, summarizeHash("abcdef0123456789"), "abcdef01")
}

func TestNewRollingStateCountsActualContainers(t *testing.T) {
	actual := []state.ActualContainer{
		{ServiceName: "web", ContainerID: "0"},
		{ServiceName: "web", ContainerID: "1"},
		{ServiceName: "db", ContainerID: "2"},
	}
	st := newRollingState(actual)
	assert.Equal(t, st.serviceContainerCount["web"], 2)
	assert.Equal(t, st.serviceContainerCount["db"], 1)
}

func TestApplyDryRunMutatesNothing(t *testing.T) {
	changes := []plan.Change{
		{Kind: plan.Add, ServiceName: "web", ServiceConfigHash: "a"},
		{Kind: plan.Keep, ServiceName: "db", ServiceConfigHash: "b", ContainerID: "0"},
		{Kind: plan.Remove, ServiceName: "cache", ServiceConfigHash: "c", ContainerID: "1"},
	}
	err := Apply(context.Background(), Options{DryRun: true}, nil, nil, changes)
	assert.NilError(t, err)
}
