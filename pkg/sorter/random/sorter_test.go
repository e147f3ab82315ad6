// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package random

import (
	"testing"

	"github.com/ep-infosec/33-apache-mesos/pkg/scalar"
	"github.com/ep-infosec/33-apache-mesos/pkg/sorter"

	"github.com/pborman/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally"
)

const (
	// numTrials is large enough that the observed first-position
	// frequencies land within tolerance of their expectation with
	// overwhelming probability under the fixed seed.
	numTrials = 10000

	tolerance = 0.03
)

type RandomSorterTestSuite struct {
	suite.Suite

	sorter sorter.Sorter
}

func TestRandomSorterTestSuite(t *testing.T) {
	suite.Run(t, new(RandomSorterTestSuite))
}

func (s *RandomSorterTestSuite) SetupTest() {
	s.sorter = New(tally.NoopScope, 42)
	s.sorter.Initialize(nil)
}

// firstCounts runs numTrials sorts and tallies how often each client is
// shuffled to the first position.
func (s *RandomSorterTestSuite) firstCounts() map[string]int {
	counts := make(map[string]int)
	for i := 0; i < numTrials; i++ {
		order := s.sorter.Sort()
		s.Require().NotEmpty(order)
		counts[order[0]]++
	}
	return counts
}

func (s *RandomSorterTestSuite) TestAddRemoveContains() {
	s.False(s.sorter.Contains("a/b"))
	s.Equal(0, s.sorter.Count())

	s.sorter.Add("a/b")
	s.sorter.Add("a/c")

	s.True(s.sorter.Contains("a/b"))
	s.True(s.sorter.Contains("a/c"))
	s.False(s.sorter.Contains("a"))
	s.Equal(2, s.sorter.Count())

	s.sorter.Remove("a/b")

	s.False(s.sorter.Contains("a/b"))
	s.Equal(1, s.sorter.Count())
}

func (s *RandomSorterTestSuite) TestSortIsPermutation() {
	s.sorter.Add("a/b")
	s.sorter.Add("a/c")
	s.sorter.Add("x")

	order := s.sorter.Sort()
	s.ElementsMatch([]string{"a/b", "a/c", "x"}, order)
}

func (s *RandomSorterTestSuite) TestSortEmpty() {
	s.Empty(s.sorter.Sort())
}

func (s *RandomSorterTestSuite) TestSortSkipsInactiveClients() {
	s.sorter.Add("a/b")
	s.sorter.Add("a/c")
	s.sorter.Deactivate("a/c")

	s.Equal([]string{"a/b"}, s.sorter.Sort())

	s.sorter.Activate("a/c")
	s.ElementsMatch([]string{"a/b", "a/c"}, s.sorter.Sort())
}

func (s *RandomSorterTestSuite) TestSortVariesAcrossCalls() {
	for _, client := range []string{"a", "b", "c", "d", "e", "f"} {
		s.sorter.Add(client)
	}

	first := s.sorter.Sort()

	varied := false
	for i := 0; i < 10 && !varied; i++ {
		next := s.sorter.Sort()
		for j := range first {
			if next[j] != first[j] {
				varied = true
				break
			}
		}
	}
	s.True(varied, "expected different permutations across calls")
}

func (s *RandomSorterTestSuite) TestEqualWeightsAreFair() {
	s.sorter.Add("a")
	s.sorter.Add("b")

	counts := s.firstCounts()
	s.InDelta(0.5, float64(counts["a"])/numTrials, tolerance)
}

func (s *RandomSorterTestSuite) TestWeightsBiasOrdering() {
	s.sorter.Add("a")
	s.sorter.Add("b")
	s.sorter.UpdateWeight("a", 2)

	counts := s.firstCounts()
	s.InDelta(2.0/3.0, float64(counts["a"])/numTrials, tolerance)
}

func (s *RandomSorterTestSuite) TestSubtreeWeightIsSharedByItsClients() {
	// "a" holds two clients but competes against "b" with a single
	// weight, so each of its clients gets half of its share.
	s.sorter.Add("a/x")
	s.sorter.Add("a/y")
	s.sorter.Add("b")
	s.sorter.UpdateWeight("a", 2)

	counts := s.firstCounts()
	s.InDelta(1.0/3.0, float64(counts["a/x"])/numTrials, tolerance)
	s.InDelta(1.0/3.0, float64(counts["a/y"])/numTrials, tolerance)
	s.InDelta(1.0/3.0, float64(counts["b"])/numTrials, tolerance)
}

func (s *RandomSorterTestSuite) TestWeightChangeTakesEffect() {
	s.sorter.Add("a")
	s.sorter.Add("b")
	s.sorter.UpdateWeight("a", 2)
	s.sorter.UpdateWeight("a", 1)

	counts := s.firstCounts()
	s.InDelta(0.5, float64(counts["a"])/numTrials, tolerance)
}

func (s *RandomSorterTestSuite) TestClientColocatedWithPrefix() {
	s.sorter.Add("a/b")
	s.sorter.Add("a")

	s.True(s.sorter.Contains("a"))
	s.True(s.sorter.Contains("a/b"))
	s.ElementsMatch([]string{"a", "a/b"}, s.sorter.Sort())

	s.sorter.Remove("a/b")
	s.Equal([]string{"a"}, s.sorter.Sort())
}

func (s *RandomSorterTestSuite) TestAllocated() {
	s.sorter.Add("a/b")
	s.sorter.Add("a/c")

	agent1 := uuid.New()
	agent2 := uuid.New()

	s.sorter.Allocated("a/b", agent1, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 2},
		scalar.Resource{Name: "mem", Value: 512}))
	s.sorter.Allocated("a/b", agent2, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 1}))
	s.sorter.Allocated("a/c", agent1, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 4}))

	s.Equal(scalar.Quantities{"cpus": 3, "mem": 512},
		s.sorter.GetAllocationQuantities("a/b"))
	s.Equal(scalar.Quantities{"cpus": 2, "mem": 512},
		s.sorter.GetAgentAllocation("a/b", agent1).Quantities())
	s.Len(s.sorter.GetAllocation("a/b"), 2)

	// The aggregate covers every client.
	s.Equal(scalar.Quantities{"cpus": 7, "mem": 512},
		s.sorter.GetTotalAllocationQuantities())
}

func (s *RandomSorterTestSuite) TestUnallocated() {
	s.sorter.Add("a/b")

	agentID := uuid.New()
	s.sorter.Allocated("a/b", agentID, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 2}))
	s.sorter.Unallocated("a/b", agentID, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 1}))

	s.Equal(scalar.Quantities{"cpus": 1},
		s.sorter.GetAllocationQuantities("a/b"))
	s.Equal(scalar.Quantities{"cpus": 1},
		s.sorter.GetTotalAllocationQuantities())

	s.sorter.Unallocated("a/b", agentID, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 1}))

	s.Empty(s.sorter.GetAllocation("a/b"))
	s.Equal(scalar.Quantities{}, s.sorter.GetTotalAllocationQuantities())
}

func (s *RandomSorterTestSuite) TestUpdate() {
	s.sorter.Add("a/b")

	agentID := uuid.New()
	s.sorter.Allocated("a/b", agentID, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 2}))
	s.sorter.Update("a/b", agentID,
		scalar.NewResources(scalar.Resource{Name: "cpus", Value: 2}),
		scalar.NewResources(
			scalar.Resource{Name: "cpus", Value: 1},
			scalar.Resource{Name: "mem", Value: 512}))

	s.Equal(scalar.Quantities{"cpus": 1, "mem": 512},
		s.sorter.GetAllocationQuantities("a/b"))
	s.Equal(scalar.Quantities{"cpus": 1, "mem": 512},
		s.sorter.GetTotalAllocationQuantities())
}

func (s *RandomSorterTestSuite) TestRemoveReleasesAllocation() {
	s.sorter.Add("a/b")
	s.sorter.Add("a/c")

	agentID := uuid.New()
	s.sorter.Allocated("a/b", agentID, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 2}))
	s.sorter.Allocated("a/c", agentID, scalar.NewResources(
		scalar.Resource{Name: "cpus", Value: 1}))

	s.sorter.Remove("a/b")

	s.Equal(scalar.Quantities{"cpus": 1},
		s.sorter.GetTotalAllocationQuantities())
}

func (s *RandomSorterTestSuite) TestAgentLifecycleIsIgnored() {
	s.sorter.Add("a/b")
	s.sorter.AddAgent(uuid.New(), scalar.Quantities{"cpus": 8})
	s.sorter.RemoveAgent(uuid.New())

	s.Equal([]string{"a/b"}, s.sorter.Sort())
}

func (s *RandomSorterTestSuite) TestContractViolationsPanic() {
	s.sorter.Add("a/b")

	s.Panics(func() { s.sorter.Add("a/b") })
	s.Panics(func() { s.sorter.Remove("unknown") })
	s.Panics(func() { s.sorter.Activate("unknown") })
	s.Panics(func() { s.sorter.Deactivate("unknown") })
	s.Panics(func() { s.sorter.UpdateWeight("a", 0) })
	s.Panics(func() { s.sorter.UpdateWeight("a", -1) })
	s.Panics(func() {
		s.sorter.Allocated("unknown", uuid.New(), scalar.NewResources())
	})
	s.Panics(func() {
		s.sorter.Unallocated("a/b", uuid.New(), scalar.NewResources(
			scalar.Resource{Name: "cpus", Value: 1}))
	})
}
