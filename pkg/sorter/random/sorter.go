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
	"math/rand"

	"github.com/ep-infosec/33-apache-mesos/pkg/common"
	"github.com/ep-infosec/33-apache-mesos/pkg/common/stringset"
	"github.com/ep-infosec/33-apache-mesos/pkg/scalar"
	"github.com/ep-infosec/33-apache-mesos/pkg/sorter"
	"github.com/ep-infosec/33-apache-mesos/pkg/sorter/tree"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
)

// randomSorter implements sorter.Sorter with a weighted random shuffle:
// every Sort call produces a fresh permutation of the active clients in
// which the probability of appearing earlier is proportional to a
// hierarchically resolved weight.
type randomSorter struct {
	tree *tree.Tree

	// weights associated with role paths. Setting the weight of a path
	// influences the sampling probability of all clients in the subtree
	// rooted at that path. May include weights for paths that are not
	// currently in the tree.
	weights map[string]float64

	// Resource kinds excluded from fairness quantity calculations.
	// Tracked for the allocator contract and handed to share
	// calculations; the ledger itself always stays exact.
	fairnessExcluded stringset.StringSet

	info *sortInfo

	// random is seeded once at construction and mutated by every draw,
	// so repeated Sort calls produce different permutations while a
	// fixed seed keeps a fixed call sequence reproducible.
	random *rand.Rand

	metrics *sorter.Metrics
}

// New returns a sorter that orders its active clients with a weighted
// random shuffle on every Sort call.
func New(scope tally.Scope, seed int64) sorter.Sorter {
	s := &randomSorter{
		tree:    tree.NewTree(),
		weights: make(map[string]float64),
		random:  rand.New(rand.NewSource(seed)),
		metrics: sorter.NewMetrics(scope),
	}
	s.info = newSortInfo(s)
	return s
}

// Initialize records the resource kinds to exclude from fairness quantity
// calculations.
func (s *randomSorter) Initialize(fairnessExcludedResourceNames []string) {
	s.fairnessExcluded = stringset.New(fairnessExcludedResourceNames...)
}

// Add inserts a new client into the sorter.
func (s *randomSorter) Add(client string) {
	if _, err := s.tree.Add(client); err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to add sorter client")
	}

	s.info.dirty = true
	s.metrics.AddClient.Inc(1)
	s.updateClientGauges()
}

// Remove deletes the client and its resource bookkeeping.
func (s *randomSorter) Remove(client string) {
	if err := s.tree.Remove(client); err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to remove sorter client")
	}

	s.info.dirty = true
	s.metrics.RemoveClient.Inc(1)
	s.updateClientGauges()
}

// Activate makes the client eligible for ordering.
func (s *randomSorter) Activate(client string) {
	changed, err := s.tree.Activate(client)
	if err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to activate sorter client")
	}

	if changed {
		s.info.dirty = true
	}
	s.metrics.ActivateClient.Inc(1)
	s.updateClientGauges()
}

// Deactivate removes the client from ordering.
func (s *randomSorter) Deactivate(client string) {
	changed, err := s.tree.Deactivate(client)
	if err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to deactivate sorter client")
	}

	if changed {
		s.info.dirty = true
	}
	s.metrics.DeactivateClient.Inc(1)
	s.updateClientGauges()
}

// UpdateWeight sets the weight of a path and invalidates the weight cached
// on the node at that path, if it is in the tree. Weight inheritance is
// resolved when the sampling cache is rebuilt, so no other node needs
// touching.
func (s *randomSorter) UpdateWeight(path string, weight float64) {
	if weight <= 0 {
		log.WithFields(log.Fields{
			"path":   path,
			"weight": weight,
		}).Panic("sorter weights must be positive")
	}

	s.weights[path] = weight

	// A weight change alters the relative weight of every active client.
	s.info.dirty = true

	if node := s.tree.FindNode(path); node != nil {
		node.InvalidateWeight()
		// A virtual leaf resolves its weight through the same table
		// entry as its co-located internal node.
		if virt := node.VirtualLeaf(); virt != nil {
			virt.InvalidateWeight()
		}
	}

	s.metrics.UpdateWeight.Inc(1)
}

// Allocated tracks resources granted to the client on an agent, updating
// the ledger of the leaf and of every ancestor up to the root.
func (s *randomSorter) Allocated(
	client string,
	agentID string,
	resources scalar.Resources) {

	for node := s.mustFind(client); node != nil; node = node.Parent() {
		node.Allocation().Add(agentID, resources)
	}
	s.metrics.Allocated.Inc(1)
}

// Update atomically replaces oldAllocation with newAllocation for the
// client on an agent, applying the same delta to every ancestor.
func (s *randomSorter) Update(
	client string,
	agentID string,
	oldAllocation scalar.Resources,
	newAllocation scalar.Resources) {

	for node := s.mustFind(client); node != nil; node = node.Parent() {
		if err := node.Allocation().Update(
			agentID, oldAllocation, newAllocation); err != nil {
			log.WithFields(log.Fields{
				"client": client,
				"agent":  agentID,
				"node":   node.Path(),
			}).WithError(err).Panic("failed to update allocation")
		}
	}
	s.metrics.Updated.Inc(1)
}

// Unallocated recovers resources granted to the client on an agent,
// applying the same delta to every ancestor.
func (s *randomSorter) Unallocated(
	client string,
	agentID string,
	resources scalar.Resources) {

	for node := s.mustFind(client); node != nil; node = node.Parent() {
		if err := node.Allocation().Subtract(agentID, resources); err != nil {
			log.WithFields(log.Fields{
				"client": client,
				"agent":  agentID,
				"node":   node.Path(),
			}).WithError(err).Panic("failed to recover allocation")
		}
	}
	s.metrics.Unallocated.Inc(1)
}

// GetAllocation returns the client's granted resources keyed by agent ID.
func (s *randomSorter) GetAllocation(client string) map[string]scalar.Resources {
	return s.mustFind(client).Allocation().Resources()
}

// GetAgentAllocation returns the client's granted resources on one agent.
func (s *randomSorter) GetAgentAllocation(
	client string,
	agentID string) scalar.Resources {

	return s.mustFind(client).Allocation().AgentResources(agentID)
}

// GetAllocationQuantities returns the client's aggregate scalar quantities
// across agents.
func (s *randomSorter) GetAllocationQuantities(client string) scalar.Quantities {
	return s.mustFind(client).Allocation().Totals()
}

// GetTotalAllocationQuantities returns the aggregate scalar quantities
// granted to all clients.
func (s *randomSorter) GetTotalAllocationQuantities() scalar.Quantities {
	return s.tree.Root().Allocation().Totals()
}

// AddAgent is a no-op: agent lifecycle carries no state for this sorter.
func (s *randomSorter) AddAgent(agentID string, total scalar.Quantities) {}

// RemoveAgent is a no-op: agent lifecycle carries no state for this
// sorter.
func (s *randomSorter) RemoveAgent(agentID string) {}

// Sort performs a weighted random shuffle of the active clients, drawing
// from the sorter's persistent random source. The sampling cache is
// rebuilt first if any structural or weight change dirtied it.
func (s *randomSorter) Sort() []string {
	stopwatch := s.metrics.SortDuration.Start()
	defer stopwatch.Stop()
	s.metrics.Sort.Inc(1)

	clients, weights := s.info.clientsAndWeights()
	return weightedShuffle(s.random, clients, weights)
}

// Contains returns true if the sorter tracks the client.
func (s *randomSorter) Contains(client string) bool {
	return s.tree.Contains(client)
}

// Count returns the number of tracked clients.
func (s *randomSorter) Count() int {
	return s.tree.Count()
}

// getWeight returns the weight of the node, resolving it through the
// weight table by client path on first use and caching it on the node. A
// path without a configured weight gets the default.
func (s *randomSorter) getWeight(node *tree.Node) float64 {
	if weight, ok := node.CachedWeight(); ok {
		return weight
	}

	weight := common.DefaultWeight
	if configured, ok := s.weights[node.ClientPath()]; ok {
		weight = configured
	}
	node.SetCachedWeight(weight)
	return weight
}

// mustFind returns the client's leaf node and panics if the client is not
// tracked: callers for which absence is a normal case check Contains
// first.
func (s *randomSorter) mustFind(client string) *tree.Node {
	node := s.tree.Find(client)
	if node == nil {
		log.WithField("client", client).
			Panic("sorter does not track client")
	}
	return node
}

func (s *randomSorter) updateClientGauges() {
	s.metrics.TotalClients.Update(float64(s.tree.Count()))
	s.metrics.ActiveClients.Update(float64(s.tree.ActiveCount()))
}

// weightedShuffle permutes the clients by repeatedly drawing one remaining
// client with probability proportional to its weight among the remaining
// pool, without replacement, until the pool is exhausted.
func weightedShuffle(
	random *rand.Rand,
	clients []string,
	weights []float64) []string {

	pool := make([]string, len(clients))
	copy(pool, clients)
	remaining := make([]float64, len(weights))
	copy(remaining, weights)

	total := 0.0
	for _, weight := range remaining {
		total += weight
	}

	result := make([]string, 0, len(pool))
	for len(pool) > 0 {
		target := random.Float64() * total

		// Walk the cumulative weights; the final element absorbs any
		// floating point shortfall.
		index := len(pool) - 1
		cumulative := 0.0
		for i, weight := range remaining {
			cumulative += weight
			if target < cumulative {
				index = i
				break
			}
		}

		result = append(result, pool[index])
		total -= remaining[index]

		last := len(pool) - 1
		pool[index], remaining[index] = pool[last], remaining[last]
		pool = pool[:last]
		remaining = remaining[:last]
	}
	return result
}
