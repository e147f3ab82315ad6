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

package drf

import (
	"sort"

	"github.com/ep-infosec/33-apache-mesos/pkg/common"
	"github.com/ep-infosec/33-apache-mesos/pkg/common/stringset"
	"github.com/ep-infosec/33-apache-mesos/pkg/scalar"
	sorterpkg "github.com/ep-infosec/33-apache-mesos/pkg/sorter"
	"github.com/ep-infosec/33-apache-mesos/pkg/sorter/tree"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
)

// drfSorter implements sorter.Sorter with deterministic dominant resource
// fairness: clients holding the smallest dominant share of the cluster,
// scaled down by their weight, sort first. Siblings are compared at every
// level of the hierarchy, so a heavily allocated subtree sorts after its
// siblings as a whole.
type drfSorter struct {
	tree *tree.Tree

	// weights associated with role paths, see the random sorter.
	weights map[string]float64

	// Resource kinds skipped when computing dominant shares. The ledger
	// itself always tracks them.
	fairnessExcluded stringset.StringSet

	// Per-agent capacities and their sum, maintained through the agent
	// lifecycle calls. Dominant shares are fractions of this total.
	agents map[string]scalar.Quantities
	total  scalar.Quantities

	metrics *sorterpkg.Metrics
}

// New returns a sorter that orders its active clients by ascending
// weighted dominant share, ties broken by client path.
func New(scope tally.Scope) sorterpkg.Sorter {
	return &drfSorter{
		tree:    tree.NewTree(),
		weights: make(map[string]float64),
		agents:  make(map[string]scalar.Quantities),
		total:   make(scalar.Quantities),
		metrics: sorterpkg.NewMetrics(scope),
	}
}

// Initialize records the resource kinds to exclude from dominant share
// calculations.
func (s *drfSorter) Initialize(fairnessExcludedResourceNames []string) {
	s.fairnessExcluded = stringset.New(fairnessExcludedResourceNames...)
}

// Add inserts a new client into the sorter.
func (s *drfSorter) Add(client string) {
	if _, err := s.tree.Add(client); err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to add sorter client")
	}
	s.metrics.AddClient.Inc(1)
	s.updateClientGauges()
}

// Remove deletes the client and its resource bookkeeping.
func (s *drfSorter) Remove(client string) {
	if err := s.tree.Remove(client); err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to remove sorter client")
	}
	s.metrics.RemoveClient.Inc(1)
	s.updateClientGauges()
}

// Activate makes the client eligible for ordering.
func (s *drfSorter) Activate(client string) {
	if _, err := s.tree.Activate(client); err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to activate sorter client")
	}
	s.metrics.ActivateClient.Inc(1)
	s.updateClientGauges()
}

// Deactivate removes the client from ordering.
func (s *drfSorter) Deactivate(client string) {
	if _, err := s.tree.Deactivate(client); err != nil {
		log.WithField("client", client).
			WithError(err).
			Panic("failed to deactivate sorter client")
	}
	s.metrics.DeactivateClient.Inc(1)
	s.updateClientGauges()
}

// UpdateWeight sets the weight of a path.
func (s *drfSorter) UpdateWeight(path string, weight float64) {
	if weight <= 0 {
		log.WithFields(log.Fields{
			"path":   path,
			"weight": weight,
		}).Panic("sorter weights must be positive")
	}

	s.weights[path] = weight

	if node := s.tree.FindNode(path); node != nil {
		node.InvalidateWeight()
		if virt := node.VirtualLeaf(); virt != nil {
			virt.InvalidateWeight()
		}
	}

	s.metrics.UpdateWeight.Inc(1)
}

// Allocated tracks resources granted to the client on an agent.
func (s *drfSorter) Allocated(
	client string,
	agentID string,
	resources scalar.Resources) {

	for node := s.mustFind(client); node != nil; node = node.Parent() {
		node.Allocation().Add(agentID, resources)
	}
	s.metrics.Allocated.Inc(1)
}

// Update atomically replaces oldAllocation with newAllocation for the
// client on an agent.
func (s *drfSorter) Update(
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

// Unallocated recovers resources granted to the client on an agent.
func (s *drfSorter) Unallocated(
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
func (s *drfSorter) GetAllocation(client string) map[string]scalar.Resources {
	return s.mustFind(client).Allocation().Resources()
}

// GetAgentAllocation returns the client's granted resources on one agent.
func (s *drfSorter) GetAgentAllocation(
	client string,
	agentID string) scalar.Resources {

	return s.mustFind(client).Allocation().AgentResources(agentID)
}

// GetAllocationQuantities returns the client's aggregate scalar
// quantities across agents.
func (s *drfSorter) GetAllocationQuantities(client string) scalar.Quantities {
	return s.mustFind(client).Allocation().Totals()
}

// GetTotalAllocationQuantities returns the aggregate scalar quantities
// granted to all clients.
func (s *drfSorter) GetTotalAllocationQuantities() scalar.Quantities {
	return s.tree.Root().Allocation().Totals()
}

// AddAgent adds the agent's capacity to the cluster total. Re-adding an
// agent replaces its previous capacity.
func (s *drfSorter) AddAgent(agentID string, total scalar.Quantities) {
	if existing, ok := s.agents[agentID]; ok {
		log.WithField("agent", agentID).
			Warn("agent added twice, replacing its capacity")
		s.subtractAgent(agentID, existing)
	}

	s.agents[agentID] = total.Copy()
	s.total = s.total.Add(total)
}

// RemoveAgent subtracts the agent's capacity from the cluster total. A
// no-op for unknown agents.
func (s *drfSorter) RemoveAgent(agentID string) {
	existing, ok := s.agents[agentID]
	if !ok {
		return
	}
	s.subtractAgent(agentID, existing)
}

func (s *drfSorter) subtractAgent(agentID string, capacity scalar.Quantities) {
	total, err := s.total.Subtract(capacity)
	if err != nil {
		log.WithField("agent", agentID).
			WithError(err).
			Panic("cluster capacity does not cover agent capacity")
	}
	s.total = total
	delete(s.agents, agentID)
}

// Sort returns the active clients in ascending order of weighted dominant
// share. The ordering is deterministic for a given tree, ledger and
// cluster capacity.
func (s *drfSorter) Sort() []string {
	stopwatch := s.metrics.SortDuration.Start()
	defer stopwatch.Stop()
	s.metrics.Sort.Inc(1)

	var result []string
	s.sortSubtree(&result, s.tree.Root())
	return result
}

// Contains returns true if the sorter tracks the client.
func (s *drfSorter) Contains(client string) bool {
	return s.tree.Contains(client)
}

// Count returns the number of tracked clients.
func (s *drfSorter) Count() int {
	return s.tree.Count()
}

// sortSubtree orders the node's active children by ascending weighted
// dominant share and appends their active leaves depth first.
func (s *drfSorter) sortSubtree(result *[]string, node *tree.Node) {
	var active []*tree.Node
	for e := node.Children().Front(); e != nil; e = e.Next() {
		child := e.Value.(*tree.Node)
		// Inactive leaves are all at the end of the children.
		if child.Kind() == tree.InactiveLeaf {
			break
		}
		active = append(active, child)
	}

	sort.Slice(active, func(i, j int) bool {
		left, right := s.dominantShare(active[i]), s.dominantShare(active[j])
		if left != right {
			return left < right
		}
		return active[i].Path() < active[j].Path()
	})

	for _, child := range active {
		if child.Kind() == tree.ActiveLeaf {
			*result = append(*result, child.ClientPath())
		} else {
			s.sortSubtree(result, child)
		}
	}
}

// dominantShare returns the node's largest allocated fraction of the
// cluster across resource kinds, divided by its weight. Kinds without
// capacity, and kinds excluded from fairness, are skipped.
func (s *drfSorter) dominantShare(node *tree.Node) float64 {
	share := 0.0
	for name, quantity := range node.Allocation().Totals() {
		if s.fairnessExcluded != nil && s.fairnessExcluded.Contains(name) {
			continue
		}
		capacity := s.total.Get(name)
		if capacity <= 0 {
			continue
		}
		if fraction := quantity / capacity; fraction > share {
			share = fraction
		}
	}
	return share / s.getWeight(node)
}

// getWeight resolves the node's weight, see the random sorter.
func (s *drfSorter) getWeight(node *tree.Node) float64 {
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
// tracked.
func (s *drfSorter) mustFind(client string) *tree.Node {
	node := s.tree.Find(client)
	if node == nil {
		log.WithField("client", client).
			Panic("sorter does not track client")
	}
	return node
}

func (s *drfSorter) updateClientGauges() {
	s.metrics.TotalClients.Update(float64(s.tree.Count()))
	s.metrics.ActiveClients.Update(float64(s.tree.ActiveCount()))
}
