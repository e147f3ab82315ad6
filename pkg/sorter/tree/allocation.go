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

package tree

import (
	"github.com/ep-infosec/33-apache-mesos/pkg/scalar"

	"github.com/pkg/errors"
)

// Allocation is the resource ledger of one node: the resources granted on
// each agent, plus the aggregated scalar quantities across agents, kept to
// speed up share calculation.
//
// A client may hold multiple copies of a shared resource, where the copy
// count is the number of times the resource has been granted to (and not
// yet recovered from) the client. The quantity totals ignore copy counts:
// a shared resource contributes to the totals while at least one copy is
// held on an agent, and only once.
type Allocation struct {
	// resources maps agent ID to the resources granted on that agent.
	resources map[string]scalar.Resources

	totals scalar.Quantities
}

// NewAllocation returns an empty ledger.
func NewAllocation() *Allocation {
	return &Allocation{
		resources: make(map[string]scalar.Resources),
		totals:    make(scalar.Quantities),
	}
}

// Copy returns a ledger holding the same grants as the current one.
func (a *Allocation) Copy() *Allocation {
	result := NewAllocation()
	for agentID, res := range a.resources {
		result.resources[agentID] = res
	}
	result.totals = a.totals.Copy()
	return result
}

// Resources returns the granted resources keyed by agent ID.
func (a *Allocation) Resources() map[string]scalar.Resources {
	result := make(map[string]scalar.Resources, len(a.resources))
	for agentID, res := range a.resources {
		result[agentID] = res
	}
	return result
}

// AgentResources returns the resources granted on one agent, empty if the
// agent holds none.
func (a *Allocation) AgentResources(agentID string) scalar.Resources {
	if res, ok := a.resources[agentID]; ok {
		return res
	}
	return scalar.NewResources()
}

// Totals returns the aggregated scalar quantities across all agents.
func (a *Allocation) Totals() scalar.Quantities {
	return a.totals.Copy()
}

// Add tracks resources granted on an agent. Shared resources count toward
// the quantity totals only when the agent does not already hold a copy.
func (a *Allocation) Add(agentID string, toAdd scalar.Resources) {
	held := a.AgentResources(agentID)

	quantities := toAdd.NonSharedQuantities()
	for _, res := range toAdd.SharedDescriptors() {
		if !held.ContainsResource(res) {
			quantities[res.Name] += res.Value
		}
	}

	a.resources[agentID] = held.Add(toAdd)
	a.totals = a.totals.Add(quantities)
}

// Subtract recovers resources granted on an agent. It fails if the agent
// does not hold the resources, or if the quantity totals do not cover the
// resulting delta. Shared resources leave the quantity totals only when
// the last copy on the agent is recovered. An emptied agent entry is
// dropped from the ledger.
func (a *Allocation) Subtract(agentID string, toRemove scalar.Resources) error {
	held, ok := a.resources[agentID]
	if !ok {
		return errors.Errorf("agent %s holds no resources", agentID)
	}

	remaining, err := held.Subtract(toRemove)
	if err != nil {
		return errors.Wrapf(err, "agent %s", agentID)
	}

	quantities := toRemove.NonSharedQuantities()
	for _, res := range toRemove.SharedDescriptors() {
		if !remaining.ContainsResource(res) {
			quantities[res.Name] += res.Value
		}
	}

	totals, err := a.totals.Subtract(quantities)
	if err != nil {
		return errors.Wrap(err, "allocation totals")
	}
	a.totals = totals

	if remaining.Empty() {
		delete(a.resources, agentID)
	} else {
		a.resources[agentID] = remaining
	}
	return nil
}

// Update atomically replaces oldAllocation with newAllocation on an agent
// and adjusts the quantity totals by the delta. It fails if the agent does
// not hold oldAllocation or if the totals do not cover its quantities. The
// new allocation may be empty, in which case an emptied agent entry is
// dropped.
func (a *Allocation) Update(
	agentID string,
	oldAllocation scalar.Resources,
	newAllocation scalar.Resources) error {

	held, ok := a.resources[agentID]
	if !ok {
		return errors.Errorf("agent %s holds no resources", agentID)
	}

	remaining, err := held.Subtract(oldAllocation)
	if err != nil {
		return errors.Wrapf(err, "agent %s", agentID)
	}

	totals, err := a.totals.Subtract(oldAllocation.Quantities())
	if err != nil {
		return errors.Wrap(err, "allocation totals")
	}

	a.totals = totals.Add(newAllocation.Quantities())

	result := remaining.Add(newAllocation)
	if result.Empty() {
		delete(a.resources, agentID)
	} else {
		a.resources[agentID] = result
	}
	return nil
}
