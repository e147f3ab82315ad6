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

package sorter

import (
	"github.com/ep-infosec/33-apache-mesos/pkg/scalar"
)

// Sorter decides the order in which the clients of the allocator are
// considered for newly available resources. Clients are identified by
// hierarchical paths, e.g. "eng/build/ci", and the enclosing allocator
// selects a concrete implementation without depending on its identity.
//
// A Sorter is not safe for concurrent use: all calls must be serialized by
// the caller. No operation blocks or performs I/O.
//
// Operations that name a client the sorter does not track, or that would
// leave the resource bookkeeping inconsistent, indicate a contract breach
// by the caller and panic instead of returning an error.
type Sorter interface {
	// Initialize configures the sorter. Resource kinds named in
	// fairnessExcludedResourceNames are ignored by fairness share
	// calculations; they are still tracked in allocations.
	Initialize(fairnessExcludedResourceNames []string)

	// Add inserts a new client into the sorter. The client starts out
	// active. Panics if the client is already tracked.
	Add(client string)

	// Remove deletes the client and its resource bookkeeping from the
	// sorter. Panics if the client is not tracked.
	Remove(client string)

	// Activate makes the client eligible for ordering. A no-op if the
	// client is already active.
	Activate(client string)

	// Deactivate removes the client from ordering without dropping its
	// resource bookkeeping. A no-op if the client is already inactive.
	Deactivate(client string)

	// UpdateWeight sets the weight of a path. The path may name a client,
	// an interior grouping of clients, or nothing currently in the sorter.
	// The weight must be positive.
	UpdateWeight(path string, weight float64)

	// Allocated tracks resources granted to the client on an agent.
	Allocated(client string, agentID string, resources scalar.Resources)

	// Update atomically replaces oldAllocation with newAllocation for the
	// client on an agent. The new allocation may be empty.
	Update(client string, agentID string, oldAllocation, newAllocation scalar.Resources)

	// Unallocated recovers resources previously granted to the client on
	// an agent.
	Unallocated(client string, agentID string, resources scalar.Resources)

	// GetAllocation returns the resources granted to the client, keyed by
	// agent ID.
	GetAllocation(client string) map[string]scalar.Resources

	// GetAgentAllocation returns the resources granted to the client on
	// one agent.
	GetAgentAllocation(client string, agentID string) scalar.Resources

	// GetAllocationQuantities returns the aggregate scalar quantities
	// granted to the client across all agents.
	GetAllocationQuantities(client string) scalar.Quantities

	// GetTotalAllocationQuantities returns the aggregate scalar
	// quantities granted to all clients.
	GetTotalAllocationQuantities() scalar.Quantities

	// AddAgent informs the sorter of an agent and its total capacity.
	// Implementations that do not need cluster capacity treat this as a
	// no-op.
	AddAgent(agentID string, total scalar.Quantities)

	// RemoveAgent informs the sorter that an agent is gone.
	RemoveAgent(agentID string)

	// Sort returns the active clients in the order they should be offered
	// resources. Inactive clients never appear in the result.
	Sort() []string

	// Contains returns true if the sorter tracks the client, active or
	// not.
	Contains(client string) bool

	// Count returns the number of tracked clients, active or not.
	Count() int
}
