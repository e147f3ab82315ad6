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
	"github.com/ep-infosec/33-apache-mesos/pkg/sorter/tree"
)

// sortInfo is the sampling cache: the flattened list of active clients and
// their relative weights, kept between Sort calls to avoid recalculation.
//
// The relative weight of an active client is its probability of being
// shuffled to the first position; the relative weights of all active
// clients sum to one.
type sortInfo struct {
	// dirty indicates the cached info is out of date and requires
	// recalculation. Set by any structural or weight change.
	dirty bool

	clients []string
	weights []float64

	sorter *randomSorter
}

func newSortInfo(s *randomSorter) *sortInfo {
	return &sortInfo{
		dirty:  true,
		sorter: s,
	}
}

// clientsAndWeights returns the active clients and their corresponding
// relative weights, recomputing them first if the cache is dirty. The
// returned slices are reused across rebuilds and must not be retained.
func (info *sortInfo) clientsAndWeights() ([]string, []float64) {
	if info.dirty {
		info.updateRelativeWeights()
		info.dirty = false
	}
	return info.clients, info.weights
}

// updateRelativeWeights recomputes the relative weight of every active
// client in one pass over the active subtree. A client's relative weight
// is the product, along the path from the root, of each node's local
// share: its weight divided by the total weight of its active siblings.
// Each level therefore normalizes only against active siblings, so a
// subtree's total selection probability equals its own weight share among
// its siblings no matter how many leaves it contains.
func (info *sortInfo) updateRelativeWeights() {
	activeInternal := info.sorter.tree.ActiveInternalNodes()

	// An active node is either an active leaf or an internal node with
	// at least one active descendant leaf.
	isActive := func(node *tree.Node) bool {
		if node.Kind() == tree.ActiveLeaf {
			return true
		}
		_, ok := activeInternal[node]
		return ok
	}

	info.clients = info.clients[:0]
	info.weights = info.weights[:0]

	type entry struct {
		node *tree.Node
		// The product of local shares accumulated from the root.
		weight float64
	}

	queue := []entry{{node: info.sorter.tree.Root(), weight: 1.0}}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		totalWeight := 0.0
		for e := next.node.Children().Front(); e != nil; e = e.Next() {
			child := e.Value.(*tree.Node)
			// Inactive leaves are all at the end of the children.
			if child.Kind() == tree.InactiveLeaf {
				break
			}
			if isActive(child) {
				totalWeight += info.sorter.getWeight(child)
			}
		}
		if totalWeight == 0 {
			continue
		}

		for e := next.node.Children().Front(); e != nil; e = e.Next() {
			child := e.Value.(*tree.Node)
			if child.Kind() == tree.InactiveLeaf {
				break
			}
			if !isActive(child) {
				continue
			}

			weight := next.weight * info.sorter.getWeight(child) / totalWeight
			if child.Kind() == tree.ActiveLeaf {
				info.clients = append(info.clients, child.ClientPath())
				info.weights = append(info.weights, weight)
			} else {
				queue = append(queue, entry{node: child, weight: weight})
			}
		}
	}
}
