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
	"container/list"

	"github.com/ep-infosec/33-apache-mesos/pkg/common"

	log "github.com/sirupsen/logrus"
)

// Kind indicates whether a node is an active leaf, an inactive leaf, or an
// internal node. Clients always correspond to leaf nodes, and only leaf
// nodes can be activated or deactivated. The root is always internal.
type Kind int

const (
	// Internal is a node that only represents namespace structure.
	Internal Kind = iota
	// ActiveLeaf is a client eligible for ordering.
	ActiveLeaf
	// InactiveLeaf is a client excluded from ordering.
	InactiveLeaf
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case ActiveLeaf:
		return "active-leaf"
	case InactiveLeaf:
		return "inactive-leaf"
	default:
		return "unknown"
	}
}

// Node is one point in the client namespace tree. Nodes are owned by the
// tree that created them; the parent reference is non-owning.
type Node struct {
	// name is the label of the edge from the parent to this node.
	// Virtual leaf nodes are always named ".".
	name string

	// path is the complete path from the root to the node, including the
	// trailing "." label for virtual leaves. The root's path is empty.
	path string

	kind Kind

	parent *Node

	// children holds *Node values. All internal and active leaf children
	// precede all inactive leaf children, so a scan that only wants
	// active children can stop at the first inactive leaf.
	children *list.List

	// weight is the cached resolved weight of the node, nil until first
	// resolved. Invalidated on weight configuration changes.
	weight *float64

	// allocation is the resource ledger for the subtree rooted here.
	allocation *Allocation
}

func newNode(name string, kind Kind, parent *Node) *Node {
	n := &Node{
		name:       name,
		kind:       kind,
		parent:     parent,
		children:   list.New(),
		allocation: NewAllocation(),
	}

	// Compute the node's path. Three cases:
	//
	//  (1) the root node uses the empty string;
	//  (2) a child of the root uses its own name;
	//  (3) any deeper node joins the parent's path and its name.
	switch {
	case parent == nil:
		n.path = ""
	case parent.parent == nil:
		n.path = name
	default:
		n.path = parent.path + common.ClientPathDelimiter + name
	}

	return n
}

// Name returns the label of the edge from the parent to the node.
func (n *Node) Name() string {
	return n.name
}

// Path returns the complete path from the root to the node.
func (n *Node) Path() string {
	return n.path
}

// Kind returns the node kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// Parent returns the node's parent, nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children as a list of *Node values.
func (n *Node) Children() *list.List {
	return n.children
}

// Allocation returns the resource ledger of the subtree rooted at the node.
func (n *Node) Allocation() *Allocation {
	return n.allocation
}

// IsLeaf returns true if the node corresponds to a client.
func (n *Node) IsLeaf() bool {
	return n.kind == ActiveLeaf || n.kind == InactiveLeaf
}

// ClientPath returns the path of the client the node represents. Unlike
// Path, this does not include the trailing "." label of a virtual leaf:
// the client path of the virtual leaf "a/." is "a". For internal nodes it
// is the node path itself, which is also the key weights are resolved by.
func (n *Node) ClientPath() string {
	if n.name == common.VirtualLeafName {
		return n.parent.path
	}
	return n.path
}

// CachedWeight returns the resolved weight cached on the node, and whether
// one is cached.
func (n *Node) CachedWeight() (float64, bool) {
	if n.weight == nil {
		return 0, false
	}
	return *n.weight, true
}

// SetCachedWeight caches the resolved weight on the node.
func (n *Node) SetCachedWeight(weight float64) {
	n.weight = &weight
}

// InvalidateWeight drops the cached weight so the next resolution consults
// the weight table again.
func (n *Node) InvalidateWeight() {
	n.weight = nil
}

// VirtualLeaf returns the "." child of the node if one exists.
func (n *Node) VirtualLeaf() *Node {
	for e := n.children.Front(); e != nil; e = e.Next() {
		child := e.Value.(*Node)
		if child.name == common.VirtualLeafName {
			return child
		}
	}
	return nil
}

// addChild links a new child, keeping the ordering invariant: inactive
// leaves go to the end of the children, everything else to the front.
func (n *Node) addChild(child *Node) {
	if child.kind == InactiveLeaf {
		n.children.PushBack(child)
	} else {
		n.children.PushFront(child)
	}
}

// removeChild unlinks an existing child. The child must be present.
func (n *Node) removeChild(child *Node) {
	for e := n.children.Front(); e != nil; e = e.Next() {
		if e.Value.(*Node) == child {
			n.children.Remove(e)
			return
		}
	}

	log.WithFields(log.Fields{
		"path":  n.path,
		"child": child.name,
	}).Panic("node is not a child of its parent")
}
