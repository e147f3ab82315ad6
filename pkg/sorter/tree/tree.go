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
	"strings"

	"github.com/ep-infosec/33-apache-mesos/pkg/common"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Tree is the mutable hierarchy of sorter clients. It owns the nodes and
// keeps a lookup table from client path to leaf node, with one entry per
// leaf. Paths in the table do not contain the trailing "." label used for
// virtual leaves.
//
// Tree is not safe for concurrent use.
type Tree struct {
	root *Node

	clients map[string]*Node
}

// NewTree returns a tree holding only the root node.
func NewTree() *Tree {
	return &Tree{
		root:    newNode("", Internal, nil),
		clients: make(map[string]*Node),
	}
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Contains returns true if the tree tracks the client.
func (t *Tree) Contains(clientPath string) bool {
	_, ok := t.clients[clientPath]
	return ok
}

// Count returns the number of tracked clients, active and inactive.
func (t *Tree) Count() int {
	return len(t.clients)
}

// ActiveCount returns the number of active clients.
func (t *Tree) ActiveCount() int {
	count := 0
	for _, leaf := range t.clients {
		if leaf.kind == ActiveLeaf {
			count++
		}
	}
	return count
}

// Find returns the leaf node of the client, nil if the client is not
// tracked.
func (t *Tree) Find(clientPath string) *Node {
	return t.clients[clientPath]
}

// FindNode walks the tree segment by segment and returns the node at the
// given path, leaf or internal, nil if no such node exists. The empty path
// names the root.
func (t *Tree) FindNode(path string) *Node {
	if path == "" {
		return t.root
	}

	elements, err := tokenize(path)
	if err != nil {
		return nil
	}

	current := t.root
	for _, element := range elements {
		current = childByName(current, element)
		if current == nil {
			return nil
		}
	}
	return current
}

// Add inserts a new client, creating missing internal nodes along its path
// the way mkdir -p would. The new leaf is active. It fails if the client
// is already tracked or the path is malformed.
func (t *Tree) Add(clientPath string) (*Node, error) {
	if t.Contains(clientPath) {
		return nil, errors.Errorf("client %s is already tracked", clientPath)
	}

	elements, err := tokenize(clientPath)
	if err != nil {
		return nil, err
	}

	current := t.root
	for i, element := range elements {
		// Descending through an existing leaf: the leaf's position is
		// taken over by a new internal node and its client is re-hung
		// beneath it as a virtual leaf, ledger and all.
		if current.IsLeaf() {
			current = t.demoteToVirtualLeaf(current)
		}

		node := childByName(current, element)
		if node == nil {
			kind := Internal
			if i == len(elements)-1 {
				kind = ActiveLeaf
			}
			node = newNode(element, kind, current)
			current.addChild(node)
		}
		current = node
	}

	// The walk landed on an existing internal node: the client path
	// coincides with a namespace prefix used by deeper clients, so the
	// client is represented by a virtual leaf beneath it.
	if current.kind == Internal {
		virt := newNode(common.VirtualLeafName, ActiveLeaf, current)
		current.addChild(virt)
		current = virt
	}

	if current.kind != ActiveLeaf {
		return nil, errors.Errorf(
			"client %s collides with existing node %s of kind %s",
			clientPath, current.path, current.kind)
	}

	t.clients[clientPath] = current

	log.WithField("client", clientPath).Debug("added sorter client")
	return current, nil
}

// demoteToVirtualLeaf replaces the leaf with an internal node at the same
// path and re-hangs the leaf beneath it as the "." child. The internal
// node starts with a copy of the leaf's ledger, which is exactly the
// subtree aggregate at that point. Returns the new internal node.
func (t *Tree) demoteToVirtualLeaf(leaf *Node) *Node {
	parent := leaf.parent

	parent.removeChild(leaf)

	internal := newNode(leaf.name, Internal, parent)
	internal.allocation = leaf.allocation.Copy()
	parent.addChild(internal)

	leaf.name = common.VirtualLeafName
	leaf.parent = internal
	leaf.path = internal.path + common.ClientPathDelimiter + common.VirtualLeafName
	internal.addChild(leaf)

	// The client lookup table still points at the leaf, whose client
	// path is unchanged.
	return internal
}

// Remove deletes the client's leaf, subtracts its grants from every
// ancestor's ledger, and prunes ancestors left without children. An
// internal node left with only a "." child is folded back into a plain
// leaf. It fails if the client is not tracked.
func (t *Tree) Remove(clientPath string) error {
	leaf, ok := t.clients[clientPath]
	if !ok {
		return errors.Errorf("client %s is not tracked", clientPath)
	}

	delete(t.clients, clientPath)

	// The leaf node is destroyed below; hold on to its grants so each
	// ancestor's aggregate can shed them.
	leafAllocation := leaf.allocation.Resources()

	current := leaf
	for current != t.root {
		parent := current.parent

		for agentID, res := range leafAllocation {
			if err := parent.allocation.Subtract(agentID, res); err != nil {
				return errors.Wrapf(err,
					"failed to adjust the aggregate of %q while removing client %s",
					parent.path, clientPath)
			}
		}

		if current.children.Len() == 0 {
			parent.removeChild(current)
		} else if child := onlyVirtualChild(current); child != nil {
			// The removal left the internal node with a lone "."
			// child: fold the virtual leaf back into its parent.
			current.kind = child.kind
			current.removeChild(child)
			t.clients[current.path] = current

			// The fold may have changed the node's kind, so its
			// position among its siblings may need fixing up.
			if current.kind == InactiveLeaf {
				parent.removeChild(current)
				parent.addChild(current)
			}
		}

		current = parent
	}

	log.WithField("client", clientPath).Debug("removed sorter client")
	return nil
}

// Activate makes the client's leaf active and re-splices it among its
// siblings. Returns true if the leaf actually changed kind. It fails if
// the client is not tracked.
func (t *Tree) Activate(clientPath string) (bool, error) {
	return t.setLeafKind(clientPath, ActiveLeaf)
}

// Deactivate makes the client's leaf inactive and re-splices it among its
// siblings. Returns true if the leaf actually changed kind. It fails if
// the client is not tracked.
func (t *Tree) Deactivate(clientPath string) (bool, error) {
	return t.setLeafKind(clientPath, InactiveLeaf)
}

func (t *Tree) setLeafKind(clientPath string, kind Kind) (bool, error) {
	leaf, ok := t.clients[clientPath]
	if !ok {
		return false, errors.Errorf("client %s is not tracked", clientPath)
	}

	if leaf.kind == kind {
		return false, nil
	}

	leaf.kind = kind
	leaf.parent.removeChild(leaf)
	leaf.parent.addChild(leaf)
	return true, nil
}

// ActiveInternalNodes returns the set of internal nodes, root included,
// that have at least one active descendant leaf.
func (t *Tree) ActiveInternalNodes() map[*Node]struct{} {
	active := make(map[*Node]struct{})
	for _, leaf := range t.clients {
		if leaf.kind != ActiveLeaf {
			continue
		}
		for n := leaf.parent; n != nil; n = n.parent {
			if _, ok := active[n]; ok {
				break
			}
			active[n] = struct{}{}
		}
	}
	return active
}

// onlyVirtualChild returns the node's single "." child, or nil if the node
// has any other number or kind of children.
func onlyVirtualChild(n *Node) *Node {
	if n.children.Len() != 1 {
		return nil
	}
	child := n.children.Front().Value.(*Node)
	if child.name != common.VirtualLeafName {
		return nil
	}
	return child
}

func childByName(n *Node, name string) *Node {
	for e := n.children.Front(); e != nil; e = e.Next() {
		child := e.Value.(*Node)
		if child.name == name {
			return child
		}
	}
	return nil
}

func tokenize(path string) ([]string, error) {
	elements := strings.Split(path, common.ClientPathDelimiter)
	for _, element := range elements {
		if element == "" || element == common.VirtualLeafName {
			return nil, errors.Errorf("malformed client path %q", path)
		}
	}
	return elements, nil
}
