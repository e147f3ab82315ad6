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

/*
Package tree maintains the hierarchy of sorter clients.

The structure of the tree reflects the hierarchical relationships between
the clients of the sorter. Some nodes correspond to clients; others only
exist to represent the structure of the namespace. Clients are always
associated with leaf nodes. For example, with the two clients "a/b" and
"c/d" the tree contains five nodes: the root, internal nodes "a" and "c",
and the leaf nodes "a/b" and "c/d".

	        root
	          ├─ a
	          │  └─ b    (leaf, client "a/b")
	          └─ c
	             └─ d    (leaf, client "c/d")

A client whose path coincides with an internal node is hung beneath it as a
virtual leaf named ".": adding the client "a" to the tree above creates the
leaf "a/." representing it. The virtual leaf is folded back into its parent
when it becomes the parent's only child.

Every node carries an allocation ledger for its subtree: a leaf tracks
exactly its client's granted resources, an internal node the aggregate over
all descendant leaves. Callers apply every grant, update and recovery to the
leaf and each of its ancestors; removing a client sheds its grants from the
surviving ancestors so the aggregates stay exact.
*/
package tree
