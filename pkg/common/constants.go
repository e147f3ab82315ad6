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

package common

const (
	// ClientPathDelimiter separates the elements of a hierarchical
	// client path, e.g. "eng/build/ci".
	ClientPathDelimiter = "/"

	// VirtualLeafName is the label of the leaf node created for a client
	// whose path coincides with an internal node of the tree. For example,
	// if the clients "a" and "a/b" both exist, the client "a" is
	// represented by the virtual leaf "a/.".
	VirtualLeafName = "."

	// DefaultWeight is the weight assumed for any path that has no
	// configured weight.
	DefaultWeight = 1.0

	// ResourceEpsilon is the tolerance used when comparing resource
	// quantities, to absorb floating point rounding.
	ResourceEpsilon = 1e-9
)
