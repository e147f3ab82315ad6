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

package scalar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ep-infosec/33-apache-mesos/pkg/common"

	"github.com/pkg/errors"
)

// Resource describes one resource granted to a client on an agent.
type Resource struct {
	// Name is the resource kind, e.g. "cpus" or "mem".
	Name string
	// Value is the scalar quantity of the resource.
	Value float64
	// Shared marks a resource that can be granted to the same client in
	// multiple identical copies, e.g. a shared persistent volume.
	Shared bool
	// Volume disambiguates shared resources that otherwise look alike.
	// Empty for non-shared resources.
	Volume string
}

// Resources is a non-thread safe collection of resources. Non-shared
// resources merge their scalar values by name; shared resources keep one
// entry per distinct descriptor together with the number of granted copies.
//
// All arithmetic returns a new copy and leaves the receiver untouched.
type Resources struct {
	scalars map[string]float64
	shared  map[Resource]int
}

// NewResources builds a resource collection from individual descriptors.
func NewResources(resources ...Resource) Resources {
	result := emptyResources()
	for _, res := range resources {
		if res.Shared {
			result.shared[res]++
		} else if res.Value > common.ResourceEpsilon {
			result.scalars[res.Name] += res.Value
		}
	}
	return result
}

func emptyResources() Resources {
	return Resources{
		scalars: make(map[string]float64),
		shared:  make(map[Resource]int),
	}
}

func (r Resources) copy() Resources {
	result := emptyResources()
	for name, value := range r.scalars {
		result.scalars[name] = value
	}
	for res, count := range r.shared {
		result.shared[res] = count
	}
	return result
}

// Empty returns true if the collection holds no resources.
func (r Resources) Empty() bool {
	return len(r.scalars) == 0 && len(r.shared) == 0
}

// Add returns the sum of the current and the other collection.
func (r Resources) Add(other Resources) Resources {
	result := r.copy()
	for name, value := range other.scalars {
		result.scalars[name] += value
	}
	for res, count := range other.shared {
		result.shared[res] += count
	}
	return result
}

// Contains determines whether the current collection is a superset of the
// other one: scalar values are compared within ResourceEpsilon, shared
// resources must be present with at least as many copies.
func (r Resources) Contains(other Resources) bool {
	for name, value := range other.scalars {
		if r.scalars[name] < value-common.ResourceEpsilon {
			return false
		}
	}
	for res, count := range other.shared {
		if r.shared[res] < count {
			return false
		}
	}
	return true
}

// ContainsResource determines whether a single resource is present: at
// least one copy for a shared resource, at least the scalar value
// otherwise.
func (r Resources) ContainsResource(res Resource) bool {
	if res.Shared {
		return r.shared[res] > 0
	}
	return r.scalars[res.Name] >= res.Value-common.ResourceEpsilon
}

// Subtract removes the other collection from the current one and returns
// the result. It fails if the current collection does not contain the
// other one.
func (r Resources) Subtract(other Resources) (Resources, error) {
	if !r.Contains(other) {
		return Resources{}, errors.Errorf(
			"resources %s do not contain %s", r, other)
	}
	result := r.copy()
	for name, value := range other.scalars {
		result.scalars[name] -= value
		if result.scalars[name] < common.ResourceEpsilon {
			delete(result.scalars, name)
		}
	}
	for res, count := range other.shared {
		result.shared[res] -= count
		if result.shared[res] <= 0 {
			delete(result.shared, res)
		}
	}
	return result, nil
}

// Quantities returns the scalar quantities of the collection. Each distinct
// shared descriptor counts once, regardless of how many copies are held:
// sharedness refers to the identity of a resource, not its quantity.
func (r Resources) Quantities() Quantities {
	result := r.NonSharedQuantities()
	for res := range r.shared {
		result[res.Name] += res.Value
	}
	return result
}

// NonSharedQuantities returns the scalar quantities of the non-shared
// resources only.
func (r Resources) NonSharedQuantities() Quantities {
	result := make(Quantities)
	for name, value := range r.scalars {
		result[name] = value
	}
	return result
}

// SharedDescriptors returns the distinct shared resource descriptors held
// in the collection, ignoring copy counts.
func (r Resources) SharedDescriptors() []Resource {
	descriptors := make([]Resource, 0, len(r.shared))
	for res := range r.shared {
		descriptors = append(descriptors, res)
	}
	return descriptors
}

func (r Resources) String() string {
	if r.Empty() {
		return "{}"
	}

	parts := make([]string, 0, len(r.scalars)+len(r.shared))
	for name, value := range r.scalars {
		parts = append(parts, fmt.Sprintf("%s:%v", name, value))
	}
	for res, count := range r.shared {
		parts = append(parts, fmt.Sprintf(
			"%s[%s]:%v(x%d)", res.Name, res.Volume, res.Value, count))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
