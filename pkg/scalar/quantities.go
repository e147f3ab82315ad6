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

// Quantities is a vector of scalar resource quantities keyed by resource
// name. The zero quantity is never stored: entries that reach zero are
// dropped, so an empty map and an exhausted one compare equal.
type Quantities map[string]float64

// Get returns the quantity for the given resource name, zero if absent.
func (q Quantities) Get(name string) float64 {
	return q[name]
}

// Copy returns a copy of the quantities.
func (q Quantities) Copy() Quantities {
	result := make(Quantities, len(q))
	for name, value := range q {
		result[name] = value
	}
	return result
}

// Add returns the sum of the current and the other quantities.
func (q Quantities) Add(other Quantities) Quantities {
	result := q.Copy()
	for name, value := range other {
		result[name] += value
	}
	return result
}

// Contains determines whether every quantity of the other vector is covered
// by the current one, within ResourceEpsilon.
func (q Quantities) Contains(other Quantities) bool {
	for name, value := range other {
		if q[name] < value-common.ResourceEpsilon {
			return false
		}
	}
	return true
}

// Subtract removes the other quantities from the current ones and returns
// the result. It fails if the current quantities do not contain the other
// ones.
func (q Quantities) Subtract(other Quantities) (Quantities, error) {
	if !q.Contains(other) {
		return nil, errors.Errorf(
			"quantities %s do not contain %s", q, other)
	}
	result := q.Copy()
	for name, value := range other {
		result[name] -= value
		if result[name] < common.ResourceEpsilon {
			delete(result, name)
		}
	}
	return result, nil
}

func (q Quantities) String() string {
	if len(q) == 0 {
		return "{}"
	}

	parts := make([]string, 0, len(q))
	for name, value := range q {
		parts = append(parts, fmt.Sprintf("%s:%v", name, value))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
