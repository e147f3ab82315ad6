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
	"github.com/uber-go/tally"
)

// Metrics is a placeholder for all metrics in sorter.
type Metrics struct {
	AddClient        tally.Counter
	RemoveClient     tally.Counter
	ActivateClient   tally.Counter
	DeactivateClient tally.Counter
	UpdateWeight     tally.Counter

	Allocated   tally.Counter
	Updated     tally.Counter
	Unallocated tally.Counter

	Sort         tally.Counter
	SortDuration tally.Timer

	TotalClients  tally.Gauge
	ActiveClients tally.Gauge
}

// NewMetrics returns a new Metrics struct with all metrics initialized and
// rooted below the given tally scope.
func NewMetrics(scope tally.Scope) *Metrics {
	sorterScope := scope.SubScope("sorter")
	clientScope := sorterScope.SubScope("clients")

	return &Metrics{
		AddClient:        clientScope.Counter("add"),
		RemoveClient:     clientScope.Counter("remove"),
		ActivateClient:   clientScope.Counter("activate"),
		DeactivateClient: clientScope.Counter("deactivate"),
		UpdateWeight:     sorterScope.Counter("update_weight"),

		Allocated:   sorterScope.Counter("allocated"),
		Updated:     sorterScope.Counter("updated"),
		Unallocated: sorterScope.Counter("unallocated"),

		Sort:         sorterScope.Counter("sort"),
		SortDuration: sorterScope.Timer("sort_duration"),

		TotalClients:  clientScope.Gauge("total"),
		ActiveClients: clientScope.Gauge("active"),
	}
}
