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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally"
)

func TestMetricsRecord(t *testing.T) {
	testScope := tally.NewTestScope("", nil)
	metrics := NewMetrics(testScope)

	metrics.AddClient.Inc(1)
	metrics.AddClient.Inc(1)
	metrics.Sort.Inc(1)
	metrics.TotalClients.Update(2)

	snapshot := testScope.Snapshot()

	counters := snapshot.Counters()
	assert.EqualValues(t, 2, counters["sorter.clients.add+"].Value())
	assert.EqualValues(t, 1, counters["sorter.sort+"].Value())

	gauges := snapshot.Gauges()
	assert.EqualValues(t, 2, gauges["sorter.clients.total+"].Value())
}
