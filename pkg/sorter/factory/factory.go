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

package factory

import (
	"time"

	"github.com/ep-infosec/33-apache-mesos/pkg/sorter"
	"github.com/ep-infosec/33-apache-mesos/pkg/sorter/drf"
	"github.com/ep-infosec/33-apache-mesos/pkg/sorter/random"

	"github.com/pkg/errors"
	"github.com/uber-go/tally"
)

// Kind selects a sorter implementation.
type Kind string

const (
	// Random produces a weighted random shuffle on every sort.
	Random Kind = "random"
	// DRF orders clients by ascending weighted dominant share.
	DRF Kind = "drf"
)

// Config holds the sorter knobs surfaced to the allocator configuration.
type Config struct {
	// Kind of sorter to build. Defaults to Random.
	Kind Kind `yaml:"kind"`

	// RandomSeed seeds the random sorter's generator; zero seeds from
	// the clock. Only used by the random sorter.
	RandomSeed int64 `yaml:"random_seed"`

	// FairnessExcludedResources names resource kinds ignored by
	// fairness share calculations.
	FairnessExcludedResources []string `yaml:"fairness_excluded_resources"`
}

// New builds the configured sorter.
func New(scope tally.Scope, cfg Config) (sorter.Sorter, error) {
	var s sorter.Sorter

	switch cfg.Kind {
	case Random, "":
		seed := cfg.RandomSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s = random.New(scope, seed)
	case DRF:
		s = drf.New(scope)
	default:
		return nil, errors.Errorf("unknown sorter kind %q", cfg.Kind)
	}

	s.Initialize(cfg.FairnessExcludedResources)
	return s, nil
}
