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
	"testing"

	"github.com/stretchr/testify/suite"
)

type QuantitiesTestSuite struct {
	suite.Suite
}

func TestQuantitiesTestSuite(t *testing.T) {
	suite.Run(t, new(QuantitiesTestSuite))
}

func (s *QuantitiesTestSuite) TestAdd() {
	left := Quantities{"cpus": 1, "mem": 512}
	right := Quantities{"cpus": 2, "gpus": 1}

	s.Equal(Quantities{"cpus": 3, "mem": 512, "gpus": 1}, left.Add(right))

	// The receiver is untouched.
	s.Equal(Quantities{"cpus": 1, "mem": 512}, left)
}

func (s *QuantitiesTestSuite) TestSubtract() {
	held := Quantities{"cpus": 3, "mem": 512}

	result, err := held.Subtract(Quantities{"cpus": 1})
	s.NoError(err)
	s.Equal(Quantities{"cpus": 2, "mem": 512}, result)

	// Exhausted entries are dropped rather than kept at zero.
	result, err = result.Subtract(Quantities{"cpus": 2, "mem": 512})
	s.NoError(err)
	s.Equal(Quantities{}, result)
}

func (s *QuantitiesTestSuite) TestSubtractFailsWithoutContainment() {
	held := Quantities{"cpus": 1}

	_, err := held.Subtract(Quantities{"cpus": 2})
	s.Error(err)

	_, err = held.Subtract(Quantities{"mem": 1})
	s.Error(err)
}

func (s *QuantitiesTestSuite) TestContainsWithinEpsilon() {
	held := Quantities{"cpus": 0.1 + 0.2}

	s.True(held.Contains(Quantities{"cpus": 0.3}))
	s.True(Quantities{"cpus": 0.3}.Contains(held))
}

func (s *QuantitiesTestSuite) TestGetAndCopy() {
	held := Quantities{"cpus": 2}

	s.Equal(2.0, held.Get("cpus"))
	s.Equal(0.0, held.Get("mem"))

	copied := held.Copy()
	copied["cpus"] = 4
	s.Equal(2.0, held.Get("cpus"))
}

func (s *QuantitiesTestSuite) TestString() {
	s.Equal("{}", Quantities{}.String())
	s.Equal("cpus:2 mem:512", Quantities{"mem": 512, "cpus": 2}.String())
}
