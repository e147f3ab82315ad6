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

package stringset

// StringSet defines the interface for a set of strings
type StringSet interface {
	// Add adds 'key' to the set
	Add(key string)
	// Contains checks if the set contains 'key'
	Contains(key string) bool
	// Remove removes 'key' from the set
	Remove(key string)
	// Clear clears the contents of set
	Clear()
	// ToSlice returns a slice containing all elements in the set
	ToSlice() []string
}

// stringSet implements StringSet interface. It is not safe for concurrent
// use; the sorter assumes serialized external access.
type stringSet struct {
	m map[string]bool
}

// New creates and initializes a new StringSet holding the given keys
func New(keys ...string) StringSet {
	s := &stringSet{
		m: make(map[string]bool),
	}
	for _, key := range keys {
		s.m[key] = true
	}
	return s
}

// Add adds 'key' to the set
func (s *stringSet) Add(key string) {
	s.m[key] = true
}

// Contains checks if the set contains 'key'
func (s *stringSet) Contains(key string) bool {
	return s.m[key]
}

// Remove removes 'key' from the set
func (s *stringSet) Remove(key string) {
	delete(s.m, key)
}

// Clear clears the contents of the set
func (s *stringSet) Clear() {
	for k := range s.m {
		delete(s.m, k)
	}
}

// ToSlice returns a slice containing all elements in the set
func (s *stringSet) ToSlice() []string {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys
}
