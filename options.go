// Copyright 2013 Richard Lehane. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfb

// UpdateMode governs whether Commit is permitted in place (spec §6.3).
type UpdateMode uint8

const (
	ReadOnly UpdateMode = iota
	Update
)

type config struct {
	mode                       UpdateMode
	sectorRecycle              bool
	eraseFreeSectors           bool
	validationExceptionEnabled bool
}

func defaultConfig() config {
	return config{
		mode:                       ReadOnly,
		sectorRecycle:              true,
		validationExceptionEnabled: true,
	}
}

// Option configures a CompoundFile at Open/Create time (spec §6.3).
type Option func(*config)

// WithMode sets ReadOnly or Update.
func WithMode(m UpdateMode) Option {
	return func(c *config) { c.mode = m }
}

// WithSectorRecycle toggles reuse of freed sectors on writes.
func WithSectorRecycle(on bool) Option {
	return func(c *config) { c.sectorRecycle = on }
}

// WithEraseFreeSectors toggles zeroing freed sector bytes.
func WithEraseFreeSectors(on bool) Option {
	return func(c *config) { c.eraseFreeSectors = on }
}

// WithStrictValidation toggles strict vs. lenient sibling validation.
func WithStrictValidation(on bool) Option {
	return func(c *config) { c.validationExceptionEnabled = on }
}
