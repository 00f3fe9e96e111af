// Copyright 2020 Grail Inc.
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
package rho

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		region  string
		refName string
		first   PosType
		last    PosType
	}{
		{"chr1:1-1000", "chr1", 1, 1000},
		{"chr1:1000", "chr1", 1000, 1000},
		{"chr1", "chr1", 1, PosTypeMax},
	}
	for _, tt := range tests {
		result, err := ParseRegion(tt.region)
		expect.NoError(t, err)
		expect.EQ(t, result.RefName, tt.refName)
		expect.EQ(t, result.First, tt.first)
		expect.EQ(t, result.Last, tt.last)
	}

	for _, bad := range []string{"", ":100", "chr1:0", "chr1:abc", "chr1:200-100", "chr1:5-x"} {
		_, err := ParseRegion(bad)
		expect.True(t, err != nil, "expected error for %q", bad)
	}
}

func TestRegionIntersects(t *testing.T) {
	r := Region{RefName: "chr1", First: 200, Last: 300}
	expect.True(t, r.Intersects("chr1", 250, 260))
	expect.True(t, r.Intersects("chr1", 1, 200))
	expect.True(t, r.Intersects("chr1", 300, 900))
	expect.False(t, r.Intersects("chr1", 1, 199))
	expect.False(t, r.Intersects("chr1", 301, 900))
	expect.False(t, r.Intersects("chr2", 250, 260))
}
