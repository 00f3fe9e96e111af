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

// Package rho computes length-weighted averages of a per-interval population
// statistic ("rho") between pairs of genomic positions.  It consumes a sorted
// interval file carrying rho values, a reference length table, and a sorted
// marker (SNP) file, and reports one averaged value per consecutive marker
// pair.
package rho

import (
	"strconv"

	"github.com/grailbio/base/recordio/recordiozstd"
)

// PosType is the integer type used to represent genomic positions.  Positions
// are 1-based in all text inputs and outputs.  int32 is wide enough since
// that's what BAM is limited to.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = 1<<31 - 1

// NAToken is the literal rendering of a missing rho value, in both the
// interval input and the emitted rows.
const NAToken = "NA"

// Value is a rho statistic which may be missing.  Missing data is represented
// with an explicit flag rather than the reserved negative sentinel some rho
// estimators emit, so a future legitimate negative statistic stays
// distinguishable from no-data.
type Value struct {
	Rho float64
	NA  bool
}

var valueNA = Value{NA: true}

// String renders v the way the output rows expect it: either the NA token or
// the shortest decimal that round-trips.
func (v Value) String() string {
	if v.NA {
		return NAToken
	}
	return strconv.FormatFloat(v.Rho, 'g', -1, 64)
}

// Interval is one element of a gap-filled reference partition.  The span is
// [Start, End) with 1-based coordinates.
type Interval struct {
	RefName string
	Start   PosType
	End     PosType
	Val     Value
}

func init() {
	recordiozstd.Init()
}
