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
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Region restricts output to rows overlapping [First, Last] on RefName.
// Coordinates are 1-based and inclusive, matching the text inputs.
type Region struct {
	RefName string
	First   PosType
	Last    PosType
}

// ParseRegion parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// The contig-only form covers the whole contig.
func ParseRegion(region string) (result Region, err error) {
	if len(region) == 0 {
		err = errors.E(errors.Invalid, "rho.ParseRegion: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.RefName = region
		result.First = 1
		result.Last = PosTypeMax
		return
	}
	if colonPos == 0 {
		err = errors.E(errors.Invalid, "rho.ParseRegion: empty contig ID")
		return
	}
	result.RefName = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos int64
		if pos, err = strconv.ParseInt(rangeStr, 10, 32); err != nil || pos <= 0 {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.ParseRegion: position %q in region string out of range", rangeStr))
			return
		}
		result.First = PosType(pos)
		result.Last = PosType(pos)
		return
	}
	var first, last int
	if first, err = strconv.Atoi(rangeStr[:dashPos]); err != nil || first <= 0 {
		err = errors.E(errors.Invalid, fmt.Sprintf("rho.ParseRegion: position %q in region string out of range", rangeStr[:dashPos]))
		return
	}
	if last, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil || last < first || last > PosTypeMax {
		err = errors.E(errors.Invalid, fmt.Sprintf("rho.ParseRegion: invalid range string %q", rangeStr))
		return
	}
	result.First = PosType(first)
	result.Last = PosType(last)
	return
}

// Intersects checks whether the 1-based closed span [start, end] on refName
// overlaps the region.
func (r *Region) Intersects(refName string, start, end PosType) bool {
	return refName == r.RefName && start <= r.Last && end >= r.First
}
