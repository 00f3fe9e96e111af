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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Mean computes the length-weighted average rho across the span
// (refA:posA, refB:posB).  Each covered partition interval contributes its
// overlap length times its rho, normalized by the total queried length, so
// the result is exact rather than an approximation.
//
// The left endpoint is considered inside an interval [start, end) when
// start <= posA < end; the right endpoint when start < posB <= end.  The
// asymmetry makes a shared boundary of two adjacent intervals count toward
// exactly one of them when cropping.
//
// NA (not an error) is reported when the two endpoints name different
// references, when exactly one endpoint is unset (a synthetic
// start-of-reference marker with no real predecessor), or when any covered
// interval carries no data.
func (p *Partition) Mean(refA string, posA PosType, refB string, posB PosType) (Value, error) {
	aUnset := refA == "" && posA == 0
	bUnset := refB == "" && posB == 0
	if aUnset && bUnset {
		return Value{}, errors.E(errors.Invalid, "rho.Mean: both query endpoints are unset")
	}
	if aUnset != bUnset {
		log.Printf("rho.Mean: warning: endpoint with no predecessor, reporting %s", NAToken)
		return valueNA, nil
	}
	if refA != refB {
		// Cross-reference spans are undefined for this statistic.
		return valueNA, nil
	}
	if posA >= posB {
		return Value{}, errors.E(errors.Precondition, fmt.Sprintf("rho.Mean: query endpoints on %s out of order: %d >= %d", refA, posA, posB))
	}
	idx, ok := p.refFirst[refA]
	if !ok {
		return Value{}, errors.E(errors.NotExist, fmt.Sprintf("rho.Mean: reference %s not in the partition", refA))
	}

	// Forward linear scan from the reference's first interval.  The partition
	// is total, so posA resolves to exactly one interval unless it lies past
	// the end of the reference.
	n := len(p.intervals)
	for {
		if idx == n || p.intervals[idx].RefName != refA {
			return Value{}, errors.E(errors.Invalid, fmt.Sprintf("rho.Mean: position %s:%d is past the end of the reference", refA, posA))
		}
		if iv := &p.intervals[idx]; iv.Start <= posA && posA < iv.End {
			break
		}
		idx++
	}
	var sum float64
	for {
		iv := &p.intervals[idx]
		if iv.Val.NA {
			return valueNA, nil
		}
		span := iv.End - iv.Start
		if d := posA - iv.Start; d > 0 {
			span -= d
		}
		if d := iv.End - posB; d > 0 {
			span -= d
		}
		sum += float64(span) * iv.Val.Rho
		if iv.Start < posB && posB <= iv.End {
			break
		}
		idx++
		if idx == n || p.intervals[idx].RefName != refA {
			return Value{}, errors.E(errors.Invalid, fmt.Sprintf("rho.Mean: position %s:%d is past the end of the reference", refA, posB))
		}
	}
	return Value{Rho: sum / float64(posB-posA)}, nil
}
