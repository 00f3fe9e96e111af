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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rho/encoding/fai"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
//
// These simple loops beat the standard library string-split functions when
// only a few leading columns are needed; see interval.scanBEDUnion in
// grailbio/bio for the original.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// rhoValueCol is the 0-based column carrying the rho-or-NA value in the
// interval input.  Columns 3-6 are other per-interval statistics this tool
// does not use; they must still be present for format compatibility.
const rhoValueCol = 6

// Partition is a contiguous, gap-filled, sorted interval partition of every
// reference in a length table, flattened into a single ordered sequence, plus
// a map from reference name to the index of that reference's first interval.
// The flat-sequence-plus-offset-map layout keeps range queries as forward
// linear scans from a known entry point; a tree index buys nothing here since
// intervals are never searched backwards.
//
// A Partition is built once and read-only afterwards, so it may be shared
// freely without locking.
type Partition struct {
	intervals []Interval
	refFirst  map[string]int
	refLens   fai.ReferenceLengths
}

// NumIntervals returns the total number of partition intervals across all
// references.
func (p *Partition) NumIntervals() int { return len(p.intervals) }

// NumRefs returns the number of references covered by the partition.
func (p *Partition) NumRefs() int { return len(p.refFirst) }

func parseRhoValue(tok []byte, lineIdx int) (Value, error) {
	if gunsafe.BytesToString(tok) == NAToken {
		return valueNA, nil
	}
	v, err := strconv.ParseFloat(gunsafe.BytesToString(tok), 64)
	if err != nil {
		return Value{}, errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d: invalid rho value %q", lineIdx, tok))
	}
	// Rho estimators in our pipelines emit strictly positive values; zero or
	// negative means the producer wrote its internal no-data sentinel without
	// converting it to the NA token.
	if v <= 0 {
		return Value{}, errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d: non-positive rho value %q", lineIdx, tok))
	}
	return Value{Rho: v}, nil
}

func refLength(lens fai.ReferenceLengths, refName string, lineIdx int) (PosType, error) {
	length, ok := lens[refName]
	if !ok {
		return 0, errors.E(errors.NotExist, fmt.Sprintf("rho.NewPartition: line %d: reference %s not in the length table", lineIdx, refName))
	}
	if length > PosTypeMax {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: reference %s length %d out of range", refName, length))
	}
	return PosType(length), nil
}

// NewPartition consumes sorted, non-overlapping rho intervals
// (name/start/end in the first three columns, rho-or-NA in column 7) and
// gap-fills them into a total partition: positions never assigned a value
// resolve to a synthesized NA interval instead of requiring special-casing at
// query time.  Gaps are synthesized before the first interval of each
// reference, between intervals, after the last interval (up to the
// reference's table length), and for table references with no intervals at
// all.
func NewPartition(reader io.Reader, lens fai.ReferenceLengths) (p *Partition, err error) {
	scanner := bufio.NewScanner(reader)
	var tokens [7][]byte

	var intervals []Interval
	lineIdx := 0
	curRef := ""
	var curPos, curLen PosType
	for scanner.Scan() {
		lineIdx++
		nToken := getTokens(tokens[:], scanner.Bytes())
		if nToken == 0 {
			continue
		}
		if nToken != 7 {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d has fewer columns than expected", lineIdx))
			return
		}
		var start, end int
		if start, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d: invalid start %q", lineIdx, tokens[1]))
			return
		}
		if end, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d: invalid end %q", lineIdx, tokens[2]))
			return
		}
		if start < 1 || end <= start || end > PosTypeMax {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d: invalid coordinate pair [%d, %d)", lineIdx, start, end))
			return
		}
		var val Value
		if val, err = parseRhoValue(tokens[rhoValueCol], lineIdx); err != nil {
			return
		}

		if curRef != gunsafe.BytesToString(tokens[0]) {
			if curRef != "" && curPos < curLen {
				// Trailing gap for the reference we're leaving.
				intervals = append(intervals, Interval{RefName: curRef, Start: curPos, End: curLen, Val: valueNA})
			}
			// Must copy: tokens[0] aliases the scanner's buffer.
			newRef := string(tokens[0])
			if curLen, err = refLength(lens, newRef, lineIdx); err != nil {
				return
			}
			curRef = newRef
			curPos = 1
		}
		if PosType(start) < curPos {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d: interval starting at %s:%d overlaps its predecessor or is out of order", lineIdx, curRef, start))
			return
		}
		if PosType(end) > curLen {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: line %d: interval end %d past the length of %s", lineIdx, end, curRef))
			return
		}
		if PosType(start) > curPos {
			intervals = append(intervals, Interval{RefName: curRef, Start: curPos, End: PosType(start), Val: valueNA})
		}
		intervals = append(intervals, Interval{RefName: curRef, Start: PosType(start), End: PosType(end), Val: val})
		curPos = PosType(end)
	}
	if err = scanner.Err(); err != nil {
		return
	}
	if curRef != "" && curPos < curLen {
		intervals = append(intervals, Interval{RefName: curRef, Start: curPos, End: curLen, Val: valueNA})
	}

	// Table references with no intervals become a single all-NA partition
	// entry, so every in-table position resolves somewhere.  Sorted for
	// deterministic placement after the streamed references.
	var missingRefs []string
	seen := make(map[string]bool, len(intervals))
	for i := range intervals {
		seen[intervals[i].RefName] = true
	}
	for refName := range lens {
		if !seen[refName] {
			missingRefs = append(missingRefs, refName)
		}
	}
	sort.Strings(missingRefs)
	for _, refName := range missingRefs {
		length := lens[refName]
		if length > PosTypeMax {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.NewPartition: reference %s length %d out of range", refName, length))
			return
		}
		if length > 1 {
			intervals = append(intervals, Interval{RefName: refName, Start: 1, End: PosType(length), Val: valueNA})
		}
	}

	refFirst, err := buildRefFirst(intervals)
	if err != nil {
		return nil, err
	}
	return &Partition{intervals: intervals, refFirst: refFirst, refLens: lens}, nil
}

// buildRefFirst records, for each reference, the index of its first interval
// in the flattened sequence.  A reference recurring after the scan has moved
// on signals a non-contiguous partition; that's unreachable when the input
// was accepted by NewPartition's ordering checks, but is cheap to verify.
func buildRefFirst(intervals []Interval) (map[string]int, error) {
	refFirst := make(map[string]int)
	prevRef := ""
	for i := range intervals {
		refName := intervals[i].RefName
		if refName != prevRef {
			if _, dup := refFirst[refName]; dup {
				return nil, errors.E(errors.Integrity, fmt.Sprintf("rho.buildRefFirst: reference %s is not contiguous in the partition", refName))
			}
			refFirst[refName] = i
			prevRef = refName
		}
	}
	return refFirst, nil
}

// NewPartitionFromPath is a wrapper for NewPartition that takes a path
// instead of an io.Reader.
func NewPartitionFromPath(path string, lens fai.ReferenceLengths) (p *Partition, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return NewPartition(reader, lens)
}
