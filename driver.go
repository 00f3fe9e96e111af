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
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/rho/encoding/fai"
	"github.com/klauspost/compress/gzip"
)

// Opts bundles the optional knobs for Run.
type Opts struct {
	// Region restricts output to rows overlapping the given
	// contig[:first[-last]] span.  Marker pairing is unaffected; rows outside
	// the region are computed and then dropped.
	Region string
	// Parallelism bounds bgzf compression concurrency; 0 = runtime.NumCPU().
	Parallelism int
}

// DefaultOpts are the zero-configuration defaults used when Run receives a
// nil Opts.
var DefaultOpts = Opts{}

// Run is the bio-rho main loop.  It loads the reference length table at
// faiPath, builds the gap-filled rho partition from rhoPath, then streams the
// sorted markers at snpPath, pairing each marker with the previous marker on
// the same reference (the first marker of a reference pairs with the
// synthetic position 1) and emitting one Row per pair.
//
// All three construction phases complete before the first query; the
// partition and index are immutable afterwards, and markers are processed
// strictly sequentially.  Any structural violation (parse error, unknown
// reference, out-of-order marker) aborts the whole run; rows already emitted
// are not rolled back.
//
// format must be "tsv", "tsv-bgz", or "rio".  outPath "" means standard
// output and is only compatible with "tsv".
func Run(ctx context.Context, rhoPath, faiPath, snpPath, format, outPath string, opts *Opts) (err error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	haveRegion := opts.Region != ""
	var region Region
	if haveRegion {
		if region, err = ParseRegion(opts.Region); err != nil {
			return
		}
	}

	var lens fai.ReferenceLengths
	if lens, err = fai.ReadLengthsFromPath(faiPath); err != nil {
		return
	}
	var part *Partition
	if part, err = NewPartitionFromPath(rhoPath, lens); err != nil {
		return
	}
	log.Debug.Printf("rho.Run: partition built, %d interval(s) across %d reference(s)", part.NumIntervals(), part.NumRefs())

	var out io.Writer = os.Stdout
	if outPath != "" {
		var dst file.File
		if dst, err = file.Create(ctx, outPath); err != nil {
			return
		}
		defer file.CloseAndReport(ctx, dst, &err)
		out = dst.Writer(ctx)
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	var w rowWriter
	switch format {
	case "tsv":
		w = &tsvRowWriter{w: tsv.NewWriter(out)}
	case "tsv-bgz":
		if outPath == "" {
			return errors.E(errors.Invalid, "rho.Run: -format tsv-bgz requires an output path")
		}
		bgzw := bgzf.NewWriter(out, parallelism)
		w = &tsvRowWriter{w: tsv.NewWriter(bgzw), bgzw: bgzw}
	case "rio":
		if outPath == "" {
			return errors.E(errors.Invalid, "rho.Run: -format rio requires an output path")
		}
		w = newRioRowWriter(out)
	default:
		return errors.E(errors.Invalid, fmt.Sprintf("rho.Run: unsupported output format %q", format))
	}
	defer func() {
		if cerr := w.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var snpFile file.File
	if snpFile, err = file.Open(ctx, snpPath); err != nil {
		return
	}
	defer func() {
		if cerr := snpFile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(snpFile.Reader(ctx))
	switch fileio.DetermineType(snpPath) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}

	scanner := bufio.NewScanner(reader)
	var tokens [2][]byte
	lineIdx := 0
	nRows := 0
	prevRef := ""
	var prevPos PosType
	for scanner.Scan() {
		lineIdx++
		nToken := getTokens(tokens[:], scanner.Bytes())
		if nToken == 0 {
			continue
		}
		if nToken != 2 {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.Run: marker line %d has fewer columns than expected", lineIdx))
			return
		}
		var parsedPos int
		if parsedPos, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.Run: marker line %d: invalid position %q", lineIdx, tokens[1]))
			return
		}
		if parsedPos < 1 || parsedPos > PosTypeMax {
			err = errors.E(errors.Invalid, fmt.Sprintf("rho.Run: marker line %d: position %d out of range", lineIdx, parsedPos))
			return
		}
		pos := PosType(parsedPos)
		if prevRef != gunsafe.BytesToString(tokens[0]) {
			// Reference transition (or very first marker): the implicit range
			// runs from the start of the new reference.
			refName := string(tokens[0])
			if _, ok := lens[refName]; !ok {
				err = errors.E(errors.NotExist, fmt.Sprintf("rho.Run: marker line %d: reference %s not in the length table", lineIdx, refName))
				return
			}
			prevRef = refName
			prevPos = 1
		}
		if pos <= prevPos {
			err = errors.E(errors.Precondition, fmt.Sprintf("rho.Run: marker line %d: position %d is not after %s:%d", lineIdx, pos, prevRef, prevPos))
			return
		}
		var val Value
		if val, err = part.Mean(prevRef, prevPos, prevRef, pos); err != nil {
			return
		}
		row := Row{RefName: prevRef, Start: prevPos, End: pos, Val: val}
		if !haveRegion || region.Intersects(row.RefName, row.Start, row.End) {
			if err = w.writeRow(&row); err != nil {
				return
			}
			nRows++
		}
		prevPos = pos
	}
	if err = scanner.Err(); err != nil {
		return
	}
	log.Printf("rho.Run: done, %d row(s) emitted", nRows)
	return
}
