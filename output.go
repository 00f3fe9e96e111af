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
	"encoding/binary"
	"io"
	"math"

	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
)

// Row is one emitted marker-pair record: the weighted-average rho (or NA)
// over (Start, End] on RefName.  Coordinates are 1-based.
type Row struct {
	RefName string
	Start   PosType
	End     PosType
	Val     Value
}

type rowWriter interface {
	writeRow(r *Row) error
	close() error
}

// tsvRowWriter renders rows as name/start/end/rho TSV lines, optionally
// through a bgzf compressor.
type tsvRowWriter struct {
	w    *tsv.Writer
	bgzw *bgzf.Writer // nil unless tsv-bgz
}

func (t *tsvRowWriter) writeRow(r *Row) error {
	t.w.WriteString(r.RefName)
	t.w.WriteUint32(uint32(r.Start))
	t.w.WriteUint32(uint32(r.End))
	t.w.WriteString(r.Val.String())
	return t.w.EndLine()
}

func (t *tsvRowWriter) close() (err error) {
	if err = t.w.Flush(); err != nil {
		return
	}
	if t.bgzw != nil {
		err = t.bgzw.Close()
	}
	return
}

type rioRowWriter struct {
	w recordio.Writer
}

func newRioRowWriter(out io.Writer) *rioRowWriter {
	// recordiozstd.Init() is called in rho.go's init().
	return &rioRowWriter{w: recordio.NewWriter(out, recordio.WriterOpts{
		Marshal:      marshalRow,
		Transformers: []string{recordiozstd.Name},
	})}
}

func (rw *rioRowWriter) writeRow(r *Row) error {
	// Append may defer marshaling, so hand it a copy with its own lifetime.
	c := *r
	rw.w.Append(&c)
	return nil
}

func (rw *rioRowWriter) close() error {
	return rw.w.Finish()
}

// cutAndAdvance() returns s[offset:offset+pieceLen], and increments offset by
// pieceLen.  See snp.MarshalPileupRow in grailbio/bio for why this idiom
// beats the obvious alternatives for filling a preallocated []byte.
func cutAndAdvance(offset *int, s []byte, pieceLen int) []byte {
	tmpSlice := s[(*offset):]
	*offset += pieceLen
	return tmpSlice[:pieceLen]
}

// Serialized row format:
//   [0..4): reference-name length n
//   [4..4+n): reference name
//   next 4 bytes: start
//   next 4 bytes: end
//   next byte: 1 if the value is NA, else 0
//   next 8 bytes: rho bits (zero when NA)
func marshalRow(scratch []byte, v interface{}) ([]byte, error) {
	r := v.(*Row)
	nameLen := len(r.RefName)
	bytesReq := 4 + nameLen + 17
	t := scratch
	if len(t) < bytesReq {
		t = make([]byte, bytesReq)
	}
	offset := 0
	binary.LittleEndian.PutUint32(cutAndAdvance(&offset, t, 4), uint32(nameLen))
	copy(cutAndAdvance(&offset, t, nameLen), r.RefName)
	tail := cutAndAdvance(&offset, t, 17)
	binary.LittleEndian.PutUint32(tail[:4], uint32(r.Start))
	binary.LittleEndian.PutUint32(tail[4:8], uint32(r.End))
	if r.Val.NA {
		tail[8] = 1
		binary.LittleEndian.PutUint64(tail[9:17], 0)
	} else {
		tail[8] = 0
		binary.LittleEndian.PutUint64(tail[9:17], math.Float64bits(r.Val.Rho))
	}
	return t[:bytesReq], nil
}

func unmarshalRow(in []byte) (out interface{}, err error) {
	offset := 0
	nameLen := int(binary.LittleEndian.Uint32(cutAndAdvance(&offset, in, 4)))
	r := &Row{
		RefName: string(cutAndAdvance(&offset, in, nameLen)),
	}
	tail := cutAndAdvance(&offset, in, 17)
	r.Start = PosType(binary.LittleEndian.Uint32(tail[:4]))
	r.End = PosType(binary.LittleEndian.Uint32(tail[4:8]))
	if tail[8] != 0 {
		r.Val = valueNA
	} else {
		r.Val = Value{Rho: math.Float64frombits(binary.LittleEndian.Uint64(tail[9:17]))}
	}
	return r, nil
}

// NewRowScanner reads back a recordio row stream produced with the "rio"
// output format.  scanner.Get() returns a *Row.
func NewRowScanner(in io.ReadSeeker) recordio.Scanner {
	return recordio.NewScanner(in, recordio.ScannerOpts{
		Unmarshal: unmarshalRow,
	})
}
