// Package fai loads reference-sequence length tables in the samtools faidx
// (.fai) format: one reference per line, name in the first column and total
// length in the second.  Columns past the second (byte offsets and line
// geometry in a real .fai) are ignored, so any two-column name/length TSV is
// also accepted.
package fai

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
)

// ReferenceLengths maps a reference-sequence name to its total length in
// bases.  Built once at startup and read-only afterwards.
type ReferenceLengths map[string]uint64

// ReadLengths parses a .fai-style table.  If a reference name appears more
// than once, the last occurrence wins; samtools faidx regeneration behaves
// the same way, so we don't treat it as an error.
func ReadLengths(index io.Reader) (ReferenceLengths, error) {
	lens := make(ReferenceLengths)
	scanner := bufio.NewScanner(index)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("fai.ReadLengths: line %d has fewer columns than expected", lineIdx))
		}
		length, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil || length == 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("fai.ReadLengths: line %d: invalid reference length %q", lineIdx, fields[1]))
		}
		lens[fields[0]] = length
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lens, nil
}

// ReadLengthsFromPath is a wrapper for ReadLengths that takes a path instead
// of an io.Reader.  Gzipped tables are decompressed transparently.
func ReadLengthsFromPath(path string) (lens ReferenceLengths, err error) {
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
	reader, _ := compress.NewReader(infile.Reader(ctx))
	defer func() {
		if cerr := reader.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return ReadLengths(reader)
}

// LengthsFromSAMHeader extracts the reference dictionary of a SAM/BAM header
// as a length table.  Header reference dictionaries and .fai files describe
// the same set of sequences, so either may serve as the length source.
func LengthsFromSAMHeader(header *sam.Header) ReferenceLengths {
	lens := make(ReferenceLengths)
	for _, ref := range header.Refs() {
		lens[ref.Name()] = uint64(ref.Len())
	}
	return lens
}

// WriteLengths renders the reference dictionary of a SAM/BAM header as a
// two-column name/length table readable by ReadLengths, in header order.
func WriteLengths(out io.Writer, header *sam.Header) error {
	w := tsv.NewWriter(out)
	for _, ref := range header.Refs() {
		w.WriteString(ref.Name())
		w.WriteInt64(int64(ref.Len()))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
