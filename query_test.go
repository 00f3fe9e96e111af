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
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/rho/encoding/fai"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// queryPartition builds the partition shared by most Mean tests:
//   chr1: [1,100)=NA [100,200)=0.5 [200,300)=0.8 [300,1000)=NA
//   chr2: [1,1000)=NA
func queryPartition(t *testing.T) *Partition {
	lens := fai.ReferenceLengths{"chr1": 1000, "chr2": 1000}
	p, err := NewPartition(strings.NewReader(
		"chr1\t100\t200\t.\t.\t.\t0.5\n"+
			"chr1\t200\t300\t.\t.\t.\t0.8\n"), lens)
	assert.NoError(t, err)
	return p
}

func TestMeanSingleInterval(t *testing.T) {
	p := queryPartition(t)
	// A range fully contained in one interval returns that interval's rho
	// exactly, independent of cropping.
	v, err := p.Mean("chr1", 120, "chr1", 180)
	assert.NoError(t, err)
	expect.EQ(t, v, Value{Rho: 0.5})

	v, err = p.Mean("chr1", 100, "chr1", 200)
	assert.NoError(t, err)
	expect.EQ(t, v, Value{Rho: 0.5})
}

func TestMeanAdjacentIntervals(t *testing.T) {
	p := queryPartition(t)
	// Equal spans with endpoints on the interval bounds average the two rhos.
	v, err := p.Mean("chr1", 100, "chr1", 300)
	assert.NoError(t, err)
	expect.EQ(t, v, Value{Rho: (0.5 + 0.8) / 2})

	// Cropped at both ends: 50 bases of 0.5 and 50 bases of 0.8.
	v, err = p.Mean("chr1", 150, "chr1", 250)
	assert.NoError(t, err)
	expect.EQ(t, v, Value{Rho: (50*0.5 + 50*0.8) / 100})
}

func TestMeanIdempotent(t *testing.T) {
	p := queryPartition(t)
	v1, err := p.Mean("chr1", 150, "chr1", 250)
	assert.NoError(t, err)
	v2, err := p.Mean("chr1", 150, "chr1", 250)
	assert.NoError(t, err)
	expect.EQ(t, v1, v2)
}

func TestMeanMissingData(t *testing.T) {
	lens := fai.ReferenceLengths{"chrT": 30}
	p, err := NewPartition(strings.NewReader(
		"chrT\t1\t10\t.\t.\t.\t2.5\n"+
			"chrT\t10\t20\t.\t.\t.\tNA\n"+
			"chrT\t20\t30\t.\t.\t.\t1.0\n"), lens)
	assert.NoError(t, err)
	// Any touched NA interval poisons the whole range.
	v, err := p.Mean("chrT", 5, "chrT", 25)
	assert.NoError(t, err)
	expect.EQ(t, v, valueNA)

	// Ranges clear of the NA interval still resolve.
	v, err = p.Mean("chrT", 2, "chrT", 8)
	assert.NoError(t, err)
	expect.EQ(t, v, Value{Rho: 2.5})
}

func TestMeanLeadingAndTrailingGaps(t *testing.T) {
	p := queryPartition(t)
	v, err := p.Mean("chr1", 1, "chr1", 150)
	assert.NoError(t, err)
	expect.EQ(t, v, valueNA)

	v, err = p.Mean("chr1", 250, "chr1", 900)
	assert.NoError(t, err)
	expect.EQ(t, v, valueNA)
}

func TestMeanCrossReference(t *testing.T) {
	p := queryPartition(t)
	v, err := p.Mean("chr1", 150, "chr2", 250)
	assert.NoError(t, err)
	expect.EQ(t, v, valueNA)

	// Reversed positions don't matter across references.
	v, err = p.Mean("chr2", 900, "chr1", 2)
	assert.NoError(t, err)
	expect.EQ(t, v, valueNA)
}

func TestMeanInvalidQueries(t *testing.T) {
	p := queryPartition(t)
	_, err := p.Mean("chr1", 100, "chr1", 50)
	expect.True(t, errors.Is(errors.Precondition, err), "reversed endpoints: %v", err)

	_, err = p.Mean("", 0, "", 0)
	expect.True(t, errors.Is(errors.Invalid, err), "both endpoints unset: %v", err)

	_, err = p.Mean("chrX", 10, "chrX", 20)
	expect.True(t, errors.Is(errors.NotExist, err), "unknown reference: %v", err)

	_, err = p.Mean("chr1", 5, "chr1", 2000)
	expect.True(t, errors.Is(errors.Invalid, err), "past reference end: %v", err)
}

func TestMeanUnsetEndpoint(t *testing.T) {
	p := queryPartition(t)
	// A single unset endpoint models a start-of-reference marker with no real
	// predecessor; it reports NA rather than failing.
	v, err := p.Mean("", 0, "chr1", 150)
	assert.NoError(t, err)
	expect.EQ(t, v, valueNA)
}
