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
package main

/*
bio-rho reports the length-weighted average recombination-rate statistic
(rho) between consecutive markers in a sorted SNP file, given a precomputed
per-interval rho file and a reference length table.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rho"
)

var (
	rhofile     = flag.String("rhofile", "", "Input per-interval rho file (name/start/end with rho-or-NA in column 7); required")
	faifile     = flag.String("faifile", "", "Input reference length table (.fai, or any name/length TSV); required")
	snpfile     = flag.String("snpfile", "", "Input marker file (name/position TSV, sorted by reference then position); required")
	region      = flag.String("region", "", "Restrict output to rows overlapping the specified region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	format      = flag.String("format", "tsv", "Output format; 'tsv', 'tsv-bgz', and 'rio' supported")
	out         = flag.String("out", "", "Output path; default is standard output (tsv only)")
	parallelism = flag.Int("parallelism", 0, "Maximum bgzf compression concurrency; 0 = runtime.NumCPU()")
)

func bioRhoUsage() {
	fmt.Printf("Usage: %s -rhofile <path> -faifile <path> -snpfile <path> [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioRhoUsage
	shutdown := grail.Init()
	defer shutdown()

	if *rhofile == "" || *faifile == "" || *snpfile == "" {
		flag.Usage()
		log.Fatalf("-rhofile, -faifile, and -snpfile are all required")
	}
	if flag.NArg() != 0 {
		log.Fatalf("Unexpected positional arguments; please check flag syntax: %v", flag.Args())
	}
	ctx := vcontext.Background()
	opts := rho.Opts{
		Region:      *region,
		Parallelism: *parallelism,
	}
	if err := rho.Run(ctx, *rhofile, *faifile, *snpfile, *format, *out, &opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
