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

/*
Given a per-interval rho file, a reference length table (.fai), and a sorted
SNP marker file, bio-rho emits one row per consecutive marker pair with the
length-weighted average rho over the spanned interval, or NA when any part of
the span has no rho data.

Intervals in the rho file must be sorted and non-overlapping within each
reference; gaps (including everything before the first and after the last
interval of a reference) are treated as missing data.  Markers must be sorted
by reference, with strictly increasing positions within each reference; the
first marker of a reference is paired with the start of that reference.

Sample usage:
bio-rho \
    -rhofile intervals.rho.tsv \
    -faifile ref.fa.fai \
    -snpfile markers.tsv \
    > pairs.tsv
*/
package main
