// Copyright 2026 The CBI Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/codebase-investigator/cbi/internal/collections"
	"github.com/codebase-investigator/cbi/internal/platform"
)

// DivergenceMatrix computes the pairwise code-divergence distance between
// every pair of platforms: 1 minus the Jaccard similarity of their live
// (file, line) sets. Two platforms sharing all live code have distance
// 0.00; two platforms sharing none have distance 1.00 (spec §8 scenarios
// 5 and 6).
func DivergenceMatrix(sm *platform.SetMap, platforms []string) *mat.SymDense {
	n := len(platforms)
	live := make([]collections.Set[string], n)
	for i, p := range platforms {
		live[i] = make(collections.Set[string])
		for _, f := range sm.Files() {
			for _, l := range sm.Lines(f) {
				for _, q := range sm.Platforms(f, l) {
					if q == p {
						live[i].Add(fmt.Sprintf("%s:%d", f, l))
					}
				}
			}
		}
	}

	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				d.SetSym(i, j, 0)
				continue
			}
			inter := len(live[i].Intersect(live[j]))
			union := len(live[i]) + len(live[j]) - inter
			dist := 1.0
			if union > 0 {
				dist = 1.0 - float64(inter)/float64(union)
			}
			d.SetSym(i, j, dist)
		}
	}
	return d
}

// Merge is one step of a single-linkage agglomerative clustering: clusters
// A and B (each a set of platform indices) merged at distance Height.
type Merge struct {
	A, B   []int
	Height float64
}

// Cluster runs single-linkage agglomerative clustering over d, returning
// the sequence of merges in the order they occurred. Cluster-to-cluster
// distance is the minimum pairwise distance between their members (single
// linkage), the simplest agglomeration rule and a reasonable default absent
// a specified one.
func Cluster(d *mat.SymDense) []Merge {
	n, _ := d.Dims()
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	var merges []Merge
	for len(clusters) > 1 {
		bi, bj := 0, 1
		best := clusterDistance(d, clusters[0], clusters[1])
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				dist := clusterDistance(d, clusters[i], clusters[j])
				if dist < best {
					best, bi, bj = dist, i, j
				}
			}
		}
		merged := append(append([]int{}, clusters[bi]...), clusters[bj]...)
		merges = append(merges, Merge{A: clusters[bi], B: clusters[bj], Height: best})

		next := make([][]int, 0, len(clusters)-1)
		for k, c := range clusters {
			if k != bi && k != bj {
				next = append(next, c)
			}
		}
		next = append(next, merged)
		clusters = next
	}
	return merges
}

func clusterDistance(d *mat.SymDense, a, b []int) float64 {
	min := 1.0
	first := true
	for _, i := range a {
		for _, j := range b {
			v := d.At(i, j)
			if first || v < min {
				min, first = v, false
			}
		}
	}
	return min
}

// WriteDendrogramPNG renders merges as a simple bar-style dendrogram: one
// bar per merge step, in merge order, height proportional to Merge.Height.
// No text is drawn: bars carry no platform labels, and the platforms
// argument does not affect the image. The core exposes only the divergence matrix and
// merge sequence (§9, "dendrogram plotting" is an external collaborator's
// concern); no plotting library is in the retrieval pack's dependency set,
// so rendering uses the standard image/png encoder directly.
func WriteDendrogramPNG(w io.Writer, platforms []string, merges []Merge) error {
	const (
		barWidth  = 40
		barGap    = 10
		maxHeight = 200
		margin    = 20
	)
	width := margin*2 + len(merges)*(barWidth+barGap)
	height := margin*2 + maxHeight + 20

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := color.RGBA{255, 255, 255, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, bg)
		}
	}

	bar := color.RGBA{40, 90, 160, 255}
	for i, m := range merges {
		h := int(m.Height * float64(maxHeight))
		x0 := margin + i*(barWidth+barGap)
		y0 := margin + maxHeight - h
		for y := y0; y < margin+maxHeight; y++ {
			for x := x0; x < x0+barWidth; x++ {
				img.Set(x, y, bar)
			}
		}
	}
	return png.Encode(w, img)
}

// DendrogramFilename follows §6's naming convention:
// "<basename>-<platforms>-dendrogram.png".
func DendrogramFilename(basename string, platforms []string) string {
	return fmt.Sprintf("%s-%s-dendrogram.png", basename, strings.Join(platforms, "-"))
}
