package model

import (
	"math/rand/v2"
	"slices"
)

// Node is one node of a regression tree. Leaves have Feature < 0.
// Fields are exported for gob encoding.
type Node struct {
	Feature   int
	Threshold float64
	Left      int32
	Right     int32
	Value     float64
}

// Tree is a fitted CART regression tree stored as a flat node slice.
// Node 0 is the root.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(x []float64) float64 {
	i := int32(0)
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// depth returns the length of the longest root-to-leaf path.
func (t *Tree) depth() int {
	var walk func(i int32) int
	walk = func(i int32) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// treeBuilder grows one tree greedily by minimising squared error.
type treeBuilder struct {
	x       [][]float64
	y       []float64
	params  Params
	rng     *rand.Rand
	nodes   []Node
	scratch []int
}

func fitTree(x [][]float64, y []float64, sample []int, params Params, rng *rand.Rand) Tree {
	b := &treeBuilder{
		x:       x,
		y:       y,
		params:  params,
		rng:     rng,
		scratch: make([]int, len(sample)),
	}
	b.build(sample, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int32 {
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Feature: -1, Value: b.mean(idx)})

	if len(idx) < b.params.MinSamplesSplit || len(idx) < 2*b.params.MinSamplesLeaf {
		return id
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	// Partition in place: rows at or below the threshold go left.
	k := 0
	for i := range idx {
		if b.x[idx[i]][feature] <= threshold {
			idx[i], idx[k] = idx[k], idx[i]
			k++
		}
	}

	left := b.build(idx[:k], depth+1)
	right := b.build(idx[k:], depth+1)

	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = left
	b.nodes[id].Right = right
	return id
}

func (b *treeBuilder) mean(idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

// candidateFeatures returns the features to consider at a split. With
// MaxFeatures unset every feature is tried, in a random order so ties
// between equally good splits are broken by the tree's seed.
func (b *treeBuilder) candidateFeatures() []int {
	n := len(b.x[0])
	perm := b.rng.Perm(n)
	if b.params.MaxFeatures > 0 && b.params.MaxFeatures < n {
		return perm[:b.params.MaxFeatures]
	}
	return perm
}

// bestSplit finds the feature and threshold that maximise the reduction in
// squared error. It reports false when no split improves on the parent.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += b.y[i]
	}
	parentScore := total * total / float64(n)

	bestScore := parentScore
	bestFeature := -1
	var bestThreshold float64
	minLeaf := max(b.params.MinSamplesLeaf, 1)

	sorted := b.scratch[:n]
	for _, f := range b.candidateFeatures() {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int {
			switch va, vc := b.x[a][f], b.x[c][f]; {
			case va < vc:
				return -1
			case va > vc:
				return 1
			default:
				return 0
			}
		})

		var leftSum float64
		for i := 0; i < n-1; i++ {
			leftSum += b.y[sorted[i]]
			lo, hi := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			leftN := i + 1
			rightN := n - leftN
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(leftN) + rightSum*rightSum/float64(rightN)
			if score > bestScore+1e-12 {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
