// Package evaluator implements the coverage-evaluator model family: the
// interchangeable regression/classification models that estimate local
// coverage probability r(x) = P(w=1 | x) from the binary indicator.
package evaluator

import (
	"math"
	"math/rand"
	"sort"

	apperrors "covcheck/internal/errors"
	"covcheck/ports"
)

// DefaultMinLeaf is the minimum-leaf-size floor for classification trees.
const DefaultMinLeaf = 100

// TreeConfig holds the CART hyperparameters.
type TreeConfig struct {
	MinLeaf     int     // minimum samples per leaf; 0 means DefaultMinLeaf
	CCPAlpha    float64 // cost-complexity pruning strength; 0 fits unpruned
	MaxFeatures int     // features considered per split; 0 means all
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.MinLeaf <= 0 {
		c.MinLeaf = DefaultMinLeaf
	}
	return c
}

// Tree is a depth-unconstrained binary classification tree with Gini
// splitting and optional minimal cost-complexity pruning.
type Tree struct {
	cfg     TreeConfig
	root    *treeNode
	classes []float64
	nTotal  int
}

type treeNode struct {
	feature   int // -1 for leaves
	threshold float64
	left      *treeNode
	right     *treeNode
	n         int
	prob      float64 // mean indicator within the node
}

func (nd *treeNode) isLeaf() bool { return nd.left == nil }

// NewTree creates an untrained tree.
func NewTree(cfg TreeConfig) *Tree {
	return &Tree{cfg: cfg.withDefaults()}
}

// Clone returns a fresh untrained tree with the same hyperparameters,
// including any selected pruning strength.
func (t *Tree) Clone() ports.CoverageModel {
	return &Tree{cfg: t.cfg}
}

// Fit grows the tree on (x, w) and applies cost-complexity pruning when a
// positive strength is configured.
func (t *Tree) Fit(x [][]float64, w []float64, rng *rand.Rand) error {
	if err := checkTrainingShape(x, w); err != nil {
		return err
	}
	t.classes = observedClasses(w)
	t.nTotal = len(w)

	idx := make([]int, len(w))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.grow(x, w, idx, rng)

	if t.cfg.CCPAlpha > 0 {
		pruneToAlpha(t.root, t.cfg.CCPAlpha, t.nTotal)
	}
	return nil
}

func (t *Tree) grow(x [][]float64, w []float64, idx []int, rng *rand.Rand) *treeNode {
	n := len(idx)
	sum := 0.0
	for _, i := range idx {
		sum += w[i]
	}
	nd := &treeNode{feature: -1, n: n, prob: sum / float64(n)}

	if n < 2*t.cfg.MinLeaf || nd.prob == 0 || nd.prob == 1 {
		return nd
	}

	feature, threshold, ok := t.bestSplit(x, w, idx, nd.prob, rng)
	if !ok {
		return nd
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	nd.feature = feature
	nd.threshold = threshold
	nd.left = t.grow(x, w, leftIdx, rng)
	nd.right = t.grow(x, w, rightIdx, rng)
	return nd
}

// bestSplit scans candidate thresholds per feature using prefix sums over
// value-sorted rows, honoring the leaf-size floor on both children.
func (t *Tree) bestSplit(x [][]float64, w []float64, idx []int, parentProb float64, rng *rand.Rand) (int, float64, bool) {
	n := len(idx)
	d := len(x[idx[0]])

	features := t.candidateFeatures(d, rng)

	bestFeature := -1
	bestThreshold := 0.0
	parentImpurity := gini(parentProb)
	bestScore := parentImpurity - 1e-12

	values := make([]float64, n)
	labels := make([]float64, n)
	order := make([]int, n)

	for _, f := range features {
		for k, i := range idx {
			values[k] = x[i][f]
			order[k] = k
		}
		sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
		for k, o := range order {
			labels[k] = w[idx[o]]
		}

		leftSum := 0.0
		totalSum := 0.0
		for _, i := range idx {
			totalSum += w[i]
		}

		for k := 0; k < n-1; k++ {
			leftSum += labels[k]
			nl := k + 1
			nr := n - nl
			if nl < t.cfg.MinLeaf {
				continue
			}
			if nr < t.cfg.MinLeaf {
				break
			}
			lo, hi := values[order[k]], values[order[k+1]]
			if lo == hi {
				continue
			}
			pl := leftSum / float64(nl)
			pr := (totalSum - leftSum) / float64(nr)
			score := (float64(nl)*gini(pl) + float64(nr)*gini(pr)) / float64(n)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *Tree) candidateFeatures(d int, rng *rand.Rand) []int {
	if t.cfg.MaxFeatures <= 0 || t.cfg.MaxFeatures >= d || rng == nil {
		all := make([]int, d)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return rng.Perm(d)[:t.cfg.MaxFeatures]
}

// PredictProba returns the positive-class probability per row, applying the
// one-column/two-column class-table rule.
func (t *Tree) PredictProba(x [][]float64) ([]float64, error) {
	table, err := t.predictTable(x)
	if err != nil {
		return nil, err
	}
	return positiveColumn(table), nil
}

// predictTable returns one probability column per class observed at fit time.
func (t *Tree) predictTable(x [][]float64) ([][]float64, error) {
	if t.root == nil {
		return nil, apperrors.New(apperrors.CodeNotFitted, "tree is not fitted")
	}
	table := make([][]float64, len(x))
	for i, row := range x {
		leaf := t.route(row)
		if len(t.classes) == 1 {
			table[i] = []float64{1}
		} else {
			table[i] = []float64{1 - leaf.prob, leaf.prob}
		}
	}
	return table, nil
}

// PredictClass returns hard 0/1 labels, used for Brier scoring during
// pruning-strength selection.
func (t *Tree) PredictClass(x [][]float64) ([]float64, error) {
	if t.root == nil {
		return nil, apperrors.New(apperrors.CodeNotFitted, "tree is not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(t.classes) == 1 {
			out[i] = t.classes[0]
			continue
		}
		if t.route(row).prob >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (t *Tree) route(row []float64) *treeNode {
	nd := t.root
	for !nd.isLeaf() {
		if row[nd.feature] <= nd.threshold {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd
}

// PruningPath returns the candidate cost-complexity strengths of the fitted
// tree in increasing order. A tree with no internal nodes yields no
// candidates.
func (t *Tree) PruningPath() []float64 {
	if t.root == nil || t.root.isLeaf() {
		return nil
	}
	root := cloneSubtree(t.root)
	path := []float64{0}
	for !root.isLeaf() {
		gmin, links := weakestLinks(root, t.nTotal)
		for _, nd := range links {
			nd.left, nd.right = nil, nil
			nd.feature = -1
		}
		if gmin > path[len(path)-1] {
			path = append(path, gmin)
		}
	}
	return path
}

func cloneSubtree(nd *treeNode) *treeNode {
	if nd == nil {
		return nil
	}
	c := *nd
	c.left = cloneSubtree(nd.left)
	c.right = cloneSubtree(nd.right)
	return &c
}

// weakestLinks finds the internal nodes with the minimal effective alpha
// g(t) = (R(t) - R(subtree)) / (leaves - 1), with node risks weighted by
// sample share.
func weakestLinks(root *treeNode, nTotal int) (float64, []*treeNode) {
	gmin := math.Inf(1)
	var links []*treeNode

	var walk func(nd *treeNode) (leaves int, risk float64)
	walk = func(nd *treeNode) (int, float64) {
		nodeRisk := float64(nd.n) / float64(nTotal) * gini(nd.prob)
		if nd.isLeaf() {
			return 1, nodeRisk
		}
		ll, lr := walk(nd.left)
		rl, rr := walk(nd.right)
		leaves, subRisk := ll+rl, lr+rr
		g := (nodeRisk - subRisk) / float64(leaves-1)
		const eps = 1e-12
		switch {
		case g < gmin-eps:
			gmin = g
			links = links[:0]
			links = append(links, nd)
		case g <= gmin+eps:
			links = append(links, nd)
		}
		return leaves, subRisk
	}
	walk(root)
	return gmin, links
}

// pruneToAlpha collapses every subtree whose effective alpha does not exceed
// the configured strength.
func pruneToAlpha(root *treeNode, alpha float64, nTotal int) {
	for !root.isLeaf() {
		gmin, links := weakestLinks(root, nTotal)
		if gmin > alpha+1e-12 {
			return
		}
		for _, nd := range links {
			nd.left, nd.right = nil, nil
			nd.feature = -1
		}
	}
}

func gini(p float64) float64 {
	return 2 * p * (1 - p)
}

func observedClasses(w []float64) []float64 {
	hasZero, hasOne := false, false
	for _, v := range w {
		if v == 0 {
			hasZero = true
		} else {
			hasOne = true
		}
	}
	switch {
	case hasZero && hasOne:
		return []float64{0, 1}
	case hasOne:
		return []float64{1}
	default:
		return []float64{0}
	}
}

// positiveColumn applies the binary probability shape rule: a one-column
// class table is itself the positive-class probability; a two-column table
// contributes its second column. Single-column tables arise when a simulated
// null draw degenerates to one observed class.
func positiveColumn(table [][]float64) []float64 {
	out := make([]float64, len(table))
	for i, row := range table {
		if len(row) == 1 {
			out[i] = row[0]
		} else {
			out[i] = row[1]
		}
	}
	return out
}

func checkTrainingShape(x [][]float64, w []float64) error {
	if len(x) != len(w) {
		return apperrors.Newf(apperrors.CodeShapeMismatch,
			"training set has %d feature rows but %d labels", len(x), len(w))
	}
	if len(x) == 0 {
		return apperrors.New(apperrors.CodeShapeMismatch, "training set is empty")
	}
	return nil
}
