package classifier

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// ErrNotTrained is returned when predicting with an unfitted model.
var ErrNotTrained = errors.New("classifier: not trained")

// Forest is a random forest of CART classification trees split on Gini
// impurity. Each tree is grown to purity on a bootstrap sample, trying
// MaxFeatures randomly chosen features per split.
type Forest struct {
	// Trees is the number of trees. Zero means 100.
	Trees int

	// MaxFeatures is the number of features tried per split. Zero means
	// the square root of the feature count.
	MaxFeatures int

	Seed uint64

	classes []string
	trees   []*node
}

// NewForest returns a forest of trees with the given seed.
func NewForest(trees int, seed uint64) *Forest {
	return &Forest{Trees: trees, Seed: seed}
}

type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	// dist is the class distribution of a leaf, nil for inner nodes.
	dist []float64
}

// Fit grows the forest on X with labels y. nFeatures is the dimension of
// the feature space.
func (f *Forest) Fit(X []Vector, y []string, nFeatures int) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: no samples", ErrInsufficientData)
	}
	if len(X) != len(y) {
		return fmt.Errorf("classifier: %d samples but %d labels", len(X), len(y))
	}

	classes := slices.Clone(y)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	labels := make([]int, len(y))
	for i, c := range y {
		labels[i] = index[c]
	}

	nTrees := f.Trees
	if nTrees <= 0 {
		nTrees = 100
	}
	mtry := f.MaxFeatures
	if mtry <= 0 {
		mtry = max(1, int(math.Sqrt(float64(nFeatures))))
	}

	g := &grower{X: X, y: labels, nClasses: len(classes), mtry: mtry}
	trees := make([]*node, nTrees)
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for t := range trees {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			rng := rand.New(rand.NewPCG(f.Seed, uint64(t)))
			samples := make([]int, len(X))
			for i := range samples {
				samples[i] = rng.IntN(len(X))
			}
			trees[t] = g.grow(samples, rng)
		}()
	}
	wg.Wait()

	f.classes = classes
	f.trees = trees
	return nil
}

// Classes returns the class labels in probability column order.
func (f *Forest) Classes() []string {
	return slices.Clone(f.classes)
}

// PredictProba returns the mean class distribution of the trees for x.
func (f *Forest) PredictProba(x Vector) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotTrained
	}
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		n := t
		for n.dist == nil {
			if x.At(n.feature) <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		floats.Add(proba, n.dist)
	}
	floats.Scale(1/float64(len(f.trees)), proba)
	return proba, nil
}

// Predict returns the most probable class of x and its probability.
func (f *Forest) Predict(x Vector) (string, float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return "", 0, err
	}
	i := floats.MaxIdx(proba)
	return f.classes[i], proba[i], nil
}

type grower struct {
	X        []Vector
	y        []int
	nClasses int
	mtry     int
}

func (g *grower) leaf(samples []int) *node {
	dist := make([]float64, g.nClasses)
	for _, s := range samples {
		dist[g.y[s]]++
	}
	floats.Scale(1/float64(len(samples)), dist)
	return &node{dist: dist}
}

func (g *grower) pure(samples []int) bool {
	for _, s := range samples[1:] {
		if g.y[s] != g.y[samples[0]] {
			return false
		}
	}
	return true
}

func (g *grower) grow(samples []int, rng *rand.Rand) *node {
	if len(samples) < 2 || g.pure(samples) {
		return g.leaf(samples)
	}

	// Only features non-zero somewhere in the node can separate it.
	seen := make(map[int]bool)
	var candidates []int
	for _, s := range samples {
		for _, i := range g.X[s].Index {
			if !seen[i] {
				seen[i] = true
				candidates = append(candidates, i)
			}
		}
	}
	slices.Sort(candidates)
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	best := split{score: math.Inf(1)}
	tried := 0
	for _, feat := range candidates {
		if tried >= g.mtry {
			break
		}
		s, ok := g.bestSplit(samples, feat)
		if !ok {
			continue
		}
		tried++
		if s.score < best.score {
			best = s
		}
	}
	if tried == 0 {
		return g.leaf(samples)
	}

	var left, right []int
	for _, s := range samples {
		if g.X[s].At(best.feature) <= best.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		left:      g.grow(left, rng),
		right:     g.grow(right, rng),
	}
}

type split struct {
	feature   int
	threshold float64
	score     float64
}

// bestSplit finds the threshold on feat minimizing the weighted Gini
// impurity of the children. It reports false when feat is constant over
// samples.
func (g *grower) bestSplit(samples []int, feat int) (split, bool) {
	type point struct {
		v float64
		y int
	}
	pts := make([]point, len(samples))
	for i, s := range samples {
		pts[i] = point{g.X[s].At(feat), g.y[s]}
	}
	slices.SortFunc(pts, func(a, b point) int { return cmp.Compare(a.v, b.v) })
	if pts[0].v == pts[len(pts)-1].v {
		return split{}, false
	}

	right := make([]float64, g.nClasses)
	for _, p := range pts {
		right[p.y]++
	}
	left := make([]float64, g.nClasses)
	n := float64(len(pts))
	best := split{feature: feat, score: math.Inf(1)}
	for i := 0; i < len(pts)-1; i++ {
		left[pts[i].y]++
		right[pts[i].y]--
		if pts[i].v == pts[i+1].v {
			continue
		}
		nl := float64(i + 1)
		score := nl*gini(left, nl) + (n-nl)*gini(right, n-nl)
		if score < best.score {
			best.score = score
			best.threshold = pts[i].v + (pts[i+1].v-pts[i].v)/2
		}
	}
	return best, true
}

func gini(counts []float64, n float64) float64 {
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}
