package models

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MLPOptions configures the feed-forward regressor fit.
type MLPOptions struct {
	HiddenLayerSizes   []int
	LearningRate       float64
	Alpha              float64 // L2 penalty on the weights
	MaxIter            int
	Tol                float64
	NoImprovementLimit int
	Beta1              float64
	Beta2              float64
	Epsilon            float64
	Seed               uint64
}

// NewDefaultMLPOptions returns the fixed topology used for lift durations:
// two hidden layers of 16 and 8 rectified-linear units trained with Adam for
// up to 500 iterations.
func NewDefaultMLPOptions() *MLPOptions {
	return &MLPOptions{
		HiddenLayerSizes:   []int{16, 8},
		LearningRate:       1e-3,
		Alpha:              1e-4,
		MaxIter:            500,
		Tol:                1e-4,
		NoImprovementLimit: 10,
		Beta1:              0.9,
		Beta2:              0.999,
		Epsilon:            1e-8,
	}
}

func (o *MLPOptions) Validate() (*MLPOptions, error) {
	if o == nil {
		return NewDefaultMLPOptions(), nil
	}
	if len(o.HiddenLayerSizes) == 0 {
		return nil, fmt.Errorf("%w, no hidden layer sizes", ErrNoOptions)
	}
	for _, size := range o.HiddenLayerSizes {
		if size < 1 {
			return nil, fmt.Errorf("%w, hidden layer size %d", ErrNoOptions, size)
		}
	}
	if o.LearningRate <= 0 || o.MaxIter < 1 {
		return nil, fmt.Errorf("%w, non-positive learning rate or iterations", ErrNoOptions)
	}
	return o, nil
}

// MLPRegressor is a small fully connected network with rectified-linear
// hidden layers and a linear output, trained full-batch with Adam on the
// mean squared error.
type MLPRegressor struct {
	opt *MLPOptions

	weights []*mat.Dense // weights[l] maps layer l to l+1
	biases  [][]float64

	nFeatures int
	lossCurve []float64
}

func NewMLPRegressor(opt *MLPOptions) (*MLPRegressor, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &MLPRegressor{opt: opt}, nil
}

// Fit trains the network on the design matrix x against the m by 1 target y.
func (r *MLPRegressor) Fit(x, y mat.Matrix) error {
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, n := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}
	if m == 0 || n == 0 {
		return ErrNoTrainingMatrix
	}

	r.nFeatures = n
	r.initLayers(n)

	yCol := mat.Col(nil, 0, y)
	target := mat.NewDense(m, 1, yCol)

	nLayers := len(r.weights)
	mW := make([]*mat.Dense, nLayers)
	vW := make([]*mat.Dense, nLayers)
	mB := make([][]float64, nLayers)
	vB := make([][]float64, nLayers)
	for l, w := range r.weights {
		wr, wc := w.Dims()
		mW[l] = mat.NewDense(wr, wc, nil)
		vW[l] = mat.NewDense(wr, wc, nil)
		mB[l] = make([]float64, wc)
		vB[l] = make([]float64, wc)
	}

	r.lossCurve = r.lossCurve[:0]
	bestLoss := math.Inf(1)
	noImprove := 0

	for iter := 1; iter <= r.opt.MaxIter; iter++ {
		activations := r.forward(x)
		out := activations[len(activations)-1]

		var delta mat.Dense
		delta.Sub(out, target)

		loss := r.loss(&delta, m)
		r.lossCurve = append(r.lossCurve, loss)

		r.backward(activations, &delta, m, iter, mW, vW, mB, vB)

		if loss < bestLoss-r.opt.Tol {
			bestLoss = loss
			noImprove = 0
			continue
		}
		noImprove++
		if noImprove >= r.opt.NoImprovementLimit {
			break
		}
	}
	return nil
}

// Predict runs the forward pass and returns one predicted duration per row.
func (r *MLPRegressor) Predict(x mat.Matrix) ([]float64, error) {
	if r.weights == nil {
		return nil, ErrNotFitted
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	_, n := x.Dims()
	if n != r.nFeatures {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, r.nFeatures, ErrFeatureLenMismatch)
	}

	activations := r.forward(x)
	out := activations[len(activations)-1]
	return mat.Col(nil, 0, out), nil
}

// Score returns the coefficient of determination on the given data.
func (r *MLPRegressor) Score(x, y mat.Matrix) (float64, error) {
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	predicted, err := r.Predict(x)
	if err != nil {
		return 0.0, err
	}
	actual := mat.Col(nil, 0, y)
	if len(predicted) != len(actual) {
		return 0.0, ErrTargetLenMismatch
	}
	return stat.RSquaredFrom(predicted, actual, nil), nil
}

// LossCurve returns the per-iteration training loss of the last fit.
func (r *MLPRegressor) LossCurve() []float64 {
	dst := make([]float64, len(r.lossCurve))
	copy(dst, r.lossCurve)
	return dst
}

func (r *MLPRegressor) initLayers(nFeatures int) {
	sizes := make([]int, 0, len(r.opt.HiddenLayerSizes)+2)
	sizes = append(sizes, nFeatures)
	sizes = append(sizes, r.opt.HiddenLayerSizes...)
	sizes = append(sizes, 1)

	rnd := rand.New(rand.NewPCG(r.opt.Seed, r.opt.Seed))

	r.weights = make([]*mat.Dense, len(sizes)-1)
	r.biases = make([][]float64, len(sizes)-1)
	for l := 0; l < len(sizes)-1; l++ {
		fanIn, fanOut := sizes[l], sizes[l+1]
		limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
		data := make([]float64, fanIn*fanOut)
		for i := range data {
			data[i] = rnd.Float64()*2.0*limit - limit
		}
		r.weights[l] = mat.NewDense(fanIn, fanOut, data)
		r.biases[l] = make([]float64, fanOut)
	}
}

// forward returns the activation of every layer with the input as the first
// element and the linear output as the last.
func (r *MLPRegressor) forward(x mat.Matrix) []*mat.Dense {
	activations := make([]*mat.Dense, len(r.weights)+1)
	activations[0] = mat.DenseCopyOf(x)

	for l, w := range r.weights {
		var z mat.Dense
		z.Mul(activations[l], w)

		bias := r.biases[l]
		z.Apply(func(_, j int, v float64) float64 {
			return v + bias[j]
		}, &z)

		if l < len(r.weights)-1 {
			z.Apply(func(_, _ int, v float64) float64 {
				return math.Max(0.0, v)
			}, &z)
		}
		activations[l+1] = &z
	}
	return activations
}

func (r *MLPRegressor) loss(delta *mat.Dense, m int) float64 {
	sq := 0.0
	for _, d := range delta.RawMatrix().Data {
		sq += d * d
	}
	loss := sq / (2.0 * float64(m))

	reg := 0.0
	for _, w := range r.weights {
		for _, v := range w.RawMatrix().Data {
			reg += v * v
		}
	}
	return loss + r.opt.Alpha*reg/(2.0*float64(m))
}

func (r *MLPRegressor) backward(activations []*mat.Dense, delta *mat.Dense, m, iter int, mW, vW []*mat.Dense, mB, vB [][]float64) {
	scale := 1.0 / float64(m)

	cur := delta
	for l := len(r.weights) - 1; l >= 0; l-- {
		w := r.weights[l]

		var gradW mat.Dense
		gradW.Mul(activations[l].T(), cur)
		var reg mat.Dense
		reg.Scale(r.opt.Alpha, w)
		gradW.Add(&gradW, &reg)
		gradW.Scale(scale, &gradW)

		_, wc := w.Dims()
		gradB := make([]float64, wc)
		rows, _ := cur.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < wc; j++ {
				gradB[j] += cur.At(i, j)
			}
		}
		for j := range gradB {
			gradB[j] *= scale
		}

		// propagate before the in-place weight update
		var next *mat.Dense
		if l > 0 {
			var d mat.Dense
			d.Mul(cur, w.T())
			act := activations[l]
			d.Apply(func(i, j int, v float64) float64 {
				if act.At(i, j) > 0 {
					return v
				}
				return 0.0
			}, &d)
			next = &d
		}

		r.adamStep(w, &gradW, mW[l], vW[l], iter)
		r.adamStepVec(r.biases[l], gradB, mB[l], vB[l], iter)

		cur = next
	}
}

func (r *MLPRegressor) adamStep(w, grad, m1, v1 *mat.Dense, iter int) {
	wData := w.RawMatrix().Data
	gData := grad.RawMatrix().Data
	mData := m1.RawMatrix().Data
	vData := v1.RawMatrix().Data

	b1c := 1.0 - math.Pow(r.opt.Beta1, float64(iter))
	b2c := 1.0 - math.Pow(r.opt.Beta2, float64(iter))

	for i := range wData {
		mData[i] = r.opt.Beta1*mData[i] + (1.0-r.opt.Beta1)*gData[i]
		vData[i] = r.opt.Beta2*vData[i] + (1.0-r.opt.Beta2)*gData[i]*gData[i]
		mHat := mData[i] / b1c
		vHat := vData[i] / b2c
		wData[i] -= r.opt.LearningRate * mHat / (math.Sqrt(vHat) + r.opt.Epsilon)
	}
}

func (r *MLPRegressor) adamStepVec(w, grad, m1, v1 []float64, iter int) {
	b1c := 1.0 - math.Pow(r.opt.Beta1, float64(iter))
	b2c := 1.0 - math.Pow(r.opt.Beta2, float64(iter))

	for i := range w {
		m1[i] = r.opt.Beta1*m1[i] + (1.0-r.opt.Beta1)*grad[i]
		v1[i] = r.opt.Beta2*v1[i] + (1.0-r.opt.Beta2)*grad[i]*grad[i]
		mHat := m1[i] / b1c
		vHat := v1[i] / b2c
		w[i] -= r.opt.LearningRate * mHat / (math.Sqrt(vHat) + r.opt.Epsilon)
	}
}
