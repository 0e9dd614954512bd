// Package dqn implements the model-optimization collaborator for the
// training loop: a small feed-forward Q-network and a Bellman-target
// optimizer producing per-sample TD-errors.
package dqn

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/qforge/qforge/internal/params"
)

type layer struct {
	weight *mat.Dense // (out, in)
	bias   *mat.VecDense
}

// Network is a two-hidden-layer MLP mapping an observation vector to
// one value per discrete action. Hidden layers use ReLU, the output
// layer is linear.
type Network struct {
	inputs  int
	hidden  int
	actions int
	layers  []layer
}

// NewNetwork creates a network with weights drawn from N(0, sqrt(2/fanIn)).
// A nil rng gets a time-seeded source.
func NewNetwork(inputs, hidden, actions int, rng *rand.Rand) (*Network, error) {
	if inputs <= 0 || hidden <= 0 || actions <= 0 {
		return nil, fmt.Errorf("dqn: layer sizes must be positive, got %d/%d/%d", inputs, hidden, actions)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sizes := []int{inputs, hidden, hidden, actions}
	n := &Network{inputs: inputs, hidden: hidden, actions: actions}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		data := make([]float64, out*in)
		std := math.Sqrt(2.0 / float64(in))
		for i := range data {
			data[i] = rng.NormFloat64() * std
		}
		n.layers = append(n.layers, layer{
			weight: mat.NewDense(out, in, data),
			bias:   mat.NewVecDense(out, nil),
		})
	}
	return n, nil
}

// Clone returns a network with the same architecture and a deep copy of
// the weights, used to spawn the target network.
func (n *Network) Clone() *Network {
	out := &Network{inputs: n.inputs, hidden: n.hidden, actions: n.actions}
	for _, l := range n.layers {
		out.layers = append(out.layers, layer{
			weight: mat.DenseCopyOf(l.weight),
			bias:   mat.VecDenseCopyOf(l.bias),
		})
	}
	return out
}

// Actions returns the size of the action-value output.
func (n *Network) Actions() int {
	return n.actions
}

// ActionValues implements the policy collaborator: a forward pass
// returning one estimated value per action.
func (n *Network) ActionValues(state []float64) []float64 {
	pass := n.forward(state)
	out := pass.post[len(pass.post)-1]
	values := make([]float64, out.Len())
	copy(values, out.RawVector().Data)
	return values
}

// forwardPass caches pre- and post-activation vectors for backprop.
// post[0] is the input, post[l+1] the activation of layer l.
type forwardPass struct {
	pre  []*mat.VecDense
	post []*mat.VecDense
}

func (n *Network) forward(state []float64) forwardPass {
	in := make([]float64, len(state))
	copy(in, state)

	pass := forwardPass{post: []*mat.VecDense{mat.NewVecDense(len(in), in)}}
	for l, lay := range n.layers {
		z := mat.NewVecDense(lay.bias.Len(), nil)
		z.MulVec(lay.weight, pass.post[l])
		z.AddVec(z, lay.bias)
		pass.pre = append(pass.pre, z)

		a := mat.VecDenseCopyOf(z)
		if l < len(n.layers)-1 {
			relu(a)
		}
		pass.post = append(pass.post, a)
	}
	return pass
}

func relu(v *mat.VecDense) {
	data := v.RawVector().Data
	for i, x := range data {
		if x < 0 {
			data[i] = 0
		}
	}
}

// Params returns a flat snapshot of all weights, keyed
// "layer<i>.weight" / "layer<i>.bias".
func (n *Network) Params() params.Set {
	set := make(params.Set, 2*len(n.layers))
	for l, lay := range n.layers {
		raw := lay.weight.RawMatrix()
		wData := make([]float64, len(raw.Data))
		copy(wData, raw.Data)
		set[fmt.Sprintf("layer%d.weight", l)] = mat.NewVecDense(len(wData), wData)
		set[fmt.Sprintf("layer%d.bias", l)] = mat.VecDenseCopyOf(lay.bias)
	}
	return set
}

// SetParams restores a snapshot produced by Params on a network of the
// same architecture.
func (n *Network) SetParams(set params.Set) error {
	if len(set) != 2*len(n.layers) {
		return fmt.Errorf("%w: network has %d parameters, snapshot has %d", params.ErrKeyMismatch, 2*len(n.layers), len(set))
	}
	for l, lay := range n.layers {
		wKey := fmt.Sprintf("layer%d.weight", l)
		bKey := fmt.Sprintf("layer%d.bias", l)

		wv, ok := set[wKey]
		if !ok {
			return fmt.Errorf("%w: missing %q", params.ErrKeyMismatch, wKey)
		}
		raw := lay.weight.RawMatrix()
		if wv.Len() != len(raw.Data) {
			return fmt.Errorf("dqn: %q length mismatch: want %d, got %d", wKey, len(raw.Data), wv.Len())
		}
		copy(raw.Data, wv.RawVector().Data)

		bv, ok := set[bKey]
		if !ok {
			return fmt.Errorf("%w: missing %q", params.ErrKeyMismatch, bKey)
		}
		if bv.Len() != lay.bias.Len() {
			return fmt.Errorf("dqn: %q length mismatch: want %d, got %d", bKey, lay.bias.Len(), bv.Len())
		}
		copy(lay.bias.RawVector().Data, bv.RawVector().Data)
	}
	return nil
}
