package dqn

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/qforge/qforge/internal/replay"
)

// Optimizer runs one SGD step of DQN learning per batch: Bellman
// targets are computed against the target network, the smooth-L1
// (Huber) loss is backpropagated through the policy network, and the
// absolute per-sample TD-errors are returned so the caller can feed
// them back as priorities.
type Optimizer struct {
	policy *Network
	target *Network
	gamma  float64
	lr     float64
	clip   float64
}

// NewOptimizer wires an optimizer over the policy and target networks.
func NewOptimizer(policy, target *Network, gamma, lr, clip float64) (*Optimizer, error) {
	if policy == nil || target == nil {
		return nil, errors.New("dqn: policy and target networks are required")
	}
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("dqn: gamma must be in [0,1], got %g", gamma)
	}
	if lr <= 0 {
		return nil, fmt.Errorf("dqn: learning rate must be positive, got %g", lr)
	}
	if clip <= 0 {
		return nil, fmt.Errorf("dqn: gradient clip must be positive, got %g", clip)
	}
	return &Optimizer{policy: policy, target: target, gamma: gamma, lr: lr, clip: clip}, nil
}

// Optimize performs one learning step over the batch. It returns the
// importance-weighted mean Huber loss and the absolute TD-error of each
// sample, index-aligned with batch.Transitions.
func (o *Optimizer) Optimize(batch replay.Batch) (float64, []float64, error) {
	n := len(batch.Transitions)
	if n == 0 {
		return 0, nil, errors.New("dqn: empty batch")
	}
	if len(batch.Weights) != n {
		return 0, nil, fmt.Errorf("dqn: mismatched lengths: %d transitions vs %d weights", n, len(batch.Weights))
	}

	grads := o.newGradients()
	totalLoss := 0.0
	tdErrors := make([]float64, n)

	for k, tr := range batch.Transitions {
		if tr.Action < 0 || tr.Action >= o.policy.actions {
			return 0, nil, fmt.Errorf("dqn: action %d out of range [0,%d)", tr.Action, o.policy.actions)
		}

		pass := o.policy.forward(tr.State)
		predicted := pass.post[len(pass.post)-1].AtVec(tr.Action)

		target := tr.Reward
		if !tr.Terminal() {
			next := o.target.ActionValues(tr.NextState)
			best := next[0]
			for _, v := range next[1:] {
				if v > best {
					best = v
				}
			}
			target += o.gamma * best
		}

		td := predicted - target
		tdErrors[k] = math.Abs(td)
		totalLoss += batch.Weights[k] * huberLoss(td)

		// d(huber)/d(predicted), scaled by the importance weight and
		// averaged over the batch.
		scale := huberGrad(td) * batch.Weights[k] / float64(n)
		outGrad := mat.NewVecDense(o.policy.actions, nil)
		outGrad.SetVec(tr.Action, scale)

		o.backprop(pass, outGrad, grads)
	}

	o.apply(grads)
	return totalLoss / float64(n), tdErrors, nil
}

type gradients struct {
	weight []*mat.Dense
	bias   []*mat.VecDense
}

func (o *Optimizer) newGradients() *gradients {
	g := &gradients{}
	for _, lay := range o.policy.layers {
		r, c := lay.weight.Dims()
		g.weight = append(g.weight, mat.NewDense(r, c, nil))
		g.bias = append(g.bias, mat.NewVecDense(lay.bias.Len(), nil))
	}
	return g
}

// backprop accumulates gradients for one sample into grads.
func (o *Optimizer) backprop(pass forwardPass, outGrad *mat.VecDense, grads *gradients) {
	delta := outGrad
	for l := len(o.policy.layers) - 1; l >= 0; l-- {
		grads.weight[l].RankOne(grads.weight[l], 1.0, delta, pass.post[l])
		grads.bias[l].AddVec(grads.bias[l], delta)

		if l == 0 {
			break
		}
		prev := mat.NewVecDense(pass.pre[l-1].Len(), nil)
		prev.MulVec(o.policy.layers[l].weight.T(), delta)
		// ReLU gate: no gradient through inactive units.
		pData := prev.RawVector().Data
		zData := pass.pre[l-1].RawVector().Data
		for i := range pData {
			if zData[i] <= 0 {
				pData[i] = 0
			}
		}
		delta = prev
	}
}

// apply clips gradient values and takes one SGD step.
func (o *Optimizer) apply(grads *gradients) {
	for l, lay := range o.policy.layers {
		wData := lay.weight.RawMatrix().Data
		gData := grads.weight[l].RawMatrix().Data
		for i := range wData {
			wData[i] -= o.lr * clipValue(gData[i], o.clip)
		}

		bData := lay.bias.RawVector().Data
		gbData := grads.bias[l].RawVector().Data
		for i := range bData {
			bData[i] -= o.lr * clipValue(gbData[i], o.clip)
		}
	}
}

// huberLoss is the smooth-L1 loss with unit transition point.
func huberLoss(td float64) float64 {
	a := math.Abs(td)
	if a <= 1 {
		return 0.5 * td * td
	}
	return a - 0.5
}

func huberGrad(td float64) float64 {
	if td > 1 {
		return 1
	}
	if td < -1 {
		return -1
	}
	return td
}

func clipValue(g, limit float64) float64 {
	if g > limit {
		return limit
	}
	if g < -limit {
		return -limit
	}
	return g
}
