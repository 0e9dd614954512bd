// Package params holds named parameter snapshots and the Polyak soft
// update used to track a policy network with a target network.
package params

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrKeyMismatch indicates the policy and target snapshots do not carry
// the same parameter names, meaning the two networks diverged in shape.
var ErrKeyMismatch = errors.New("params: key sets differ")

// Set maps parameter names to flat vector-valued weights. The policy
// and target networks expose identical key sets at all times.
type Set map[string]*mat.VecDense

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = mat.VecDenseCopyOf(v)
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SoftUpdate returns a fresh snapshot with every target parameter moved
// toward its policy counterpart:
//
//	out[k] = tau*policy[k] + (1-tau)*target[k]
//
// tau must be in (0,1]; tau=1 is a bit-exact hard copy of policy. Both
// inputs are left unmodified. Mismatched key sets fail with
// ErrKeyMismatch, mismatched vector lengths fail fast as well.
func SoftUpdate(policy, target Set, tau float64) (Set, error) {
	if tau <= 0 || tau > 1 {
		return nil, fmt.Errorf("params: tau must be in (0,1], got %g", tau)
	}
	if err := checkKeys(policy, target); err != nil {
		return nil, err
	}

	out := make(Set, len(target))
	for k, tv := range target {
		pv := policy[k]
		if pv.Len() != tv.Len() {
			return nil, fmt.Errorf("params: %q length mismatch: policy %d vs target %d", k, pv.Len(), tv.Len())
		}
		if tau == 1 {
			out[k] = mat.VecDenseCopyOf(pv)
			continue
		}
		nv := mat.NewVecDense(tv.Len(), nil)
		nv.ScaleVec(1-tau, tv)
		nv.AddScaledVec(nv, tau, pv)
		out[k] = nv
	}
	return out, nil
}

func checkKeys(policy, target Set) error {
	if len(policy) != len(target) {
		return fmt.Errorf("%w: policy has %d parameters, target has %d", ErrKeyMismatch, len(policy), len(target))
	}
	for k := range policy {
		if _, ok := target[k]; !ok {
			return fmt.Errorf("%w: %q present in policy but not target", ErrKeyMismatch, k)
		}
	}
	return nil
}
