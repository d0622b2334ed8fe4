package kinematics

import (
	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
)

// NLoptSolve is an auxiliary inverse-kinematics backend using the same
// go-nlopt/nlopt SLSQP solver C2 uses for its QP, offered for offline
// verification against the damped Gauss-Newton solver. C5 never calls
// this; Inverse (gauss-newton) is the only runtime IK path spec.md §4.4
// mandates.
func NLoptSolve(model *Model, q0 []float64, target Target) ([]float64, error) {
	dof := model.DOF()

	objective := func(q, grad []float64) float64 {
		ik := &IK{model: model}
		e := ik.evaluate(q)
		cost := 0.0
		cost += sqDist3(e.comPos, target.ComPos)
		cost += sqDist3(e.lfPos, target.LfPos)
		cost += sqDist3(e.rfPos, target.RfPos)
		if len(grad) > 0 {
			eps := jacobianEpsilon
			base := cost
			perturbed := append([]float64{}, q...)
			for i := range q {
				perturbed[i] = q[i] + eps
				ik2 := &IK{model: model}
				e2 := ik2.evaluate(perturbed)
				c2 := sqDist3(e2.comPos, target.ComPos) + sqDist3(e2.lfPos, target.LfPos) + sqDist3(e2.rfPos, target.RfPos)
				grad[i] = (c2 - base) / eps
				perturbed[i] = q[i]
			}
		}
		return cost
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(dof))
	if err != nil {
		return nil, errors.Wrap(err, "creating nlopt solver")
	}
	defer opt.Destroy()

	if err := opt.SetMinObjective(objective); err != nil {
		return nil, errors.Wrap(err, "setting objective")
	}
	_ = opt.SetXtolRel(1e-6)
	_ = opt.SetMaxEval(500)

	xopt, _, err := opt.Optimize(q0)
	if err != nil {
		return nil, errors.Wrap(err, "nlopt IK solve failed")
	}
	return xopt, nil
}

func sqDist3(a, b [3]float64) float64 {
	d0, d1, d2 := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return d0*d0 + d1*d1 + d2*d2
}
