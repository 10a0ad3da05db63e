package zkp

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// CreditScoreCircuit proves that the secret attributes open Root for Owner and that
// the credit score satisfies (Operator, Threshold).
//
// Public inputs are declared in the order they appear in Proof.PublicSignals.
type CreditScoreCircuit struct {
	Root      frontend.Variable `gnark:",public"`
	Owner     frontend.Variable `gnark:",public"`
	Threshold frontend.Variable `gnark:",public"`
	Operator  frontend.Variable `gnark:",public"`

	Attributes [AttributeCount]frontend.Variable `gnark:",secret"`
}

func (c *CreditScoreCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.Owner)
	h.Write(c.Attributes[:]...)
	api.AssertIsEqual(h.Sum(), c.Root)

	// cmp is -1, 0 or 1
	cmp := api.Cmp(c.Attributes[CreditScoreIndex], c.Threshold)
	isEq := api.IsZero(cmp)
	isGt := api.IsZero(api.Sub(cmp, 1))
	isLt := api.IsZero(api.Add(cmp, 1))

	results := [operatorCount]frontend.Variable{
		EQ:  isEq,
		NEQ: api.Sub(1, isEq),
		GT:  isGt,
		GTE: api.Sub(1, isLt),
		LT:  isLt,
		LTE: api.Sub(1, isGt),
	}

	var selected, hits frontend.Variable = 0, 0
	for code, result := range results {
		sel := api.IsZero(api.Sub(c.Operator, code))
		hits = api.Add(hits, sel)
		selected = api.Add(selected, api.Mul(sel, result))
	}

	// exactly one known operator code, and its comparison holds
	api.AssertIsEqual(hits, 1)
	api.AssertIsEqual(selected, 1)

	return nil
}

func newAssignment(root Root, w Witness, p Predicate) *CreditScoreCircuit {
	c := publicAssignment(root.BigInt(), w.Identity.BigInt(), p.Threshold, uint64(p.Operator))
	for i, v := range w.Attributes {
		c.Attributes[i] = v
	}
	return c
}

func publicAssignment(root, owner, threshold, operator any) *CreditScoreCircuit {
	return &CreditScoreCircuit{
		Root:      root,
		Owner:     owner,
		Threshold: threshold,
		Operator:  operator,
	}
}
