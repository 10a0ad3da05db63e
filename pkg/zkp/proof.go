package zkp

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/near/borsh-go"

	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
)

// Indexes into Proof.PublicSignals.
const (
	SignalRoot = iota
	SignalOwner
	SignalThreshold
	SignalOperator

	PublicSignalCount
)

// Proof is the interchange form of a Groth16 proof: affine coordinates of A, B and
// C plus the public signals in circuit order. B coordinates are (A0, A1) pairs of
// the quadratic extension.
type Proof struct {
	A             [2]*big.Int
	B             [2][2]*big.Int
	C             [2]*big.Int
	PublicSignals []*big.Int
}

func proofFromGnark(p groth16.Proof, signals []*big.Int) (*Proof, error) {
	bp, ok := p.(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("unexpected proof type %T", p)
	}
	if len(bp.Commitments) != 0 {
		return nil, fmt.Errorf("circuit produced %d commitments, none expected", len(bp.Commitments))
	}
	return &Proof{
		A: g1ToBig(&bp.Ar),
		B: [2][2]*big.Int{
			{bp.Bs.X.A0.BigInt(new(big.Int)), bp.Bs.X.A1.BigInt(new(big.Int))},
			{bp.Bs.Y.A0.BigInt(new(big.Int)), bp.Bs.Y.A1.BigInt(new(big.Int))},
		},
		C:             g1ToBig(&bp.Krs),
		PublicSignals: signals,
	}, nil
}

func g1ToBig(p *bn254.G1Affine) [2]*big.Int {
	return [2]*big.Int{p.X.BigInt(new(big.Int)), p.Y.BigInt(new(big.Int))}
}

// Validate checks the shape of the proof: every coordinate is a canonical base
// field element, the points lie in their prime-order subgroups and the public
// signals are four scalars.
func (p *Proof) Validate() error {
	_, err := p.toGnark()
	return err
}

func (p *Proof) toGnark() (*groth16_bn254.Proof, error) {
	if p == nil {
		return nil, malformed("nil proof")
	}
	if len(p.PublicSignals) != PublicSignalCount {
		return nil, malformed("expected %d public signals, got %d", PublicSignalCount, len(p.PublicSignals))
	}
	for i, s := range p.PublicSignals {
		if s == nil || s.Sign() < 0 || s.Cmp(fieldModulus) >= 0 {
			return nil, malformed("public signal %d is not a scalar field element", i)
		}
	}

	var out groth16_bn254.Proof
	if err := setG1(&out.Ar, "a", p.A); err != nil {
		return nil, err
	}
	if err := setG2(&out.Bs, p.B); err != nil {
		return nil, err
	}
	if err := setG1(&out.Krs, "c", p.C); err != nil {
		return nil, err
	}
	return &out, nil
}

func setFp(e *fp.Element, name string, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(fp.Modulus()) >= 0 {
		return malformed("%s is not a base field element", name)
	}
	e.SetBigInt(v)
	return nil
}

func setG1(pt *bn254.G1Affine, name string, xy [2]*big.Int) error {
	if err := setFp(&pt.X, name+".x", xy[0]); err != nil {
		return err
	}
	if err := setFp(&pt.Y, name+".y", xy[1]); err != nil {
		return err
	}
	if !pt.IsOnCurve() || !pt.IsInSubGroup() {
		return malformed("%s is not a valid G1 point", name)
	}
	return nil
}

func setG2(pt *bn254.G2Affine, b [2][2]*big.Int) error {
	coords := []struct {
		e    *fp.Element
		name string
		v    *big.Int
	}{
		{&pt.X.A0, "b.x.a0", b[0][0]},
		{&pt.X.A1, "b.x.a1", b[0][1]},
		{&pt.Y.A0, "b.y.a0", b[1][0]},
		{&pt.Y.A1, "b.y.a1", b[1][1]},
	}
	for _, c := range coords {
		if err := setFp(c.e, c.name, c.v); err != nil {
			return err
		}
	}
	if !pt.IsOnCurve() || !pt.IsInSubGroup() {
		return malformed("b is not a valid G2 point")
	}
	return nil
}

func (p *Proof) signal(i int) (*big.Int, error) {
	if len(p.PublicSignals) != PublicSignalCount || p.PublicSignals[i] == nil {
		return nil, malformed("missing public signal %d", i)
	}
	return p.PublicSignals[i], nil
}

func (p *Proof) Root() (Root, error) {
	v, err := p.signal(SignalRoot)
	if err != nil {
		return Root{}, err
	}
	r, err := RootFromBigInt(v)
	if err != nil {
		return Root{}, malformed("root signal: %v", err)
	}
	return r, nil
}

func (p *Proof) Owner() (identity.Identity, error) {
	v, err := p.signal(SignalOwner)
	if err != nil {
		return identity.Identity{}, err
	}
	id, err := identity.FromBigInt(v)
	if err != nil {
		return identity.Identity{}, malformed("owner signal: %v", err)
	}
	return id, nil
}

func (p *Proof) Threshold() (*big.Int, error) {
	v, err := p.signal(SignalThreshold)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v), nil
}

func (p *Proof) Operator() (Operator, error) {
	v, err := p.signal(SignalOperator)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, malformed("operator signal out of range")
	}
	op, err := ParseOperator(v.Uint64())
	if err != nil {
		return 0, malformed("operator signal: %v", err)
	}
	return op, nil
}

// Predicate returns the predicate the proof claims.
func (p *Proof) Predicate() (Predicate, error) {
	op, err := p.Operator()
	if err != nil {
		return Predicate{}, err
	}
	t, err := p.Threshold()
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Operator: op, Threshold: t}, nil
}

type proofJSON struct {
	PiA           []string   `json:"pi_a"`
	PiB           [][]string `json:"pi_b"`
	PiC           []string   `json:"pi_c"`
	PublicSignals []string   `json:"public_signals"`
}

func (p Proof) MarshalJSON() ([]byte, error) {
	out := proofJSON{
		PiA:           bigsToStrings(p.A[:]),
		PiB:           [][]string{bigsToStrings(p.B[0][:]), bigsToStrings(p.B[1][:])},
		PiC:           bigsToStrings(p.C[:]),
		PublicSignals: bigsToStrings(p.PublicSignals),
	}
	return json.Marshal(out)
}

// UnmarshalJSON only decodes numbers; Validate checks the curve points.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var in proofJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return malformed("%v", err)
	}
	if len(in.PiA) != 2 || len(in.PiC) != 2 || len(in.PiB) != 2 || len(in.PiB[0]) != 2 || len(in.PiB[1]) != 2 {
		return malformed("pi_a, pi_b and pi_c must be 2, 2x2 and 2 elements")
	}

	var out Proof
	var err error
	if err = stringsToBigs(out.A[:], in.PiA, "pi_a"); err != nil {
		return err
	}
	for i := range out.B {
		if err = stringsToBigs(out.B[i][:], in.PiB[i], "pi_b"); err != nil {
			return err
		}
	}
	if err = stringsToBigs(out.C[:], in.PiC, "pi_c"); err != nil {
		return err
	}
	out.PublicSignals = make([]*big.Int, len(in.PublicSignals))
	if err = stringsToBigs(out.PublicSignals, in.PublicSignals, "public_signals"); err != nil {
		return err
	}
	*p = out
	return nil
}

func bigsToStrings(vs []*big.Int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		if v == nil {
			out[i] = "0"
			continue
		}
		out[i] = v.String()
	}
	return out
}

// stringsToBigs accepts decimal or 0x-prefixed hex numbers.
func stringsToBigs(dst []*big.Int, src []string, name string) error {
	for i, s := range src {
		v, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return malformed("%s[%d]: %q is not a number", name, i, s)
		}
		dst[i] = v
	}
	return nil
}

type proofBorsh struct {
	Points  [][]byte
	Signals [][]byte
}

// MarshalBorsh encodes the proof for queue transport: eight 32-byte coordinates
// followed by the public signals.
func (p *Proof) MarshalBorsh() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	coords := []*big.Int{p.A[0], p.A[1], p.B[0][0], p.B[0][1], p.B[1][0], p.B[1][1], p.C[0], p.C[1]}
	enc := proofBorsh{
		Points:  make([][]byte, len(coords)),
		Signals: make([][]byte, len(p.PublicSignals)),
	}
	for i, c := range coords {
		enc.Points[i] = fieldBytes(c)
	}
	for i, s := range p.PublicSignals {
		enc.Signals[i] = fieldBytes(s)
	}
	return borsh.Serialize(enc)
}

func UnmarshalProofBorsh(data []byte) (*Proof, error) {
	var dec proofBorsh
	if err := borsh.Deserialize(&dec, data); err != nil {
		return nil, malformed("borsh: %v", err)
	}
	if len(dec.Points) != 8 {
		return nil, malformed("expected 8 coordinates, got %d", len(dec.Points))
	}
	for _, b := range append(append([][]byte{}, dec.Points...), dec.Signals...) {
		if len(b) != FieldElementSize {
			return nil, malformed("element of %d bytes, expected %d", len(b), FieldElementSize)
		}
	}
	n := func(b []byte) *big.Int { return new(big.Int).SetBytes(b) }
	pts := dec.Points
	p := &Proof{
		A:             [2]*big.Int{n(pts[0]), n(pts[1])},
		B:             [2][2]*big.Int{{n(pts[2]), n(pts[3])}, {n(pts[4]), n(pts[5])}},
		C:             [2]*big.Int{n(pts[6]), n(pts[7])},
		PublicSignals: make([]*big.Int, len(dec.Signals)),
	}
	for i, s := range dec.Signals {
		p.PublicSignals[i] = n(s)
	}
	return p, nil
}
