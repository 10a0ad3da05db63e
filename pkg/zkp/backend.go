package zkp

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
)

// Backend holds the compiled circuit and its Groth16 keys. It is built once per
// process and shared read-only by every prover and verifier.
type Backend struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
	log *logger.Logger
}

// Artifacts names the files a Backend is persisted to.
type Artifacts struct {
	ConstraintSystem string `json:"ccs"`
	ProvingKey       string `json:"pk"`
	VerifyingKey     string `json:"vk"`
}

func CompileCircuit() (constraint.ConstraintSystem, error) {
	var circuit CreditScoreCircuit
	ccs, err := frontend.Compile(ElipticalCurveID.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}
	return ccs, nil
}

// NewBackend compiles the circuit and runs a fresh Groth16 setup. The toxic waste
// of this setup is discarded in-process; deployments should load keys produced by
// a ceremony with LoadBackend instead.
func NewBackend(log *logger.Logger) (*Backend, error) {
	log = logger.OrNop(log)

	start := time.Now()
	ccs, err := CompileCircuit()
	if err != nil {
		return nil, err
	}
	log.Debugf("compiled credit score circuit: %d constraints in %s", ccs.GetNbConstraints(), time.Since(start))

	start = time.Now()
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	log.Debugf("groth16 setup done in %s", time.Since(start))

	return &Backend{ccs: ccs, pk: pk, vk: vk, log: log}, nil
}

// LoadBackend reads a constraint system and key pair written by WriteTo.
func LoadBackend(log *logger.Logger, ccsR, pkR, vkR io.Reader) (*Backend, error) {
	ccs := groth16.NewCS(ElipticalCurveID)
	if _, err := ccs.ReadFrom(ccsR); err != nil {
		return nil, fmt.Errorf("read constraint system: %w", err)
	}
	pk := groth16.NewProvingKey(ElipticalCurveID)
	if _, err := pk.ReadFrom(pkR); err != nil {
		return nil, fmt.Errorf("read proving key: %w", err)
	}
	vk, err := ReadVerifyingKey(vkR)
	if err != nil {
		return nil, err
	}
	return &Backend{ccs: ccs, pk: pk, vk: vk, log: logger.OrNop(log)}, nil
}

func ReadVerifyingKey(r io.Reader) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ElipticalCurveID)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read verifying key: %w", err)
	}
	return vk, nil
}

func LoadBackendFiles(log *logger.Logger, paths Artifacts) (*Backend, error) {
	ccsF, err := os.Open(paths.ConstraintSystem)
	if err != nil {
		return nil, err
	}
	defer ccsF.Close()
	pkF, err := os.Open(paths.ProvingKey)
	if err != nil {
		return nil, err
	}
	defer pkF.Close()
	vkF, err := os.Open(paths.VerifyingKey)
	if err != nil {
		return nil, err
	}
	defer vkF.Close()

	return LoadBackend(log, ccsF, pkF, vkF)
}

func (b *Backend) WriteTo(ccsW, pkW, vkW io.Writer) error {
	if _, err := b.ccs.WriteTo(ccsW); err != nil {
		return fmt.Errorf("write constraint system: %w", err)
	}
	if _, err := b.pk.WriteTo(pkW); err != nil {
		return fmt.Errorf("write proving key: %w", err)
	}
	if _, err := b.vk.WriteTo(vkW); err != nil {
		return fmt.Errorf("write verifying key: %w", err)
	}
	return nil
}

func (b *Backend) WriteFiles(paths Artifacts) error {
	files := make([]*os.File, 0, 3)
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, p := range []string{paths.ConstraintSystem, paths.ProvingKey, paths.VerifyingKey} {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	if err := b.WriteTo(files[0], files[1], files[2]); err != nil {
		return err
	}
	for _, f := range files {
		if err := f.Sync(); err != nil {
			return err
		}
	}
	return nil
}

// ExportSolidity writes a Solidity contract that verifies proofs for this key.
func (b *Backend) ExportSolidity(w io.Writer) error {
	return b.vk.ExportSolidity(w)
}

func (b *Backend) VerifyingKey() groth16.VerifyingKey { return b.vk }

func (b *Backend) NbConstraints() int { return b.ccs.GetNbConstraints() }

// Verifier returns a verifier bound to this backend's verifying key.
func (b *Backend) Verifier() *Verifier {
	return NewVerifier(b.vk, b.log)
}
