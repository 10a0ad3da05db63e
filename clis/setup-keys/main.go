package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

const baseName = "credit_score"

func main() {
	out := flag.String("out", "keys", "directory for the constraint system, proving and verifying keys")
	solidity := flag.String("solidity", "Verifier.sol", "file name of the exported Solidity verifier, empty to skip")
	flag.Parse()

	log := logger.New()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf(err, "Could not create output directory %s", *out)
	}

	backend, err := zkp.NewBackend(log)
	if err != nil {
		log.Fatal(err, "Groth16 setup failed")
	}

	paths := ArtifactPaths(*out)
	if err := backend.WriteFiles(paths); err != nil {
		log.Fatal(err, "Could not write key artifacts")
	}
	log.Infof("Wrote %s, %s and %s (%d constraints)", paths.ConstraintSystem, paths.ProvingKey, paths.VerifyingKey, backend.NbConstraints())

	if *solidity == "" {
		return
	}
	solPath := filepath.Join(*out, *solidity)
	f, err := os.Create(solPath)
	if err != nil {
		log.Fatalf(err, "Could not create %s", solPath)
	}
	defer f.Close()
	if err := backend.ExportSolidity(f); err != nil {
		log.Fatal(err, "Could not export Solidity verifier")
	}
	log.Infof("Exported Solidity verifier to %s", solPath)
}

// ArtifactPaths names the key files inside dir.
func ArtifactPaths(dir string) zkp.Artifacts {
	return zkp.Artifacts{
		ConstraintSystem: filepath.Join(dir, baseName+".ccs"),
		ProvingKey:       filepath.Join(dir, baseName+".pk"),
		VerifyingKey:     filepath.Join(dir, baseName+".vk"),
	}
}
