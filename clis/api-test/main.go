package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

const defaultBase = "http://localhost:9000"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	base := os.Getenv("API_BASE")
	if base == "" {
		base = defaultBase
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// Keys
	case "keygen":
		keygen()

	// Attestations
	case "attest-issue":
		postJSON(base+"/v1/attestations", args)
	case "attest-get":
		get(base + "/v1/attestations/" + mustArg(args, 0))
	case "attest-verify":
		tokenID := mustArg(args, 0)
		postJSON(base+"/v1/attestations/"+tokenID+"/verify", args[1:])
	case "prove":
		prove(base, args)

	// Ledger
	case "eligibility":
		get(base + "/v1/eligibility/" + mustArg(args, 0))
	case "ledger":
		get(base + "/v1/ledger")

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`Usage: cli <command> [options]

Commands:
  keygen                                   print a fresh secp256k1 key, public key and identity
  attest-issue   -d '{"owner":...}'        POST /v1/attestations
  attest-get     <token_id>                GET  /v1/attestations/:token_id
  attest-verify  <token_id> -d '<proof>'   POST /v1/attestations/:token_id/verify
  prove          -key <hex> -token <id> -op GTE -threshold 40 [-submit]
                                           decrypt the token locally and build a proof
  eligibility    <identity>                GET  /v1/eligibility/:identity
  ledger                                   GET  /v1/ledger

Environment:
  API_BASE   override default http://localhost:9000
  KEYS_DIR   directory written by setup-keys (default keys)
` + "\n")
}

func keygen() {
	key, err := ecies.GenerateKey(nil)
	if err != nil {
		fail("keygen", err)
	}
	fmt.Printf("private_key: 0x%x\n", key.Bytes())
	fmt.Printf("public_key:  %s\n", key.Public().Hex())
	fmt.Printf("identity:    %s\n", key.Public().Identity())
}

type attestationResponse struct {
	TokenID              uint64 `json:"token_id"`
	Root                 string `json:"root"`
	EncryptedCreditScore string `json:"encrypted_credit_score"`
	EncryptedIncome      string `json:"encrypted_income"`
	EncryptedReportDate  string `json:"encrypted_report_date"`
}

func (a attestationResponse) bundle() (*ecies.EncryptedBundle, error) {
	var b ecies.EncryptedBundle
	var err error
	if b.CreditScore, err = base64.StdEncoding.DecodeString(a.EncryptedCreditScore); err != nil {
		return nil, err
	}
	if b.Income, err = base64.StdEncoding.DecodeString(a.EncryptedIncome); err != nil {
		return nil, err
	}
	if b.ReportDate, err = base64.StdEncoding.DecodeString(a.EncryptedReportDate); err != nil {
		return nil, err
	}
	return &b, nil
}

// prove plays the holder: it reads the token, decrypts it with the private key and
// proves the predicate against the stored root.
func prove(base string, args []string) {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	keyHex := fs.String("key", "", "hex encoded secp256k1 private key of the token owner")
	token := fs.Uint64("token", 0, "token id")
	opName := fs.String("op", "GTE", "predicate operator (EQ, NEQ, GT, GTE, LT, LTE)")
	threshold := fs.Int64("threshold", 0, "predicate threshold")
	workers := fs.Int("workers", 0, "prover workers, 0 for one per CPU")
	submit := fs.Bool("submit", false, "post the proof to the verify endpoint")
	_ = fs.Parse(args)

	log := logger.New()

	key, err := ecies.PrivateKeyFromHex(*keyHex)
	if err != nil {
		fail("key", err)
	}
	op, err := zkp.ParseOperatorName(*opName)
	if err != nil {
		fail("op", err)
	}
	predicate := zkp.NewPredicate(op, *threshold)

	tokenPath := base + "/v1/attestations/" + strconv.FormatUint(*token, 10)
	var att attestationResponse
	if err := json.Unmarshal(do(http.MethodGet, tokenPath, nil, false), &att); err != nil {
		fail("attestation", err)
	}
	root, err := zkp.ParseRoot(att.Root)
	if err != nil {
		fail("root", err)
	}
	bundle, err := att.bundle()
	if err != nil {
		fail("bundle", err)
	}
	values, err := ecies.DecryptAttributes(key, bundle)
	if err != nil {
		fail("decrypt", err)
	}

	keysDir := os.Getenv("KEYS_DIR")
	if keysDir == "" {
		keysDir = "keys"
	}
	backend, err := zkp.LoadBackendFiles(log, artifactPaths(keysDir))
	if err != nil {
		fail("load keys", err)
	}
	pool := zkp.NewProverPool(zkp.NewProofBuilder(backend, log), *workers, log)

	proof, err := pool.Submit(context.Background(), zkp.ProofRequest{
		Witness: zkp.Witness{
			Identity:   key.Public().Identity(),
			Attributes: zkp.NewAttributeSet(values[0], values[1], values[2]),
		},
		Predicate: predicate,
		Root:      root,
	})
	if err != nil {
		if reason, ok := zkp.ProofGenerationReason(err); ok {
			fail(string(reason), err)
		}
		fail("prove", err)
	}

	body, err := json.Marshal(proof)
	if err != nil {
		fail("encode", err)
	}
	if !*submit {
		fmt.Println(string(body))
		return
	}
	do(http.MethodPost, tokenPath+"/verify", bytes.NewReader(body), true)
}

func artifactPaths(dir string) zkp.Artifacts {
	return zkp.Artifacts{
		ConstraintSystem: filepath.Join(dir, "credit_score.ccs"),
		ProvingKey:       filepath.Join(dir, "credit_score.pk"),
		VerifyingKey:     filepath.Join(dir, "credit_score.vk"),
	}
}

func mustArg(args []string, idx int) string {
	if len(args) <= idx {
		fmt.Fprintf(os.Stderr, "missing argument %d\n", idx+1)
		usage()
		os.Exit(1)
	}
	return args[idx]
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func get(url string) {
	do(http.MethodGet, url, nil, true)
}

func postJSON(url string, args []string) {
	do(http.MethodPost, url, pickJSON(args), true)
}

func pickJSON(args []string) io.Reader {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	body := fs.String("d", "", "request JSON body")
	_ = fs.Parse(args)
	var r io.Reader
	if *body != "" {
		r = bytes.NewBufferString(*body)
	} else {
		// read from stdin
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			r = os.Stdin
		}
	}
	return r
}

func do(method, url string, body io.Reader, echo bool) []byte {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		fail("req", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fail("do", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		fail("read", err)
	}
	if !echo {
		if res.StatusCode != http.StatusOK {
			fail(method+" "+url, fmt.Errorf("%d: %s", res.StatusCode, data))
		}
		return data
	}
	fmt.Printf("→ %s %s\n", method, url)
	fmt.Printf("← %d %s\n\n", res.StatusCode, http.StatusText(res.StatusCode))
	fmt.Println(string(data))
	return data
}
