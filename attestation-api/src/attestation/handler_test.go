package attestation

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/ledger"
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
	"github.com/secomuib/zkpSoulboundToken/pkg/rest"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

const reportDate = 1651536000000

type stubChecker struct {
	ok bool
}

func (s *stubChecker) Verify(*zkp.Proof) (bool, error) { return s.ok, nil }

type fixture struct {
	router  *gin.Engine
	checker *stubChecker
	key     *ecies.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := ecies.PrivateKeyFromHex("0x0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	checker := &stubChecker{ok: true}
	svc := NewService(ledger.NewMemoryLedger(), ledger.NewMemoryEligibilityStore(), checker, nil)
	router := gin.New()
	require.NoError(t, rest.Register(router, Routes(NewHandler(svc, nil)), nil))
	return &fixture{router: router, checker: checker, key: key}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func (f *fixture) issue(t *testing.T, creditScore int64) zkp.Root {
	t.Helper()
	code, out := f.do(t, http.MethodPost, "/v1/attestations", map[string]any{
		"owner":        f.key.Public().Identity(),
		"public_key":   f.key.Public().Hex(),
		"credit_score": creditScore,
		"income":       3000,
		"report_date":  reportDate,
	})
	require.Equal(t, http.StatusCreated, code, out)
	root, err := zkp.ParseRoot(out["root"].(string))
	require.NoError(t, err)
	return root
}

func shapedProof(root zkp.Root, owner identity.Identity, op zkp.Operator, threshold int64) *zkp.Proof {
	_, _, g1, g2 := bn254.Generators()
	return &zkp.Proof{
		A: [2]*big.Int{g1.X.BigInt(new(big.Int)), g1.Y.BigInt(new(big.Int))},
		B: [2][2]*big.Int{
			{g2.X.A0.BigInt(new(big.Int)), g2.X.A1.BigInt(new(big.Int))},
			{g2.Y.A0.BigInt(new(big.Int)), g2.Y.A1.BigInt(new(big.Int))},
		},
		C:             [2]*big.Int{g1.X.BigInt(new(big.Int)), g1.Y.BigInt(new(big.Int))},
		PublicSignals: []*big.Int{root.BigInt(), owner.BigInt(), big.NewInt(threshold), big.NewInt(int64(op))},
	}
}

func TestIssueAttestation(t *testing.T) {
	f := newFixture(t)
	root := f.issue(t, 45)

	want, err := zkp.Commit(f.key.Public().Identity(), zkp.AttributesFromUint64(45, 3000, reportDate))
	require.NoError(t, err)
	assert.Equal(t, want, root)

	code, out := f.do(t, http.MethodGet, "/v1/ledger", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, ledger.Name, out["name"])
	assert.Equal(t, ledger.Symbol, out["symbol"])
	assert.EqualValues(t, 1, out["total_supply"])
}

func TestIssueAttestationRejects(t *testing.T) {
	f := newFixture(t)
	other, err := ecies.GenerateKey(nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   any
		reason reasoncodes.ReasonCode
	}{
		{"not json", "{", reasoncodes.ErrUnmarshal},
		{"bad owner", `{"owner":"0x1234"}`, reasoncodes.ErrUnmarshal},
		{
			name: "key of another identity",
			body: map[string]any{
				"owner":        f.key.Public().Identity(),
				"public_key":   other.Public().Hex(),
				"credit_score": 45, "income": 3000, "report_date": reportDate,
			},
			reason: reasoncodes.ErrIdentityBinding,
		},
		{
			name: "malformed key",
			body: map[string]any{
				"owner":        f.key.Public().Identity(),
				"public_key":   "0x04ff",
				"credit_score": 45, "income": 3000, "report_date": reportDate,
			},
			reason: reasoncodes.ErrIdentityBinding,
		},
		{
			name: "missing attribute",
			body: map[string]any{
				"owner":        f.key.Public().Identity(),
				"public_key":   f.key.Public().Hex(),
				"credit_score": 45, "income": 3000,
			},
			reason: reasoncodes.ErrEncoding,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out := f.do(t, http.MethodPost, "/v1/attestations", tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, string(tc.reason), out["reason_code"])
		})
	}

	_, out := f.do(t, http.MethodGet, "/v1/ledger", nil)
	assert.EqualValues(t, 0, out["total_supply"])
}

func TestGetAttestation(t *testing.T) {
	f := newFixture(t)
	root := f.issue(t, 45)

	code, out := f.do(t, http.MethodGet, "/v1/attestations/1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, root.Hex(), out["root"])
	assert.Equal(t, f.key.Public().Identity().Hex(), out["owner"])
	mintedAt, err := time.Parse(time.RFC3339, out["minted_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), mintedAt, time.Minute)

	bundle := &ecies.EncryptedBundle{}
	for field, dst := range map[string]*[]byte{
		"encrypted_credit_score": &bundle.CreditScore,
		"encrypted_income":       &bundle.Income,
		"encrypted_report_date":  &bundle.ReportDate,
	} {
		raw, err := base64.StdEncoding.DecodeString(out[field].(string))
		require.NoError(t, err)
		assert.Len(t, raw, ecies.CiphertextSize)
		*dst = raw
	}
	values, err := ecies.DecryptAttributes(f.key, bundle)
	require.NoError(t, err)
	assert.Equal(t, int64(45), values[zkp.CreditScoreIndex].Int64())
	assert.Equal(t, int64(3000), values[zkp.IncomeIndex].Int64())
	assert.Equal(t, int64(reportDate), values[zkp.ReportDateIndex].Int64())

	code, out = f.do(t, http.MethodGet, "/v1/attestations/7", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(reasoncodes.ErrUnknownToken), out["reason_code"])

	code, _ = f.do(t, http.MethodGet, "/v1/attestations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestVerifyProofRecordsEligibility(t *testing.T) {
	f := newFixture(t)
	root := f.issue(t, 45)
	owner := f.key.Public().Identity()

	code, out := f.do(t, http.MethodGet, "/v1/eligibility/"+owner.Hex(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", out["threshold"])

	code, out = f.do(t, http.MethodPost, "/v1/attestations/1/verify", shapedProof(root, owner, zkp.GTE, 40))
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, true, out["valid"])
	assert.Equal(t, true, out["eligible"])
	assert.Equal(t, "40", out["threshold"])
	assert.Equal(t, "GTE 40", out["predicate"])

	code, out = f.do(t, http.MethodGet, "/v1/eligibility/"+owner.Hex(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "40", out["threshold"])
	assert.Equal(t, owner.Hex(), out["identity"])
}

func TestVerifyProofWithoutLowerBound(t *testing.T) {
	f := newFixture(t)
	root := f.issue(t, 45)
	owner := f.key.Public().Identity()

	code, out := f.do(t, http.MethodPost, "/v1/attestations/1/verify", shapedProof(root, owner, zkp.EQ, 45))
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, true, out["valid"])
	assert.Equal(t, false, out["eligible"])
	assert.NotContains(t, out, "threshold")

	_, out = f.do(t, http.MethodGet, "/v1/eligibility/"+owner.Hex(), nil)
	assert.Equal(t, "0", out["threshold"])
}

func TestVerifyProofRejected(t *testing.T) {
	f := newFixture(t)
	root := f.issue(t, 45)
	owner := f.key.Public().Identity()

	f.checker.ok = false
	code, out := f.do(t, http.MethodPost, "/v1/attestations/1/verify", shapedProof(root, owner, zkp.GTE, 40))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["valid"])
	assert.Equal(t, false, out["eligible"])
	assert.Equal(t, string(reasoncodes.ErrVerificationFailure), out["reason_code"])

	f.checker.ok = true
	var otherRoot zkp.Root
	otherRoot[31] = 1
	_, out = f.do(t, http.MethodPost, "/v1/attestations/1/verify", shapedProof(otherRoot, owner, zkp.GTE, 40))
	assert.Equal(t, false, out["valid"])

	_, out = f.do(t, http.MethodGet, "/v1/eligibility/"+owner.Hex(), nil)
	assert.Equal(t, "0", out["threshold"])
}

func TestVerifyProofMalformed(t *testing.T) {
	f := newFixture(t)
	root := f.issue(t, 45)
	owner := f.key.Public().Identity()

	short := shapedProof(root, owner, zkp.GTE, 40)
	short.PublicSignals = short.PublicSignals[:3]
	badOperator := shapedProof(root, owner, zkp.GTE, 40)
	badOperator.PublicSignals[zkp.SignalOperator] = big.NewInt(9)
	offCurve := shapedProof(root, owner, zkp.GTE, 40)
	offCurve.A[1] = big.NewInt(5)

	for name, body := range map[string]any{
		"not json":       `{"pi_a":`,
		"short signals":  short,
		"bad operator":   badOperator,
		"point off curve": offCurve,
	} {
		t.Run(name, func(t *testing.T) {
			code, out := f.do(t, http.MethodPost, "/v1/attestations/1/verify", body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, string(reasoncodes.ErrMalformedProof), out["reason_code"])
		})
	}

	code, out := f.do(t, http.MethodPost, "/v1/attestations/9/verify", shapedProof(root, owner, zkp.GTE, 40))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(reasoncodes.ErrUnknownToken), out["reason_code"])
}

func TestGetEligibilityRejectsBadIdentity(t *testing.T) {
	f := newFixture(t)
	code, out := f.do(t, http.MethodGet, "/v1/eligibility/0xnothex", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(reasoncodes.ErrInvalidOwner), out["reason_code"])
}
