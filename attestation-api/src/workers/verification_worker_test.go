package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secomuib/zkpSoulboundToken/attestation-api/src/attestation"
	dtocommon "github.com/secomuib/zkpSoulboundToken/pkg/dto_common"
	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/ledger"
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

type stubChecker struct{ ok bool }

func (s stubChecker) Verify(*zkp.Proof) (bool, error) { return s.ok, nil }

type fakeConsumer struct {
	deliveries [][]byte
}

func (c *fakeConsumer) StartConsuming(handler func(amqp.Delivery)) error {
	for _, body := range c.deliveries {
		handler(amqp.Delivery{Body: body})
	}
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *fakePublisher) Publish(body utilities.Serializable) error {
	raw, err := body.Serialize()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, raw)
	return nil
}

type harness struct {
	owner    identity.Identity
	root     zkp.Root
	consumer *fakeConsumer
	results  *fakePublisher
	failures *fakePublisher
	worker   *VerificationRequestWorker
}

func newHarness(t *testing.T, checkerOK bool) *harness {
	t.Helper()
	key, err := ecies.GenerateKey(nil)
	require.NoError(t, err)

	svc := attestation.NewService(ledger.NewMemoryLedger(), ledger.NewMemoryEligibilityStore(), stubChecker{ok: checkerOK}, nil)
	issued, err := svc.Issue(context.Background(), attestation.IssueAttestationRequest{
		Owner:       key.Public().Identity(),
		PublicKey:   key.Public().Hex(),
		CreditScore: big.NewInt(45),
		Income:      big.NewInt(3000),
		ReportDate:  big.NewInt(1651536000000),
	})
	require.NoError(t, err)

	h := &harness{
		owner:    key.Public().Identity(),
		root:     issued.Root,
		consumer: &fakeConsumer{},
		results:  &fakePublisher{},
		failures: &fakePublisher{},
	}
	h.worker = NewVerificationRequestWorkerWith(svc, h.consumer, h.results, h.failures, nil)
	return h
}

func (h *harness) request(t *testing.T, eventID string, tokenID uint64, proof *zkp.Proof) []byte {
	t.Helper()
	raw, err := proof.MarshalBorsh()
	require.NoError(t, err)
	body, err := dtocommon.ProofVerificationRequestDto{
		EventId:       eventID,
		TokenId:       tokenID,
		ProofBorshB64: base64.StdEncoding.EncodeToString(raw),
	}.Serialize()
	require.NoError(t, err)
	return body
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

func decodeFailure(t *testing.T, raw []byte) dtocommon.ProofVerificationFailureDto {
	t.Helper()
	var f dtocommon.ProofVerificationFailureDto
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestWorkerPublishesEligibility(t *testing.T) {
	h := newHarness(t, true)
	h.consumer.deliveries = [][]byte{
		h.request(t, "evt-gte", 1, shapedProof(h.root, h.owner, zkp.GTE, 40)),
		h.request(t, "evt-eq", 1, shapedProof(h.root, h.owner, zkp.EQ, 45)),
	}
	h.worker.StartService()

	require.Len(t, h.results.messages, 2)
	assert.Empty(t, h.failures.messages)

	var res dtocommon.ProofVerificationResultDto
	require.NoError(t, json.Unmarshal(h.results.messages[0], &res))
	assert.Equal(t, dtocommon.ProofVerificationResultDto{
		EventId:   "evt-gte",
		TokenId:   1,
		Owner:     h.owner.Hex(),
		Eligible:  true,
		Threshold: "40",
	}, res)

	require.NoError(t, json.Unmarshal(h.results.messages[1], &res))
	assert.Equal(t, "evt-eq", res.EventId)
	assert.False(t, res.Eligible)
	assert.Empty(t, res.Threshold)
}

func TestWorkerPublishesFailures(t *testing.T) {
	h := newHarness(t, true)
	var foreign zkp.Root
	foreign[31] = 7

	h.consumer.deliveries = [][]byte{
		[]byte("not json"),
		mustJSON(t, dtocommon.ProofVerificationRequestDto{EventId: "evt-b64", TokenId: 1, ProofBorshB64: "%%%"}),
		mustJSON(t, dtocommon.ProofVerificationRequestDto{EventId: "evt-borsh", TokenId: 1, ProofBorshB64: "AAAA"}),
		h.request(t, "evt-unknown", 42, shapedProof(h.root, h.owner, zkp.GTE, 40)),
		h.request(t, "evt-root", 1, shapedProof(foreign, h.owner, zkp.GTE, 40)),
	}
	h.worker.StartService()

	assert.Empty(t, h.results.messages)
	require.Len(t, h.failures.messages, 5)

	unmarshal := decodeFailure(t, h.failures.messages[0])
	assert.Equal(t, reasoncodes.ErrUnmarshal, unmarshal.ReasonCode)
	assert.NotEmpty(t, unmarshal.EventId)
	assert.Equal(t, []byte("not json"), unmarshal.RequestBody)

	want := []struct {
		event  string
		reason reasoncodes.ReasonCode
	}{
		{"evt-b64", reasoncodes.ErrMalformedProof},
		{"evt-borsh", reasoncodes.ErrMalformedProof},
		{"evt-unknown", reasoncodes.ErrUnknownToken},
		{"evt-root", reasoncodes.ErrVerificationFailure},
	}
	for i, w := range want {
		got := decodeFailure(t, h.failures.messages[i+1])
		assert.Equal(t, w.event, got.EventId)
		assert.Equal(t, w.reason, got.ReasonCode, w.event)
	}
}

func TestWorkerRejectedProof(t *testing.T) {
	h := newHarness(t, false)
	h.consumer.deliveries = [][]byte{h.request(t, "", 1, shapedProof(h.root, h.owner, zkp.GT, 44))}
	h.worker.StartService()

	assert.Empty(t, h.results.messages)
	require.Len(t, h.failures.messages, 1)
	got := decodeFailure(t, h.failures.messages[0])
	assert.Equal(t, reasoncodes.ErrVerificationFailure, got.ReasonCode)
	assert.NotEmpty(t, got.EventId)
	assert.Empty(t, got.Error)
}

func TestWorkerWithoutConsumer(t *testing.T) {
	w := NewVerificationRequestWorkerWith(nil, nil, nil, nil, nil)
	assert.Equal(t, string(VerificationRequestsConsumerAlias), w.GetServiceName())
	w.StartService()
}

func mustJSON(t *testing.T, v utilities.Serializable) []byte {
	t.Helper()
	raw, err := v.Serialize()
	require.NoError(t, err)
	return raw
}
