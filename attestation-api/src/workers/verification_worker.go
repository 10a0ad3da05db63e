package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/secomuib/zkpSoulboundToken/attestation-api/src/attestation"
	dtocommon "github.com/secomuib/zkpSoulboundToken/pkg/dto_common"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/rabbitmq"
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

const (
	VerificationRequestsConsumerAlias rabbitmq.ConsumerAlias  = "VerificationRequestsConsumer"
	VerificationResultsPublisherAlias rabbitmq.PublisherAlias = "VerificationResultsPublisher"
	VerificationFailedPublisherAlias  rabbitmq.PublisherAlias = "VerificationFailedPublisher"

	verificationTimeout = 30 * time.Second
)

type VerificationRequestWorker struct {
	service          *attestation.Service
	consumer         rabbitmq.IRabbitmqConsumer
	resultPublisher  rabbitmq.IRabbitmqPublisher
	failurePublisher rabbitmq.IRabbitmqPublisher
	log              *logger.Logger
}

// NewVerificationRequestWorker takes its queues from the rabbitmq registries.
func NewVerificationRequestWorker(service *attestation.Service) *VerificationRequestWorker {
	return NewVerificationRequestWorkerWith(
		service,
		rabbitmq.GetConsumer(VerificationRequestsConsumerAlias),
		rabbitmq.GetPublisher(VerificationResultsPublisherAlias),
		rabbitmq.GetPublisher(VerificationFailedPublisherAlias),
		logger.Default(),
	)
}

func NewVerificationRequestWorkerWith(
	service *attestation.Service,
	consumer rabbitmq.IRabbitmqConsumer,
	results, failures rabbitmq.IRabbitmqPublisher,
	log *logger.Logger,
) *VerificationRequestWorker {
	return &VerificationRequestWorker{
		service:          service,
		consumer:         consumer,
		resultPublisher:  results,
		failurePublisher: failures,
		log:              logger.OrNop(log),
	}
}

func (w *VerificationRequestWorker) GetServiceName() string {
	return string(VerificationRequestsConsumerAlias)
}

func (w *VerificationRequestWorker) StartService() {
	if w.consumer == nil {
		w.log.Warnf("No consumer %s configured, %s not started", VerificationRequestsConsumerAlias, w.GetServiceName())
		return
	}
	w.log.Info("Listening for proof verification requests...")
	if err := w.consumer.StartConsuming(w.HandleDelivery); err != nil {
		w.log.Errorf(err, "Verification request consumer stopped")
	}
}

func (w *VerificationRequestWorker) HandleDelivery(d amqp.Delivery) {
	var req dtocommon.ProofVerificationRequestDto
	if err := json.Unmarshal(d.Body, &req); err != nil {
		w.log.Errorf(err, "Failed to unmarshal verification request")
		w.publishFailure(dtocommon.NewVerificationFailureFactory(uuid.NewString(), d.Body).
			CreateErrorDto(err, reasoncodes.ErrUnmarshal))
		return
	}
	if req.EventId == "" {
		req.EventId = uuid.NewString()
	}
	factory := dtocommon.NewVerificationFailureFactory(req.EventId, d.Body)

	proof, err := decodeProof(req.ProofBorshB64)
	if err != nil {
		w.log.Warnf("[%s] undecodable proof for token %d: %v", req.EventId, req.TokenId, err)
		w.publishFailure(factory.CreateErrorDto(err, reasoncodes.ErrMalformedProof))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), verificationTimeout)
	defer cancel()

	out, err := w.service.Verify(ctx, req.TokenId, proof)
	if err != nil {
		reason, _ := attestation.Classify(err)
		w.log.Warnf("[%s] verification of token %d failed: %v", req.EventId, req.TokenId, err)
		w.publishFailure(factory.CreateErrorDto(err, reason))
		return
	}
	if !out.Valid {
		w.log.Infof("[%s] proof for token %d rejected", req.EventId, req.TokenId)
		w.publishFailure(factory.CreateInfoDto(reasoncodes.ErrVerificationFailure))
		return
	}

	result := dtocommon.ProofVerificationResultDto{
		EventId:  req.EventId,
		TokenId:  req.TokenId,
		Owner:    out.Owner.Hex(),
		Eligible: out.Eligible,
	}
	if out.Threshold != nil {
		result.Threshold = out.Threshold.String()
	}
	if w.resultPublisher == nil {
		w.log.Warnf("[%s] no result publisher configured", req.EventId)
		return
	}
	if err := w.resultPublisher.Publish(result); err != nil {
		w.log.Errorf(err, "[%s] failed to publish verification result", req.EventId)
	}
}

func (w *VerificationRequestWorker) publishFailure(dto utilities.Serializable) {
	if w.failurePublisher == nil {
		return
	}
	if err := w.failurePublisher.Publish(dto); err != nil {
		w.log.Errorf(err, "Failed to publish verification failure")
	}
}

func decodeProof(b64 string) (*zkp.Proof, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: proof is not base64: %v", zkp.ErrMalformedProof, err)
	}
	return zkp.UnmarshalProofBorsh(raw)
}
