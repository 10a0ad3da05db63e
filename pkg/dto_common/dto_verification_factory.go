package dtocommon

import (
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities"
)

type VerificationDtoFactory interface {
	CreateErrorDto(error, reasoncodes.ReasonCode) utilities.Serializable
	CreateInfoDto(reasoncodes.ReasonCode) utilities.Serializable
}

type verificationFailureDtoFactory struct {
	EventId     string
	RequestBody []byte
}

func NewVerificationFailureFactory(eventId string, requestBody []byte) VerificationDtoFactory {
	return verificationFailureDtoFactory{
		EventId:     eventId,
		RequestBody: requestBody,
	}
}

func (f verificationFailureDtoFactory) CreateErrorDto(err error, reasonCode reasoncodes.ReasonCode) utilities.Serializable {
	return ProofVerificationFailureDto{
		EventId:     f.EventId,
		RequestBody: f.RequestBody,
		Error:       err.Error(),
		ReasonCode:  reasonCode,
	}
}

func (f verificationFailureDtoFactory) CreateInfoDto(reasonCode reasoncodes.ReasonCode) utilities.Serializable {
	return ProofVerificationFailureDto{
		EventId:     f.EventId,
		RequestBody: f.RequestBody,
		ReasonCode:  reasonCode,
	}
}
