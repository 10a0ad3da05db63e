package attestation

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

type Handler struct {
	Service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, log: logger.OrNop(log)}
}

func (h *Handler) fail(c *gin.Context, err error) {
	reason, status := Classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf(err, "%s %s failed", c.Request.Method, c.FullPath())
	}
	c.JSON(status, gin.H{"error": err.Error(), "reason_code": reason})
}

func tokenParam(c *gin.Context) (uint64, bool) {
	tokenID, err := strconv.ParseUint(c.Param("token_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token id", "reason_code": reasoncodes.ErrUnmarshal})
		return 0, false
	}
	return tokenID, true
}

// IssueAttestation handles POST /v1/attestations.
func (h *Handler) IssueAttestation(c *gin.Context) {
	var req IssueAttestationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "reason_code": reasoncodes.ErrUnmarshal})
		return
	}

	issued, err := h.Service.Issue(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token_id": issued.TokenID,
		"root":     issued.Root,
	})
}

// GetAttestation handles GET /v1/attestations/:token_id.
func (h *Handler) GetAttestation(c *gin.Context) {
	tokenID, ok := tokenParam(c)
	if !ok {
		return
	}
	rec, err := h.Service.Record(c.Request.Context(), tokenID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token_id":               rec.TokenID,
		"owner":                  rec.Owner,
		"root":                   rec.Root,
		"minted_at":              rec.MintedAt.Time().Format(time.RFC3339),
		"encrypted_credit_score": base64.StdEncoding.EncodeToString(rec.Bundle.CreditScore),
		"encrypted_income":       base64.StdEncoding.EncodeToString(rec.Bundle.Income),
		"encrypted_report_date":  base64.StdEncoding.EncodeToString(rec.Bundle.ReportDate),
	})
}

// VerifyProof handles POST /v1/attestations/:token_id/verify with a proof as body.
func (h *Handler) VerifyProof(c *gin.Context) {
	tokenID, ok := tokenParam(c)
	if !ok {
		return
	}
	var proof zkp.Proof
	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proof: " + err.Error(), "reason_code": reasoncodes.ErrMalformedProof})
		return
	}

	out, err := h.Service.Verify(c.Request.Context(), tokenID, &proof)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{
		"token_id":  out.TokenID,
		"owner":     out.Owner,
		"predicate": out.Predicate.String(),
		"valid":     out.Valid,
		"eligible":  out.Eligible,
	}
	if !out.Valid {
		resp["reason_code"] = reasoncodes.ErrVerificationFailure
	}
	if out.Threshold != nil {
		resp["threshold"] = out.Threshold.String()
	}
	c.JSON(http.StatusOK, resp)
}

// GetEligibility handles GET /v1/eligibility/:identity.
func (h *Handler) GetEligibility(c *gin.Context) {
	id, err := identity.Parse(c.Param("identity"))
	if err != nil {
		h.fail(c, err)
		return
	}
	threshold, err := h.Service.Eligibility(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"identity":  id,
		"threshold": threshold.String(),
	})
}

// GetLedgerInfo handles GET /v1/ledger.
func (h *Handler) GetLedgerInfo(c *gin.Context) {
	info, err := h.Service.Info(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
