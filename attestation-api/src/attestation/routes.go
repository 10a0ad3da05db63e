package attestation

import "github.com/secomuib/zkpSoulboundToken/pkg/rest"

const apiGroup = "v1"

func Routes(h *Handler) []rest.Route {
	return []rest.Route{
		rest.NewRoute(rest.POST, apiGroup, "attestations", h.IssueAttestation),
		rest.NewRoute(rest.GET, apiGroup, "attestations/:token_id", h.GetAttestation),
		rest.NewRoute(rest.POST, apiGroup, "attestations/:token_id/verify", h.VerifyProof),
		rest.NewRoute(rest.GET, apiGroup, "eligibility/:identity", h.GetEligibility),
		rest.NewRoute(rest.GET, apiGroup, "ledger", h.GetLedgerInfo),
	}
}
