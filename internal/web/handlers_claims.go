package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListClaims returns a filtered page of claims ordered by claim id.
func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	claims, err := s.service.ListClaims(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]ClaimResponse, len(claims))
	for i, c := range claims {
		resp[i] = toClaimResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := s.service.GetClaim(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(claim))
}

// handleCreateClaim inserts a claim and returns it with 201.
func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	claim, err := req.toClaim()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.service.CreateClaim(withClient(r), claim)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/claims/"+created.ClaimID)
	writeJSON(w, http.StatusCreated, toClaimResponse(created))
}

// handleUpdateClaim applies a partial update; absent fields keep their value.
func (s *Server) handleUpdateClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.service.UpdateClaim(withClient(r), chi.URLParam(r, "claimID"), patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

func (s *Server) handleDeleteClaim(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")
	if err := s.service.DeleteClaim(withClient(r), claimID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Claim %s deleted successfully", claimID),
	})
}

// handleSummary returns aggregate statistics over every claim.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}
