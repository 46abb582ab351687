package http

import (
	"net/http"

	"github.com/404Simon/splitify/internal/core"
)

type createDebtRequest struct {
	Name           string  `json:"name"`
	Amount         string  `json:"amount"`
	ParticipantIDs []int64 `json:"participant_ids"`
}

type debtResponse struct {
	Debt         core.SharedDebt        `json:"debt"`
	Participants []core.DebtParticipant `json:"participants"`
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	caller, ok := userID(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	debt, shares, err := s.debts.CreateDebt(r.Context(), core.SharedDebt{
		GroupID:   groupID,
		CreatedBy: caller,
		Name:      req.Name,
		Amount:    amount,
	}, req.ParticipantIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, debtResponse{Debt: debt, Participants: shares})
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.storage.GetGroup(r.Context(), groupID); err != nil {
		writeError(w, r, err)
		return
	}
	debts, err := s.debts.ListDebts(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	debt, shares, err := s.debts.GetDebt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debtResponse{Debt: debt, Participants: shares})
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.debts.DeleteDebt(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateParticipantsRequest struct {
	ParticipantIDs []int64 `json:"participant_ids"`
}

func (s *Server) handleUpdateDebtParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateParticipantsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	shares, err := s.debts.UpdateParticipants(r.Context(), id, req.ParticipantIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}
