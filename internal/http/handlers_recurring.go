package http

import (
	"net/http"

	"github.com/404Simon/splitify/internal/core"
)

type createRecurringRequest struct {
	Name           string  `json:"name"`
	Amount         string  `json:"amount"`
	Frequency      string  `json:"frequency"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	ParticipantIDs []int64 `json:"participant_ids"`
}

type recurringResponse struct {
	Recurring      core.RecurringDebt `json:"recurring"`
	ParticipantIDs []int64            `json:"participant_ids"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	caller, ok := userID(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createRecurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	frequency, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	startDate, err := core.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var endDate *core.Date
	if req.EndDate != "" {
		parsed, err := core.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		endDate = &parsed
	}

	rec, participants, err := s.recurring.CreateRecurring(r.Context(), core.RecurringDebt{
		GroupID:   groupID,
		CreatedBy: caller,
		Name:      req.Name,
		Amount:    amount,
		Frequency: frequency,
		StartDate: startDate,
		EndDate:   endDate,
	}, req.ParticipantIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recurringResponse{Recurring: rec, ParticipantIDs: participants})
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.storage.GetGroup(r.Context(), groupID); err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.recurring.ListRecurring(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, participants, err := s.recurring.GetRecurring(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recurringResponse{Recurring: rec, ParticipantIDs: participants})
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.recurring.DeleteRecurring(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateRecurring(w http.ResponseWriter, r *http.Request) {
	s.setRecurringActive(w, r, true)
}

func (s *Server) handleDeactivateRecurring(w http.ResponseWriter, r *http.Request) {
	s.setRecurringActive(w, r, false)
}

func (s *Server) setRecurringActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.recurring.SetActive(r.Context(), id, active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateRecurringParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateParticipantsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	participants, err := s.recurring.UpdateParticipants(r.Context(), id, req.ParticipantIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recurringParticipantsResponse{ParticipantIDs: participants})
}

type recurringParticipantsResponse struct {
	ParticipantIDs []int64 `json:"participant_ids"`
}

func (s *Server) handleListGeneratedDebts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, _, err := s.recurring.GetRecurring(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	debts, err := s.debts.ListGeneratedDebts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}
