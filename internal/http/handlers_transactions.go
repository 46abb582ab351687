package http

import (
	"net/http"

	"github.com/404Simon/splitify/internal/core"
)

type createTransactionRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := userID(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	tx, err := s.transactions.CreateTransaction(r.Context(), core.Transaction{
		GroupID:     groupID,
		PayerID:     caller,
		RecipientID: req.RecipientID,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.storage.GetGroup(r.Context(), groupID); err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.transactions.ListTransactions(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.transactions.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
