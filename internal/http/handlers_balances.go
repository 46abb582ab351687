package http

import (
	"net/http"

	"github.com/404Simon/splitify/internal/ledger"
)

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	report, err := s.balances.GroupBalances(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type settleResponse struct {
	GroupID   int64             `json:"group_id"`
	Transfers []ledger.Transfer `json:"transfers"`
}

func (s *Server) handleSettleUp(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	transfers, err := s.balances.SettleUp(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settleResponse{GroupID: groupID, Transfers: transfers})
}
