package http

import (
	"net/http"
	"strings"
)

type createUserRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "username is required"})
		return
	}

	user, err := s.storage.CreateUser(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	caller, ok := userID(w, r)
	if !ok {
		return
	}
	var req createGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "group name is required"})
		return
	}

	group, err := s.storage.CreateGroup(r.Context(), name, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	group, err := s.storage.GetGroup(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

type addMemberRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleAddGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "user_id is required"})
		return
	}

	// Both sides must exist; membership insert is idempotent.
	if _, err := s.storage.GetGroup(r.Context(), groupID); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.storage.GetUser(r.Context(), req.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.storage.AddGroupMember(r.Context(), groupID, req.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.storage.GetGroup(r.Context(), groupID); err != nil {
		writeError(w, r, err)
		return
	}
	members, err := s.storage.ListGroupMembers(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}
