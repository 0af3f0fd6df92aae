package httpapi

import (
	"net/http"

	appAuth "github.com/estate-hub/estate-hub/internal/application/auth"
	domainUser "github.com/estate-hub/estate-hub/internal/domain/user"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// do not leak which part of the credential failed
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid username or password")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type registerRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	var actor *appAuth.Actor
	if token := extractToken(r); token != "" {
		if a, err := s.authSvc.Authenticate(r.Context(), token); err == nil {
			actor = &a
		}
	}
	u, err := s.authSvc.Register(r.Context(), actor, appAuth.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     domainUser.Role(req.Role),
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	u, err := s.authSvc.GetUser(r.Context(), actor.UserID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var role *domainUser.Role
	if v := r.URL.Query().Get("role"); v != "" {
		rv := domainUser.Role(v)
		role = &rv
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	users, err := s.authSvc.ListUsers(r.Context(), actor, role, limit, offset)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	u, err := s.authSvc.GetUser(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) setUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	u, err := s.authSvc.SetUserStatus(r.Context(), actor, id, domainUser.Status(req.Status))
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
