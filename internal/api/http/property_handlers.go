package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	appAuth "github.com/estate-hub/estate-hub/internal/application/auth"
	appProperty "github.com/estate-hub/estate-hub/internal/application/property"
	domainProperty "github.com/estate-hub/estate-hub/internal/domain/property"
)

type propertyCreateRequest struct {
	Title     string  `json:"title"`
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Price     int64   `json:"price"`
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	p, err := s.propertySvc.Create(r.Context(), actor, appProperty.CreateInput{
		Title:     req.Title,
		Address:   req.Address,
		City:      req.City,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Price:     req.Price,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	var status *domainProperty.Status
	if v := r.URL.Query().Get("status"); v != "" {
		sv := domainProperty.Status(v)
		status = &sv
	}
	var sellerID *uuid.UUID
	if v := r.URL.Query().Get("sellerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sellerId")
			return
		}
		sellerID = &id
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	props, err := s.propertySvc.List(r.Context(), status, sellerID, limit, offset)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"properties": props})
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "propertyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid propertyId")
		return
	}
	p, err := s.propertySvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type propertyUpdateRequest struct {
	Title     *string  `json:"title,omitempty"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Price     *int64   `json:"price,omitempty"`
	Version   int      `json:"version"`
}

func (s *Server) updateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "propertyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid propertyId")
		return
	}
	var req propertyUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	p, err := s.propertySvc.Update(r.Context(), actor, id, appProperty.UpdateInput{
		Title:     req.Title,
		Address:   req.Address,
		City:      req.City,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Price:     req.Price,
		Version:   req.Version,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type versionRequest struct {
	Version int `json:"version"`
}

func (s *Server) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "propertyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid propertyId")
		return
	}
	var req versionRequest
	_ = decodeBody(r, &req)
	actor, _ := actorFromContext(r.Context())
	if err := s.propertySvc.SoftDelete(r.Context(), actor, id, req.Version); err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"propertyId": id, "deleted": true})
}

func (s *Server) submitProperty(w http.ResponseWriter, r *http.Request) {
	s.propertyTransition(w, r, s.propertySvc.SubmitForAssignment)
}

func (s *Server) deactivateProperty(w http.ResponseWriter, r *http.Request) {
	s.propertyTransition(w, r, s.propertySvc.Deactivate)
}

func (s *Server) reactivateProperty(w http.ResponseWriter, r *http.Request) {
	s.propertyTransition(w, r, s.propertySvc.Reactivate)
}

type propertyTransitionFn func(ctx context.Context, actor appAuth.Actor, propertyID uuid.UUID, version int) (*domainProperty.Property, error)

func (s *Server) propertyTransition(w http.ResponseWriter, r *http.Request, fn propertyTransitionFn) {
	id, err := parseUUIDParam(r, "propertyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid propertyId")
		return
	}
	var req versionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	p, err := fn(r.Context(), actor, id, req.Version)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
