// Copyright © 2025 Attestant Limited.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skeanproxy/skean/core"
)

type reloadRequest struct {
	CertPEM string `json:"cert_pem"`
	KeyPEM  string `json:"key_pem"`
}

type authorityResponse struct {
	Generation uint64 `json:"generation"`
	Subject    string `json:"subject"`
	NotAfter   string `json:"not_after"`
}

type cacheResponse struct {
	Entries int `json:"entries"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (*Service) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Service) handleAuthority(w http.ResponseWriter, _ *http.Request) {
	current := s.authority.Current()
	writeJSON(w, http.StatusOK, &authorityResponse{
		Generation: current.Generation,
		Subject:    current.Certificate.Subject.String(),
		NotAfter:   current.NotAfter.Format(time.RFC3339),
	})
}

func (s *Service) handleCache(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &cacheResponse{Entries: s.cache.Len()})
}

func (s *Service) handleReload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "invalid request body"})
		return
	}
	if req.CertPEM == "" || req.KeyPEM == "" {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "cert_pem and key_pem are required"})
		return
	}

	if err := s.reloader.Reload(r.Context(), []byte(req.CertPEM), []byte(req.KeyPEM)); err != nil {
		resp := &errorResponse{Error: "reload rejected"}
		if core.IsAuthorityError(err) {
			resp.Reason = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	current := s.authority.Current()
	writeJSON(w, http.StatusOK, &authorityResponse{
		Generation: current.Generation,
		Subject:    current.Certificate.Subject.String(),
		NotAfter:   current.NotAfter.Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
