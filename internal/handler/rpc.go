package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/osse101/playerledger/internal/auth"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/logger"
	"github.com/osse101/playerledger/internal/rpc"
)

// HandleRPC serves POST /v2/rpc/{id}. The caller's account comes from the session
// the auth middleware attached; the payload never names it. Without ?unwrap the
// body is a JSON string holding the payload.
func HandleRPC(d *rpc.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		id := chi.URLParam(r, "id")

		session, ok := auth.SessionFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, ErrMsgMissingSession)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if _, unwrap := r.URL.Query()[rpc.QueryUnwrap]; !unwrap {
			if payload, err = unwrapPayload(payload); err != nil {
				respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
				return
			}
		}

		resp, err := d.Dispatch(r.Context(), id, session.AccountID, payload)
		if err != nil {
			if errors.Is(err, rpc.ErrUnknownRPC) {
				respondError(w, http.StatusNotFound, ErrMsgUnknownRPC)
				return
			}
			log.Warn(LogMsgRPCFailed, "rpc", id, "account_id", session.AccountID, "kind", domain.KindOf(err).String(), "error", err)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// unwrapPayload decodes a string-wrapped payload. An empty body stays empty.
func unwrapPayload(body []byte) ([]byte, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	var inner string
	if err := json.Unmarshal(body, &inner); err != nil {
		return nil, err
	}
	return []byte(inner), nil
}

// HandleAuthenticate serves POST /v2/account/authenticate.
func HandleAuthenticate(issuer *auth.Issuer) http.HandlerFunc {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req rpc.AuthenticateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestSummary)
			return
		}

		session, err := issuer.Authenticate(req.APIKey, req.AccountID)
		if err != nil {
			log.Warn(LogMsgAuthenticateRejected, "account_id", req.AccountID, "error", err)
			if errors.Is(err, auth.ErrInvalidAPIKey) {
				respondError(w, http.StatusUnauthorized, ErrMsgAuthFailedError)
				return
			}
			respondError(w, http.StatusInternalServerError, ErrMsgAuthenticateFailed)
			return
		}

		log.Info(LogMsgSessionIssued, "account_id", session.AccountID, "expires_at", session.ExpiresAt.Format(time.RFC3339))
		respondJSON(w, http.StatusOK, rpc.AuthenticateResponse{
			Token:     session.Token,
			AccountID: session.AccountID,
			ExpiresAt: session.ExpiresAt.Unix(),
		})
	}
}
