package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/krazyTry/lpbot/internal/auth"
	"github.com/krazyTry/lpbot/internal/pipeline"
	"github.com/krazyTry/lpbot/internal/privy"
	"github.com/krazyTry/lpbot/internal/store"
)

type verifyRequest struct {
	Pool   string `json:"pool"`
	Amount string `json:"amount"`
}

type positionResponse struct {
	Claims    *privy.Claims `json:"claims"`
	Signature string        `json:"signature"`
	Position  string        `json:"position"`
	Wallet    string        `json:"wallet"`
	Pool      string        `json:"pool"`
	MinBinID  int32         `json:"minBinId"`
	MaxBinID  int32         `json:"maxBinId"`
	AmountX   string        `json:"amountX"`
	AmountY   string        `json:"amountY"`
	Status    string        `json:"status"`
}

type transferResponse struct {
	Claims      *privy.Claims `json:"claims"`
	Signature   string        `json:"signature"`
	Wallet      string        `json:"wallet"`
	Destination string        `json:"destination"`
	Lamports    string        `json:"lamports"`
	Status      string        `json:"status"`
}

type positionsResponse struct {
	Positions []*store.Position `json:"positions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVerify opens a position for the caller. The body is optional.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	creds := auth.CredentialsFromRequest(r)

	body, err := decodeVerifyRequest(r)
	if err != nil {
		// Unauthenticated callers get the auth failure, not the parse error.
		if _, authErr := s.flows.Identify(r.Context(), creds); authErr != nil {
			writeError(w, authErr)
			return
		}
		writeError(w, &pipeline.Error{Kind: pipeline.KindInvalidRequest, Err: err})
		return
	}

	result, err := s.flows.OpenPosition(r.Context(), pipeline.PositionRequest{
		Credentials: creds,
		Pool:        body.Pool,
		Amount:      body.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, positionResponse{
		Claims:    result.Claims,
		Signature: result.Signature.String(),
		Position:  result.Position.String(),
		Wallet:    result.Wallet.String(),
		Pool:      result.Pool.Address.String(),
		MinBinID:  result.Deposit.Range.MinBinId,
		MaxBinID:  result.Deposit.Range.MaxBinId,
		AmountX:   strconv.FormatUint(result.Deposit.TotalXAmount, 10),
		AmountY:   strconv.FormatUint(result.Deposit.TotalYAmount, 10),
		Status:    result.Status,
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	result, err := s.flows.Transfer(r.Context(), auth.CredentialsFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transferResponse{
		Claims:      result.Claims,
		Signature:   result.Signature.String(),
		Wallet:      result.Wallet.String(),
		Destination: result.Destination.String(),
		Lamports:    strconv.FormatUint(result.Lamports, 10),
		Status:      result.Status,
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	creds := auth.CredentialsFromRequest(r)

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		if _, authErr := s.flows.Identify(r.Context(), creds); authErr != nil {
			writeError(w, authErr)
			return
		}
		writeError(w, &pipeline.Error{Kind: pipeline.KindInvalidRequest, Err: err})
		return
	}

	positions, err := s.flows.ListPositions(r.Context(), creds, limit)
	if err != nil {
		if pipeline.KindOf(err) == pipeline.KindInternal {
			s.logger.Error("list positions", zap.Error(err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionsResponse{Positions: positions})
}

func decodeVerifyRequest(r *http.Request) (verifyRequest, error) {
	var req verifyRequest
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return req, err
	}
	if len(raw) > maxBodyBytes {
		return req, errors.New("request body too large")
	}
	if strings.TrimSpace(string(raw)) == "" {
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	return req, nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
