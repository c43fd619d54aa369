package rpc

import (
	"errors"
	"net/http"
	"strings"

	"custodian/ledger"
	"custodian/native/common"
	"custodian/native/escrow"
)

type escrowCreateParams struct {
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	Arbiter    string `json:"arbiter,omitempty"`
	Asset      string `json:"asset"`
	Amount     string `json:"amount"`
	UnlockTime int64  `json:"unlockTime,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

type escrowIDParams struct {
	ID string `json:"id"`
}

type escrowActorParams struct {
	ID     string `json:"id"`
	Caller string `json:"caller"`
}

type escrowResolveParams struct {
	ID      string `json:"id"`
	Caller  string `json:"caller"`
	Outcome string `json:"outcome"`
}

type escrowJSON struct {
	ID         string  `json:"id"`
	Sender     string  `json:"sender"`
	Recipient  string  `json:"recipient"`
	Arbiter    *string `json:"arbiter,omitempty"`
	Asset      string  `json:"asset"`
	Amount     string  `json:"amount"`
	UnlockTime int64   `json:"unlockTime,omitempty"`
	CreatedAt  int64   `json:"createdAt"`
	Memo       string  `json:"memo,omitempty"`
	InDispute  bool    `json:"inDispute"`
}

func escrowToJSON(e *escrow.Escrow) escrowJSON {
	out := escrowJSON{
		ID:         formatID(e.ID),
		Sender:     formatAddress(e.Sender),
		Recipient:  formatAddress(e.Recipient),
		Asset:      e.Asset,
		Amount:     e.Amount.String(),
		UnlockTime: e.UnlockTime,
		CreatedAt:  e.CreatedAt,
		Memo:       e.Memo,
		InDispute:  e.InDispute,
	}
	if e.HasArbiter() {
		arbiter := formatAddress(e.Arbiter)
		out.Arbiter = &arbiter
	}
	return out
}

func (s *Server) handleEscrowCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params escrowCreateParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	sender, err := parseAddressParam(params.Sender, "sender")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	recipient, err := parseAddressParam(params.Recipient, "recipient")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	var arbiter *[20]byte
	if strings.TrimSpace(params.Arbiter) != "" {
		parsed, err := parseAddressParam(params.Arbiter, "arbiter")
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
			return
		}
		arbiter = &parsed
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}

	created, err := s.svc.CreateEscrow(sender, recipient, arbiter, params.Asset, amount, params.UnlockTime, params.Memo)
	if err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, escrowToJSON(created))
}

func (s *Server) handleEscrowGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params escrowIDParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseIDParam(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.svc.GetEscrow(id)
	if err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, escrowToJSON(record))
}

func (s *Server) escrowAction(w http.ResponseWriter, req *RPCRequest, action func(id [32]byte, caller [20]byte) error) {
	var params escrowActorParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseIDParam(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := action(id, caller); err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "ok", "id": formatID(id)})
}

func (s *Server) handleEscrowAccept(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.escrowAction(w, req, s.svc.AcceptEscrow)
}

func (s *Server) handleEscrowCancel(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.escrowAction(w, req, s.svc.CancelEscrow)
}

func (s *Server) handleEscrowDispute(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.escrowAction(w, req, s.svc.DisputeEscrow)
}

func (s *Server) handleEscrowResolve(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params escrowResolveParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseIDParam(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddressParam(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	var awardToSender bool
	switch strings.ToLower(strings.TrimSpace(params.Outcome)) {
	case "sender":
		awardToSender = true
	case "recipient":
		awardToSender = false
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", "outcome must be sender or recipient")
		return
	}
	if err := s.svc.ResolveEscrow(id, caller, awardToSender); err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "ok", "id": formatID(id)})
}

func writeCustodyError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	code := codeCustodyInternal
	message := "internal_error"
	switch {
	case errors.Is(err, escrow.ErrNotFound) || errors.Is(err, swapNotFound):
		status = http.StatusNotFound
		code = codeCustodyNotFound
		message = "not_found"
	case errors.Is(err, escrow.ErrNotSender) ||
		errors.Is(err, escrow.ErrNotRecipient) ||
		errors.Is(err, escrow.ErrNotArbiter) ||
		errors.Is(err, escrow.ErrNotParty) ||
		errors.Is(err, swapNotParticipant):
		status = http.StatusForbidden
		code = codeCustodyForbidden
		message = "forbidden"
	case errors.Is(err, common.ErrModulePaused):
		status = http.StatusServiceUnavailable
		code = codeCustodyUnavailable
		message = "module_paused"
	case isCustodyConflict(err):
		status = http.StatusConflict
		code = codeCustodyConflict
		message = "conflict"
	}
	writeError(w, status, id, code, message, err.Error())
}

func isCustodyConflict(err error) bool {
	for _, candidate := range conflictErrors {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

var conflictErrors = []error{
	escrow.ErrInDispute,
	escrow.ErrNotDisputed,
	escrow.ErrNoArbiter,
	escrow.ErrTimeLocked,
	escrow.ErrZeroAmount,
	ledger.ErrInsufficientBalance,
	swapAlreadyDeposited,
	swapNotDeposited,
	swapNotFunded,
	swapExpired,
	swapNotExpired,
	swapAmountMismatch,
	swapZeroAmount,
}
