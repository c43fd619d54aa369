package rpc

import (
	"net/http"

	"custodian/native/swap"
)

// Aliased so the shared error mapping can name both modules' sentinels
// without clashing import identifiers.
var (
	swapNotFound         = swap.ErrNotFound
	swapNotParticipant   = swap.ErrNotParticipant
	swapAlreadyDeposited = swap.ErrAlreadyDeposited
	swapNotDeposited     = swap.ErrNotDeposited
	swapNotFunded        = swap.ErrNotFunded
	swapExpired          = swap.ErrExpired
	swapNotExpired       = swap.ErrNotExpired
	swapAmountMismatch   = swap.ErrAmountMismatch
	swapZeroAmount       = swap.ErrZeroAmount
)

type swapCreateParams struct {
	PartyA     string `json:"partyA"`
	PartyB     string `json:"partyB"`
	AssetA     string `json:"assetA"`
	AmountA    string `json:"amountA"`
	AssetB     string `json:"assetB"`
	AmountB    string `json:"amountB"`
	Expiration int64  `json:"expiration"`
}

type swapIDParams struct {
	ID string `json:"id"`
}

type swapDepositParams struct {
	ID     string `json:"id"`
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type swapActorParams struct {
	ID     string `json:"id"`
	Caller string `json:"caller"`
}

type swapJSON struct {
	ID         string `json:"id"`
	PartyA     string `json:"partyA"`
	PartyB     string `json:"partyB"`
	AssetA     string `json:"assetA"`
	AmountA    string `json:"amountA"`
	AssetB     string `json:"assetB"`
	AmountB    string `json:"amountB"`
	DepositedA bool   `json:"depositedA"`
	DepositedB bool   `json:"depositedB"`
	Expiration int64  `json:"expiration"`
	CreatedAt  int64  `json:"createdAt"`
}

func swapToJSON(s *swap.Swap) swapJSON {
	return swapJSON{
		ID:         formatID(s.ID),
		PartyA:     formatAddress(s.PartyA),
		PartyB:     formatAddress(s.PartyB),
		AssetA:     s.AssetA,
		AmountA:    s.AmountA.String(),
		AssetB:     s.AssetB,
		AmountB:    s.AmountB.String(),
		DepositedA: s.DepositedA,
		DepositedB: s.DepositedB,
		Expiration: s.Expiration,
		CreatedAt:  s.CreatedAt,
	}
}

func (s *Server) handleSwapCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params swapCreateParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	partyA, err := parseAddressParam(params.PartyA, "partyA")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	partyB, err := parseAddressParam(params.PartyB, "partyB")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	amountA, err := parsePositiveBigInt(params.AmountA)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	amountB, err := parsePositiveBigInt(params.AmountB)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}

	created, err := s.svc.CreateSwap(partyA, partyB, params.AssetA, amountA, params.AssetB, amountB, params.Expiration)
	if err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, swapToJSON(created))
}

func (s *Server) handleSwapGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params swapIDParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseIDParam(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.svc.GetSwap(id)
	if err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, swapToJSON(record))
}

func (s *Server) swapDeposit(w http.ResponseWriter, req *RPCRequest, side string) {
	var params swapDepositParams
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
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	if side == "a" {
		err = s.svc.DepositSwapA(id, caller, amount)
	} else {
		err = s.svc.DepositSwapB(id, caller, amount)
	}
	if err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "ok", "id": formatID(id)})
}

func (s *Server) handleSwapDepositA(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.swapDeposit(w, req, "a")
}

func (s *Server) handleSwapDepositB(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.swapDeposit(w, req, "b")
}

func (s *Server) handleSwapExecute(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params swapIDParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseIDParam(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeCustodyInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.svc.ExecuteSwap(id); err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "ok", "id": formatID(id)})
}

func (s *Server) handleSwapReclaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params swapActorParams
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
	if err := s.svc.ReclaimSwap(id, caller); err != nil {
		writeCustodyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "ok", "id": formatID(id)})
}
