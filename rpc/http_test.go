package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"custodian/crypto"
	"custodian/ledger"
	"custodian/storage"
)

const testToken = "test-secret"

type testEnv struct {
	srv    *httptest.Server
	ledger *ledger.Ledger
	svc    *ledger.Service
}

type rpcResult struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	l := ledger.NewLedger(storage.NewMemDB())
	svc := ledger.NewService(l)
	svc.SetNowFunc(func() int64 { return 1_700_000_000 })
	server := NewServer(svc, testToken, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: ts, ledger: l, svc: svc}
}

func (env *testEnv) fund(t *testing.T, addr [20]byte, asset string, amount int64) {
	t.Helper()
	if err := env.ledger.Apply(func() error {
		return env.ledger.AccountCredit(addr, asset, big.NewInt(amount))
	}); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (env *testEnv) call(t *testing.T, authed bool, method string, params interface{}) (*rpcResult, int) {
	t.Helper()
	var rawParams []json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		rawParams = []json.RawMessage{encoded}
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: rawParams, ID: 1})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, env.srv.URL, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out := &rpcResult{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out, resp.StatusCode
}

func bech32Addr(fill byte) string {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = fill
	}
	return crypto.MustNewAddress(crypto.CustodyPrefix, raw).String()
}

func rawAddr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestMutatingMethodsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	res, status := env.call(t, false, "escrow_create", escrowCreateParams{
		Sender:    bech32Addr(0x01),
		Recipient: bech32Addr(0x02),
		Asset:     "GOLD",
		Amount:    "10",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if res.Error == nil || res.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", res.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	env := newTestEnv(t)
	res, status := env.call(t, false, "escrow_burn", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if res.Error == nil || res.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", res.Error)
	}
}

func TestEscrowLifecycleOverRPC(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, rawAddr(0x01), "GOLD", 500)

	res, status := env.call(t, true, "escrow_create", escrowCreateParams{
		Sender:    bech32Addr(0x01),
		Recipient: bech32Addr(0x02),
		Asset:     "gold",
		Amount:    "200",
		Memo:      "invoice 7",
	})
	if status != http.StatusOK || res.Error != nil {
		t.Fatalf("create failed: status %d err %+v", status, res.Error)
	}
	var created escrowJSON
	if err := json.Unmarshal(res.Result, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Asset != "GOLD" || created.Amount != "200" {
		t.Fatalf("unexpected escrow %+v", created)
	}

	res, status = env.call(t, false, "escrow_get", escrowIDParams{ID: created.ID})
	if status != http.StatusOK || res.Error != nil {
		t.Fatalf("get failed: status %d err %+v", status, res.Error)
	}

	res, status = env.call(t, true, "escrow_accept", escrowActorParams{ID: created.ID, Caller: bech32Addr(0x02)})
	if status != http.StatusOK || res.Error != nil {
		t.Fatalf("accept failed: status %d err %+v", status, res.Error)
	}

	// the record is destroyed once released
	res, status = env.call(t, false, "escrow_get", escrowIDParams{ID: created.ID})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after release, got %d", status)
	}
	if res.Error == nil || res.Error.Code != codeCustodyNotFound {
		t.Fatalf("expected not_found, got %+v", res.Error)
	}
}

func TestEscrowWrongCallerIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, rawAddr(0x01), "GOLD", 100)

	res, _ := env.call(t, true, "escrow_create", escrowCreateParams{
		Sender:    bech32Addr(0x01),
		Recipient: bech32Addr(0x02),
		Asset:     "GOLD",
		Amount:    "100",
	})
	if res.Error != nil {
		t.Fatalf("create failed: %+v", res.Error)
	}
	var created escrowJSON
	if err := json.Unmarshal(res.Result, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	res, status := env.call(t, true, "escrow_accept", escrowActorParams{ID: created.ID, Caller: bech32Addr(0x05)})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	if res.Error == nil || res.Error.Code != codeCustodyForbidden {
		t.Fatalf("expected forbidden, got %+v", res.Error)
	}
}

func TestEscrowUnderfundedIsConflict(t *testing.T) {
	env := newTestEnv(t)

	res, status := env.call(t, true, "escrow_create", escrowCreateParams{
		Sender:    bech32Addr(0x01),
		Recipient: bech32Addr(0x02),
		Asset:     "GOLD",
		Amount:    "100",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if res.Error == nil || res.Error.Code != codeCustodyConflict {
		t.Fatalf("expected conflict, got %+v", res.Error)
	}
}

func TestSwapLifecycleOverRPC(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, rawAddr(0x0A), "GOLD", 50)
	env.fund(t, rawAddr(0x0B), "GEM", 100)

	res, _ := env.call(t, true, "swap_create", swapCreateParams{
		PartyA:     bech32Addr(0x0A),
		PartyB:     bech32Addr(0x0B),
		AssetA:     "GOLD",
		AmountA:    "50",
		AssetB:     "GEM",
		AmountB:    "100",
		Expiration: 1_700_000_600,
	})
	if res.Error != nil {
		t.Fatalf("create failed: %+v", res.Error)
	}
	var created swapJSON
	if err := json.Unmarshal(res.Result, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	res, _ = env.call(t, true, "swap_depositA", swapDepositParams{ID: created.ID, Caller: bech32Addr(0x0A), Amount: "50"})
	if res.Error != nil {
		t.Fatalf("deposit a failed: %+v", res.Error)
	}

	res, status := env.call(t, true, "swap_depositB", swapDepositParams{ID: created.ID, Caller: bech32Addr(0x0B), Amount: "90"})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on mismatched amount, got %d", status)
	}

	res, _ = env.call(t, true, "swap_depositB", swapDepositParams{ID: created.ID, Caller: bech32Addr(0x0B), Amount: "100"})
	if res.Error != nil {
		t.Fatalf("deposit b failed: %+v", res.Error)
	}

	res, _ = env.call(t, true, "swap_execute", swapIDParams{ID: created.ID})
	if res.Error != nil {
		t.Fatalf("execute failed: %+v", res.Error)
	}

	res, status = env.call(t, false, "swap_get", swapIDParams{ID: created.ID})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after execution, got %d", status)
	}
	if res.Error == nil || res.Error.Code != codeCustodyNotFound {
		t.Fatalf("expected not_found, got %+v", res.Error)
	}
}

func TestInvalidParamsRejected(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name   string
		method string
		params interface{}
	}{
		{"missing params", "escrow_get", nil},
		{"bad id", "escrow_get", escrowIDParams{ID: "0x1234"}},
		{"bad address", "escrow_create", escrowCreateParams{Sender: "nope", Recipient: bech32Addr(0x02), Asset: "GOLD", Amount: "1"}},
		{"bad amount", "escrow_create", escrowCreateParams{Sender: bech32Addr(0x01), Recipient: bech32Addr(0x02), Asset: "GOLD", Amount: "-5"}},
		{"bad outcome", "escrow_resolve", escrowResolveParams{ID: fmt.Sprintf("0x%064d", 0), Caller: bech32Addr(0x03), Outcome: "split"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, status := env.call(t, true, tc.method, tc.params)
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
			if res.Error == nil || res.Error.Code != codeCustodyInvalidParams {
				t.Fatalf("expected invalid_params, got %+v", res.Error)
			}
		})
	}
}

func TestConfiguredBodyLimitEnforced(t *testing.T) {
	l := ledger.NewLedger(storage.NewMemDB())
	svc := ledger.NewService(l)
	server := NewServer(svc, testToken, nil)
	server.SetMaxRequestBytes(64)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	oversized := bytes.Repeat([]byte("a"), 128)
	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(oversized))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}

	// a request under the configured cap still parses
	small, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: "x", ID: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err = http.Post(ts.URL, "application/json", bytes.NewReader(small))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown method, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
}
