package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swap-history/internal/engine"
	"swap-history/internal/history"
	"swap-history/internal/model"
	"swap-history/internal/pair"
	"swap-history/internal/render"
)

type fixture struct {
	server *Server
	pairs  *pair.Store
	buf    *history.Buffer
	engine *engine.SwapEngine
	bc     *Broadcaster
}

func newFixture(t *testing.T, state pair.State, opts ...render.Options) *fixture {
	t.Helper()
	pairs := pair.NewStore(state)
	buf := history.New(10)
	bc := NewBroadcaster(zap.NewNop())
	eng := engine.NewSwapEngine(make(chan []byte), pairs, buf, zap.NewNop(), bc)
	t.Cleanup(func() { _ = eng.Close() })

	ro := render.Options{Locale: "en", Location: time.UTC}
	if len(opts) > 0 {
		ro = opts[0]
	}
	srv := New(Config{
		Addr:        ":0",
		Logger:      zap.NewNop(),
		Pairs:       pairs,
		History:     buf,
		Renderer:    render.NewRenderer(ro),
		Engine:      eng,
		Broadcaster: bc,
	})
	return &fixture{server: srv, pairs: pairs, buf: buf, engine: eng, bc: bc}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func seed(buf *history.Buffer) {
	buf.Append(
		model.SwapMessage{ChainID: 1, AmountBase: 10, Side: model.SideBuy, Timestamp: 1000, Price: 2.5, TxHash: "0x1", Maker: "0xM"},
		model.SwapMessage{ChainID: 1, AmountBase: 3, Side: model.SideSell, Timestamp: 1001, Price: 2.4, TxHash: "0x2", Maker: "0xM"},
	)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, pair.State{})
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSwaps_ReadyView(t *testing.T) {
	f := newFixture(t, pair.State{Status: pair.StatusReady, Pair: &pair.Pair{Address: "0xabc", Token0: pair.Token{Symbol: "WETH"}}})
	seed(f.buf)

	rec := f.do(t, http.MethodGet, "/api/swaps", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view render.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, pair.StatusReady, view.Status)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "0xM-0x2", view.Rows[0].Key)
	assert.Equal(t, "0xM-0x1", view.Rows[1].Key)

	rec = f.do(t, http.MethodGet, "/api/swaps?limit=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "0xM-0x2", view.Rows[0].Key)

	rec = f.do(t, http.MethodGet, "/api/swaps?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwaps_LimitIgnoresDisplayLimit(t *testing.T) {
	state := pair.State{Status: pair.StatusReady, Pair: &pair.Pair{Address: "0xabc"}}
	f := newFixture(t, state, render.Options{Locale: "en", Location: time.UTC, Limit: 1})
	seed(f.buf)

	var view render.View
	rec := f.do(t, http.MethodGet, "/api/swaps", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rows, 2)

	rec = f.do(t, http.MethodGet, "/api/swaps?limit=0", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rows, 2)

	rec = f.do(t, http.MethodGet, "/api/swaps?limit=200", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rows, 2)

	// 终端视图仍受显示条数限制
	rec = f.do(t, http.MethodGet, "/", "")
	assert.NotContains(t, rec.Body.String(), "$2.50")
	assert.Contains(t, rec.Body.String(), "$2.40")
}

func TestSwaps_LoadingHidesRows(t *testing.T) {
	f := newFixture(t, pair.State{Status: pair.StatusLoading})
	seed(f.buf)

	var view render.View
	rec := f.do(t, http.MethodGet, "/api/swaps", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Loading)
	assert.Empty(t, view.Rows)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, pair.State{})
	seed(f.buf)

	var body struct {
		Capacity int                 `json:"capacity"`
		Total    uint64              `json:"total"`
		Swaps    []model.SwapMessage `json:"swaps"`
	}
	rec := f.do(t, http.MethodGet, "/api/history", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 10, body.Capacity)
	assert.Equal(t, uint64(2), body.Total)
	require.Len(t, body.Swaps, 2)
	assert.Equal(t, "0x1", body.Swaps[0].TxHash)
}

func TestText(t *testing.T) {
	f := newFixture(t, pair.State{Status: pair.StatusInvalid})
	rec := f.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please select a token")
}

func TestPairLifecycle(t *testing.T) {
	f := newFixture(t, pair.State{Status: pair.StatusInvalid})

	rec := f.do(t, http.MethodPut, "/api/pair", `{"address":"0xABC","token0Symbol":"WETH","token1Symbol":"USDC"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st := f.pairs.Get()
	assert.Equal(t, pair.StatusReady, st.Status)
	assert.Equal(t, "0xABC", st.Pair.Address)
	assert.Equal(t, "WETH", st.Token0Symbol())

	rec = f.do(t, http.MethodPut, "/api/pair", `{"status":"loading"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pair.StatusLoading, f.pairs.Get().Status)

	rec = f.do(t, http.MethodPut, "/api/pair", `{"status":"ready"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/pair", `{"status":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/pair", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/pair", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pair.StatusInvalid, f.pairs.Get().Status)

	rec = f.do(t, http.MethodGet, "/api/pair", "")
	assert.JSONEq(t, `{"status":"invalid"}`, rec.Body.String())
}

func TestStats(t *testing.T) {
	f := newFixture(t, pair.State{Status: pair.StatusInvalid})
	_, _ = f.engine.Handle(context.Background(), []byte(`{}`))

	var st engine.Stats
	rec := f.do(t, http.MethodGet, "/api/stats", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, uint64(1), st.Received)
	assert.Equal(t, uint64(1), st.Dropped["pair_unresolved"])
}

func TestWebSocket_BroadcastsAdmittedBatches(t *testing.T) {
	f := newFixture(t, pair.State{Status: pair.StatusReady, Pair: &pair.Pair{Address: "0xabc"}})
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.bc.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	inner := `{"result":{"status":"ok","data":{"chainId":1,"pair":"0xABC","swaps":[{"amountBase":10,"side":"BUY","timestamp":1000,"price":2.5,"txHash":"0x1","maker":"0xM"}]}}}`
	raw, err := json.Marshal(map[string]string{"data": inner})
	require.NoError(t, err)
	_, err = f.engine.Handle(context.Background(), raw)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var batch model.Batch
	require.NoError(t, json.Unmarshal(msg, &batch))
	assert.Equal(t, "0xABC", batch.Pair)
	require.Len(t, batch.Swaps, 1)
	assert.Equal(t, "0x1", batch.Swaps[0].TxHash)

	require.NoError(t, f.bc.Close())
	assert.Zero(t, f.bc.Clients())
}
