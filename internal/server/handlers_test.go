package server

import (
	"bytes"
	"drawroom/internal/config"
	"drawroom/internal/mocks"
	"drawroom/internal/store"
	"drawroom/internal/wshub"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testConfig() config.Config {
	return config.Config{
		Port:           "0",
		PoolSize:       75,
		AllowedOrigins: []string{"*"},
		MaxMessageSize: 512,
		SendBuffer:     128,
		PersistBuffer:  256,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	return serve(t, store.NewMemoryStore())
}

func serve(t *testing.T, st store.Store) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(testConfig(), st, nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v), "decoding response")
}

func TestHandleCreateRoom_WithCode(t *testing.T) {
	srv, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/create-room", `{"code":"bingo1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "BINGO1", body["code"])

	_, err := srv.Store.FindRoom("BINGO1")
	assert.NoError(t, err, "room not persisted")
}

func TestHandleCreateRoom_GeneratesCode(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/create-room", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Regexp(t, `^[A-Z2-9]{6}$`, body["code"])
	assert.True(t, wshub.ValidRoomCode(body["code"]))
}

func TestHandleCreateRoom_Duplicate(t *testing.T) {
	_, ts := newTestServer(t)

	postJSON(t, ts.URL+"/create-room", `{"code":"BINGO1"}`)
	resp := postJSON(t, ts.URL+"/create-room", `{"code":"BINGO1"}`)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandleCreateRoom_InvalidBody(t *testing.T) {
	_, ts := newTestServer(t)

	for _, body := range []string{`{"code":`, `{"code":"AB"}`, `{"code":"not-alnum!"}`, `{"code":"SALA-1"}`} {
		resp := postJSON(t, ts.URL+"/create-room", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

// Every code the HTTP surface rejects is also refused by join-room over
// the websocket, and the other way round.
func TestRoomCodeRuleMatchesWebsocket(t *testing.T) {
	_, ts := newTestServer(t)

	for _, code := range []string{"BINGO1", "abcd", "SALA-1", "AB", "ROOM 1", "A1B2C3D4E5F6G"} {
		resp := postJSON(t, ts.URL+"/create-room", `{"code":"`+code+`"}`)
		httpOK := resp.StatusCode == http.StatusOK

		_, err := wshub.ParseCommand([]byte(`{"event":"join-room","data":"` + code + `"}`))
		assert.Equal(t, httpOK, err == nil, "code %q: http status %d, websocket error %v", code, resp.StatusCode, err)
	}
}

func TestHandleCreateRoom_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().CreateRoom("BINGO1").Return(nil, errors.New("connection refused"))
	_, ts := serve(t, st)

	resp := postJSON(t, ts.URL+"/create-room", `{"code":"BINGO1"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandleJoinRoom_Valid(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Store.CreateRoom("BINGO1")

	resp := postJSON(t, ts.URL+"/join-room", `{"roomCode":"bingo1","username":"alice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body joinRoomResponse
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.ParticipantID)

	participants, err := srv.Store.Participants("BINGO1")
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "alice", participants[0].Username)
	assert.Equal(t, body.ParticipantID, participants[0].ID)
}

func TestHandleJoinRoom_UnknownRoom(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/join-room", `{"roomCode":"NOPE42","username":"alice"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleJoinRoom_BadRequest(t *testing.T) {
	_, ts := newTestServer(t)

	for _, body := range []string{
		`{"roomCode":"BINGO1"}`,
		`{"username":"alice"}`,
		`{"roomCode":"SALA-1","username":"alice"}`,
	} {
		resp := postJSON(t, ts.URL+"/join-room", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestHandleGetRoom(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Store.CreateRoom("BINGO1")

	resp := get(t, ts.URL+"/room/bingo1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "BINGO1", body["code"])
	require.Contains(t, body, "drawnNumber")
	assert.Nil(t, body["drawnNumber"])
	assert.Equal(t, float64(75), body["remaining"])
	assert.Equal(t, []any{}, body["drawnNumbers"])
	assert.Equal(t, []any{}, body["participants"])
}

func TestHandleGetRoom_DoesNotCreateDrawHistory(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Store.CreateRoom("BINGO1")

	resp := get(t, ts.URL+"/room/BINGO1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	get(t, ts.URL+"/room/NOPE42")

	assert.False(t, srv.History.Known("BINGO1"))
	assert.False(t, srv.History.Known("NOPE42"))
}

func TestHandleGetRoom_ListsParticipants(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Store.CreateRoom("BINGO1")
	postJSON(t, ts.URL+"/join-room", `{"roomCode":"BINGO1","username":"alice"}`)
	postJSON(t, ts.URL+"/join-room", `{"roomCode":"BINGO1","username":"bob"}`)

	resp := get(t, ts.URL+"/room/BINGO1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body roomResponse
	decodeBody(t, resp, &body)
	names := []string{}
	for _, p := range body.Participants {
		assert.Equal(t, "BINGO1", p.RoomCode)
		names = append(names, p.Username)
	}
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestHandleGetRoom_ParticipantsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().FindRoom("BINGO1").Return(&store.Room{Code: "BINGO1"}, nil)
	st.EXPECT().Participants("BINGO1").Return(nil, errors.New("connection reset"))
	_, ts := serve(t, st)

	resp := get(t, ts.URL+"/room/BINGO1")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandleGetRoom_ReflectsLatestDraw(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Store.CreateRoom("BINGO1")
	srv.Store.UpdateLastDrawn("BINGO1", 5)

	n, err := srv.Coordinator.Draw("BINGO1")
	require.NoError(t, err)

	resp := get(t, ts.URL+"/room/BINGO1")
	var body roomResponse
	decodeBody(t, resp, &body)

	require.NotNil(t, body.DrawnNumber)
	assert.Equal(t, n, *body.DrawnNumber)
	assert.Equal(t, []int{n}, body.DrawnNumbers)
	assert.Equal(t, 74, body.Remaining)
}

func TestHandleGetRoom_NotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts.URL+"/room/NOPE42")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleHealth_StoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Ping().Return(errors.New("dial tcp: connection refused"))
	_, ts := serve(t, st)

	resp := get(t, ts.URL+"/health")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "db_error", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/create-room", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
