package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

// TestClient is an authenticated device user with an open realtime socket.
type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string
}

func NewTestClient(t *testing.T) *TestClient {
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("chat_test_device_%d", time.Now().UnixNano())
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	socket := client.NewSocket()
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	return &TestClient{
		Client:  client,
		Session: session,
		Socket:  socket,
		UserID:  session.UserId,
	}
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// JoinTableChat calls the 'table_chat_join' RPC and joins the returned match ID.
func (tc *TestClient) JoinTableChat(t *testing.T, displayName string) string {
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "table_chat_join", "{}")
	if err != nil {
		t.Fatalf("RPC table_chat_join failed: %v", err)
	}

	var resp struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("RPC table_chat_join returned %q: %v", rpc.Payload, err)
	}

	_, err = tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, map[string]string{"display_name": displayName})
	if err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}

	return resp.MatchID
}

// ListenFor buffers match data with the given opcode. Call it before the
// action that triggers the event; it replaces any previous OnMatchData handler.
func (tc *TestClient) ListenFor(opCode int64) <-chan *rtapi.MatchData {
	ch := make(chan *rtapi.MatchData, 8)
	tc.Socket.OnMatchData = func(data *rtapi.MatchData) {
		if data.OpCode != opCode {
			return
		}
		select {
		case ch <- data:
		default:
		}
	}
	return ch
}

// Await returns the next buffered event or fails the test after timeout.
func Await(t *testing.T, ch <-chan *rtapi.MatchData, timeout time.Duration) *rtapi.MatchData {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(timeout):
		t.Fatalf("Timeout waiting for match data")
		return nil
	}
}
