package nakama

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-common/runtime"
)

// recordingInitializer captures registrations made by InitModule.
type recordingInitializer struct {
	runtime.Initializer

	rpcs    []string
	matches []string
	afterRt []string
	http    map[string]func(http.ResponseWriter, *http.Request)
}

func (r *recordingInitializer) RegisterRpc(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)) error {
	r.rpcs = append(r.rpcs, id)
	return nil
}

func (r *recordingInitializer) RegisterMatch(name string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error)) error {
	r.matches = append(r.matches, name)
	return nil
}

func (r *recordingInitializer) RegisterAfterRt(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out, in *rtapi.Envelope) error) error {
	r.afterRt = append(r.afterRt, id)
	return nil
}

func (r *recordingInitializer) RegisterHttp(pathPattern string, handler func(http.ResponseWriter, *http.Request), methods ...string) error {
	if r.http == nil {
		r.http = make(map[string]func(http.ResponseWriter, *http.Request))
	}
	r.http[pathPattern] = handler
	return nil
}

func TestInitModule_RegistersChatSurface(t *testing.T) {
	initializer := &recordingInitializer{}
	if err := InitModule(context.Background(), noopLogger{}, nil, nil, initializer); err != nil {
		t.Fatalf("InitModule returned error: %v", err)
	}

	if len(initializer.rpcs) != 2 || initializer.rpcs[0] != RpcChatParse || initializer.rpcs[1] != RpcTableChatJoin {
		t.Fatalf("rpcs = %v", initializer.rpcs)
	}
	if len(initializer.matches) != 1 || initializer.matches[0] != MatchNameTableChat {
		t.Fatalf("matches = %v", initializer.matches)
	}
	if len(initializer.afterRt) != 1 || initializer.afterRt[0] != HookChannelMessageSend {
		t.Fatalf("after hooks = %v", initializer.afterRt)
	}

	handler, ok := initializer.http[MetricsPath]
	if !ok {
		t.Fatalf("no handler registered at %s", MetricsPath)
	}
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tienlen_chat_mention_alerts_total") {
		t.Fatalf("metrics body missing chat counters:\n%s", rec.Body.String())
	}
}
