package nakama

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"tienlenchat/internal/app"
	"tienlenchat/internal/config"
	"tienlenchat/internal/domain"
	"tienlenchat/internal/metrics"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Join metadata key clients use to announce the name shown at the table.
const joinMetadataDisplayName = "display_name"

// joinReservationTicks is how long an accepted join attempt holds a seat
// before MatchJoin arrives (10s at the table chat tick rate).
const joinReservationTicks = 50

// pendingJoin is a seat held between MatchJoinAttempt and MatchJoin.
type pendingJoin struct {
	Username    string
	DisplayName string
	Tick        int64
}

// MatchState holds the authoritative runtime state for the table chat match handler.
type MatchState struct {
	Table        *domain.Table               `json:"table"`
	Tick         int64                       `json:"tick"`
	Presences    map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	Participants map[string]app.Participant  `json:"-"` // Map UserId -> chat identity
	Pending      map[string]pendingJoin      `json:"-"` // Seats held by accepted join attempts, consumed by MatchJoin
	Chat         *app.Service                `json:"-"`
}

// roster returns seated participants in seat order.
func (ms *MatchState) roster() []app.Participant {
	out := make([]app.Participant, 0, ms.Table.Occupied())
	for _, userID := range ms.Table.Seats {
		if p, ok := ms.Participants[userID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return newMatchHandler(), nil
}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing table chat.")

	if err := config.LoadChatConfig(ChatConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load chat config, using defaults: %v", err)
	}
	cfg := runtimeChatConfig(ctx, logger)

	state := &MatchState{
		Table:        domain.NewTable(cfg.MaxRosterSize),
		Tick:         time.Now().Unix(),
		Presences:    make(map[string]runtime.Presence),
		Participants: make(map[string]app.Participant),
		Pending:      make(map[string]pendingJoin),
		Chat:         app.NewService(cfg, nil, nil, metrics.Default()),
	}

	label, err := marshalLabel(state.Table)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 5 // chat wants snappier delivery than the 1 Hz game loop
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	displayName := metadata[joinMetadataDisplayName]

	// Reconnecting players keep their seat.
	if matchState.Table.SeatOf(userID) < 0 {
		if matchState.Table.OpenSeats()-matchState.heldSeats(userID) <= 0 {
			return state, false, "Table full"
		}
	}

	if matchState.nameTaken(userID, presence.GetUsername(), displayName) {
		return state, false, "Display name taken"
	}

	matchState.Pending[userID] = pendingJoin{Username: presence.GetUsername(), DisplayName: displayName, Tick: tick}
	return state, true, ""
}

// heldSeats counts seats reserved by other users' pending joins.
func (ms *MatchState) heldSeats(userID string) int {
	held := 0
	for id := range ms.Pending {
		if id != userID && ms.Table.SeatOf(id) < 0 {
			held++
		}
	}
	return held
}

// nameTaken reports whether any name the joining user answers to collides,
// ignoring case, with a name another seated or pending player answers to.
// Mentions resolve by name, so a collision would route alerts to the wrong player.
func (ms *MatchState) nameTaken(userID, username, displayName string) bool {
	var taken []string
	for id, p := range ms.Participants {
		if id != userID {
			taken = append(taken, p.Username, p.DisplayName)
		}
	}
	for id, p := range ms.Pending {
		if id != userID {
			taken = append(taken, p.Username, p.DisplayName)
		}
	}
	for _, name := range taken {
		if name == "" {
			continue
		}
		if strings.EqualFold(name, username) || (displayName != "" && strings.EqualFold(name, displayName)) {
			return true
		}
	}
	return false
}

// expireReservations frees seats held by join attempts that never completed.
func (ms *MatchState) expireReservations(tick int64, logger runtime.Logger) {
	for userID, p := range ms.Pending {
		if tick-p.Tick > joinReservationTicks {
			delete(ms.Pending, userID)
			logger.Debug("MatchLoop: Join reservation for %s expired.", userID)
		}
	}
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		pending := matchState.Pending[userID]
		delete(matchState.Pending, userID)

		seat := matchState.Table.Sit(userID)
		if seat < 0 {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", userID)
			continue
		}

		displayName := pending.DisplayName
		if prev, ok := matchState.Participants[userID]; ok && displayName == "" {
			displayName = prev.DisplayName
		}
		matchState.Presences[userID] = p
		matchState.Participants[userID] = app.Participant{
			UserID:      userID,
			Username:    p.GetUsername(),
			DisplayName: displayName,
		}
		logger.Debug("MatchJoin: User %s took seat %d.", userID, seat)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastRoster(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)
		delete(matchState.Participants, userID)
		delete(matchState.Pending, userID)

		if seat := matchState.Table.Leave(userID); seat >= 0 {
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
		}
	}

	if matchState.Table.Phase == domain.PhaseClosed {
		logger.Info("MatchLeave: Terminating empty table chat.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastRoster(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick
	matchState.expireReservations(tick, logger)

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpChatSend:
			mh.handleChatSend(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	return matchState
}

func (mh *matchHandler) handleChatSend(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	sender, ok := state.Participants[senderID]
	if !ok {
		logger.Warn("handleChatSend: Message from unseated user %s ignored.", senderID)
		return
	}

	data := msg.GetData()
	if !utf8.Valid(data) {
		logger.Warn("handleChatSend: User %s sent invalid UTF-8 (%d bytes).", senderID, len(data))
		mh.sendError(state, dispatcher, logger, senderID, 400, "message is not valid UTF-8")
		return
	}

	_, events, err := state.Chat.Compose(sender, string(data), state.roster())
	if err != nil {
		code := 400
		if errors.Is(err, app.ErrMessageTooLong) {
			code = 413
		}
		logger.Debug("handleChatSend: Rejected message from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, code, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var bytes []byte
	var err error

	switch ev.Kind {
	case app.EventChatMessage:
		opCode = OpChatMessage
		p, ok := ev.Payload.(app.ChatMessagePayload)
		if !ok || p.Message == nil {
			logger.Error("Event %v has unexpected payload %T", ev.Kind, ev.Payload)
			return
		}
		bytes, err = marshalStruct(chatMessageToProto(p.Message))
	case app.EventMentionAlert:
		opCode = OpMentionAlert
		p, ok := ev.Payload.(app.MentionAlertPayload)
		if !ok {
			logger.Error("Event %v has unexpected payload %T", ev.Kind, ev.Payload)
			return
		}
		bytes, err = marshalStruct(mentionAlertToProto(p))
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Targeted events whose recipients are gone must not fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

func (mh *matchHandler) broadcastRoster(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	bytes, err := marshalStruct(rosterToProto(state.Table, state.Participants))
	if err != nil {
		logger.Error("Failed to marshal roster: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpRoster, bytes, nil, nil, true); err != nil {
		logger.Error("Failed to broadcast roster: %v", err)
	}
}

// sendError sends a chat error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := marshalStruct(chatErrorToProto(code, message))
	if err != nil {
		logger.Error("Failed to marshal chat error: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(OpChatError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send chat error to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := marshalLabel(state.Table)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Table chat terminated with %d seconds grace.", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

var _ runtime.Match = (*matchHandler)(nil)
