package domain

// Phase represents the lifecycle stage of a table chat.
type Phase string

const (
	// PhaseLobby is the state where players can take a seat and chat.
	PhaseLobby Phase = "lobby"
	// PhaseClosed is the state after the last player left.
	PhaseClosed Phase = "closed"
)

// GameName is advertised in every match label so clients can filter listings.
const GameName = "tienlen"

// Table holds the seating of a table chat. A seat holds a user ID or "".
type Table struct {
	Phase Phase
	Seats []string
}

// NewTable creates an empty lobby table with the given number of seats.
func NewTable(seats int) *Table {
	if seats <= 0 {
		seats = 1
	}
	return &Table{Phase: PhaseLobby, Seats: make([]string, seats)}
}

// LowestAvailableSeat returns the first free seat index, or -1 if the table is full.
func (t *Table) LowestAvailableSeat() int {
	for i, userID := range t.Seats {
		if userID == "" {
			return i
		}
	}
	return -1
}

// SeatOf returns the seat index held by userID, or -1.
func (t *Table) SeatOf(userID string) int {
	if userID == "" {
		return -1
	}
	for i, seated := range t.Seats {
		if seated == userID {
			return i
		}
	}
	return -1
}

// Sit places userID in the lowest free seat. A user already seated keeps
// their seat. Returns -1 if the table is full.
func (t *Table) Sit(userID string) int {
	if seat := t.SeatOf(userID); seat >= 0 {
		return seat
	}
	seat := t.LowestAvailableSeat()
	if seat >= 0 {
		t.Seats[seat] = userID
	}
	return seat
}

// Leave frees the seat held by userID and returns its index, or -1 if the
// user was not seated. The table closes when its last player leaves.
func (t *Table) Leave(userID string) int {
	seat := t.SeatOf(userID)
	if seat < 0 {
		return -1
	}
	t.Seats[seat] = ""
	if t.Occupied() == 0 {
		t.Phase = PhaseClosed
	}
	return seat
}

// OpenSeats counts empty seats.
func (t *Table) OpenSeats() int {
	return len(t.Seats) - t.Occupied()
}

// Occupied counts taken seats.
func (t *Table) Occupied() int {
	n := 0
	for _, userID := range t.Seats {
		if userID != "" {
			n++
		}
	}
	return n
}

// LabelPayload is the match label advertised to match listings.
type LabelPayload struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	State string `json:"state"`
}

// ComputeLabel derives the advertised label from the table.
func ComputeLabel(t *Table) LabelPayload {
	open := 0
	if t.Phase == PhaseLobby {
		open = t.OpenSeats()
	}
	return LabelPayload{Open: open, Game: GameName, State: string(t.Phase)}
}
