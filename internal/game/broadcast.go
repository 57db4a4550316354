package game

// Broadcaster delivers events to connected clients. It also tracks which
// clients are subscribed to which room; the core tells it when membership
// changes so subscription happens in the same step as the join.
type Broadcaster interface {
	ToRoom(code string, ev Event)
	ToClient(clientID string, ev Event)
	Subscribe(code, clientID string)
	Unsubscribe(code, clientID string)
	CloseRoom(code string)
}

type nopBroadcaster struct{}

func (nopBroadcaster) ToRoom(string, Event)       {}
func (nopBroadcaster) ToClient(string, Event)     {}
func (nopBroadcaster) Subscribe(string, string)   {}
func (nopBroadcaster) Unsubscribe(string, string) {}
func (nopBroadcaster) CloseRoom(string)           {}

type deliveryKind int

const (
	deliverRoom deliveryKind = iota
	deliverClient
	deliverSubscribe
	deliverUnsubscribe
	deliverClose
)

type delivery struct {
	kind     deliveryKind
	clientID string
	event    Event
}

func flush(b Broadcaster, code string, out []delivery) {
	for _, d := range out {
		switch d.kind {
		case deliverRoom:
			b.ToRoom(code, d.event)
		case deliverClient:
			if d.clientID != "" {
				b.ToClient(d.clientID, d.event)
			}
		case deliverSubscribe:
			if d.clientID != "" {
				b.Subscribe(code, d.clientID)
			}
		case deliverUnsubscribe:
			if d.clientID != "" {
				b.Unsubscribe(code, d.clientID)
			}
		case deliverClose:
			b.CloseRoom(code)
		}
	}
}
