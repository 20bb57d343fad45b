package live

// MessageType is the first byte of every frame
type MessageType uint8

const (
	// FrameUpdate carries a re-rendered fixture
	FrameUpdate MessageType = 0x00
	// FrameError carries a fixture that failed to render
	FrameError MessageType = 0x01
	// FrameControl carries HELLO, PING and PONG
	FrameControl MessageType = 0x02
)

// Control messages
const (
	ControlHello = "HELLO"
	ControlPing  = "PING"
	ControlPong  = "PONG"
)

// Update is the rendered state of one fixture. A non-empty Error is sent as
// a FrameError and leaves the previous HTML on screen.
type Update struct {
	Seq     uint64
	Fixture string
	HTML    string
	CSS     string
	Error   string
}
