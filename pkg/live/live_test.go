package live

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

func TestCodec_Update(t *testing.T) {
	tests := []struct {
		name   string
		update Update
		frame  MessageType
	}{
		{
			name:   "update",
			update: Update{Seq: 300, Fixture: "card", HTML: "<p>héllo</p>", CSS: "p{color:red;}"},
			frame:  FrameUpdate,
		},
		{
			name:   "error",
			update: Update{Seq: 1, Fixture: "card", Error: "unresolved marker"},
			frame:  FrameError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeUpdate(tt.update)
			if MessageType(data[0]) != tt.frame {
				t.Fatalf("frame type = %d, want %d", data[0], tt.frame)
			}
			got, err := DecodeUpdate(data)
			if err != nil {
				t.Fatalf("DecodeUpdate failed: %v", err)
			}
			if diff := cmp.Diff(tt.update, *got); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_Errors(t *testing.T) {
	if _, err := DecodeUpdate(nil); err == nil {
		t.Error("expected an error for an empty frame")
	}
	if _, err := DecodeUpdate(EncodeControl(ControlHello, 0)); err == nil {
		t.Error("expected an error for a control frame")
	}
	truncated := EncodeUpdate(Update{Fixture: "card", HTML: "<p>x</p>"})
	if _, err := DecodeUpdate(truncated[:len(truncated)-3]); err == nil {
		t.Error("expected an error for a truncated frame")
	}
	if _, _, err := DecodeControl(EncodeUpdate(Update{})); err == nil {
		t.Error("expected an error for an update frame")
	}
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server, fixture string) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if fixture != "" {
		url += "?fixture=" + fixture
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &client{t: t, conn: conn}
	msg, _ := c.control()
	if msg != ControlHello {
		t.Fatalf("expected HELLO, got %q", msg)
	}
	return c
}

func (c *client) read() []byte {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		c.t.Fatalf("read failed: %v", err)
	}
	return data
}

func (c *client) control() (string, uint64) {
	c.t.Helper()
	msg, seq, err := DecodeControl(c.read())
	if err != nil {
		c.t.Fatalf("DecodeControl failed: %v", err)
	}
	return msg, seq
}

func (c *client) update() *Update {
	c.t.Helper()
	u, err := DecodeUpdate(c.read())
	if err != nil {
		c.t.Fatalf("DecodeUpdate failed: %v", err)
	}
	return u
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func TestHub_BroadcastFiltersByFixture(t *testing.T) {
	hub, srv := newTestHub(t)
	all := dial(t, srv, "")
	card := dial(t, srv, "card")

	hub.Broadcast(Update{Fixture: "other", HTML: "<i>o</i>"})
	hub.Broadcast(Update{Fixture: "card", HTML: "<b>c</b>"})

	if u := all.update(); u.Fixture != "other" || u.Seq != 1 {
		t.Errorf("unexpected first update %+v", u)
	}
	if u := all.update(); u.Fixture != "card" || u.Seq != 2 {
		t.Errorf("unexpected second update %+v", u)
	}
	if u := card.update(); u.Fixture != "card" || u.HTML != "<b>c</b>" || u.Seq != 2 {
		t.Errorf("card session got %+v", u)
	}
	if hub.SessionCount() != 2 {
		t.Errorf("SessionCount() = %d", hub.SessionCount())
	}
}

func TestHub_ReplaysLatest(t *testing.T) {
	hub, srv := newTestHub(t)
	hub.Broadcast(Update{Fixture: "card", HTML: "<p>1</p>"})
	hub.Broadcast(Update{Fixture: "card", HTML: "<p>2</p>"})
	hub.Broadcast(Update{Fixture: "card", Error: "broken"})

	c := dial(t, srv, "card")
	u := c.update()
	if u.HTML != "<p>2</p>" || u.Seq != 2 {
		t.Errorf("replayed %+v", u)
	}
	if latest, ok := hub.Latest("card"); !ok || latest.Seq != 2 {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}
}

func TestHub_PublishCoalesces(t *testing.T) {
	hub, srv := newTestHub(t)
	c := dial(t, srv, "")

	hub.Publish(Update{Fixture: "b", HTML: "<p>b1</p>"})
	hub.Publish(Update{Fixture: "a", HTML: "<p>a</p>"})
	hub.Publish(Update{Fixture: "b", HTML: "<p>b2</p>"})
	hub.Flush()
	hub.Flush()

	var got []string
	for i := 0; i < 2; i++ {
		got = append(got, c.update().HTML)
	}
	if diff := cmp.Diff([]string{"<p>a</p>", "<p>b2</p>"}, got); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
}

func TestHub_PingPong(t *testing.T) {
	_, srv := newTestHub(t)
	c := dial(t, srv, "")

	if err := c.conn.WriteMessage(websocket.BinaryMessage, EncodeControl(ControlPing, 0)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if msg, _ := c.control(); msg != ControlPong {
		t.Errorf("expected PONG, got %q", msg)
	}
}

func TestPage(t *testing.T) {
	page := Page("<Card>", "<p>x</p>", "p{color:red;}", "/live?fixture=card")

	for _, want := range []string{
		"<title>&lt;Card&gt;</title>",
		`<div id="htag-root"><p>x</p></div>`,
		`<style id="htag-style">p{color:red;}</style>`,
		`new URL("/live?fixture=card", location.href)`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page should contain %q", want)
		}
	}
}
