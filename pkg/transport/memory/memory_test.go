package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport"
)

func recvMessage(t *testing.T, ch <-chan transport.Message) transport.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("message channel closed unexpectedly")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return transport.Message{}
	}
}

func acceptConn(t *testing.T, srv *Server) transport.Connection {
	t.Helper()
	select {
	case conn, ok := <-srv.Connections():
		if !ok {
			t.Fatal("connection stream closed unexpectedly")
		}
		return conn
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func TestConnectSurfacesConnection(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	conn := acceptConn(t, srv)
	if conn.ClientID() == "" {
		t.Error("expected non-empty client ID")
	}
}

func TestStatesReachConnected(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	states, err := client.States(context.Background())
	if err != nil {
		t.Fatalf("States failed: %v", err)
	}

	// The current state arrives first; by the time Connect returns it is
	// already CONNECTED.
	select {
	case state := <-states:
		if state != transport.StateConnected {
			t.Errorf("state: got %v, want %v", state, transport.StateConnected)
		}
	case <-time.After(time.Second):
		t.Fatal("no state received")
	}
}

func TestClientToServerDelivery(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := acceptConn(t, srv)

	msgs, err := conn.Transport().Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := client.Publish(transport.Message{ID: "1", Type: "command", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got := recvMessage(t, msgs)
	if got.ID != "1" || got.Type != "command" {
		t.Errorf("received %+v", got)
	}
}

func TestPublishBeforeServerSubscribes(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// Sent the instant the connection is up, before the server side has
	// accepted the connection or attached a reader.
	if err := client.Publish(transport.Message{ID: "first", Type: "command", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	conn := acceptConn(t, srv)
	msgs, err := conn.Transport().Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if got := recvMessage(t, msgs); got.ID != "first" {
		t.Errorf("received %+v, want the pre-subscribe message", got)
	}
}

func TestServerToClientDelivery(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := acceptConn(t, srv)

	msgs, err := client.Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := conn.Transport().Publish(transport.Message{ID: "2", Type: "event"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if got := recvMessage(t, msgs); got.ID != "2" {
		t.Errorf("received %+v", got)
	}
}

func TestOrderPreservedPerProducer(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := acceptConn(t, srv)

	msgs, err := conn.Transport().Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	const n = 100
	for i := 0; i < n; i++ {
		if err := client.Publish(transport.Message{ID: fmt.Sprintf("%d", i)}); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}

	for i := 0; i < n; i++ {
		if got := recvMessage(t, msgs); got.ID != fmt.Sprintf("%d", i) {
			t.Fatalf("message %d: got ID %q", i, got.ID)
		}
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	var subs []<-chan transport.Message
	for i := 0; i < 3; i++ {
		client, err := srv.Connect()
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		acceptConn(t, srv)

		msgs, err := client.Subscribe(context.Background(), nil)
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		subs = append(subs, msgs)
	}

	if err := srv.Broadcast(transport.Message{ID: "b", Type: "event"}); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	for i, msgs := range subs {
		if got := recvMessage(t, msgs); got.ID != "b" {
			t.Errorf("client %d: got %+v", i, got)
		}
	}
}

func TestCloseDisconnectsClient(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	acceptConn(t, srv)

	states, err := client.States(context.Background())
	if err != nil {
		t.Fatalf("States failed: %v", err)
	}
	<-states // CONNECTED

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case state := <-states:
		if state != transport.StateDisconnected {
			t.Errorf("state after close: got %v", state)
		}
	case <-time.After(time.Second):
		t.Fatal("no disconnect state received")
	}

	if err := client.Publish(transport.Message{ID: "late"}); !errors.Is(err, transport.ErrNotConnected) {
		t.Errorf("publish after close: got %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionEndsOnDisconnect(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := acceptConn(t, srv)

	msgs, err := client.Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Closing the server side disconnects both ends.
	conn.Transport().Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription not ended after disconnect")
		}
	}
}

func TestServerClose(t *testing.T) {
	srv := NewServer()

	client, err := srv.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	acceptConn(t, srv)

	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := client.Publish(transport.Message{ID: "late"}); !errors.Is(err, transport.ErrNotConnected) {
		t.Errorf("publish after server close: got %v, want ErrNotConnected", err)
	}
	if _, err := srv.Connect(); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("connect after close: got %v, want ErrClosed", err)
	}

	select {
	case _, ok := <-srv.Connections():
		if ok {
			t.Error("expected connection stream to close")
		}
	case <-time.After(time.Second):
		t.Error("connection stream not closed")
	}
}
