package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/rahul/manuclaw/internal/protocol"
)

type streamEventMsg struct {
	event protocol.Event
}

type streamDoneMsg struct{}

type streamErrMsg struct {
	err error
}

// openStream dials the gateway, sends one message, and feeds the
// phase-tagged reply stream into the channel until the terminal
// marker. One connection per message, exactly like the gateway
// expects one run per inbound message.
func openStream(url, message string) (chan tea.Msg, tea.Cmd) {
	ch := make(chan tea.Msg, 16)

	go func() {
		defer close(ch)

		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			ch <- streamErrMsg{err: err}
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			ch <- streamErrMsg{err: err}
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				ch <- streamErrMsg{err: err}
				return
			}

			event, done := protocol.Decode(string(payload))
			if done {
				ch <- streamDoneMsg{}
				return
			}
			ch <- streamEventMsg{event: event}
		}
	}()

	return ch, waitForStream(ch)
}

// waitForStream delivers the next stream message to the program.
func waitForStream(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
