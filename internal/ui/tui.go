package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUIDisplay renders the feed and peer roster using tview.
type TUIDisplay struct {
	app      *tview.Application
	messages *tview.TextView
	input    *tview.InputField
	peers    *tview.List
	send     func(string)
	once     sync.Once
}

// NewTUIDisplay builds the full-screen layout. Lines typed into the input
// field go to send, so the same command syntax works in CLI and TUI mode.
func NewTUIDisplay(send func(string)) *TUIDisplay {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(false).
		SetScrollable(true)
	messages.SetBorder(true).SetTitle("Feed")

	peers := tview.NewList()
	peers.SetBorder(true).SetTitle("Peers")

	input := tview.NewInputField().
		SetLabel("> ").
		SetFieldTextColor(tcell.ColorWhite)

	td := &TUIDisplay{
		app:      tview.NewApplication(),
		messages: messages,
		input:    input,
		peers:    peers,
		send:     send,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			text := strings.TrimSpace(input.GetText())
			if text != "" {
				go td.send(text)
			}
			input.SetText("")
		}
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 5, false).
		AddItem(peers, 10, 1, false).
		AddItem(input, 3, 1, true)

	td.app.SetRoot(layout, true).EnableMouse(true)
	return td
}

func (t *TUIDisplay) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		t.once.Do(func() {
			t.app.Stop()
		})
	}()
	return t.app.Run()
}

func (t *TUIDisplay) ShowMessage(msg Message) {
	ts := msg.Timestamp.Format("15:04:05")
	label := ""
	switch {
	case msg.Scope == "dm":
		label = " [DM]"
	case strings.HasPrefix(msg.Scope, "group:"):
		label = fmt.Sprintf(" [%s]", strings.TrimPrefix(msg.Scope, "group:"))
	case strings.HasPrefix(msg.Scope, "game:"):
		label = fmt.Sprintf(" [%s]", strings.TrimPrefix(msg.Scope, "game:"))
	}
	content := fmt.Sprintf("[yellow][%s][-] [lightgreen]%s%s[-]: %s\n", ts, msg.From, label, msg.Content)
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.messages, content)
	})
}

func (t *TUIDisplay) ShowSystem(text string) {
	content := fmt.Sprintf("[green]>>> %s[-]\n", text)
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.messages, content)
	})
}

func (t *TUIDisplay) UpdatePeers(peers []Presence) {
	t.app.QueueUpdateDraw(func() {
		t.peers.Clear()
		for _, p := range peers {
			label := p.DisplayName
			if label == "" {
				label = p.UserID
			}
			status := "offline"
			if p.Online {
				status = "online"
			}
			t.peers.AddItem(fmt.Sprintf("%s (%s)", label, status), p.Addr, 0, nil)
		}
	})
}

func (t *TUIDisplay) ShowNotification(n Notification) {
	content := fmt.Sprintf("[orange]** %s [-] %s\n", strings.ToUpper(n.Level), n.Text)
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.messages, content)
	})
}
