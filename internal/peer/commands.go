package peer

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lansocial/internal/router"
)

const helpText = `commands:
  <text>                          publish a post
  /dm <user> <text>               direct message
  /profile <name> [status]        announce display name and status
  /follow <user>  /unfollow <user>
  /like <post-id>  /unlike <post-id>
  /group create <id> <name> <members,csv>
  /group add <id> <members,csv>   /group remove <id> <members,csv>
  /group send <id> <text>
  /invite <user> [X|O]            start tic tac toe
  /move <game-id> <1-9>           play a move
  /games /peers /feed /list /stats /quit`

// readInput feeds stdin lines into the command handler until EOF or shutdown.
func (a *App) readInput(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-a.ctx.Done():
			return
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a.handleLine(line)
	}
}

// handleLine executes one command line. Bare text publishes a post, so the
// common action needs no syntax at all.
func (a *App) handleLine(line string) {
	if !strings.HasPrefix(line, "/") {
		if _, err := a.Router.PublishPost(line); err != nil {
			a.sink.ShowSystem(fmt.Sprintf("post failed: %v", err))
		}
		return
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	var err error
	switch cmd {
	case "/dm":
		to, text, ok := strings.Cut(rest, " ")
		if !ok {
			err = fmt.Errorf("usage: /dm <user> <text>")
			break
		}
		err = a.Router.SendDirect(to, strings.TrimSpace(text))
	case "/profile":
		name, status, _ := strings.Cut(rest, " ")
		if name == "" {
			err = fmt.Errorf("usage: /profile <name> [status]")
			break
		}
		var avatar *router.Avatar
		if avatar, err = loadAvatar(a.Cfg.AvatarPath); err != nil {
			break
		}
		err = a.Router.UpdateProfile(name, strings.TrimSpace(status), avatar)
	case "/follow":
		err = a.Router.Follow(rest)
	case "/unfollow":
		err = a.Router.Unfollow(rest)
	case "/like":
		err = a.Router.Like(rest)
	case "/unlike":
		err = a.Router.Unlike(rest)
	case "/group":
		err = a.handleGroupCommand(rest)
	case "/invite":
		opponent, symbol, _ := strings.Cut(rest, " ")
		if opponent == "" {
			err = fmt.Errorf("usage: /invite <user> [X|O]")
			break
		}
		s, inviteErr := a.Router.StartGame(opponent, strings.ToUpper(strings.TrimSpace(symbol)))
		if inviteErr != nil {
			err = inviteErr
			break
		}
		a.sink.ShowSystem(fmt.Sprintf("game %s started against %s", s.ID, s.Opponent(a.Self)))
	case "/move":
		gameID, posStr, ok := strings.Cut(rest, " ")
		if !ok {
			err = fmt.Errorf("usage: /move <game-id> <1-9>")
			break
		}
		pos, convErr := strconv.Atoi(strings.TrimSpace(posStr))
		if convErr != nil {
			err = fmt.Errorf("position must be 1-9")
			break
		}
		s, moveErr := a.Router.PlayMove(gameID, pos)
		if moveErr != nil {
			err = moveErr
			break
		}
		a.sink.ShowSystem(renderBoard(s.Board()))
	case "/games":
		sessions := a.Router.Games().Active()
		if len(sessions) == 0 {
			a.sink.ShowSystem("no active games")
			break
		}
		for _, s := range sessions {
			a.sink.ShowSystem(fmt.Sprintf("%s: %s vs %s, %s to move", s.ID, s.PlayerX, s.PlayerO, s.Turn))
		}
	case "/peers":
		a.sink.UpdatePeers(a.presenceSnapshot())
	case "/feed":
		for _, post := range a.Router.Feed() {
			likes := a.Router.Likes().Count(post.ID)
			a.sink.ShowSystem(fmt.Sprintf("[%s] %s: %s (%d likes)", post.ID, a.displayName(post.From), post.Content, likes))
		}
	case "/list":
		err = a.Router.RequestPeerList()
	case "/stats":
		a.sink.ShowSystem(a.Router.Stats().String())
	case "/quit":
		a.sink.ShowSystem("bye")
		a.Shutdown()
		os.Exit(0)
	default:
		a.sink.ShowSystem(helpText)
	}
	if err != nil {
		a.sink.ShowSystem(fmt.Sprintf("%s failed: %v", cmd, err))
	}
}

func (a *App) handleGroupCommand(rest string) error {
	sub, args, _ := strings.Cut(rest, " ")
	args = strings.TrimSpace(args)
	switch sub {
	case "create":
		id, tail, ok := strings.Cut(args, " ")
		if !ok {
			return fmt.Errorf("usage: /group create <id> <name> <members,csv>")
		}
		name, members, ok := strings.Cut(strings.TrimSpace(tail), " ")
		if !ok {
			return fmt.Errorf("usage: /group create <id> <name> <members,csv>")
		}
		return a.Router.CreateGroup(id, name, splitCSV(members))
	case "add":
		id, members, ok := strings.Cut(args, " ")
		if !ok {
			return fmt.Errorf("usage: /group add <id> <members,csv>")
		}
		return a.Router.UpdateGroupMembers(id, splitCSV(members), nil)
	case "remove":
		id, members, ok := strings.Cut(args, " ")
		if !ok {
			return fmt.Errorf("usage: /group remove <id> <members,csv>")
		}
		return a.Router.UpdateGroupMembers(id, nil, splitCSV(members))
	case "send":
		id, text, ok := strings.Cut(args, " ")
		if !ok {
			return fmt.Errorf("usage: /group send <id> <text>")
		}
		return a.Router.SendGroupMessage(id, strings.TrimSpace(text))
	}
	return fmt.Errorf("usage: /group create|add|remove|send ...")
}

func splitCSV(csv string) []string {
	parts := strings.Split(strings.TrimSpace(csv), ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadAvatar reads an image file for profile announcements. A missing path is
// not an error, it just means no avatar.
func loadAvatar(path string) (*router.Avatar, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &router.Avatar{MIMEType: mimeType, Data: data}, nil
}
