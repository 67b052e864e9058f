package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/mkravets/chatlens/types"
)

const historyPageSize = 100

// Connect starts an MTProto client, authenticates if necessary and hands a
// live Transport to fn. The client is torn down when fn returns.
func Connect(ctx context.Context, cfg types.TelegramConfig, fn func(ctx context.Context, tr Transport) error) error {
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return types.NewConfigError("TELEGRAM_API_ID and TELEGRAM_API_HASH must be set for live import; add them to .env")
	}

	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
	})

	err := client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(terminalAuth{phone: cfg.Phone}, auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return &types.TransportError{Op: "auth", Err: err}
		}
		return fn(ctx, newGotdTransport(client.API()))
	})
	if err != nil {
		var terr *types.TransportError
		if errors.As(err, &terr) {
			return err
		}
		return &types.TransportError{Op: "connect", Err: err}
	}
	return nil
}

// gotdTransport implements Transport over the generated MTProto API. Input
// peers seen while resolving usernames or listing dialogs are cached so
// History can address them later.
type gotdTransport struct {
	api   *tg.Client
	peers map[int64]tg.InputPeerClass
	names map[int64]Peer
}

func newGotdTransport(api *tg.Client) *gotdTransport {
	return &gotdTransport{
		api:   api,
		peers: make(map[int64]tg.InputPeerClass),
		names: make(map[int64]Peer),
	}
}

func (t *gotdTransport) ResolvePeer(ctx context.Context, username string) (Peer, error) {
	res, err := t.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: strings.TrimPrefix(username, "@"),
	})
	if err != nil {
		return Peer{}, &types.TransportError{Op: "resolve username", Err: err}
	}

	t.cacheUsers(res.Users)
	t.cacheChats(res.Chats)

	var id int64
	switch p := res.Peer.(type) {
	case *tg.PeerUser:
		id = p.UserID
	case *tg.PeerChat:
		id = p.ChatID
	case *tg.PeerChannel:
		id = p.ChannelID
	default:
		return Peer{}, &types.TransportError{Op: "resolve username", Err: fmt.Errorf("unexpected peer type %T", res.Peer)}
	}

	peer, ok := t.names[id]
	if !ok {
		return Peer{}, &types.TransportError{Op: "resolve username", Err: fmt.Errorf("peer %d missing from resolution result", id)}
	}
	return peer, nil
}

func (t *gotdTransport) Dialogs(ctx context.Context) ([]Dialog, error) {
	res, err := t.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      historyPageSize,
	})
	if err != nil {
		return nil, &types.TransportError{Op: "list dialogs", Err: err}
	}

	var users []tg.UserClass
	var chats []tg.ChatClass
	switch d := res.(type) {
	case *tg.MessagesDialogs:
		users, chats = d.Users, d.Chats
	case *tg.MessagesDialogsSlice:
		users, chats = d.Users, d.Chats
	default:
		return nil, &types.TransportError{Op: "list dialogs", Err: fmt.Errorf("unexpected dialogs type %T", res)}
	}

	t.cacheUsers(users)
	t.cacheChats(chats)

	var out []Dialog
	for _, u := range users {
		user, ok := u.(*tg.User)
		if !ok || user.Self {
			continue
		}
		out = append(out, Dialog{ID: user.ID, Title: userTitle(user), Username: user.Username, Kind: "user"})
	}
	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Chat:
			out = append(out, Dialog{ID: chat.ID, Title: chat.Title, Kind: "group"})
		case *tg.Channel:
			kind := "channel"
			if chat.Megagroup {
				kind = "group"
			}
			out = append(out, Dialog{ID: chat.ID, Title: chat.Title, Username: chat.Username, Kind: kind})
		}
	}
	return out, nil
}

func (t *gotdTransport) Peer(ctx context.Context, chatID int64) (Peer, error) {
	if peer, ok := t.names[chatID]; ok {
		return peer, nil
	}
	// Not seen yet: populate the cache from the dialog list.
	if _, err := t.Dialogs(ctx); err != nil {
		return Peer{}, err
	}
	if peer, ok := t.names[chatID]; ok {
		return peer, nil
	}
	return Peer{}, &types.TransportError{Op: "lookup peer", Err: fmt.Errorf("chat %d not found among account dialogs", chatID)}
}

func (t *gotdTransport) History(ctx context.Context, chatID int64) ([]RawMessage, error) {
	if _, err := t.Peer(ctx, chatID); err != nil {
		return nil, err
	}
	input := t.peers[chatID]

	var out []RawMessage
	offsetID := 0
	for {
		res, err := t.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     input,
			OffsetID: offsetID,
			Limit:    historyPageSize,
		})
		if err != nil {
			return nil, &types.TransportError{Op: "fetch history", Err: err}
		}

		var batch []tg.MessageClass
		switch h := res.(type) {
		case *tg.MessagesMessages:
			batch = h.Messages
		case *tg.MessagesMessagesSlice:
			batch = h.Messages
		case *tg.MessagesChannelMessages:
			batch = h.Messages
		default:
			return nil, &types.TransportError{Op: "fetch history", Err: fmt.Errorf("unexpected history type %T", res)}
		}
		if len(batch) == 0 {
			break
		}

		out, offsetID = collectPage(out, batch)
		if len(batch) < historyPageSize {
			break
		}
	}
	return out, nil
}

// collectPage appends the plain messages of one history page and returns
// the offset id for the next request. The offset advances past every
// element, service records included, so a page of non-message entries
// cannot stall the pager.
func collectPage(out []RawMessage, batch []tg.MessageClass) ([]RawMessage, int) {
	offsetID := 0
	for _, mc := range batch {
		offsetID = mc.GetID()
		if msg, ok := mc.(*tg.Message); ok {
			out = append(out, rawFromMessage(msg))
		}
	}
	return out, offsetID
}

func rawFromMessage(msg *tg.Message) RawMessage {
	rm := RawMessage{
		ID:       msg.ID,
		Text:     msg.Message,
		Outgoing: msg.Out,
		Date:     time.Unix(int64(msg.Date), 0),
	}
	if hdr, ok := msg.GetReplyTo(); ok {
		if reply, ok := hdr.(*tg.MessageReplyHeader); ok {
			if id, ok := reply.GetReplyToMsgID(); ok {
				rm.ReplyToID = id
			}
		}
	}
	if from, ok := msg.GetFromID(); ok {
		if u, ok := from.(*tg.PeerUser); ok {
			rm.SenderID = u.UserID
		}
	}
	return rm
}

func (t *gotdTransport) cacheUsers(users []tg.UserClass) {
	for _, uc := range users {
		u, ok := uc.(*tg.User)
		if !ok {
			continue
		}
		t.peers[u.ID] = &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash}
		t.names[u.ID] = Peer{ID: u.ID, Title: userTitle(u), Username: u.Username}
	}
}

func (t *gotdTransport) cacheChats(chats []tg.ChatClass) {
	for _, cc := range chats {
		switch c := cc.(type) {
		case *tg.Chat:
			t.peers[c.ID] = &tg.InputPeerChat{ChatID: c.ID}
			t.names[c.ID] = Peer{ID: c.ID, Title: c.Title}
		case *tg.Channel:
			t.peers[c.ID] = &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash}
			t.names[c.ID] = Peer{ID: c.ID, Title: c.Title, Username: c.Username}
		}
	}
}

func userTitle(u *tg.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// terminalAuth satisfies the interactive auth flow by reading the login
// code (and the 2FA password, when enabled) from stdin.
type terminalAuth struct {
	phone string
}

func (a terminalAuth) Phone(_ context.Context) (string, error) {
	if a.phone != "" {
		return a.phone, nil
	}
	return promptLine("Phone number: ")
}

func (a terminalAuth) Password(_ context.Context) (string, error) {
	return promptLine("2FA password: ")
}

func (a terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return promptLine("Login code: ")
}

func (a terminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("signing up new accounts is not supported")
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
