// Package session runs one task per telnet connection: a login state
// machine first, then a full-duplex pump between the codec and the
// player's broker mailbox.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/udisondev/somnuscape/internal/account"
	"github.com/udisondev/somnuscape/internal/broker"
	"github.com/udisondev/somnuscape/internal/model"
	"github.com/udisondev/somnuscape/internal/telnet"
)

const greeting = "<~~ Welcome adventurer! What is thy name? ~~>"

type state int

const (
	stateUnauthorized state = iota
	stateNewUser
	stateLogin
	stateAuthorized
)

func (s state) String() string {
	switch s {
	case stateUnauthorized:
		return "UNAUTHORIZED"
	case stateNewUser:
		return "NEW_USER"
	case stateLogin:
		return "LOGIN"
	case stateAuthorized:
		return "AUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// Session is the per-connection state. Only its own goroutine touches it.
type Session struct {
	conn     *telnet.Conn
	accounts *account.Store
	broker   *broker.PlayerBroker

	state       state
	pendingName string         // chosen username while in NEW_USER
	loginTarget model.PlayerID // account being logged into while in LOGIN
	player      model.PlayerID // set once AUTHORIZED
	engineConn  *broker.Conn
}

// Handle owns a client connection from accept to close. Run it on its
// own goroutine.
func Handle(nc net.Conn, accounts *account.Store, pb *broker.PlayerBroker) {
	conn := telnet.NewConn(nc)
	defer conn.Close()

	s := &Session{conn: conn, accounts: accounts, broker: pb}
	err := s.run()

	var disc *broker.DisconnectedError
	switch {
	case err == nil, errors.As(err, &disc):
		slog.Info("session closed", "remote", conn.RemoteAddr(), "state", s.state)
	default:
		slog.Error("session error", "remote", conn.RemoteAddr(), "state", s.state, "err", err)
	}

	if s.state == stateAuthorized {
		s.broker.EndConnection(s.player)
	}
}

func (s *Session) run() error {
	if err := s.conn.WriteMessage(greeting); err != nil {
		return err
	}

	for s.state != stateAuthorized {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		reply, err := s.handleLogin(msg)
		if err != nil {
			return err
		}
		if err := s.conn.WriteMessage(reply); err != nil {
			return err
		}
	}

	return s.pump()
}

// handleLogin advances the login state machine by one inbound message.
func (s *Session) handleLogin(msg string) (string, error) {
	switch s.state {
	case stateUnauthorized:
		username := strings.TrimSpace(msg)
		if id, acc, ok := s.accounts.Lookup(username); ok {
			s.state = stateLogin
			s.loginTarget = id
			return fmt.Sprintf("Welcome back %s!\r\nPlease enter your password:", acc.Username), nil
		}
		s.state = stateNewUser
		s.pendingName = username
		return fmt.Sprintf("Welcome %s!\n\n"+
			"We haven't see you before, please choose a password!\n"+
			"(Friendly reminder that for nostalgia's sake, your connection is unencrypted.\n"+
			"*Please* use a unique password, people could be watching)\n\nPassword:", username), nil

	case stateNewUser:
		id, err := s.accounts.RegisterUser(model.Account{
			Username: s.pendingName,
			Password: account.HashPassword(msg),
		})
		if err != nil {
			return "", fmt.Errorf("registering %q: %w", s.pendingName, err)
		}
		s.authorize(id)
		return "Password set.\r\nWelcome to Somnuscape!", nil

	case stateLogin:
		acc, ok := s.accounts.Get(s.loginTarget)
		if !ok {
			return "", fmt.Errorf("login target %s vanished from the registry", s.loginTarget)
		}
		if account.HashPassword(msg) != acc.Password {
			return fmt.Sprintf("Login failed, retry your password for %s:", acc.Username), nil
		}
		s.authorize(s.loginTarget)
		return "Login successful.\nWelcome back to Somnuscape!", nil

	default:
		return "", fmt.Errorf("handleLogin called in state %s", s.state)
	}
}

// authorize flips the session into the pumping state with a fresh
// broker mailbox.
func (s *Session) authorize(id model.PlayerID) {
	s.state = stateAuthorized
	s.player = id
	s.engineConn = s.broker.SetupConnection(id)
	slog.Info("player authorized", "player", id, "remote", s.conn.RemoteAddr())
}

// pump shuttles traffic both ways until either side drops. Inbound
// frames forward verbatim to the engine; outbound mailbox messages
// forward verbatim to the codec.
func (s *Session) pump() error {
	done := make(chan error, 1)
	go func() {
		for {
			msg, err := s.engineConn.Recv()
			if err != nil {
				done <- err
				// Unblock the read side so the session can wind down.
				s.conn.Close()
				return
			}
			if err := s.conn.WriteMessage(msg); err != nil {
				done <- err
				return
			}
		}
	}()

	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case werr := <-done:
				return werr
			default:
				return err
			}
		}
		if err := s.engineConn.Send(msg); err != nil {
			return err
		}
	}
}
