// Package cli implements the authctl commands: register, login, refresh,
// logout and whoami.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/videotube/internal/client/client"
	"github.com/dmitrijs2005/videotube/internal/client/session"
	"github.com/dmitrijs2005/videotube/internal/common"
)

type authClient interface {
	Register(ctx context.Context, r client.RegisterRequest) (*client.User, error)
	Login(ctx context.Context, identifier string, password []byte) (*client.User, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*client.User, error)
	SetTokens(access, refresh string)
	Tokens() (access, refresh string)
}

type sessionStore interface {
	Load() (*session.Session, error)
	Save(*session.Session) error
	Clear() error
}

var ErrUnknownCommand = errors.New("unknown command")

type App struct {
	client authClient
	store  sessionStore
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c authClient, store sessionStore, in io.Reader, out io.Writer) *App {
	return &App{client: c, store: store, reader: bufio.NewReader(in), out: out}
}

const usage = "Usage: authctl [-a host:port] [-t seconds] [-c config.json] <register|login|refresh|logout|whoami>"

// Run executes one command. The stored session is loaded first and saved
// again if the command changed the tokens.
func (a *App) Run(ctx context.Context, command string) error {
	sess, err := a.store.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		sess = &session.Session{}
	case err != nil:
		return err
	}
	a.client.SetTokens(sess.AccessToken, sess.RefreshToken)

	switch command {
	case "register":
		err = a.register(ctx)
	case "login":
		err = a.login(ctx, sess)
	case "refresh":
		err = a.refresh(ctx)
	case "logout":
		err = a.logout(ctx)
	case "whoami":
		err = a.whoami(ctx)
	case "help", "":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	if saveErr := a.persist(sess); saveErr != nil {
		return errors.Join(err, saveErr)
	}
	return err
}

func (a *App) persist(sess *session.Session) error {
	access, refresh := a.client.Tokens()
	if access == sess.AccessToken && refresh == sess.RefreshToken {
		return nil
	}
	if access == "" && refresh == "" {
		return a.store.Clear()
	}
	sess.AccessToken, sess.RefreshToken = access, refresh
	return a.store.Save(sess)
}

func (a *App) register(ctx context.Context) error {
	var r client.RegisterRequest
	var err error

	if r.Username, err = GetSimpleText(a.reader, "Enter user name", a.out); err != nil {
		return err
	}
	if r.Email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if r.FullName, err = GetSimpleText(a.reader, "Enter full name", a.out); err != nil {
		return err
	}
	if r.Avatar, err = GetSimpleText(a.reader, "Enter avatar URL", a.out); err != nil {
		return err
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}
	r.Password = password

	u, err := a.client.Register(ctx, r)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Username, u.ID)
	return nil
}

func (a *App) login(ctx context.Context, sess *session.Session) error {
	identifier, err := GetSimpleText(a.reader, "Enter user name or email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.client.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	sess.Username = u.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Username)
	return nil
}

func (a *App) refresh(ctx context.Context) error {
	if err := a.client.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	u, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\n  name:    %s\n  id:      %s\n  since:   %s\n", u.Username, u.Email, u.FullName, u.ID, u.CreatedAt)
	return nil
}
