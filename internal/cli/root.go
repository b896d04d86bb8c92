package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakline/internal/app"
	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/storage"
)

// Context is bound into every kong command. The provider and the app are
// opened lazily so commands such as keyring never touch the backend.
type Context struct {
	Config *config.Config
	Out    io.Writer

	// NewProvider builds the storage backend; tests replace it
	NewProvider func(*config.Config) (storage.Provider, error)
	// Prompt asks for a secret interactively
	Prompt func(title string) (string, error)

	ctx      context.Context
	provider storage.Provider
	app      *app.App
}

func NewContext(ctx context.Context, cfg *config.Config) *Context {
	return &Context{
		Config:      cfg,
		Out:         os.Stdout,
		NewProvider: NewProvider,
		Prompt:      PromptSecret,
		ctx:         ctx,
	}
}

// Ctx returns the request context for remote calls
func (c *Context) Ctx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Provider builds the configured backend without loading it
func (c *Context) Provider() (storage.Provider, error) {
	if c.provider != nil {
		return c.provider, nil
	}
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	newProvider := c.NewProvider
	if newProvider == nil {
		newProvider = NewProvider
	}
	p, err := newProvider(c.Config)
	if err != nil {
		return nil, err
	}
	c.provider = p
	return p, nil
}

// App loads the backend, restores the session and returns the controller
func (c *Context) App() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	p, err := c.Provider()
	if err != nil {
		return nil, err
	}
	if err := p.Load(c.Ctx()); err != nil {
		return nil, err
	}
	loc, err := c.Config.Location()
	if err != nil {
		return nil, err
	}

	a := app.New(p, app.Options{Location: loc})
	if err := a.Start(c.Ctx()); err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// SignedInApp is App for commands that need a user
func (c *Context) SignedInApp(action string) (*app.App, error) {
	a, err := c.App()
	if err != nil {
		return nil, err
	}
	if !a.SignedIn() {
		return nil, &errors.AuthRequiredError{Action: action}
	}
	if err := a.LastError(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the app or, if it was never opened, the provider
func (c *Context) Close() error {
	if c.app != nil {
		return c.app.Close()
	}
	if c.provider != nil {
		return c.provider.Close()
	}
	return nil
}

// PromptSecret reads a hidden value from the terminal
func PromptSecret(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	return value, err
}
