package auth

import (
	"context"
	"strings"

	"github.com/julianstephens/streakline/internal/app"
	"github.com/julianstephens/streakline/internal/cli"
	"github.com/julianstephens/streakline/internal/models"
)

type AuthCmd struct {
	Signup SignupCmd `cmd:"" help:"Create an account and sign in."`
	Login  LoginCmd  `cmd:"" help:"Sign in with email and password."`
	Logout LogoutCmd `cmd:"" help:"Sign out and forget the stored session."`
	Status StatusCmd `cmd:"" help:"Show the signed-in user."`
}

type SignupCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `help:"Account password. Prompted for when omitted." env:"STREAKLINE_PASSWORD"`
}

func (c *SignupCmd) Run(ctx *cli.Context) error {
	return signIn(ctx, c.Email, c.Password, (*app.App).SignUp, "Signed up and signed in as %s\n")
}

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `help:"Account password. Prompted for when omitted." env:"STREAKLINE_PASSWORD"`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	return signIn(ctx, c.Email, c.Password, (*app.App).SignIn, "Signed in as %s\n")
}

type authFunc func(*app.App, context.Context, string, string) (*models.Session, error)

func signIn(ctx *cli.Context, email, password string, fn authFunc, format string) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if password == "" {
		prompt := ctx.Prompt
		if prompt == nil {
			prompt = cli.PromptSecret
		}
		if password, err = prompt("Password"); err != nil {
			return err
		}
	}

	session, err := fn(a, ctx.Ctx(), email, password)
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if session != nil {
		email = session.User.Email
	}
	ctx.Printf(format, email)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if !a.SignedIn() {
		ctx.Println("Not signed in")
		return nil
	}
	if err := a.SignOut(ctx.Ctx()); err != nil {
		return err
	}
	ctx.Println("Signed out")
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	session := a.Session()
	if session == nil {
		ctx.Println("Not signed in")
		return nil
	}
	ctx.Printf("Signed in as %s (%s backend)\n", session.User.Email, a.Provider().Name())
	return nil
}
