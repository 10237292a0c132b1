// Package admincli implements the operator commands that manage admin
// accounts directly against the database. They are not reachable over HTTP.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage: threatscope-admin create | promote <email> | demote <email>")

// Accounts is the account surface the commands need.
type Accounts interface {
	RegisterAdmin(ctx context.Context, name, email, password string) (*models.User, error)
	SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*models.User, error)
}

type CLI struct {
	accounts Accounts
	in       *bufio.Reader
	out      io.Writer
}

func New(a Accounts, in io.Reader, out io.Writer) *CLI {
	return &CLI{accounts: a, in: bufio.NewReader(in), out: out}
}

// Command returns the leading arguments up to the first flag, so
// "promote bob@x.com -d dsn" yields ["promote", "bob@x.com"].
func Command(args []string) []string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			return args[:i]
		}
	}
	return args
}

// Run executes one command.
//
//	create            prompt for name, email and password; create an admin
//	promote <email>   grant the admin flag
//	demote <email>    revoke the admin flag
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	switch args[0] {
	case "create":
		return c.create(ctx)
	case "promote", "demote":
		if len(args) != 2 {
			return ErrUsage
		}
		return c.setAdmin(ctx, args[1], args[0] == "promote")
	}
	return ErrUsage
}

func (c *CLI) create(ctx context.Context) error {
	name, err := getSimpleText(c.in, "Name", c.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(c.in, "Email", c.out)
	if err != nil {
		return err
	}
	pw, err := getPassword(c.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	u, err := c.accounts.RegisterAdmin(ctx, name, email, string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Admin %s created (id=%s)\n", u.Email, u.ID)
	return nil
}

func (c *CLI) setAdmin(ctx context.Context, email string, isAdmin bool) error {
	u, err := c.accounts.SetAdminByEmail(ctx, email, isAdmin)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user with email %s", email)
		}
		return err
	}
	fmt.Fprintf(c.out, "User %s is_admin=%t\n", u.Email, u.IsAdmin)
	return nil
}
