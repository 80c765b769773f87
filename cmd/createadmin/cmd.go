package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"pondok-keuangan/internal/models"
)

var errHelp = errors.New("help provided")

type adminCreator interface {
	BootstrapAdmin(ctx context.Context, nama, email, password string) (*models.UserProfile, bool, error)
}

type commandLine struct {
	auth         adminCreator
	readPassword func(fd int) ([]byte, error)
	out          io.Writer
}

// run parses "-email EMAIL [-name NAME]" and prompts for the password.
func (cli *commandLine) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	email := fs.String("email", "", "Email of the admin pusat account.")
	name := fs.String("name", "Admin Pusat", "Display name of the account.")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	if strings.TrimSpace(*email) == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := cli.readPassword(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	user, created, err := cli.auth.BootstrapAdmin(ctx, *name, *email, string(pwd))
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(cli.out, "admin pusat %s already exists (%s)\n", user.Email, user.ID)
		return nil
	}
	fmt.Fprintf(cli.out, "created admin pusat %s (%s)\n", user.Email, user.ID)
	return nil
}
