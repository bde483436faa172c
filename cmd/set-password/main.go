// Command set-password activates the placeholder account of an invited
// partner from the command line.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/marcim390/financeapp/internal/cli"
	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/services"
)

type registrar interface {
	CompleteRegistration(ctx context.Context, addr, password, fullName string) (core.Profile, error)
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, false)

	ctx := context.Background()
	data := cli.OpenBackend(ctx, logger, cfg)
	defer data.Close()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, services.NewAccountService(data.Gateway)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		data.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, accounts registrar) error {
	fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
	fs.SetOutput(stdout)
	addr := fs.String("email", "", "email of the invited account (required)")
	password := fs.String("password", "", "new password (prompted when omitted)")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *addr == "" {
		return errors.New("-email is required")
	}

	if *password == "" {
		fmt.Fprint(stdout, "Enter password: ")
		p, err := readPassword(stdin)
		fmt.Fprintln(stdout)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		*password = p
	}

	p, err := accounts.CompleteRegistration(ctx, *addr, *password, *name)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("no account for %s", *addr)
	case errors.Is(err, core.ErrAlreadyResolved):
		return fmt.Errorf("account %s is already active", *addr)
	case err != nil:
		return err
	}

	fmt.Fprintf(stdout, "Account %s activated (profile %s)\n", p.Email, p.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
