package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/isdelr/llm-admin-be/internal/config"
	"github.com/isdelr/llm-admin-be/internal/database"
	"github.com/isdelr/llm-admin-be/internal/logger"
	"github.com/isdelr/llm-admin-be/internal/services"
	"golang.org/x/term"
)

const usage = `usage: llmadmin [-db path] <command> [flags]

commands:
  create-user -username NAME [-email ADDR]   create a user, prompting for the password
  list-users                                 print every user
  list-models                                print every configured model`

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init("warn", true)

	global := flag.NewFlagSet("llmadmin", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	dbPath := global.String("db", cfg.DatabasePath, "path to the SQLite database")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%v\n%s", err, usage)
	}
	if global.NArg() == 0 {
		return errors.New(usage)
	}

	db, err := database.New(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx := context.Background()
	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "create-user":
		return createUser(ctx, services.NewUserService(db, nil), rest, stdin, stdout)
	case "list-users":
		return listUsers(ctx, services.NewUserService(db, nil), stdout)
	case "list-models":
		return listModels(ctx, services.NewLLMService(db, nil), stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func createUser(ctx context.Context, users services.UserServiceProvider, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "username (required)")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("create-user: -username is required")
	}

	password, err := promptPassword(stdin, stdout)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	user, err := users.CreateUser(ctx, *username, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Created user %s (%s)\n", user.Username, user.ID)
	return nil
}

// promptPassword reads without echo from a terminal, or a single line from piped input.
func promptPassword(stdin io.Reader, stdout io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stdout, "Enter password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func listUsers(ctx context.Context, users services.UserServiceProvider, stdout io.Writer) error {
	all, err := users.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tACTIVE\tVERIFIED")
	for _, u := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\n", u.ID, u.Username, u.Email, u.Active, u.Verified)
	}
	return tw.Flush()
}

func listModels(ctx context.Context, llms services.LLMServiceProvider, stdout io.Writer) error {
	all, err := llms.GetAllLLMs(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROVIDER\tENABLED\tAPI KEY")
	for _, m := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\n", m.ID, m.Name, m.Provider, m.Enabled, m.HasAPIKey)
	}
	return tw.Flush()
}
