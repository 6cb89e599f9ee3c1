package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"finance-tracker/internal/accounts"
	"finance-tracker/internal/storage"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.StringP("user", "u", "", "Username")
	passwordFlag := fs.StringP("password", "p", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "transactions.db", "Path to database file")
	claimOrphans := fs.Bool("claim-orphans", false, "Assign every unowned legacy transaction to this user")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser --user <username> [--password <password>] [--db <db_path>] [--claim-orphans]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	// DB_PATH applies unless --db was given explicitly.
	if path := os.Getenv("DB_PATH"); path != "" && !fs.Changed("db") {
		*dbPath = path
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := accounts.NewStore(db)

	existing, err := db.GetUserByUsername(ctx, *username)
	switch {
	case err == nil && !*claimOrphans:
		return fmt.Errorf("user %s already exists", *username)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if existing == nil {
		password := *passwordFlag
		if password == "" {
			fmt.Fprint(stdout, "Password: ")
			password, err = readPassword(stdin)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			fmt.Fprintln(stdout) // Print newline after password input
		}

		if strings.TrimSpace(password) == "" {
			return fmt.Errorf("password cannot be empty")
		}

		ok, err := store.Register(ctx, *username, password)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if !ok {
			return fmt.Errorf("user %s already exists", *username)
		}
		existing, err = db.GetUserByUsername(ctx, *username)
		if err != nil {
			return fmt.Errorf("failed to load new user: %w", err)
		}
		fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", existing.Username, existing.ID)
	}

	if *claimOrphans {
		moved, err := db.ReassignOrphans(ctx, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to claim unowned transactions: %w", err)
		}
		fmt.Fprintf(stdout, "Assigned %d unowned transaction(s) to %s\n", moved, existing.Username)
	}
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
