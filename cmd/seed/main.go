// Command seed creates a demo account with a few notes.
//
// Usage:
//
//	seed [-email demo@notes.local] [-d dsn]
//
// The password is prompted for when stdin is a terminal; otherwise the
// default demo password is used.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/privnotes/notes/internal/flagx"
	"github.com/privnotes/notes/internal/server/config"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
	"github.com/privnotes/notes/internal/server/seed"
	"golang.org/x/term"
)

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return seed.DefaultPassword, nil
	}

	fmt.Print("Password (empty for default): ")
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return seed.DefaultPassword, nil
	}
	return string(b), nil
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	email := fs.String("email", seed.DefaultEmail, "demo account email")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-email", "--email"}))

	password, err := readPassword()
	if err != nil {
		log.Fatalf("error reading password: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	user, err := seed.Run(ctx, db, rm, *email, password)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("Database has been seeded. 🌱 (%s)\n", user.Email)
}
