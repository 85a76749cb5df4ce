// Command createadmin makes sure the administrator account exists.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/dmitrijs2005/invkeeper/internal/console"
	"github.com/dmitrijs2005/invkeeper/internal/flagx"
	"github.com/dmitrijs2005/invkeeper/internal/server/config"
	"github.com/dmitrijs2005/invkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/invkeeper/internal/server/services"
	"github.com/dmitrijs2005/invkeeper/internal/server/sessions"
)

var (
	openDB               = repomanager.OpenDB
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	getNewPassword       = console.GetNewPassword
)

type options struct {
	username string
	email    string
	password string
	prompt   bool
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.username, "username", "admin", "administrator username")
	fs.StringVar(&o.email, "email", "admin@maquillaje.com", "administrator email")
	fs.StringVar(&o.password, "password", "admin123", "administrator password")
	fs.BoolVar(&o.prompt, "prompt", false, "read the password from the terminal")
	if err := flagx.ParseKnown(fs, args); err != nil {
		return o, err
	}
	return o, nil
}

// resolvePassword returns the password to store, asking on the terminal
// when prompting is enabled.
func resolvePassword(o options, w io.Writer) (string, error) {
	if !o.prompt {
		return o.password, nil
	}
	pw, err := getNewPassword(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func ensureAdmin(ctx context.Context, cfg *config.Config, o options, w io.Writer) (*models.User, bool, error) {
	password, err := resolvePassword(o, w)
	if err != nil {
		return nil, false, err
	}

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, false, fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, false, fmt.Errorf("migrations error: %w", err)
	}

	auth := services.NewAuthService(db, rm, credentials.NewStore(cfg.PasswordPepper), sessions.NewMemoryRegistry(), nil)
	return auth.EnsureAdmin(ctx, o.username, o.email, password)
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	user, created, err := ensureAdmin(ctx, cfg, o, os.Stdout)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}

	if created {
		fmt.Printf("Admin user created: %s (%s)\n", user.Username, user.Email)
		return
	}
	fmt.Printf("User %s already exists (admin=%t)\n", user.Username, user.IsAdmin)
}
