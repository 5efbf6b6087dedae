// Command create-user seeds or updates an account in the datastore. It is
// the bootstrap path for deployments that disable self signup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

func main() {
	var (
		jsonPath    string
		postgresDSN string
		username    string
		email       string
		fullName    string
		password    string
	)

	flag.StringVar(&jsonPath, "json", "", "Path to the JSON datastore (store.json)")
	flag.StringVar(&postgresDSN, "postgres-dsn", "", "Postgres connection string")
	flag.StringVar(&username, "username", "", "Username for the account")
	flag.StringVar(&email, "email", "", "Email address for the account")
	flag.StringVar(&fullName, "name", "", "Full name for the account")
	flag.StringVar(&password, "password", "", "Password for the account")
	flag.Parse()

	if jsonPath == "" && postgresDSN == "" {
		fatalf("either --json or --postgres-dsn must be provided")
	}
	if jsonPath != "" && postgresDSN != "" {
		fatalf("only one datastore option may be provided")
	}
	if strings.TrimSpace(username) == "" {
		fatalf("--username is required")
	}
	if strings.TrimSpace(email) == "" {
		fatalf("--email is required")
	}
	if len(password) < 8 {
		fatalf("--password must be at least 8 characters")
	}

	repo, err := openRepository(jsonPath, postgresDSN)
	if err != nil {
		fatalf("open datastore: %v", err)
	}
	defer closeRepository(repo)

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	user, created, err := seedUser(repo, username, email, fullName, password)
	if err != nil {
		fatalf("seed user: %v", err)
	}

	state := "updated"
	if created {
		state = "created"
	}
	fmt.Printf("User %s (%s) %s successfully.\n", user.Username, user.Email, state)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func openRepository(jsonPath, postgresDSN string) (storage.Repository, error) {
	if jsonPath != "" {
		return storage.NewJSONRepository(jsonPath)
	}
	return storage.NewPostgresRepository(postgresDSN)
}

func closeRepository(repo storage.Repository) {
	type closer interface {
		Close(context.Context) error
	}
	if c, ok := repo.(closer); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	}
}

func seedUser(repo storage.Repository, username, email, fullName, password string) (models.User, bool, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	for _, existing := range repo.ListUsers() {
		if strings.EqualFold(existing.Username, username) || existing.Email == normalizedEmail {
			return resetExisting(repo, existing, fullName, normalizedEmail, password)
		}
	}

	user, err := repo.CreateUser(storage.CreateUserParams{
		Username: username,
		Email:    normalizedEmail,
		FullName: fullName,
		Password: password,
	})
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func resetExisting(repo storage.Repository, existing models.User, fullName, email, password string) (models.User, bool, error) {
	var update storage.UserUpdate
	if fullName != "" && existing.FullName != fullName {
		update.FullName = &fullName
	}
	if existing.Email != email {
		update.Email = &email
	}

	updated := existing
	var err error
	if update.FullName != nil || update.Email != nil {
		updated, err = repo.UpdateUser(existing.ID, update)
		if err != nil {
			return models.User{}, false, err
		}
	}

	updated, err = repo.SetUserPassword(existing.ID, password)
	if err != nil {
		return models.User{}, false, err
	}
	return updated, false, nil
}
