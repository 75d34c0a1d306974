// adminctl bootstraps an administrator account directly in the database.
// The admin API requires an admin session token, so the first admin has to be
// created out of band with this tool.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/astepanovs/gatehouse/internal/cryptox"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/models"
	"github.com/astepanovs/gatehouse/internal/server/repositories/repomanager"
)

func main() {
	cfg := config.LoadConfig()

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Enter admin user name")

	userName, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("%v", err)
	}
	userName = strings.TrimSpace(userName)

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatalf("%v", err)
	}

	hash, err := cryptox.HashPassword(string(password))
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     userName,
		PasswordHash: hash,
		IsAdmin:      true,
	}

	if _, err := manager.Users(db).Create(ctx, user); err != nil {
		log.Fatalf("error creating admin user: %v", err)
	}

	fmt.Println("Success!")
}
