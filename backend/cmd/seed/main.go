package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"follownet/backend/internal/graph"
	"follownet/backend/pkg/config"
	"follownet/backend/pkg/logger"
)

type seedUser struct {
	name     string
	username string
	email    string
	bio      string
}

var seedUsers = []seedUser{
	{"Alice Larsen", "alice", "alice@example.com", "Coffee, climbing, code."},
	{"Bob Hansen", "bob", "bob@example.com", "Amateur photographer."},
	{"Carol Jensen", "carol", "carol@example.com", ""},
	{"Dave Nielsen", "dave", "dave@example.com", "Here for the memes."},
}

// follower -> followee, by index into seedUsers
var seedFollows = [][2]int{
	{1, 0}, // bob follows alice
	{2, 0}, // carol follows alice
	{3, 0}, // dave follows alice
	{0, 1}, // alice follows bob
	{2, 1}, // carol follows bob
}

func main() {
	password := flag.String("password", "password123", "Password for all seeded users")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	ctx := context.Background()
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}

	repo := graph.NewRepository(driver)

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	ids := make([]int, len(seedUsers))
	for i, u := range seedUsers {
		created, err := repo.CreateUser(ctx, u.name, u.username, u.email, string(hash), u.bio)
		if err != nil {
			log.Error("Failed to create user", zap.String("username", u.username), zap.Error(err))
			os.Exit(1)
		}
		ids[i] = created.ID
		log.Info("Seeded user", zap.Int("id", created.ID), zap.String("username", created.Username))
	}

	for _, f := range seedFollows {
		if _, err := repo.Follow(ctx, ids[f[0]], ids[f[1]]); err != nil {
			log.Error("Failed to create follow edge", zap.Error(err))
			os.Exit(1)
		}
	}

	log.Info("Seeding complete",
		zap.Int("users", len(seedUsers)),
		zap.Int("follows", len(seedFollows)),
	)
}
