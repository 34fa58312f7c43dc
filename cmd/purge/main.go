// Command purge deletes access tokens that were revoked or expired longer
// ago than TOKEN_PURGE_RETENTION. Meant to run from cron.
package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/foxauth/app/repository"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/database"
	"github.com/ManuelReschke/foxauth/internal/pkg/env"
	"github.com/ManuelReschke/foxauth/internal/pkg/token"
)

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Open(cfg.Database, cfg.IsDev())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	issuer := token.NewIssuer(repository.NewRepositories(db), cfg.Token)
	n, err := issuer.Purge(ctx)
	if err != nil {
		log.Fatalf("Failed to purge tokens: %v", err)
	}
	log.Infof("Purged %d access tokens (retention %s)", n, cfg.Token.PurgeRetention)
}
