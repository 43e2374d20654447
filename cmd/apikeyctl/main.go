package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

func main() {
	var (
		actionFlag   string
		nameFlag     string
		providerFlag string
		secretFlag   string
		creditsFlag  float64
	)
	flag.StringVar(&actionFlag, "action", "list", "Action to perform (add or list)")
	flag.StringVar(&nameFlag, "name", "", "Display name for the new key")
	flag.StringVar(&providerFlag, "provider", domain.Server1.Provider(), "Provider the key belongs to (fal_ai or gmicloud)")
	flag.StringVar(&secretFlag, "secret", "", "Provider secret (fallbacks to PROVIDER_API_KEY)")
	flag.Float64Var(&creditsFlag, "credits", 0, "Credit budget for the new key")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "apikeyctl").Logger()
	keys := repo.NewAPIKeyRepo(infra.NewSQLRunner(pool, logger))

	switch strings.TrimSpace(strings.ToLower(actionFlag)) {
	case "list":
		all, err := keys.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list api keys: %v\n", err)
			os.Exit(1)
		}
		for _, key := range all {
			state := "inactive"
			if key.IsActive {
				state = "active"
			}
			fmt.Printf("%s\t%s\t%s\t%.2f\t%s\n", key.ID, key.Provider, key.Name, key.Credits, state)
		}
	case "add":
		provider := strings.TrimSpace(strings.ToLower(providerFlag))
		if provider != domain.Server1.Provider() && provider != domain.Server2.Provider() {
			fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
			os.Exit(1)
		}
		secret := strings.TrimSpace(secretFlag)
		if secret == "" {
			secret = strings.TrimSpace(os.Getenv("PROVIDER_API_KEY"))
		}
		if secret == "" {
			fmt.Fprintln(os.Stderr, "secret is required via -secret or PROVIDER_API_KEY")
			os.Exit(1)
		}
		id, err := keys.Create(ctx, &domain.APIKey{
			Name:     nameFlag,
			Provider: provider,
			Secret:   secret,
			Credits:  creditsFlag,
			IsActive: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to store api key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("api key %s stored for %s\n", id, provider)
	default:
		fmt.Fprintf(os.Stderr, "unsupported action %q\n", actionFlag)
		os.Exit(1)
	}
}
