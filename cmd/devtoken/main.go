// Command devtoken mints access tokens for local development and, optionally, seeds the
// matching user record so the socket handshake accepts them.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/thuan734655/DACS3-Server/internal/config"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/infrastructure/dynamo"
	jwtinfra "github.com/thuan734655/DACS3-Server/internal/infrastructure/jwt"
)

var (
	userID string
	name   string
	email  string
	seed   bool
)

var rootCmd = &cobra.Command{
	Use:   "devtoken",
	Short: "Mint a development access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		provider, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("JWT provider: %w", err)
		}

		if seed {
			client, err := dynamo.NewClient(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("DynamoDB client: %w", err)
			}
			users := dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
			now := time.Now().UTC()
			if err := users.Put(cmd.Context(), &domain.User{
				UserID:    userID,
				Name:      name,
				Email:     email,
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("seed user: %w", err)
			}
			log.Printf("Seeded user %s into %s", userID, cfg.DynamoTables.Users)
		}

		token, err := provider.Sign(userID, name)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&userID, "user", "", "user id to issue the token for")
	rootCmd.Flags().StringVar(&name, "name", "", "display name carried in the token")
	rootCmd.Flags().StringVar(&email, "email", "", "email stored when seeding")
	rootCmd.Flags().BoolVar(&seed, "seed", false, "write the user record to DynamoDB first")
	_ = rootCmd.MarkFlagRequired("user")
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
