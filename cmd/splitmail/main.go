package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/susu3304/splitmail/internal/api"
	"github.com/susu3304/splitmail/internal/config"
	"github.com/susu3304/splitmail/internal/extract"
	"github.com/susu3304/splitmail/internal/ledger"
	"github.com/susu3304/splitmail/internal/logging"
	"github.com/susu3304/splitmail/internal/pipeline"
)

func main() {
	subject := flag.String("subject", "", "Email subject")
	body := flag.String("body", "", "Email body")
	groupID := flag.Int64("group-id", 0, "Ledger group ID (defaults to DEFAULT_GROUP_ID)")
	accessToken := flag.String("access-token", "", "Ledger access token (skips interactive auth)")
	minConfidence := flag.Float64("min-confidence", 0, "Minimum extraction confidence (defaults to MIN_CONFIDENCE)")
	authOnly := flag.Bool("auth-only", false, "Only perform authentication and exit")
	userInfo := flag.Bool("user-info", false, "Display user information and exit")
	listFriends := flag.Bool("list-friends", false, "List friends and exit")
	listGroups := flag.Bool("list-groups", false, "List groups and exit")
	serve := flag.Bool("serve", false, "Run the HTTP API server")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logger.Sync()

	ledgerClient := ledger.NewClient(ledger.Config{
		ClientID:     cfg.LedgerClientID,
		ClientSecret: cfg.LedgerClientSecret,
		RedirectURI:  cfg.LedgerRedirectURI,
		BaseURL:      cfg.LedgerBaseURL,
		AuthURL:      cfg.LedgerAuthURL,
		TokenURL:     cfg.LedgerTokenURL,
	})
	extractor := extract.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	runner := pipeline.NewRunner(extractor, ledgerClient, pipeline.Defaults{
		Currency:      cfg.DefaultCurrency,
		GroupID:       cfg.DefaultGroupID,
		MinConfidence: cfg.MinConfidence,
	}, logger)

	if *serve {
		apiServer := api.New(cfg, ledgerClient, runner, logger)
		if err := apiServer.Start(); err != nil {
			logger.Fatal("api server error", zap.Error(err))
		}
		return
	}

	ctx := context.Background()

	token := *accessToken
	if token == "" {
		token = cfg.LedgerAccessToken
	}
	if token == "" {
		token, err = authenticate(ctx, ledgerClient)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nAccess token: %s\n", token)
	}
	if *authOnly {
		fmt.Println("Authentication completed successfully!")
		return
	}

	switch {
	case *userInfo:
		user, err := ledgerClient.CurrentUser(ctx, token)
		exitOn(err)
		fmt.Printf("\nUser: %s\nEmail: %s\n", user.Name(), user.Email)

	case *listFriends:
		friends, err := ledgerClient.Friends(ctx, token)
		exitOn(err)
		fmt.Printf("\nFriends (%d):\n", len(friends))
		for _, f := range friends {
			fmt.Printf("  - %s (%s)\n", f.Name(), f.Email)
		}

	case *listGroups:
		groups, err := ledgerClient.Groups(ctx, token)
		exitOn(err)
		fmt.Printf("\nGroups (%d):\n", len(groups))
		for _, g := range groups {
			fmt.Printf("  - %s (ID: %d)\n", g.Name, g.ID)
		}

	default:
		if *subject == "" || *body == "" {
			fmt.Fprintln(os.Stderr, "-subject and -body are required unless using -auth-only, -user-info, -list-friends or -list-groups")
			os.Exit(2)
		}

		outcome := runner.Run(ctx, token, pipeline.Request{
			Subject:       *subject,
			Body:          *body,
			GroupID:       *groupID,
			MinConfidence: *minConfidence,
		})

		if outcome.Success {
			fmt.Println("\nSuccessfully created expense!")
			fmt.Printf("Description: %s\n", outcome.Description)
			fmt.Printf("Amount: %s %s\n", outcome.Currency, outcome.Amount)
			fmt.Printf("Expense ID: %d\n", outcome.ExpenseID)
			fmt.Printf("Confidence: %.2f\n", outcome.Confidence)
			for _, note := range outcome.Notes {
				fmt.Printf("Note: %s\n", note)
			}
		} else {
			fmt.Println("\nFailed to create expense:")
			fmt.Printf("Error (%s): %s\n", outcome.Err.Kind, outcome.Err.Message)
			fmt.Printf("Description: %s\n", outcome.Description)
			os.Exit(1)
		}
	}
}

// authenticate runs the interactive OAuth2 flow: print the authorization
// URL, let the user paste back the redirect, exchange the code.
func authenticate(ctx context.Context, client *ledger.Client) (string, error) {
	fmt.Println("Please visit this URL to authorize the application:")
	fmt.Println(client.AuthCodeURL("splitmail"))
	fmt.Print("\nPaste the full callback URL here: ")

	reader := bufio.NewReader(os.Stdin)
	callbackURL, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	code, err := ledger.CodeFromRedirect(strings.TrimSpace(callbackURL))
	if err != nil {
		return "", err
	}
	return client.Exchange(ctx, code)
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
