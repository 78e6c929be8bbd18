// Command grocery is a terminal client for the meal planner's grocery
// list service. It keeps an optimistic local cache of the remote lists
// and falls back to an on-disk snapshot when the service is unreachable.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/app"
	"github.com/mquan/grocery-planner/internal/cache"
	"github.com/mquan/grocery-planner/internal/credential"
	"github.com/mquan/grocery-planner/internal/importer/email"
	"github.com/mquan/grocery-planner/internal/logging"
	"github.com/mquan/grocery-planner/internal/model"
	"github.com/mquan/grocery-planner/internal/notify"
	"github.com/mquan/grocery-planner/internal/offline"
	appsync "github.com/mquan/grocery-planner/internal/sync"
)

func main() {
	configPath := flag.String(
		"config", model.DefaultConfigPath(), "path to the config file",
	)
	setToken := flag.Bool(
		"set-token", false,
		"read an API token from stdin and store it in the system keyring",
	)
	setIMAPPassword := flag.Bool(
		"set-imap-password", false,
		"read an IMAP password from stdin and store it in the system keyring",
	)
	flag.Parse()

	var err error
	switch {
	case *setToken:
		err = storeCredential(credential.KeyAPIToken)
	case *setIMAPPassword:
		err = storeCredential(credential.KeyIMAPToken)
	default:
		err = run(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "grocery: %v\n", err)
		os.Exit(1)
	}
}

// storeCredential reads one line from stdin and stores it in the
// system keyring under the given key.
func storeCredential(key string) error {
	fmt.Fprintf(os.Stderr, "Enter value for %s: ", key)
	value, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading credential: %w", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty credential")
	}
	if err := credential.Set(key, value); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored %s.\n", key)
	return nil
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// Write the defaults out on first run so users have a file to edit.
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return err
		}
	}

	if cfg.API.BaseURL == "" {
		return fmt.Errorf(
			"no API base URL configured; set api.base_url in %s", configPath,
		)
	}

	logger, err := logging.NewFileLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// The API token comes from the environment or the system keyring.
	token := os.Getenv("GROCERY_API_TOKEN")
	if token == "" {
		token, err = credential.Get(credential.KeyAPIToken)
		if err != nil || token == "" {
			return fmt.Errorf(
				"no API token found; set GROCERY_API_TOKEN or store one under %q",
				credential.KeyAPIToken,
			)
		}
	}

	client := api.NewClient(cfg.API.BaseURL, token)
	svc := api.NewGroceryService(client)

	c := cache.New(time.Duration(cfg.Cache.StaleAfterSec) * time.Second)

	store, err := offline.NewStore(offlineDBPath(configPath), logger)
	if err != nil {
		// The offline snapshot is best-effort; run without it.
		logger.Warn("opening offline store failed", zap.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	hub := notify.NewHub()

	var coord *appsync.Coordinator
	if store != nil {
		coord = appsync.New(svc, c, store, hub, logger)
	} else {
		coord = appsync.New(svc, c, nil, hub, logger)
	}

	reval := appsync.NewRevalidator(
		coord, c,
		time.Duration(cfg.Cache.RevalidateIntervalSec)*time.Second,
	)

	importer := loadImporter(cfg, coord, logger)

	program := tea.NewProgram(
		app.New(coord, reval, hub, importer),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	return nil
}

// offlineDBPath places the snapshot database next to the config file.
func offlineDBPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "offline.db")
}

// loadImporter builds the email importer when a mailbox is configured
// and its password is available. Returns nil otherwise.
func loadImporter(
	cfg *model.AppConfig,
	coord *appsync.Coordinator,
	logger *zap.Logger,
) *email.Importer {
	if cfg.EmailImport.Host == "" {
		return nil
	}

	password := os.Getenv("GROCERY_IMAP_PASSWORD")
	if password == "" {
		var err error
		password, err = credential.Get(credential.KeyIMAPToken)
		if err != nil || password == "" {
			logger.Warn("email import configured but no IMAP password found")
			return nil
		}
	}

	return email.NewImporter(cfg.EmailImport, password, coord, logger)
}
