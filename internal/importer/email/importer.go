// Package email imports grocery items from shopping-list emails in an
// IMAP mailbox. Messages are matched by a configurable subject prefix
// and their plain-text body lines are parsed into items.
package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mquan/grocery-planner/internal/model"
	appsync "github.com/mquan/grocery-planner/internal/sync"
)

// Importer fetches shopping-list emails and adds their items to a
// grocery list through the mutation coordinator, so imported items get
// the same optimistic apply and rollback behavior as manual ones.
type Importer struct {
	client *IMAPClient
	coord  *appsync.Coordinator
	cfg    model.EmailImportConfig
	log    *zap.Logger
}

// NewImporter creates an importer for the given mailbox configuration.
func NewImporter(
	cfg model.EmailImportConfig,
	password string,
	coord *appsync.Coordinator,
	log *zap.Logger,
) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		client: NewIMAPClient(
			cfg.Host, cfg.Port, cfg.Username, password, cfg.TLS,
		),
		coord: coord,
		cfg:   cfg,
		log:   log,
	}
}

// ImportInto scans the mailbox for recent shopping-list emails and
// adds every parsed item to the given list. It returns the number of
// items added. Importing the same message again adds its items again;
// the mailbox is the source of truth for what to re-run.
func (i *Importer) ImportInto(ctx context.Context, listID string) (int, error) {
	messages, err := i.client.FetchRecent(
		ctx, i.cfg.SubjectPrefix, i.cfg.WindowDays,
	)
	if err != nil {
		return 0, fmt.Errorf("fetching shopping-list emails: %w", err)
	}

	added := 0
	for _, msg := range messages {
		items := ParseItems(msg.TextBody)
		if len(items) == 0 {
			continue
		}

		i.log.Info("importing shopping-list email",
			zap.String("subject", msg.Envelope.Subject),
			zap.Int("items", len(items)),
		)

		for _, item := range items {
			if _, err := i.coord.AddItem(ctx, listID, item); err != nil {
				// The coordinator already rolled back and toasted;
				// stop so a dead connection does not spam errors.
				return added, fmt.Errorf(
					"importing %q: %w", item.Name, err,
				)
			}
			added++
		}
	}

	return added, nil
}
