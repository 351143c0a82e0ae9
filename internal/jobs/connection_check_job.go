package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/repository"
	"github.com/blabbr/contentflow/internal/service"
)

// ConnectionCheckJob revalidates LinkedIn connections whose tokens are about
// to expire. LinkedIn member tokens cannot be refreshed without re-consent,
// so an invalid connection is marked inactive and the owner has to
// reconnect.
type ConnectionCheckJob struct {
	cr repository.ConnectionRepository
	li service.LinkedinService
}

func NewConnectionCheckJob(cr repository.ConnectionRepository, li service.LinkedinService) *ConnectionCheckJob {
	return &ConnectionCheckJob{
		cr: cr,
		li: li,
	}
}

func (c *ConnectionCheckJob) CheckConnections() {
	ctx := context.Background()

	timeIn30Minutes := time.Now().Add(30 * time.Minute)

	connections, err := c.cr.ListExpiring(ctx, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, conn := range connections {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(conn *models.LinkedInConnection) {
			defer wg.Done()
			defer func() { <-semaphore }()

			valid, err := c.li.ValidateConnection(ctx, conn)
			if err != nil {
				slog.Info("Unable to validate LinkedIn connection")
				return
			}

			if err := c.cr.SetValidated(ctx, conn.ID, valid); err != nil {
				slog.Info(err.Error())
			}
		}(conn)
	}

	wg.Wait()
}
