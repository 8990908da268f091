package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/carebook/internal/config"
	"github.com/wolfman30/carebook/internal/events"
	"github.com/wolfman30/carebook/pkg/logging"
)

// BuildAnalytics wires the outbox tracker and its deliverer. Without a database,
// events are dropped and the deliverer is nil.
func BuildAnalytics(cfg *appconfig.Config, pool *pgxpool.Pool, awsCfg *aws.Config, logger *logging.Logger) (events.Tracker, *events.Deliverer) {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("analytics disabled: no database")
		return events.NoopTracker{}, nil
	}

	store := events.NewOutboxStore(pool)
	tracker := events.NewOutboxTracker(store, logger)

	var handler events.DeliveryHandler = events.NewLogPublisher(logger)
	if cfg != nil && awsCfg != nil && strings.TrimSpace(cfg.AnalyticsQueueURL) != "" {
		handler = events.NewSQSPublisher(sqs.NewFromConfig(*awsCfg), cfg.AnalyticsQueueURL)
	}

	deliverer := events.NewDeliverer(store, handler, logger)
	if cfg != nil {
		deliverer = deliverer.WithInterval(cfg.AnalyticsDeliveryInterval)
	}
	return tracker, deliverer
}
