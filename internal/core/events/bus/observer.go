package bus

import (
	"time"

	"github.com/zeusync/intersim/internal/core/observability/log"
)

var _ EventBusObserver = (*LogObserver)(nil)

// LogObserver writes failed deliveries at warn level and every delivery at debug level.
// Registering it also turns on the bus metrics.
type LogObserver struct {
	logger log.Log
}

func NewLogObserver(logger log.Log) *LogObserver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &LogObserver{logger: logger.With(log.String("component", "bus"))}
}

func (o *LogObserver) OnPublish(string, Event) {}

func (o *LogObserver) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	if err != nil {
		o.logger.Warn("Event delivery failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err))
		return
	}
	o.logger.Debug("Event delivered",
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("took", duration))
}
