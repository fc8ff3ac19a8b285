package bus

import (
	"fmt"
	"strings"

	"github.com/shopsearch/shop-search/internal/config"
	"github.com/shopsearch/shop-search/internal/pkg/errors"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

// NewBus creates a Bus instance based on the configuration.
func NewBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(log), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: "shop-search",
			ClientID:      "shop-search-bus",
		}, log)

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
