package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/stringutils"
	"github.com/autobrr/qmaint/pkg/tracker"
)

type Configuration struct {
	Scheduler     SchedulerConfig                  `koanf:"scheduler"`
	Instances     map[string]InstanceConfiguration `koanf:"instances"`
	Rules         []RuleConfiguration              `koanf:"rules"`
	HardLink      HardLinkConfig                   `koanf:"hard_link"`
	CrossSeed     CrossSeedConfig                  `koanf:"cross_seed"`
	Unregistered  UnregisteredConfig               `koanf:"unregistered"`
	Orphan        OrphanConfig                     `koanf:"orphan"`
	EventLog      EventLogConfig                   `koanf:"event_log"`
	Notifications NotificationsConfig              `koanf:"notifications"`
	Trackers      tracker.Config                   `koanf:"trackers"`
}

/* Vars */

var (
	cfgPath = ""

	Delimiter = "."
	Config    *Configuration
	K         = koanf.New(Delimiter)

	// Internal
	log = logger.GetLogger("cfg")
)

var defaults = map[string]interface{}{
	"scheduler.interval":     "10m",
	"hard_link.grace_period": "1h",
	"cross_seed.keep":        "ratio",
	"orphan.min_age":         "168h",
	"orphan.interval":        "6h",
	"event_log.keep":         1000,
}

/* Public */

func Init(configFilePath string) error {
	// set package variables
	cfgPath = configFilePath

	// load defaults
	if err := K.Load(confmap.Provider(defaults, Delimiter), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	// load config
	if err := K.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
		return fmt.Errorf("load file: %w", err)
	}

	// load environment variables
	if err := K.Load(env.Provider("QMAINT__", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "QMAINT__")), "_", ".", -1)
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	// unmarshal config
	if err := K.Unmarshal("", &Config); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	return nil
}

func ShowUsing() {
	log.Infof("Using %s = %q", stringutils.LeftJust("CONFIG", " ", 10), cfgPath)
}
