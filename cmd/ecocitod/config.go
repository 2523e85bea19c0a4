package main

import (
	devenv "ecocito-bridge/dev/env"
	"ecocito-bridge/lib/configutil"
	"ecocito-bridge/lib/dedup"
	"ecocito-bridge/lib/telemetry"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Duration reads "1h30m" style strings in config files.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	err := json.Unmarshal(data, &s)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"1h\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type PortalConfig struct {
	Subdomain      string   `json:"subdomain"`
	BaseUrl        string   `json:"base_url"`
	Username       string   `json:"username"`
	Password       string   `json:"password"`
	RequestTimeout Duration `json:"request_timeout"`
	PageSize       int      `json:"page_size"`
	Paginate       *bool    `json:"paginate"`
	HttpDumpDir    string   `json:"http_dump_dir"`
}

type MqttConfig struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	Username string `json:"username"`
	Password string `json:"password"`
	ClientId string `json:"client_id"`
}

type StateConfig struct {
	File      string `json:"file"`
	Backend   string `json:"backend"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

type PollConfig struct {
	Interval       Duration `json:"interval"`
	RetryDelay     Duration `json:"retry_delay"`
	RetryMaxDelay  Duration `json:"retry_max_delay"`
	CycleTimeout   Duration `json:"cycle_timeout"`
	LookbackMonths int      `json:"lookback_months"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Config struct {
	Timezone  string           `json:"timezone"`
	Portal    PortalConfig     `json:"portal"`
	Mqtt      MqttConfig       `json:"mqtt"`
	State     StateConfig      `json:"state"`
	Poll      PollConfig       `json:"poll"`
	Log       LogConfig        `json:"log"`
	Telemetry telemetry.Config `json:"telemetry"`
}

// LoadConfig reads the optional config file (with its .local override),
// applies the environment on top of it, fills in defaults and validates
// the result. lookup is os.LookupEnv outside of tests.
func LoadConfig(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file, using the environment only", "path", path)
		cfg = Config{}
	} else if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	err = applyEnv(&cfg, lookup)
	if err != nil {
		return Config{}, err
	}
	cfg.setDefaults()

	cfg.State.File, err = devenv.ResolvePath(cfg.State.File)
	if err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

// LoadDotenv adds the variables of a .env file to the process
// environment, variables that are already set win.
func LoadDotenv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type envVar struct {
	name  string
	apply func(value string) error
}

func setString(dst *string) func(string) error {
	return func(value string) error {
		*dst = value
		return nil
	}
}

func setDuration(dst *Duration) func(string) error {
	return func(value string) error {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*dst = Duration(parsed)
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(value string) error {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*dst = parsed
		return nil
	}
}

func setBool(dst **bool) func(string) error {
	return func(value string) error {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*dst = &parsed
		return nil
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	vars := []envVar{
		{"TZ", setString(&cfg.Timezone)},
		{"STATE_FILE", setString(&cfg.State.File)},
		{"STATE_BACKEND", setString(&cfg.State.Backend)},
		{"STATE_URL", setString(&cfg.State.Url)},
		{"STATE_AUTH_TOKEN", setString(&cfg.State.AuthToken)},
		{"MQTT_BROKER", setString(&cfg.Mqtt.Broker)},
		{"MQTT_TOPIC", setString(&cfg.Mqtt.Topic)},
		{"MQTT_USERNAME", setString(&cfg.Mqtt.Username)},
		{"MQTT_PASSWORD", setString(&cfg.Mqtt.Password)},
		{"MQTT_CLIENT_ID", setString(&cfg.Mqtt.ClientId)},
		{"ECOCITO_SUBDOMAIN", setString(&cfg.Portal.Subdomain)},
		{"ECOCITO_BASE_URL", setString(&cfg.Portal.BaseUrl)},
		{"ECOCITO_USERNAME", setString(&cfg.Portal.Username)},
		{"ECOCITO_PASSWORD", setString(&cfg.Portal.Password)},
		{"REQUEST_TIMEOUT", setDuration(&cfg.Portal.RequestTimeout)},
		{"PAGE_SIZE", setInt(&cfg.Portal.PageSize)},
		{"PAGINATE", setBool(&cfg.Portal.Paginate)},
		{"HTTP_DUMP_DIR", setString(&cfg.Portal.HttpDumpDir)},
		{"POLL_INTERVAL", setDuration(&cfg.Poll.Interval)},
		{"RETRY_DELAY", setDuration(&cfg.Poll.RetryDelay)},
		{"RETRY_MAX_DELAY", setDuration(&cfg.Poll.RetryMaxDelay)},
		{"CYCLE_TIMEOUT", setDuration(&cfg.Poll.CycleTimeout)},
		{"LOOKBACK_MONTHS", setInt(&cfg.Poll.LookbackMonths)},
		{"LOG_LEVEL", setString(&cfg.Log.Level)},
		{"LOG_FORMAT", setString(&cfg.Log.Format)},
	}

	var errs []error
	for _, v := range vars {
		value, ok := lookup(v.name)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		err := v.apply(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.name, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) setDefaults() {
	if c.State.File == "" {
		c.State.File = "/data/state.json"
	}
	if c.State.Backend == "" {
		c.State.Backend = string(dedup.BackendJson)
	}
	if c.Mqtt.Topic == "" {
		c.Mqtt.Topic = "ecocito/levee"
	}
	if c.Portal.RequestTimeout == 0 {
		c.Portal.RequestTimeout = Duration(time.Second * 30)
	}
	if c.Portal.PageSize == 0 {
		c.Portal.PageSize = 20
	}
	if c.Portal.Paginate == nil {
		paginate := true
		c.Portal.Paginate = &paginate
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = Duration(time.Hour)
	}
	if c.Poll.RetryDelay == 0 {
		c.Poll.RetryDelay = c.Poll.Interval
	}
	if c.Poll.RetryMaxDelay == 0 {
		c.Poll.RetryMaxDelay = c.Poll.RetryDelay
	}
	if c.Poll.CycleTimeout == 0 {
		c.Poll.CycleTimeout = Duration(time.Minute * 5)
	}
	if c.Poll.LookbackMonths == 0 {
		c.Poll.LookbackMonths = 2
	}
}

func (c Config) validate() error {
	var errs []error
	if c.Portal.PageSize < 0 {
		errs = append(errs, errors.New("PAGE_SIZE must be positive"))
	}
	if c.Poll.LookbackMonths < 0 {
		errs = append(errs, errors.New("LOOKBACK_MONTHS must be positive"))
	}
	if c.Poll.RetryMaxDelay < c.Poll.RetryDelay {
		errs = append(errs, errors.New("RETRY_MAX_DELAY must not be below RETRY_DELAY"))
	}
	backend, err := dedup.ParseBackend(c.State.Backend)
	if err != nil {
		errs = append(errs, err)
	}
	if backend == dedup.BackendLibsql && c.State.Url == "" {
		errs = append(errs, errors.New("STATE_URL is required with STATE_BACKEND=libsql"))
	}
	_, err = telemetry.ParseLevel(c.Log.Level)
	if err != nil {
		errs = append(errs, err)
	}
	_, err = telemetry.ParseFormat(c.Log.Format)
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RequirePortal checks the settings needed to log into the portal.
func (c Config) RequirePortal() error {
	var errs []error
	if c.Portal.Subdomain == "" && c.Portal.BaseUrl == "" {
		errs = append(errs, errors.New("ECOCITO_SUBDOMAIN is required"))
	}
	if c.Portal.Username == "" {
		errs = append(errs, errors.New("ECOCITO_USERNAME is required"))
	}
	if c.Portal.Password == "" {
		errs = append(errs, errors.New("ECOCITO_PASSWORD is required"))
	}
	return errors.Join(errs...)
}

// RequireBridge checks the settings needed to run the bridge.
func (c Config) RequireBridge() error {
	err := c.RequirePortal()
	if c.Mqtt.Broker == "" {
		err = errors.Join(errors.New("MQTT_BROKER is required"), err)
	}
	return err
}
