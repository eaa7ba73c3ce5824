package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables, applies defaults for
// unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := populate(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// populate walks the section structs of v and assigns every field that
// carries an env tag.
func populate(v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if sf.Type.Kind() == reflect.Struct {
			if err := populate(fv); err != nil {
				return err
			}
			continue
		}

		name, raw, err := lookup(sf)
		if err != nil {
			return err
		}
		if raw == "" {
			continue
		}

		if err := assign(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}

	return nil
}

// lookup resolves the raw value for a tagged field: the env var, then its
// envAlt fallback, then the default. Fields without an env tag resolve to "".
func lookup(sf reflect.StructField) (name, raw string, err error) {
	name = sf.Tag.Get("env")
	if name == "" {
		return "", "", nil
	}

	raw = os.Getenv(name)
	if alt := sf.Tag.Get("envAlt"); raw == "" && alt != "" {
		raw = os.Getenv(alt)
	}
	if raw != "" {
		return name, raw, nil
	}

	if sf.Tag.Get("required") == "true" {
		return name, "", fmt.Errorf("required environment variable %s is not set", name)
	}
	return name, sf.Tag.Get("default"), nil
}

func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fv.Type().Elem().Kind())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", fv.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// problems collects validation failures for one section.
type problems []string

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var p problems
	c.Database.validate(&p)
	c.Server.validate(&p)
	c.Import.validate(&p)
	c.Chat.validate(&p)
	c.Rate.validate(&p)
	c.Security.validate(&p)
	c.Logging.validate(&p)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (c *DatabaseConfig) validate(p *problems) {
	switch strings.ToLower(c.Driver) {
	case DriverPostgres:
		if c.URL == "" {
			p.add("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case DriverMemory:
	default:
		p.add("STORE_DRIVER (%q) must be one of: postgres, memory", c.Driver)
	}
	if c.MaxConns <= 0 {
		p.add("DB_MAX_CONNS must be positive")
	}
	if c.MinConns < 0 {
		p.add("DB_MIN_CONNS must be non-negative")
	}
	if c.MaxConns < c.MinConns {
		p.add("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.MaxConns, c.MinConns)
	}
}

func (c *ServerConfig) validate(p *problems) {
	if c.Port <= 0 || c.Port > 65535 {
		p.add("SERVER_PORT (%d) must be 1-65535", c.Port)
	}
	if c.ReadTimeout < 0 {
		p.add("SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.ShutdownTimeout <= 0 {
		p.add("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
}

func (c *ImportConfig) validate(p *problems) {
	if c.BatchSize <= 0 {
		p.add("IMPORT_BATCH_SIZE must be positive")
	}
	if c.ConflictKey != ConflictPolicyID && c.ConflictKey != ConflictClaimID {
		p.add("IMPORT_CONFLICT_KEY (%q) must be one of: policy_id, claim_id", c.ConflictKey)
	}
	if c.OnStartup && c.CSVPath == "" {
		p.add("IMPORT_CSV_PATH is required when IMPORT_ON_STARTUP is true")
	}
	if c.MaxFileSize <= 0 {
		p.add("IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.MaxConcurrent <= 0 {
		p.add("IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.MaxWaitTime < 0 {
		p.add("IMPORT_MAX_WAIT_TIME must be non-negative")
	}
	if c.Timeout <= 0 {
		p.add("IMPORT_TIMEOUT must be positive")
	}
}

func (c *ChatConfig) validate(p *problems) {
	if c.ChunkWords <= 0 {
		p.add("CHAT_CHUNK_WORDS must be positive")
	}
	if c.Delay < 0 {
		p.add("CHAT_DELAY must be non-negative")
	}
}

func (c *RateLimitConfig) validate(p *problems) {
	if !c.Enabled {
		return
	}
	if c.RequestsPerMinute <= 0 {
		p.add("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.ImportLimit <= 0 {
		p.add("RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}
}

func (c *SecurityConfig) validate(p *problems) {
	if c.RequireAPIKey && len(c.APIKeys) == 0 {
		p.add("REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}
}

func (c *LoggingConfig) validate(p *problems) {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.add("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		p.add("LOG_FORMAT (%q) must be one of: text, json", c.Format)
	}
}

// String returns a representation of the config that is safe to log; the
// database URL and API keys are never printed.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Database: {Driver: %q, URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.Driver, c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Import: {BatchSize: %d, ConflictKey: %q, OnStartup: %v}, ",
		c.Import.BatchSize, c.Import.ConflictKey, c.Import.OnStartup)
	fmt.Fprintf(&b, "Chat: {ChunkWords: %d, Delay: %s}, ", c.Chat.ChunkWords, c.Chat.Delay)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
