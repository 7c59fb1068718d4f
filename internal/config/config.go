// Package config defines the catalog service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/kchlu/stocktake/pkg/config"
	"github.com/kchlu/stocktake/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Backend names for the product store.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTPServer config.HTTPConfig     `koanf:"server"`
	Log        config.LogConfig      `koanf:"log"`
	PProf      config.PProfConfig    `koanf:"pprof"`
	Shutdown   config.ShutdownConfig `koanf:"shutdown"`
	Store      StoreConfig           `koanf:"store"`
	Ingest     IngestConfig          `koanf:"ingest"`
	Normalize  NormalizeConfig       `koanf:"normalize"`
	Search     SearchConfig          `koanf:"search"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string `koanf:"backend"`
	File    struct {
		Path string `koanf:"path"`
	} `koanf:"file"`
	Database config.DatabaseConfig `koanf:"database"`
}

func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendFile:
		if c.File.Path == "" {
			return fmt.Errorf("store.file.path is required for the file backend")
		}
		return nil
	case BackendPostgres:
		return c.Database.Validate()
	}
	return fmt.Errorf("unknown store backend: %q", c.Backend)
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	OCR struct {
		Enabled           bool     `koanf:"enabled"`
		Languages         []string `koanf:"languages"`
		MaxImageDimension int      `koanf:"maxImageDimension"`
	} `koanf:"ocr"`
}

func (c *IngestConfig) Validate() error {
	if c.OCR.MaxImageDimension < 0 {
		return fmt.Errorf("ingest.ocr.maxImageDimension must not be negative")
	}
	return nil
}

// NormalizeConfig configures the optional script conversion. An empty
// conversion name disables it. StoreNormalized opts into converting
// names at ingest time instead of only at export.
type NormalizeConfig struct {
	Conversion      string `koanf:"conversion"`
	StoreNormalized bool   `koanf:"storeNormalized"`
}

// SearchConfig carries the caller-defined fuzzy empty-query behavior:
// "none" returns nothing, "all" returns the unranked snapshot.
type SearchConfig struct {
	FuzzyEmptyQuery string `koanf:"fuzzyEmptyQuery"`
}

func (c *SearchConfig) Validate() error {
	switch c.FuzzyEmptyQuery {
	case "", "none", "all":
		return nil
	}
	return fmt.Errorf("search.fuzzyEmptyQuery must be \"none\" or \"all\", got %q", c.FuzzyEmptyQuery)
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))

	b.WriteString("\n--- Store Configuration ---\n")
	b.WriteString(fmt.Sprintf("  store.backend: %s\n", c.Store.Backend))
	if c.Store.Backend == BackendFile {
		b.WriteString(fmt.Sprintf("  store.file.path: %s\n", c.Store.File.Path))
	}
	if c.Store.Backend == BackendPostgres {
		b.WriteString(fmt.Sprintf("  store.database.url: %s\n", maskURL(c.Store.Database.URL)))
		b.WriteString(fmt.Sprintf("  store.database.timeout: %s\n", c.Store.Database.Timeout))
	}

	b.WriteString("\n--- Ingestion ---\n")
	b.WriteString(fmt.Sprintf("  ingest.ocr.enabled: %t\n", c.Ingest.OCR.Enabled))
	if c.Ingest.OCR.Enabled {
		b.WriteString(fmt.Sprintf("  ingest.ocr.languages: %s\n", strings.Join(c.Ingest.OCR.Languages, "+")))
	}
	b.WriteString(fmt.Sprintf("  normalize.conversion: %s\n", orNone(c.Normalize.Conversion)))
	b.WriteString(fmt.Sprintf("  normalize.storeNormalized: %t\n", c.Normalize.StoreNormalized))

	b.WriteString("\n--- Search ---\n")
	b.WriteString(fmt.Sprintf("  search.fuzzyEmptyQuery: %s\n", orNone(c.Search.FuzzyEmptyQuery)))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	return c.Search.Validate()
}
