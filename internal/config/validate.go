package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
)

// Validate checks every field and reports all problems at once as criterio.FieldErrors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("database", c.Database, notBlank),
		criterio.Run("owner", c.Owner, notBlank),
		criterio.Run("timezone", c.Timezone, knownTimezone),
		criterio.Run("log_level", c.LogLevel, knownLogLevel),
		criterio.Run("scheduler_buffer", c.SchedulerBuffer, positive),
		c.validateSuggestedTags(),
	)
}

func (c *Config) validateSuggestedTags() error {
	var errs criterio.FieldErrorsBuilder
	for i, tag := range c.SuggestedTags {
		if strings.TrimSpace(tag) == "" {
			errs = errs.Append(fmt.Sprintf("suggested_tags[%d]", i), errors.New("tag is empty"))
		}
	}
	return errs.ToError()
}

func notBlank(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func positive(v int) error {
	if v < 1 {
		return fmt.Errorf("must be at least 1, got %d", v)
	}
	return nil
}

func knownTimezone(v string) error {
	if _, err := time.LoadLocation(v); err != nil {
		return fmt.Errorf("unknown timezone %q", v)
	}
	return nil
}

func knownLogLevel(v string) error {
	if _, err := zerolog.ParseLevel(v); err != nil {
		return fmt.Errorf("unknown log level %q", v)
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is a file, not a directory", path)
	}
	return nil
}
