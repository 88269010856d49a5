package trigger

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flowsmith/engine/bus"
	"github.com/flowsmith/engine/model"
	"github.com/robfig/cron/v3"
)

var ratePattern = regexp.MustCompile(`^rate\((\d+)\s+(second|minute|hour|day)s?\)$`)

// NormalizeCron accepts both the five field form and the six field
// scheduler form (minute hour day-of-month month day-of-week year) where
// "?" stands for any value. The year field must be open; anything narrower
// can not be expressed on the background clock.
func NormalizeCron(expr string) (string, error) {
	fields := strings.Fields(expr)
	if len(fields) == 6 {
		year := fields[5]
		if year != "*" && year != "?" {
			return "", fmt.Errorf("cron expression %q restricts the year field", expr)
		}
		fields = fields[:5]
	}
	if len(fields) != 5 {
		return "", fmt.Errorf("cron expression %q must have 5 or 6 fields", expr)
	}
	for i, f := range fields {
		if f == "?" {
			fields[i] = "*"
		}
	}
	normalized := strings.Join(fields, " ")
	if _, err := cron.ParseStandard(normalized); err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return normalized, nil
}

// ParseRate accepts plain Go durations ("5m") and the rate(5 minutes) form.
func ParseRate(expr string) (time.Duration, error) {
	if m := ratePattern.FindStringSubmatch(strings.TrimSpace(expr)); m != nil {
		var unit time.Duration
		switch m[2] {
		case "second":
			unit = time.Second
		case "minute":
			unit = time.Minute
		case "hour":
			unit = time.Hour
		case "day":
			unit = 24 * time.Hour
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n <= 0 {
			return 0, fmt.Errorf("rate expression %q must be positive", expr)
		}
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid rate expression %q: %w", expr, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("rate expression %q must be positive", expr)
	}
	return d, nil
}

// Validate checks every trigger attached to a definition. A failure here is
// fatal at load time and the flow is not registered.
func Validate(def model.FlowDefinition) error {
	if def.Cron != "" {
		if _, err := NormalizeCron(def.Cron); err != nil {
			return err
		}
	}
	if def.Rate != "" {
		if _, err := ParseRate(def.Rate); err != nil {
			return err
		}
	}
	if def.Event != nil {
		if err := bus.ValidateFilter(*def.Event); err != nil {
			return fmt.Errorf("flow %s: %w", def.Name, err)
		}
	}
	return nil
}
