// recurexpand expands a recurrence rule and prints its occurrences.
//
// The rule comes either from a JSON, JSONC or YAML file (--file) or from
// inline flags:
//
//	recurexpand --start 2024-01-01T09:00:00 --type weekly --repeat mon,wed --limit 2024-03-01
//	recurexpand --file standup.yaml --format ics > standup.ics
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/cyp0633/librecur/ics"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/recurrence/params"
)

type flags struct {
	file     string
	format   string
	layout   string
	max      int
	logLevel string
	summary  string
	utc      bool
	rrule    bool

	start    string
	cadence  string
	interval int
	limit    string
	repeat   string
	timezone string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if _, ok := recurrence.AsValidationError(err); ok {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var f flags

	flagSet := pflag.NewFlagSet("recurexpand", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&f.file, "file", "f", "", "rule document (.json, .jsonc, .yaml)")
	flagSet.StringVar(&f.format, "format", "text", "output format: text, json, ics or xcal")
	flagSet.StringVar(&f.layout, "layout", time.RFC3339, "Go time layout for text output")
	flagSet.IntVar(&f.max, "max", recurrence.DefaultEngineConfig.MaxOccurrences, "maximum projected occurrences (0 disables the cap)")
	flagSet.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flagSet.StringVar(&f.summary, "summary", "", "SUMMARY for ics/xcal output")
	flagSet.BoolVar(&f.utc, "utc", false, "write ics/xcal instants in UTC")
	flagSet.BoolVar(&f.rrule, "rrule", false, "include an approximate RRULE in ics/xcal output")
	flagSet.StringVar(&f.start, "start", "", "start date-time (default now)")
	flagSet.StringVar(&f.cadence, "type", "daily", "cadence: daily, weekly or monthly")
	flagSet.IntVar(&f.interval, "interval", 1, "step between cycles")
	flagSet.StringVar(&f.limit, "limit", "", "last date to expand (default start + 20 years)")
	flagSet.StringVar(&f.repeat, "repeat", "", "weekdays for weekly rules (mon,wed), day-of-month or day-of-week for monthly")
	flagSet.StringVar(&f.timezone, "timezone", "", "IANA timezone for the start and limit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	level, err := parseLevel(f.logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	spec, err := loadSpec(f, flagSet)
	if err != nil {
		return err
	}

	config := recurrence.DefaultEngineConfig
	config.MaxOccurrences = f.max
	engine := recurrence.NewEngineWithConfig(config, recurrence.WithLogger(logger))
	defer engine.Close()

	occurrences, err := engine.Run(spec)
	if err != nil {
		return err
	}
	logger.Info("expanded rule", "count", len(occurrences))

	return write(stdout, f, spec, occurrences)
}

// loadSpec reads the rule file when one is given and otherwise assembles
// the same field map from the inline flags.
func loadSpec(f flags, flagSet *pflag.FlagSet) (recurrence.Spec, error) {
	if f.file != "" {
		for _, name := range []string{"start", "type", "interval", "limit", "repeat", "timezone"} {
			if flagSet.Changed(name) {
				return recurrence.Spec{}, fmt.Errorf("--%s cannot be combined with --file", name)
			}
		}
		return params.ReadFile(f.file)
	}

	fields := map[string]any{
		"type":     f.cadence,
		"interval": f.interval,
	}
	if f.start != "" {
		fields["from"] = f.start
	}
	if f.limit != "" {
		fields["limit"] = f.limit
	}
	if f.timezone != "" {
		fields["timezone"] = f.timezone
	}
	if f.repeat != "" {
		fields["repeat"] = f.repeat
	}
	return params.FromMap(fields)
}

func write(w io.Writer, f flags, spec recurrence.Spec, occurrences []time.Time) error {
	switch f.format {
	case "text":
		for _, t := range occurrences {
			if _, err := fmt.Fprintln(w, t.Format(f.layout)); err != nil {
				return err
			}
		}
		return nil
	case "json":
		out := struct {
			Count       int         `json:"count"`
			Occurrences []time.Time `json:"occurrences"`
		}{len(occurrences), occurrences}
		if out.Occurrences == nil {
			out.Occurrences = []time.Time{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "ics", "xcal":
		opts := ics.ExportOptions{Summary: f.summary, UTC: f.utc}
		if f.rrule {
			rule, err := ics.RRuleOption(spec)
			if err != nil {
				return err
			}
			opts.RRule = rule
		}
		if f.format == "ics" {
			return ics.Encode(w, occurrences, opts)
		}
		return ics.EncodeXCal(w, occurrences, opts)
	}
	return fmt.Errorf("unknown format %q", f.format)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
