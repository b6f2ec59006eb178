// Package seed generates synthetic student-performance extracts for seeding a
// roster with baseline data and for exercising a running service end to end.
package seed

import "flag"

// Default generation settings.
const (
	defaultNumRecords = 50
	defaultTargetURL  = ""
	defaultOutPath    = ""
)

// Config controls extract generation.
type Config struct {
	// NumRecords is the number of data rows to generate.
	NumRecords int

	// OutPath, when set, writes the generated extract to a file.
	OutPath string

	// TargetURL, when set, POSTs the generated extract to a running service's
	// /ingest endpoint, e.g. http://localhost:9080/ingest.
	TargetURL string

	// MalformedRatio injects malformed embedded-JSON columns into roughly this
	// fraction of rows, to exercise the normalizer's degradation paths.
	MalformedRatio float64
}

// ParseFlags builds a Config from command-line flags.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("seed-roster", flag.ContinueOnError)
	fs.IntVar(&cfg.NumRecords, "n", defaultNumRecords, "number of records to generate")
	fs.StringVar(&cfg.OutPath, "out", defaultOutPath, "write the extract to this file")
	fs.StringVar(&cfg.TargetURL, "target", defaultTargetURL, "POST the extract to this /ingest URL")
	fs.Float64Var(&cfg.MalformedRatio, "malformed", 0, "fraction of rows given malformed embedded JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
