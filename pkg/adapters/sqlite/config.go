package sqlite

import "github.com/leapstack-labs/prefixsql/pkg/adapter"

// Params holds SQLite-specific configuration.
type Params struct {
	// Pragmas applied after connecting (e.g., journal_mode: wal).
	Pragmas map[string]string `mapstructure:"pragmas"`

	// BusyTimeout in milliseconds.
	BusyTimeout int `mapstructure:"busy_timeout"`
}

// ParseParams decodes target params into Params.
func ParseParams(params map[string]any) (*Params, error) {
	p := &Params{}
	if err := adapter.DecodeParams(params, p); err != nil {
		return nil, err
	}
	return p, nil
}
