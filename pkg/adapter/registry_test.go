package adapter

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/prefixsql/pkg/dialect"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	BaseSQLAdapter
}

func (a *stubAdapter) Connect(context.Context, Config) error { return nil }

func (a *stubAdapter) ListTables(context.Context) ([]TableInfo, error) { return nil, nil }

func registerStub(t *testing.T, typ, dialectName string) {
	t.Helper()
	d, ok := dialect.Get(dialectName)
	require.True(t, ok)
	Register(typ, func(logger *slog.Logger) Adapter {
		return &stubAdapter{BaseSQLAdapter{Logger: logger, SQLDialect: d}}
	})
}

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db")
	assert.Contains(t, msg, "duckdb, postgres")
	assert.Contains(t, msg, "prefixsql.yaml")
}

func TestRegister(t *testing.T) {
	registerStub(t, "Stub_Registry", "postgres")

	assert.True(t, Registered("stub_registry"))
	assert.True(t, Registered("STUB_REGISTRY"))
	assert.Contains(t, Types(), "stub_registry")
	assert.False(t, Registered("oracle"))
}

func TestNewAdapter(t *testing.T) {
	registerStub(t, "stub_new", "postgres")

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		errText string
	}{
		{name: "valid prefix", cfg: Config{Type: "stub_new", Prefix: "wp_"}},
		{name: "no prefix", cfg: Config{Type: "stub_new"}},
		{name: "type is case insensitive", cfg: Config{Type: "Stub_New", Prefix: "wp_"}},
		{name: "missing type", cfg: Config{}, errText: "adapter type not specified"},
		{name: "invalid prefix", cfg: Config{Type: "stub_new", Prefix: "wp."}, wantErr: prefix.ErrInvalidPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAdapter(tt.cfg, nil)
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
			case tt.errText != "":
				require.EqualError(t, err, tt.errText)
			default:
				require.NoError(t, err)
				open, closeQuote := a.QuoteStrings()
				assert.Equal(t, `""`, open+closeQuote)
			}
		})
	}

	_, err := NewAdapter(Config{Type: "oracle"}, nil)
	var unknown *UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
	assert.Contains(t, unknown.Available, "stub_new")
}

func TestNewAdapterNilFactory(t *testing.T) {
	Register("stub_nil", func(*slog.Logger) Adapter { return nil })
	_, err := NewAdapter(Config{Type: "stub_nil"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "factory returned no adapter")
}
