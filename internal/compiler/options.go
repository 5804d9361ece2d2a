package compiler

import (
	"io"
	"log/slog"
)

// PageDefaults fills page fields the caller leaves unset.
type PageDefaults struct {
	Offset int64
	Limit  *int64
}

type options struct {
	strict       bool
	idColumn     string
	valueColumn  string
	newAliases   func() AliasGenerator
	pageDefaults PageDefaults
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		idColumn:    "id",
		valueColumn: "value",
		newAliases:  NewCounterAliases,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a Compiler.
type Option func(*options)

// WithStrict makes fields without a registered subquery an error instead of
// a same-table column reference.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithIDColumn sets the base table column correlated with resource_id.
// Default "id".
func WithIDColumn(col string) Option {
	return func(o *options) {
		if col != "" {
			o.idColumn = col
		}
	}
}

// WithValueColumn sets the subquery column filters compare against.
// Default "value".
func WithValueColumn(col string) Option {
	return func(o *options) {
		if col != "" {
			o.valueColumn = col
		}
	}
}

// WithAliases sets the alias generator factory. It is called once per
// Filter call. Default NewCounterAliases.
func WithAliases(newGen func() AliasGenerator) Option {
	return func(o *options) {
		if newGen != nil {
			o.newAliases = newGen
		}
	}
}

// WithPageDefaults sets the values used for unset page fields.
// Default {Offset: 0}.
func WithPageDefaults(d PageDefaults) Option {
	return func(o *options) {
		o.pageDefaults = d
	}
}

// WithLogger sets the logger used for debug output. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
