// Package logging constructs the process-wide structured logger.
//
// There is no package-level logger global: New is called once in
// cmd/dispatcher and the resulting core.Logger is threaded into every
// component that needs one.
package logging

import (
	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
)

// New builds the dispatcher's logger. verbose lowers the minimum level
// from Information to Debug.
func New(verbose bool) core.Logger {
	opts := []mtlog.Option{mtlog.WithConsole(), mtlog.WithTimestamp()}
	if verbose {
		opts = append(opts, mtlog.WithMinimumLevel(core.DebugLevel))
	}
	return mtlog.New(opts...)
}
