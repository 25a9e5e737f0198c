package execution

import (
	"context"
	"log/slog"

	"github.com/s1dharth-s/qlever/pkg/blanknode"
	"github.com/s1dharth-s/qlever/pkg/config"
	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/logging"
	"github.com/s1dharth-s/qlever/pkg/memory"
)

// Context is the query-wide state shared by all operations of one or more
// queries.
type Context struct {
	Limit      *memory.Limit
	BlankNodes *blanknode.Manager
	Config     config.Config
	Logger     *slog.Logger
}

// NewContext creates a context from cfg with a fresh memory limit and blank
// node manager.
func NewContext(cfg config.Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit, err := cfg.MemoryLimit()
	if err != nil {
		return nil, err
	}
	return &Context{
		Limit:      memory.NewLimit(limit),
		BlankNodes: blanknode.NewManager(cfg.BlankNodes.MinIndex, cfg.BlankNodes.BlockSize),
		Config:     cfg,
		Logger:     logging.WithComponent("execution"),
	}, nil
}

// DefaultContext creates a context from config.Default.
func DefaultContext() *Context {
	qec, err := NewContext(config.Default())
	if err != nil {
		panic(err)
	}
	return qec
}

// Checker returns the cancellation check for operation. The check returns a
// timeout error once ctx is done.
func Checker(ctx context.Context, operation string) func() error {
	return func() error {
		if err := ctx.Err(); err != nil {
			return dberror.Timeout(operation, context.Cause(ctx))
		}
		return nil
	}
}
