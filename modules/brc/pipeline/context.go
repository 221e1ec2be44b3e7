package pipeline

import (
	"go.uber.org/zap"

	"github.com/yanet-platform/brc/modules/brc/tables"
)

// Context is the execution state of one core.
//
// It is reused for every packet the core handles, which is sound because a
// core runs one chain at a time, to completion.
type Context struct {
	core      uint32
	direction tables.Direction
	tables    *tables.Tables

	// Scratch space, valid within a single program run.
	hdr     headers
	pending tables.PendingKey

	chain Chain
	log   *zap.SugaredLogger
}

func newContext(core uint32, t *tables.Tables, log *zap.SugaredLogger) Context {
	return Context{
		core:   core,
		tables: t,
		pending: tables.PendingKey{
			Key: make([]byte, 0, t.Cache.MaxKeyLength()),
		},
		log: log,
	}
}

// Core returns the index of the executing core.
func (m *Context) Core() uint32 {
	return m.core
}

// Direction returns the hook the current chain runs on.
func (m *Context) Direction() tables.Direction {
	return m.direction
}

// Tables returns the shared tables.
func (m *Context) Tables() *tables.Tables {
	return m.tables
}

// Stats returns the statistics entry of the executing core, or nil if the
// table has no entry for it.
func (m *Context) Stats() *tables.StatsEntry {
	return m.tables.Stats.Lookup(m.core)
}

// ParsingContext returns the parsing slot of the executing core and
// direction, or nil if the table has no slot for it.
func (m *Context) ParsingContext() *tables.ParsingContext {
	return m.tables.Parsing.Lookup(m.core, m.direction)
}
