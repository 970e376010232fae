// Package undo implements a grouped undo/redo command log.
//
// Instead of capturing live state in closures, the log stores explicit
// inverse-command values; the registry interprets them on replay. Commands
// registered between Begin and End form one group, reverted atomically by a
// single undo. Registering while no group is open creates a single-command
// group.
package undo

import (
	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/models"
)

// Op identifies the mutation a Command performs on replay.
type Op int

const (
	// OpLink links a transaction to a card.
	OpLink Op = iota
	// OpUnlink removes a transaction from a card.
	OpUnlink
	// OpSetChosen sets a card's chosen flag.
	OpSetChosen
	// OpRestoreTransaction reinstates a transaction snapshot, or deletes
	// the transaction when the snapshot is nil.
	OpRestoreTransaction
)

// Command is one replayable inverse action.
type Command struct {
	Op            Op
	CardID        uuid.UUID
	TransactionID uuid.UUID
	Chosen        bool
	// Transaction is the snapshot restored by OpRestoreTransaction.
	Transaction *models.Transaction
}

type group []Command

type mode int

const (
	recording mode = iota
	undoing
	redoing
)

// Log holds the undo and redo stacks. Not safe for concurrent use; it is
// owned by the registry and shares its serialization requirements.
type Log struct {
	undoStack []group
	redoStack []group
	current   group
	depth     int
	mode      mode
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Begin opens an undo group. Groups nest; only the outermost End closes
// the group.
func (l *Log) Begin() {
	l.depth++
}

// End closes the innermost group. Closing the outermost group pushes the
// collected commands as one atomic undo step.
func (l *Log) End() {
	if l.depth > 0 {
		l.depth--
	}
	if l.depth == 0 {
		l.flush()
	}
}

// Register pushes one inverse command. While undoing, commands collect on
// the redo stack; while redoing, back on the undo stack. A registration
// during normal recording invalidates redo history.
func (l *Log) Register(cmd Command) {
	l.current = append(l.current, cmd)
	if l.depth == 0 {
		l.flush()
	}
}

func (l *Log) flush() {
	if len(l.current) == 0 {
		return
	}
	g := l.current
	l.current = nil
	switch l.mode {
	case undoing:
		l.redoStack = append(l.redoStack, g)
	case redoing:
		l.undoStack = append(l.undoStack, g)
	default:
		l.undoStack = append(l.undoStack, g)
		l.redoStack = nil
	}
}

// Undo replays the most recent group's commands, newest first, through
// apply. Inverses registered during the replay land on the redo stack.
// Returns false when there is nothing to undo.
func (l *Log) Undo(apply func(Command)) bool {
	if l.depth > 0 || len(l.undoStack) == 0 {
		return false
	}
	g := l.undoStack[len(l.undoStack)-1]
	l.undoStack = l.undoStack[:len(l.undoStack)-1]
	l.replay(g, undoing, apply)
	return true
}

// Redo replays the most recently undone group. Returns false when there is
// nothing to redo.
func (l *Log) Redo(apply func(Command)) bool {
	if l.depth > 0 || len(l.redoStack) == 0 {
		return false
	}
	g := l.redoStack[len(l.redoStack)-1]
	l.redoStack = l.redoStack[:len(l.redoStack)-1]
	l.replay(g, redoing, apply)
	return true
}

func (l *Log) replay(g group, m mode, apply func(Command)) {
	l.mode = m
	l.Begin()
	for i := len(g) - 1; i >= 0; i-- {
		apply(g[i])
	}
	l.End()
	l.mode = recording
}

// CanUndo reports whether an undo step is available.
func (l *Log) CanUndo() bool { return len(l.undoStack) > 0 }

// CanRedo reports whether a redo step is available.
func (l *Log) CanRedo() bool { return len(l.redoStack) > 0 }

// Clear drops all history without executing anything.
func (l *Log) Clear() {
	l.undoStack = nil
	l.redoStack = nil
	l.current = nil
	l.depth = 0
	l.mode = recording
}
