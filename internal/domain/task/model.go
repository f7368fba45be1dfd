package task

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// Unset marks an absent timestamp or duration.
const Unset int64 = -1

// RootName is the name stored on the root row.
const RootName = "root"

const legacyPiecesTable = "None"

// Status is the execution state of a task.
type Status int

const (
	StatusTodo Status = iota
	StatusInProgress
	StatusPaused
	StatusDone
)

var statusNames = []string{"todo", "in progress", "paused", "done"}
var statusShort = []string{"T", "I", "P", "D"}

func (s Status) Valid() bool { return s >= StatusTodo && s <= StatusDone }

func (s Status) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return statusNames[s]
}

// Short returns the one letter form used in tree listings.
func (s Status) Short() string {
	if !s.Valid() {
		return "?"
	}
	return statusShort[s]
}

// ParseStatus accepts a status name, its short form, or its number.
func ParseStatus(v string) (Status, error) {
	n, err := parseEnum(v, statusNames, statusShort, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: status %q", ErrInvalidInput, v)
	}
	return Status(n), nil
}

// Priority ranks how urgent a task is.
type Priority int

const (
	PriorityUndefined Priority = iota
	PriorityTrivial
	PriorityMinor
	PriorityMajor
	PriorityCritical
	PriorityBlocker
)

var priorityNames = []string{"undefined", "trivial", "minor", "major", "critical", "blocker"}
var priorityShort = []string{"UD", "TR", "MIN", "MAJ", "CRI", "BLK"}

func (p Priority) Valid() bool { return p >= PriorityUndefined && p <= PriorityBlocker }

func (p Priority) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return priorityNames[p]
}

func (p Priority) Short() string {
	if !p.Valid() {
		return "?"
	}
	return priorityShort[p]
}

// ParsePriority accepts a priority name, its short form, or its number.
func ParsePriority(v string) (Priority, error) {
	n, err := parseEnum(v, priorityNames, priorityShort, []string{"", "trival", "", "", "", "block"})
	if err != nil {
		return 0, fmt.Errorf("%w: priority %q", ErrInvalidInput, v)
	}
	return Priority(n), nil
}

// Efficiency is a self-assessed rating of how well a piece of work went.
type Efficiency int

const (
	EfficiencyUndefined Efficiency = iota
	EfficiencyExtremelyLow
	EfficiencyVeryLow
	EfficiencyLow
	EfficiencyNormal
	EfficiencyHigh
	EfficiencyVeryHigh
	EfficiencyExtremelyHigh
)

var efficiencyNames = []string{
	"undefined", "extremely low", "very low", "low", "normal", "high", "very high", "extremely high",
}
var efficiencyShort = []string{"UD", "EL", "VL", "L", "N", "H", "VH", "EH"}

func (e Efficiency) Valid() bool { return e >= EfficiencyUndefined && e <= EfficiencyExtremelyHigh }

func (e Efficiency) String() string {
	if !e.Valid() {
		return "unknown"
	}
	return efficiencyNames[e]
}

func (e Efficiency) Short() string {
	if !e.Valid() {
		return "?"
	}
	return efficiencyShort[e]
}

// ParseEfficiency accepts an efficiency name, its short form, or its number.
func ParseEfficiency(v string) (Efficiency, error) {
	n, err := parseEnum(v, efficiencyNames, efficiencyShort, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: efficiency %q", ErrInvalidInput, v)
	}
	return Efficiency(n), nil
}

func parseEnum(v string, names, short, aliases []string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(v))
	if n, err := strconv.Atoi(key); err == nil {
		if n < 0 || n >= len(names) {
			return 0, fmt.Errorf("out of range")
		}
		return n, nil
	}
	compact := strings.ReplaceAll(key, " ", "")
	for i := range names {
		if key == names[i] || compact == strings.ReplaceAll(names[i], " ", "") || key == strings.ToLower(short[i]) {
			return i, nil
		}
		if i < len(aliases) && aliases[i] != "" && compact == aliases[i] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value")
}

// Item is the persisted record of a task.
type Item struct {
	ID              sid.ID     `json:"id"`
	ParentID        sid.ID     `json:"parent_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Status          Status     `json:"status"`
	Priority        Priority   `json:"priority"`
	Efficiency      Efficiency `json:"efficiency"`
	CreateTime      int64      `json:"create_time"`
	UpdateTime      int64      `json:"update_time"`
	DueTime         int64      `json:"due_time"`
	CostTime        int64      `json:"cost_time"`
	ExpectTime      int64      `json:"expect_time"`
	TimePiecesTable string     `json:"-"`
}

// NewItem returns an item with no identity and no due or expected time.
func NewItem(name string) Item {
	return Item{
		ID:              sid.Invalid,
		ParentID:        sid.Invalid,
		Name:            name,
		DueTime:         Unset,
		ExpectTime:      Unset,
		TimePiecesTable: legacyPiecesTable,
	}
}

// PieceState tracks what a flush must do with a time piece.
type PieceState int

const (
	PieceClean PieceState = iota
	PieceDirty
	PieceDeleted
)

// TimePiece is one contiguous interval of work on a task.
type TimePiece struct {
	ID           int64      `json:"id"`
	TaskID       sid.ID     `json:"task_id"`
	SerialNumber int        `json:"serial_number"`
	Efficiency   Efficiency `json:"efficiency"`
	BeginTime    int64      `json:"begin_time"`
	EndTime      int64      `json:"end_time"`
	Description  string     `json:"description,omitempty"`
	State        PieceState `json:"-"`
}

// InFlight reports whether the piece has not been halted yet.
func (p *TimePiece) InFlight() bool { return p.EndTime == Unset }

// Duration is the length of a finished piece in milliseconds.
func (p *TimePiece) Duration() int64 {
	if p.InFlight() {
		return 0
	}
	return p.EndTime - p.BeginTime
}

// TaskView is a read-only snapshot of one task.
type TaskView struct {
	Item     Item        `json:"item"`
	Pieces   []TimePiece `json:"pieces"`
	InFlight *TimePiece  `json:"in_flight,omitempty"`
	Children int         `json:"children"`
}

// ListEntry is one row of a subtree listing.
type ListEntry struct {
	Item        Item `json:"item"`
	Depth       int  `json:"depth"`
	Truncated   bool `json:"truncated"`
	Running     bool `json:"running"`
	Placeholder bool `json:"placeholder,omitempty"`
}
