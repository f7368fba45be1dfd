package task

import (
	"context"
	"errors"

	"github.com/rpggio/tflies/internal/repository"
)

// FlushReport counts the rows a flush wrote.
type FlushReport struct {
	Upserted int
	Deleted  int
	Pieces   int
}

// Flush writes every dirty node and deletes every tombstoned one, walking
// depth-first from the root. It stops at the first failure. Nodes flushed
// before the failure stay committed and clean; the rest stay pending.
func (f *Forest) Flush(ctx context.Context, repo Repository) (FlushReport, error) {
	var report FlushReport
	err := f.flushNode(ctx, repo, f.root, &report)
	return report, err
}

func (f *Forest) flushNode(ctx context.Context, repo Repository, n *Node, report *FlushReport) error {
	if err := ctx.Err(); err != nil {
		return &FlushError{TaskID: n.ID(), Op: "flush", Err: err}
	}

	switch {
	case n.state == StateTombstoned:
		if err := repo.DeleteTask(ctx, n.ID()); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return &FlushError{TaskID: n.ID(), Op: "delete task", Err: err}
		}
		if err := repo.DeleteTimePiecesByTask(ctx, n.ID()); err != nil {
			return &FlushError{TaskID: n.ID(), Op: "delete time pieces", Err: err}
		}
		if err := f.flushStale(ctx, repo, n); err != nil {
			return err
		}
		n.state = StatePurged
		report.Deleted++
	case n.Placeholder() || n.state == StatePurged:
	default:
		if err := f.flushStale(ctx, repo, n); err != nil {
			return err
		}
		if n.state == StateDirty {
			item := n.item
			if err := repo.UpsertTask(ctx, &item); err != nil {
				return &FlushError{TaskID: n.ID(), Op: "upsert task", Err: err}
			}
			report.Upserted++
		}
		for _, p := range n.pieces {
			if err := f.flushPiece(ctx, repo, n, p, report); err != nil {
				return err
			}
		}
		if err := f.flushPiece(ctx, repo, n, n.inFlight, report); err != nil {
			return err
		}
		n.state = StateClean
	}

	for _, c := range n.children {
		if c == nil {
			continue
		}
		if err := f.flushNode(ctx, repo, c, report); err != nil {
			return err
		}
	}
	return nil
}

func (f *Forest) flushStale(ctx context.Context, repo Repository, n *Node) error {
	for len(n.stale) > 0 {
		p := n.stale[0]
		if err := repo.DeleteTimePiece(ctx, p.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return &FlushError{TaskID: n.ID(), Op: "delete time piece", Err: err}
		}
		n.stale = n.stale[1:]
	}
	return nil
}

func (f *Forest) flushPiece(ctx context.Context, repo Repository, n *Node, p *TimePiece, report *FlushReport) error {
	if p == nil || p.State != PieceDirty {
		return nil
	}
	row := *p
	if err := repo.UpsertTimePiece(ctx, &row); err != nil {
		return &FlushError{TaskID: n.ID(), Op: "upsert time piece", Err: err}
	}
	p.State = PieceClean
	report.Pieces++
	return nil
}
