package task

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// Service is the command surface over one forest. A single mutex serializes
// every operation on the tree.
type Service struct {
	mu     sync.Mutex
	repo   Repository
	forest *Forest
	clock  func() time.Time
	logger *slog.Logger
}

// NewService creates a task service with an empty forest. Call Load to read
// the store.
func NewService(repo Repository, logger *slog.Logger, clock func() time.Time) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("run_id", uuid.NewString())
	return &Service{
		repo:   repo,
		forest: NewForest(logger, clock),
		clock:  clock,
		logger: logger,
	}
}

// Load replaces the forest with the content of the store, creating missing
// tables first. Any read failure is fatal.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.EnsureSchema(ctx); err != nil {
		return &LoadError{Table: "schema", Err: err}
	}
	items, err := s.repo.ListTasks(ctx)
	if err != nil {
		return &LoadError{Table: "Tasks", Err: err}
	}
	pieces, err := s.repo.ListTimePieces(ctx)
	if err != nil {
		return &LoadError{Table: "TimePieces", Err: err}
	}

	forest := NewForest(s.logger, s.clock)
	tasks := forest.Ingest(items)
	attached := forest.IngestTimePieces(pieces)
	s.forest = forest

	s.logger.Info("loaded tasks",
		"tasks", tasks.Loaded,
		"rejected", tasks.Rejected,
		"placeholders", tasks.Placeholders,
		"pieces", attached.Attached,
		"in_flight", attached.InFlight,
		"dropped_pieces", attached.Dropped,
	)
	return nil
}

// Flush persists pending changes. See Forest.Flush for failure semantics.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.forest.Flush(ctx, s.repo)
	if err != nil {
		s.logger.Error("flush stopped", "error", err, "upserted", report.Upserted, "deleted", report.Deleted)
		return err
	}
	s.logger.Debug("flushed tasks", "upserted", report.Upserted, "deleted", report.Deleted, "pieces", report.Pieces)
	return nil
}

// Create adds a task under req.ParentID.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Item, error) {
	if err := ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	item := NewItem(strings.TrimSpace(req.Name))
	item.Description = req.Description
	item.Priority = req.Priority
	item.DueTime = req.DueTime
	item.ExpectTime = req.ExpectTime

	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.forest.Create(req.ParentID, item)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("created task", "task_id", int64(node.ID()), "parent_id", int64(req.ParentID))
	created := node.Item()
	return &created, nil
}

// Update applies field edits to a task.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Item, error) {
	if err := ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.forest.Update(req.ID, func(item *Item) {
		if req.Name != nil {
			item.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.Priority != nil {
			item.Priority = *req.Priority
		}
		if req.Efficiency != nil {
			item.Efficiency = *req.Efficiency
		}
		if req.DueTime != nil {
			item.DueTime = *req.DueTime
		}
		if req.ExpectTime != nil {
			item.ExpectTime = *req.ExpectTime
		}
	})
	if err != nil {
		return nil, err
	}
	updated := node.Item()
	return &updated, nil
}

// Delete tombstones a task with no live children.
func (s *Service) Delete(ctx context.Context, id sid.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.forest.Delete(id); err != nil {
		return err
	}
	s.logger.Debug("deleted task", "task_id", int64(id))
	return nil
}

// List returns the subtree at id down to depth levels below it.
func (s *Service) List(ctx context.Context, id sid.ID, depth int) ([]ListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.forest.Walk(id, depth)
	if err != nil {
		return nil, err
	}
	var entries []ListEntry
	for e := range seq {
		entries = append(entries, ListEntry{
			Item:        e.Node.Item(),
			Depth:       e.Depth,
			Truncated:   e.Truncated,
			Running:     e.Node == s.forest.running,
			Placeholder: e.Node.Placeholder(),
		})
	}
	return entries, nil
}

// Show returns a task with its time pieces.
func (s *Service) Show(ctx context.Context, id sid.ID) (*TaskView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.forest.lookupLive(id)
	if err != nil {
		return nil, err
	}
	return node.view(), nil
}

// Move re-parents a subtree and returns the moved task under its new id.
func (s *Service) Move(ctx context.Context, srcID, targetID sid.ID) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.forest.Move(srcID, targetID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("moved task", "from", int64(srcID), "to", int64(node.ID()))
	moved := node.Item()
	return &moved, nil
}

// Start opens a time piece on a task.
func (s *Service) Start(ctx context.Context, id sid.ID) (*TimePiece, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	piece, err := s.forest.Start(id)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("started task", "task_id", int64(id), "piece_id", piece.ID)
	started := *piece
	return &started, nil
}

// Halt closes the running time piece.
func (s *Service) Halt(ctx context.Context, req HaltRequest) (*TimePiece, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	piece, err := s.forest.Halt(req.Description, req.Efficiency)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("halted task", "task_id", int64(piece.TaskID), "piece_id", piece.ID, "duration_ms", piece.Duration())
	halted := *piece
	return &halted, nil
}

// SetStatus overrides the status of a task.
func (s *Service) SetStatus(ctx context.Context, id sid.ID, status Status) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.forest.SetStatus(id, status)
	if err != nil {
		return nil, err
	}
	updated := node.Item()
	return &updated, nil
}

// Current returns the running task, or nil when nothing is in flight.
func (s *Service) Current(ctx context.Context) (*TaskView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forest.running == nil {
		return nil, nil
	}
	return s.forest.running.view(), nil
}
