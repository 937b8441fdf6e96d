package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/rclampitt/stratum/internal/layer"
)

// Row is one flattened line of the sub-layer tree, ready for display.
type Row struct {
	ID           int
	Depth        int
	Group        bool
	Name         string
	Placeholder  bool
	Visible      bool
	Queryable    bool
	Count        int
	HasCount     bool
	GeometryType string
	Symbols      []layer.SymbolEntry
	OffScale     bool
	Zoom         layer.ZoomDirection
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	ServiceName         string
	Resolved            bool
	Rows                []Row
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when refreshes have failed multiple times in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(serviceName string, resolved bool, rows []Row, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.ServiceName = serviceName
	s.snapshot.Resolved = resolved
	s.snapshot.Rows = cloneRows(rows)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Rows = cloneRows(s.snapshot.Rows)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneRows(rows []Row) []Row {
	if len(rows) == 0 {
		return nil
	}
	dup := make([]Row, len(rows))
	copy(dup, rows)
	return dup
}

// Collect flattens the record's sub-layer tree into display rows at the given
// map scale. Before resolution it returns no rows; handles that are still
// placeholders appear with safe defaults rather than being omitted.
func Collect(rec *layer.Record, scale float64) ([]Row, error) {
	if !rec.Resolved() {
		return nil, nil
	}
	tree, err := rec.ChildTree()
	if err != nil {
		return nil, err
	}

	var rows []Row
	var visit func(n *layer.TreeNode, depth int)
	visit = func(n *layer.TreeNode, depth int) {
		if n.Group {
			rows = append(rows, Row{ID: n.ID, Depth: depth, Group: true, Name: n.Name})
			for _, c := range n.Children {
				visit(c, depth+1)
			}
			return
		}
		rows = append(rows, leafRow(rec, n.ID, depth, scale))
	}

	// The root stands for the record itself, not a sub-layer. A flat service
	// has a lone leaf as root; grouped services nest under a synthetic group.
	if tree.Group {
		for _, c := range tree.Children {
			visit(c, 0)
		}
	} else {
		visit(tree, 0)
	}
	return rows, nil
}

func leafRow(rec *layer.Record, id, depth int, scale float64) Row {
	h := rec.Handle(id)
	row := Row{
		ID:          id,
		Depth:       depth,
		Name:        h.Name(),
		Placeholder: h.IsPlaceholder(),
		Visible:     h.Visible(),
		Queryable:   h.Queryable(),
		Symbols:     h.Symbology(),
	}
	if gt, ok := h.GeometryType(); ok {
		row.GeometryType = gt
	}
	if count, ok := h.FeatureCount(); ok {
		row.Count = count
		row.HasCount = true
	}
	sv := h.ScaleVisibility(scale)
	row.OffScale = sv.OffScale
	row.Zoom = sv.Zoom
	return row
}
