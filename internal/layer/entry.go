package layer

// EntryState is the initial presentation state for one sub-layer.
type EntryState struct {
	Visible bool
	Opacity float64
	Query   bool
}

// Entry configures one sub-layer by index. Every field except Index is
// optional; missing pieces are filled by one-time defaulting once the server
// metadata is known. StateOnly entries apply their state but are excluded from
// the legend tree roots. CatalogRef points the sub-layer's symbology at an
// entry of an external nested catalog.
type Entry struct {
	Index      int
	Name       string
	OutFields  []string
	State      *EntryState
	StateOnly  bool
	CatalogRef string
}

// Config is the caller-supplied layer configuration. Complete means the
// caller has listed every sub-layer it wants visible, which lets the record
// push an initial visible-id list to the service in one call.
type Config struct {
	Name     string
	Entries  []Entry
	Complete bool
}

// resolvedEntry is an Entry after one-time defaulting. The defaulted marker
// flips exactly once; after that the entry is never recomputed.
type resolvedEntry struct {
	Entry
	defaulted bool
}

// defaultEntryState is the dummy state applied when a discovered sub-layer has
// no configured state: fully opaque, hidden, query disabled.
func defaultEntryState() *EntryState {
	return &EntryState{Opacity: 1}
}

// entryFor returns the resolved entry for id, creating and defaulting it on
// first access. serverName fills a missing name. Callers must hold r.mu.
func (r *Record) entryFor(id int, serverName string) *resolvedEntry {
	e, ok := r.entries[id]
	if !ok {
		e = &resolvedEntry{Entry: Entry{Index: id}}
		r.entries[id] = e
	}
	if e.defaulted {
		return e
	}
	if e.Name == "" {
		e.Name = serverName
	}
	if len(e.OutFields) == 0 {
		e.OutFields = []string{"*"}
	}
	if e.State == nil {
		e.State = defaultEntryState()
	}
	e.defaulted = true
	return e
}
