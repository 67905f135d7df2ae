package pipeline

import "slices"

// =============================================================================
// GROUPING CONSTANTS
// =============================================================================

// Column headers read from every row.
const (
	CommunityField = "COMUNIDAD"
	TowerField     = "TORRE"
	UnitField      = "CASA O APTO"
	LabelField     = "APELLIDOS Y NOMBRES"
)

// Placeholders used when a grouping column or the label is absent or empty.
const (
	NoCommunity = "Sin Comunidad"
	NoTower     = "Sin Torre"
	NoUnit      = "Sin Casa"
	NoLabel     = "Nombre no encontrado"
)

// =============================================================================
// RECORD
// =============================================================================

// GroupKeyPath is the (community, tower, unit) triple a record is filed under.
type GroupKeyPath struct {
	Community string
	Tower     string
	Unit      string
}

// Record is one imported row. Values are stored under internal keys (see
// Normalize) in column order. Records are shared by reference between the
// Hierarchy and the open EditSession, so edits show up in the preview
// without regrouping.
type Record struct {
	tempID string
	path   GroupKeyPath
	keys   []string
	attrs  map[string]string
	label  string
}

// TempID returns the identifier assigned at load. It is unique within one
// load and never exported.
func (r *Record) TempID() string {
	return r.tempID
}

// Path returns the group the record was filed under at load time.
func (r *Record) Path() GroupKeyPath {
	return r.path
}

// Label returns the display label, recomputed after every edit.
func (r *Record) Label() string {
	return r.label
}

// Keys returns the internal keys in column order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Value looks up a field by header or internal key.
func (r *Record) Value(name string) (string, bool) {
	v, ok := r.attrs[Normalize(name)]
	return v, ok
}

func (r *Record) set(key, value string) {
	if _, ok := r.attrs[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.attrs[key] = value
}

func (r *Record) refreshLabel() {
	r.label = NoLabel
	if v := r.attrs[Normalize(LabelField)]; v != "" {
		r.label = v
	}
}

// =============================================================================
// HIERARCHY
// =============================================================================

// Unit holds the records of one house or apartment in insertion order.
// Levels are built by Load and read through accessors; callers cannot
// reorder or drop entries.
type Unit struct {
	name    string
	records []*Record
}

// Name returns the unit value, or NoUnit.
func (u *Unit) Name() string { return u.name }

// Records returns the unit's records in insertion order.
func (u *Unit) Records() []*Record { return slices.Clone(u.records) }

// Tower holds units in first-seen order.
type Tower struct {
	name   string
	units  []*Unit
	byName map[string]*Unit
}

// Name returns the tower value, or NoTower.
func (t *Tower) Name() string { return t.name }

// Units returns the tower's units in first-seen order.
func (t *Tower) Units() []*Unit { return slices.Clone(t.units) }

// Unit returns the named unit.
func (t *Tower) Unit(name string) (*Unit, bool) {
	u, ok := t.byName[name]
	return u, ok
}

// UnitNames returns unit names in first-seen order.
func (t *Tower) UnitNames() []string {
	names := make([]string, len(t.units))
	for i, u := range t.units {
		names[i] = u.name
	}
	return names
}

// Community holds towers in first-seen order.
type Community struct {
	name   string
	towers []*Tower
	byName map[string]*Tower
}

// Name returns the community value, or NoCommunity.
func (c *Community) Name() string { return c.name }

// Towers returns the community's towers in first-seen order.
func (c *Community) Towers() []*Tower { return slices.Clone(c.towers) }

// Tower returns the named tower.
func (c *Community) Tower(name string) (*Tower, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// TowerNames returns tower names in first-seen order.
func (c *Community) TowerNames() []string {
	names := make([]string, len(c.towers))
	for i, t := range c.towers {
		names[i] = t.name
	}
	return names
}

// Hierarchy is the community → tower → unit grouping of one load.
// Key order is the order in which each key was first seen, never sorted.
type Hierarchy struct {
	// SessionID identifies the load; it is sent along with the submission.
	SessionID string

	communities []*Community
	byName      map[string]*Community
	byID        map[string]*Record
}

func newHierarchy(sessionID string) *Hierarchy {
	return &Hierarchy{
		SessionID: sessionID,
		byName:    make(map[string]*Community),
		byID:      make(map[string]*Record),
	}
}

// add files rec under its path, creating levels on first sight.
func (h *Hierarchy) add(rec *Record) {
	p := rec.path

	c, ok := h.byName[p.Community]
	if !ok {
		c = &Community{name: p.Community, byName: make(map[string]*Tower)}
		h.byName[p.Community] = c
		h.communities = append(h.communities, c)
	}

	t, ok := c.byName[p.Tower]
	if !ok {
		t = &Tower{name: p.Tower, byName: make(map[string]*Unit)}
		c.byName[p.Tower] = t
		c.towers = append(c.towers, t)
	}

	u, ok := t.byName[p.Unit]
	if !ok {
		u = &Unit{name: p.Unit}
		t.byName[p.Unit] = u
		t.units = append(t.units, u)
	}

	u.records = append(u.records, rec)
	h.byID[rec.tempID] = rec
}

// Communities returns the communities in first-seen order.
func (h *Hierarchy) Communities() []*Community {
	if h == nil {
		return nil
	}
	return slices.Clone(h.communities)
}

// Community returns the named community.
func (h *Hierarchy) Community(name string) (*Community, bool) {
	if h == nil {
		return nil, false
	}
	c, ok := h.byName[name]
	return c, ok
}

// CommunityNames returns community names in first-seen order.
func (h *Hierarchy) CommunityNames() []string {
	if h == nil {
		return nil
	}
	names := make([]string, len(h.communities))
	for i, c := range h.communities {
		names[i] = c.name
	}
	return names
}

// Record returns the record with the given TempID.
func (h *Hierarchy) Record(tempID string) (*Record, bool) {
	if h == nil {
		return nil, false
	}
	r, ok := h.byID[tempID]
	return r, ok
}

// Len returns the number of records.
func (h *Hierarchy) Len() int {
	if h == nil {
		return 0
	}
	return len(h.byID)
}

// Records returns every record in traversal order: community, tower, unit,
// then insertion order within the unit.
func (h *Hierarchy) Records() []*Record {
	if h == nil {
		return nil
	}
	out := make([]*Record, 0, len(h.byID))
	for _, c := range h.communities {
		for _, t := range c.towers {
			for _, u := range t.units {
				out = append(out, u.records...)
			}
		}
	}
	return out
}
