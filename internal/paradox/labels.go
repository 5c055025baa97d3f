package paradox

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// EntityClass names a kind of labeled panel entity.
type EntityClass string

const (
	ClassZone      EntityClass = "zone"
	ClassOutput    EntityClass = "output"
	ClassPartition EntityClass = "partition"
	ClassUser      EntityClass = "user"
	ClassBus       EntityClass = "bus"
	ClassRepeater  EntityClass = "repeater"
	ClassKeypad    EntityClass = "keypad"
	ClassSite      EntityClass = "site"
	ClassSiren     EntityClass = "siren"
)

// Classes lists every entity class in panel memory order.
var Classes = []EntityClass{
	ClassZone, ClassOutput, ClassPartition, ClassUser, ClassBus,
	ClassRepeater, ClassKeypad, ClassSite, ClassSiren,
}

// LabelSize is the number of bytes of a memory block that hold label text.
const LabelSize = 16

// BlockSize is the panel memory unit used for label storage.
const BlockSize = 16

// MemoryRegion locates the labels of one entity class in panel memory.
// End is exclusive.
type MemoryRegion struct {
	Class EntityClass
	Start uint16
	End   uint16
}

// Blocks returns the number of label blocks in the region.
func (r MemoryRegion) Blocks() int {
	return int(r.End-r.Start) / BlockSize
}

// IndexLimit is the sorted set of 1-based entity indices to synchronize.
type IndexLimit []int

// DefaultLimit covers indices 1 to 32.
var DefaultLimit = Range(1, 32)

// Range returns the limit first..last inclusive. It is empty when last < first.
func Range(first, last int) IndexLimit {
	if last < first {
		return IndexLimit{}
	}
	l := make(IndexLimit, 0, last-first+1)
	for i := first; i <= last; i++ {
		l = append(l, i)
	}
	return l
}

// NewIndexLimit sorts and deduplicates indices.
func NewIndexLimit(indices ...int) IndexLimit {
	l := make(IndexLimit, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			l = append(l, i)
		}
	}
	sort.Ints(l)
	return l
}

func (l IndexLimit) Empty() bool { return len(l) == 0 }

func (l IndexLimit) Contains(i int) bool {
	n := sort.SearchInts(l, i)
	return n < len(l) && l[n] == i
}

// Max returns the largest index, or 0 for an empty limit.
func (l IndexLimit) Max() int {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1]
}

// Properties is the record registered for one labeled entity.
type Properties map[string]interface{}

// Label returns the label text of the record.
func (p Properties) Label() string {
	s, _ := p["label"].(string)
	return s
}

func (p Properties) clone() Properties {
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Template returns the default properties of a freshly registered entity.
func Template(class EntityClass) Properties {
	if class == ClassOutput {
		return Properties{"label": "", "on": false, "pulse": false}
	}
	return Properties{"label": ""}
}

// LabelTable maps entity indices to properties and label text back to the
// index that claimed it. Records are replaced, never mutated in place, so a
// Snapshot never observes a half-written record.
type LabelTable struct {
	mu      sync.RWMutex
	byIndex map[int]Properties
	byLabel map[string]int
}

func NewLabelTable() *LabelTable {
	return &LabelTable{
		byIndex: make(map[int]Properties),
		byLabel: make(map[string]int),
	}
}

// Register records label at index using template for the remaining fields.
// It reports false when the label is blank, the index is taken or the label
// already belongs to an index.
func (t *LabelTable) Register(index int, label string, template Properties) bool {
	if strings.TrimSpace(label) == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byIndex[index]; ok {
		return false
	}
	if _, ok := t.byLabel[label]; ok {
		return false
	}
	props := template.clone()
	props["label"] = label
	t.byIndex[index] = props
	t.byLabel[label] = index
	return true
}

// Has reports whether label is already claimed.
func (t *LabelTable) Has(label string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byLabel[label]
	return ok
}

// Index returns the index that claimed label.
func (t *LabelTable) Index(label string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byLabel[label]
	return i, ok
}

// Get returns a copy of the record at index.
func (t *LabelTable) Get(index int) (Properties, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.byIndex[index]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

func (t *LabelTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byIndex)
}

// Snapshot returns a deep copy of the index to properties mapping.
func (t *LabelTable) Snapshot() map[int]Properties {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int]Properties, len(t.byIndex))
	for i, p := range t.byIndex {
		out[i] = p.clone()
	}
	return out
}

// Names returns the registered labels ordered by index.
func (t *LabelTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	indices := make([]int, 0, len(t.byIndex))
	for i := range t.byIndex {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	names := make([]string, 0, len(indices))
	for _, i := range indices {
		names = append(names, t.byIndex[i].Label())
	}
	return names
}

// Reset drops every registration.
func (t *LabelTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byIndex = make(map[int]Properties)
	t.byLabel = make(map[string]int)
}

// Restore replaces the table contents with records, typically a cached
// Snapshot. Records without a label are skipped.
func (t *LabelTable) Restore(records map[int]Properties) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byIndex = make(map[int]Properties, len(records))
	t.byLabel = make(map[string]int, len(records))
	for i, p := range records {
		label := p.Label()
		if label == "" {
			continue
		}
		if _, dup := t.byLabel[label]; dup {
			continue
		}
		t.byIndex[i] = p.clone()
		t.byLabel[label] = i
	}
}

// Labels holds one LabelTable per entity class.
type Labels struct {
	tables map[EntityClass]*LabelTable
}

func NewLabels() *Labels {
	l := &Labels{tables: make(map[EntityClass]*LabelTable, len(Classes))}
	for _, c := range Classes {
		l.tables[c] = NewLabelTable()
	}
	return l
}

// Table returns the table for class, or nil for an unknown class.
func (l *Labels) Table(class EntityClass) *LabelTable {
	return l.tables[class]
}

// Snapshot copies every table.
func (l *Labels) Snapshot() map[EntityClass]map[int]Properties {
	out := make(map[EntityClass]map[int]Properties, len(l.tables))
	for c, t := range l.tables {
		out[c] = t.Snapshot()
	}
	return out
}

// Restore loads a Snapshot back into the tables. Unknown classes are ignored.
func (l *Labels) Restore(snapshot map[EntityClass]map[int]Properties) {
	for c, records := range snapshot {
		if t, ok := l.tables[c]; ok {
			t.Restore(records)
		}
	}
}

// NormalizeLabel turns a raw memory block into label text: the first
// LabelSize bytes, trimmed of NUL and space, with remaining NUL and space
// bytes replaced by underscores. Text that is not UTF-8 is read as Latin-1.
func NormalizeLabel(block []byte) string {
	if len(block) > LabelSize {
		block = block[:LabelSize]
	}
	b := append([]byte(nil), bytes.Trim(block, "\x00 ")...)
	for i, c := range b {
		if c == 0 || c == ' ' {
			b[i] = '_'
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "_")
	}
	return string(decoded)
}
