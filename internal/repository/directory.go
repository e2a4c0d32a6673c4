package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/campus-ledger-api/internal/models"
)

// Kind names an entity family that receives generated identifiers.
type Kind string

// Identifier kinds.
const (
	KindPerson     Kind = "person"
	KindDepartment Kind = "department"
	KindOffering   Kind = "offering"
	KindEnrollment Kind = "enrollment"
	KindAssignment Kind = "assignment"
	KindPayment    Kind = "payment"
)

var idPrefixes = map[Kind]string{
	KindPerson:     "U",
	KindDepartment: "D",
	KindOffering:   "OFF",
	KindEnrollment: "ENR",
	KindAssignment: "ASG",
	KindPayment:    "PAY",
}

// Option customises a Directory.
type Option func(*Directory)

// WithClock overrides the time source used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// Directory is the single source of truth for every entity of the campus.
// All reads go through View and every multi-step change through Atomically,
// so concurrent callers never observe a half-applied ledger transition.
type Directory struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

// NewDirectory builds an empty directory.
func NewDirectory(opts ...Option) *Directory {
	d := &Directory{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// View runs fn with a read-only view of the directory. The Reader must not be
// retained after fn returns.
func (d *Directory) View(fn func(r Reader)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(&Tx{st: d.st, now: d.now})
}

// Atomically runs fn under the write lock. fn is expected to check every
// precondition before its first write; an error returned after a write does
// not roll anything back.
func (d *Directory) Atomically(fn func(tx *Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(&Tx{st: d.st, now: d.now})
}

// Snapshot returns the number of records per kind.
func (d *Directory) Snapshot() Counts {
	var c Counts
	d.View(func(r Reader) { c = r.Counts() })
	return c
}

// Counts reports table sizes.
type Counts struct {
	People      int `json:"people"`
	Departments int `json:"departments"`
	Courses     int `json:"courses"`
	Semesters   int `json:"semesters"`
	Offerings   int `json:"offerings"`
	Enrollments int `json:"enrollments"`
	Assignments int `json:"assignments"`
	Payments    int `json:"payments"`
}

// table keeps insertion order alongside an id index.
type table[T any] struct {
	order []string
	rows  map[string]*T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func (t *table[T]) get(id string) (*T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// insert is a no-op when id is already present.
func (t *table[T]) insert(id string, row T) bool {
	if _, exists := t.rows[id]; exists {
		return false
	}
	t.rows[id] = &row
	t.order = append(t.order, id)
	return true
}

func (t *table[T]) replace(id string, row T) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	t.rows[id] = &row
	return true
}

func (t *table[T]) remove(id string) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	delete(t.rows, id)
	t.order = removeID(t.order, id)
	return true
}

func (t *table[T]) each(fn func(row *T)) {
	for _, id := range t.order {
		fn(t.rows[id])
	}
}

func (t *table[T]) len() int {
	return len(t.order)
}

type state struct {
	people      *table[models.Person]
	departments *table[models.Department]
	courses     *table[models.Course]
	semesters   *table[models.Semester]
	offerings   *table[models.CourseOffering]
	enrollments *table[models.Enrollment]
	assignments *table[models.Assignment]
	payments    *table[models.TuitionPayment]
	credentials map[string]models.Credential

	// derived indices, maintained only by Tx mutations
	enrollmentsByStudent  map[string][]string
	enrollmentsByOffering map[string][]string
	assignmentsByOffering map[string][]string
	offeringsByInstructor map[string][]string
	paymentsByStudent     map[string][]string

	counters map[Kind]int
}

func newState() *state {
	return &state{
		people:                newTable[models.Person](),
		departments:           newTable[models.Department](),
		courses:               newTable[models.Course](),
		semesters:             newTable[models.Semester](),
		offerings:             newTable[models.CourseOffering](),
		enrollments:           newTable[models.Enrollment](),
		assignments:           newTable[models.Assignment](),
		payments:              newTable[models.TuitionPayment](),
		credentials:           make(map[string]models.Credential),
		enrollmentsByStudent:  make(map[string][]string),
		enrollmentsByOffering: make(map[string][]string),
		assignmentsByOffering: make(map[string][]string),
		offeringsByInstructor: make(map[string][]string),
		paymentsByStudent:     make(map[string][]string),
		counters:              make(map[Kind]int),
	}
}

// Tx is a view of the directory bound to a held lock.
type Tx struct {
	st  *state
	now func() time.Time
}

// Now returns the directory clock in UTC.
func (tx *Tx) Now() time.Time {
	return tx.now().UTC()
}

// GenerateID returns a new identifier for kind. Counters only grow, so an id
// is never handed out twice even after its record is removed.
func (tx *Tx) GenerateID(kind Kind) string {
	prefix, ok := idPrefixes[kind]
	if !ok {
		prefix = string(kind)
	}
	tx.st.counters[kind]++
	return fmt.Sprintf("%s-%06d", prefix, tx.st.counters[kind])
}

// Counts reports table sizes.
func (tx *Tx) Counts() Counts {
	return Counts{
		People:      tx.st.people.len(),
		Departments: tx.st.departments.len(),
		Courses:     tx.st.courses.len(),
		Semesters:   tx.st.semesters.len(),
		Offerings:   tx.st.offerings.len(),
		Enrollments: tx.st.enrollments.len(),
		Assignments: tx.st.assignments.len(),
		Payments:    tx.st.payments.len(),
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
