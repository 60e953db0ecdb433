package extensions

// Key identifies one student's sitting of one assessment in the records system.
type Key struct {
	StudentCode    string
	AssessmentCode string
}

func (k Key) key() Key { return k }

// Extension is an extension granted in the records system.
type Extension struct {
	Key
	DueDate      string
	DueTime      string
	FeedbackDate string
	FeedbackTime string
}

// LateSubmission is a submission received after the assessment's nominal due
// date by a student with no extension on file.
type LateSubmission struct {
	Key
	DueDate      string
	DueTime      string
	ReceivedDate string
	ReceivedTime string
	FeedbackDate string
	FeedbackTime string
}

type keyed interface {
	key() Key
}

// Set holds at most one record per key. Putting a record under an existing
// key replaces it but keeps the key's first position, so iteration follows
// first-seen order while values are last-wins.
type Set[T keyed] struct {
	index map[Key]int
	items []T
}

func NewSet[T keyed]() *Set[T] {
	return &Set[T]{index: make(map[Key]int)}
}

func (s *Set[T]) Put(item T) {
	k := item.key()
	if i, ok := s.index[k]; ok {
		s.items[i] = item
		return
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, item)
}

func (s *Set[T]) Get(k Key) (T, bool) {
	i, ok := s.index[k]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

func (s *Set[T]) Has(k Key) bool {
	_, ok := s.index[k]
	return ok
}

func (s *Set[T]) Len() int { return len(s.items) }

// All returns the records in first-seen key order.
func (s *Set[T]) All() []T { return s.items }

type (
	ExtensionSet = Set[Extension]
	LateSet      = Set[LateSubmission]
)
