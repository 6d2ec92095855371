package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/logger"
	"github.com/garyellow/school-timetable-go/internal/storage"
	"github.com/garyellow/school-timetable-go/internal/timetable"
)

const testIndexURL = "http://school.test/orario/index.html"

func quietLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

// indexPage links to the given class file names (e.g. "1AI.html"); the
// link text is the name without extension.
func indexPage(files ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, f := range files {
		fmt.Fprintf(&b, `<a class="mathema" href="classi/%s">%s</a>`, f, strings.TrimSuffix(f, ".html"))
	}
	b.WriteString("</body></html>")
	return b.String()
}

// classPage builds a one-row timetable starting at start with the given
// lesson cells (subject/teacher pairs).
func classPage(start string, lessons ...[2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><table><tbody><tr><td><p>%s</p></td>", start)
	for _, l := range lessons {
		fmt.Fprintf(&b, `<td><p>%s</p><p><a href="#">%s</a></p></td>`, l[0], l[1])
	}
	b.WriteString("</tr></tbody></table></body></html>")
	return b.String()
}

// fakeFetcher serves pages from memory keyed by absolute URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fails map[string]error
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, fails: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeFetcher) FetchDocument(_ context.Context, _ string, rawURL string) (*htmldoc.Document, error) {
	f.mu.Lock()
	f.calls[rawURL]++
	err, failing := f.fails[rawURL]
	page, ok := f.pages[rawURL]
	f.mu.Unlock()

	if failing {
		return nil, domerrors.NewFetchError(rawURL, 0, err)
	}
	if !ok {
		return nil, domerrors.NewFetchError(rawURL, 404, domerrors.ErrNotFound)
	}
	base, _ := url.Parse(rawURL)
	return htmldoc.Parse(strings.NewReader(page), base)
}

func (f *fakeFetcher) callCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[rawURL]
}

// memStore is an in-memory ScheduleStore with failure injection.
type memStore struct {
	mu          sync.Mutex
	classes     map[string]string // id -> name
	lessons     []timetable.Lesson
	calls       []string
	nextID      int
	failClass   string // CreateClass fails for this name
	failClear   bool
	txCommitted int
}

func newMemStore() *memStore {
	return &memStore{classes: map[string]string{}}
}

func (s *memStore) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *memStore) DeleteAllLessons(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete_lessons")
	if s.failClear {
		return errors.New("disk full")
	}
	s.lessons = nil
	return nil
}

func (s *memStore) DeleteAllClasses(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete_classes")
	s.classes = map[string]string{}
	return nil
}

func (s *memStore) CreateClass(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == s.failClass {
		return "", errors.New("constraint failed")
	}
	s.nextID++
	id := fmt.Sprintf("id-%d", s.nextID)
	s.classes[id] = name
	return id, nil
}

func (s *memStore) CreateLesson(_ context.Context, l timetable.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[l.ClassRef]; !ok {
		return errors.New("unknown class id")
	}
	s.lessons = append(s.lessons, l)
	return nil
}

// WithTx buffers writes and applies them only when fn succeeds.
func (s *memStore) WithTx(ctx context.Context, fn func(storage.ScheduleWriter) error) error {
	tx := &memTx{parent: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, name := range tx.classes {
		s.classes[id] = name
	}
	s.lessons = append(s.lessons, tx.lessons...)
	s.txCommitted++
	return nil
}

func (s *memStore) classNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.classes))
	for _, n := range s.classes {
		names = append(names, n)
	}
	return names
}

func (s *memStore) lessonsOf(name string) []timetable.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []timetable.Lesson
	for _, l := range s.lessons {
		if s.classes[l.ClassRef] == name {
			out = append(out, l)
		}
	}
	return out
}

type memTx struct {
	parent  *memStore
	classes map[string]string
	lessons []timetable.Lesson
}

func (t *memTx) DeleteAllLessons(ctx context.Context) error { return t.parent.DeleteAllLessons(ctx) }
func (t *memTx) DeleteAllClasses(ctx context.Context) error { return t.parent.DeleteAllClasses(ctx) }

func (t *memTx) CreateClass(_ context.Context, name string) (string, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	if name == t.parent.failClass {
		return "", errors.New("constraint failed")
	}
	t.parent.nextID++
	id := fmt.Sprintf("id-%d", t.parent.nextID)
	if t.classes == nil {
		t.classes = map[string]string{}
	}
	t.classes[id] = name
	return id, nil
}

func (t *memTx) CreateLesson(_ context.Context, l timetable.Lesson) error {
	if _, ok := t.classes[l.ClassRef]; !ok {
		return errors.New("unknown class id")
	}
	t.lessons = append(t.lessons, l)
	return nil
}

var _ storage.ScheduleStore = (*memStore)(nil)
