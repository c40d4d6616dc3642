// Package dashboard holds the per-browser admin and client views: reconciled
// record lists fed by an initial fetch, user mutations and realtime pushes.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/internal/realtime"
	"github.com/CodeWithGeorg/Academic/internal/reconcile"
	"github.com/CodeWithGeorg/Academic/internal/storage"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"go.uber.org/zap"
)

type Assignments interface {
	ListAll(ctx context.Context) ([]domain.Assignment, error)
	Create(ctx context.Context, input domain.NewAssignment) (domain.Assignment, error)
	UpdateStatus(ctx context.Context, id string, status domain.AssignmentStatus) (domain.Assignment, error)
}

type Submissions interface {
	ListAll(ctx context.Context) ([]domain.Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Submission, error)
	Create(ctx context.Context, input domain.NewSubmission) (domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, review domain.SubmissionReview) (domain.Submission, error)
}

type Users interface {
	ListAll(ctx context.Context) ([]domain.UserProfile, error)
}

type Messages interface {
	ListAll(ctx context.Context) ([]domain.Message, error)
	Create(ctx context.Context, input domain.NewMessage) (domain.Message, error)
}

// Subscriber is the realtime bridge as seen by a view.
type Subscriber interface {
	Subscribe(ctx context.Context, kind domain.Kind, onEvent func(realtime.Event)) (unsubscribe func())
}

// Sources is everything a view reads from and writes to. Realtime may be
// nil, in which case lists only change through fetches and mutations.
type Sources struct {
	Assignments Assignments
	Submissions Submissions
	Users       Users
	Messages    Messages
	Files       storage.Store
	Realtime    Subscriber
}

// Attachment is an uploaded file on its way to the blob store.
type Attachment struct {
	Name    string
	Content io.Reader
}

type Phase int

const (
	Loading Phase = iota
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Status is the outcome of the most recent mount. Err is set when Phase is
// Failed.
type Status struct {
	Phase Phase
	Err   error
}

// binding routes the events of one collection kind into a list.
type binding struct {
	kind    domain.Kind
	onEvent func(realtime.Event)
}

// loader fetches one list. The returned apply installs the result and only
// runs if the view is still mounted by the same generation.
type loader func(ctx context.Context) (apply func(), err error)

func load[T domain.Record](list *reconcile.List[T], fetch func(context.Context) ([]T, error)) loader {
	return func(ctx context.Context) (func(), error) {
		records, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return func() { list.Reset(records) }, nil
	}
}

// mergeInto merges delivered records of type T that pass accept.
func mergeInto[T domain.Record](list *reconcile.List[T], accept func(T) bool) func(realtime.Event) {
	return func(ev realtime.Event) {
		record, ok := ev.Record.(T)
		if !ok {
			return
		}
		if accept != nil && !accept(record) {
			return
		}
		list.Merge(record)
	}
}

// view is the mount lifecycle shared by both dashboards.
type view struct {
	realtime Subscriber
	logger   *logging.Logger

	generation atomic.Uint64

	mu          sync.Mutex
	mounted     bool
	status      Status
	unsubscribe []func()
}

func (v *view) init(sub Subscriber, logger *logging.Logger) {
	if logger == nil {
		logger = logging.Nop()
	}
	v.realtime = sub
	v.logger = logger
}

func (v *view) current(gen uint64) bool {
	return v.generation.Load() == gen
}

// mount subscribes first and then fetches, so no push between the two is
// lost. A fetch that completes after Unmount or a newer Mount is dropped.
func (v *view) mount(ctx context.Context, bindings []binding, loaders []loader) error {
	v.mu.Lock()
	v.teardownLocked()
	gen := v.generation.Add(1)
	v.mounted = true
	v.status = Status{Phase: Loading}
	if v.realtime != nil {
		for _, b := range bindings {
			onEvent := b.onEvent
			v.unsubscribe = append(v.unsubscribe, v.realtime.Subscribe(ctx, b.kind, func(ev realtime.Event) {
				if !v.current(gen) {
					return
				}
				onEvent(ev)
			}))
		}
	}
	v.mu.Unlock()

	apply, err := fetchAll(ctx, loaders)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.current(gen) {
		v.logger.Debug(ctx, "discarding fetch result of an unmounted dashboard")
		return nil
	}
	apply()
	if err != nil {
		v.status = Status{Phase: Failed, Err: err}
		v.logger.Error(ctx, "dashboard fetch failed", zap.Error(err))
		return err
	}
	v.status = Status{Phase: Ready}
	return nil
}

// fetchAll runs every loader concurrently. Successful results are applied
// even when another loader fails.
func fetchAll(ctx context.Context, loaders []loader) (func(), error) {
	applies := make([]func(), len(loaders))
	errs := make([]error, len(loaders))

	var wg sync.WaitGroup
	for i, l := range loaders {
		i, l := i, l
		wg.Add(1)
		go func() {
			defer wg.Done()
			applies[i], errs[i] = l(ctx)
		}()
	}
	wg.Wait()

	return func() {
		for _, apply := range applies {
			if apply != nil {
				apply()
			}
		}
	}, errors.Join(errs...)
}

// Unmount cancels every subscription and makes in-flight fetches ignorable.
func (v *view) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation.Add(1)
	v.teardownLocked()
	v.mounted = false
	v.status = Status{Phase: Loading}
}

func (v *view) teardownLocked() {
	for _, unsubscribe := range v.unsubscribe {
		unsubscribe()
	}
	v.unsubscribe = nil
}

func (v *view) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

func (v *view) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// searchable records can be filtered by Filter.
type searchable interface {
	domain.Record
	Label() string
	Owner() string
}

// Filter keeps records whose label or owner identity contains query,
// ignoring case. An empty query keeps everything. records is not modified.
func Filter[T searchable](records []T, query string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Label()), query) || strings.Contains(strings.ToLower(r.Owner()), query) {
			out = append(out, r)
		}
	}
	return out
}

// FileURLs derives the view and download links of an attachment.
func FileURLs(files storage.Store, fileID string) (view, download string) {
	if files == nil || fileID == "" {
		return storage.Placeholder, storage.Placeholder
	}
	return files.ViewURL(fileID), files.DownloadURL(fileID)
}

func upload(ctx context.Context, files storage.Store, a *Attachment) (string, error) {
	if files == nil {
		return "", fmt.Errorf("upload attachment: %w", errdefs.ErrNotConfigured)
	}
	if err := storage.ValidateName(a.Name); err != nil {
		return "", err
	}
	fileID, err := files.Upload(ctx, a.Name, a.Content)
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	return fileID, nil
}
