package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

func unixNow() int64 { return time.Now().Unix() }

// DefaultQuestionCap bounds how many questions of one type a student can
// hold for a lecture unless the lecture settings override it.
const DefaultQuestionCap = 100

// CatalogSource lists the current questions of a lecture from the upstream
// content system. A failed fetch must not destroy persisted state; the
// service falls back to whatever was synced last.
type CatalogSource interface {
	FetchCurrentQuestions(ctx context.Context, lectureID string) ([]QuestionDescriptor, error)
}

type Service struct {
	store   Store
	catalog CatalogSource
	log     *zap.Logger
	locks   *keyedMutex

	questionBase string
	now          func() int64
	newRand      func() *rand.Rand
}

type Option func(*Service)

// WithClock overrides the time source, unix seconds.
func WithClock(now func() int64) Option { return func(s *Service) { s.now = now } }

// WithRand overrides the per-call random generator factory.
func WithRand(f func() *rand.Rand) Option { return func(s *Service) { s.newRand = f } }

// WithQuestionBase sets the path prefix allocation URIs are built under.
func WithQuestionBase(base string) Option {
	return func(s *Service) { s.questionBase = strings.TrimSuffix(base, "/") }
}

func NewService(store Store, catalog CatalogSource, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:        store,
		catalog:      catalog,
		log:          log,
		locks:        newKeyedMutex(),
		questionBase: "/questions",
		now:          unixNow,
		newRand:      newRand,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SyncRequest is the body of one client sync call. User, when present, must
// match the authenticated student; clients send it so a queue recorded for
// one account cannot be replayed into another.
type SyncRequest struct {
	User        string           `json:"user,omitempty"`
	AnswerQueue []IncomingAnswer `json:"answerQueue"`
}

type SyncResult struct {
	Title       string            `json:"title"`
	URI         string            `json:"uri"`
	Settings    map[string]string `json:"settings"`
	Questions   []AllocationView  `json:"questions"`
	AnswerQueue []MergedAnswer    `json:"answerQueue"`
}

// Sync is the whole per-lecture client exchange: refresh the question
// catalog, merge any submitted answers, then return the (possibly updated)
// allocation and the full annotated history.
func (s *Service) Sync(ctx context.Context, studentID, lectureID string, req SyncRequest) (SyncResult, error) {
	if req.User != "" && req.User != studentID {
		return SyncResult{}, fmt.Errorf("answer queue claims user %q: %w", req.User, ErrOwnership)
	}

	lec, err := s.store.GetLecture(ctx, lectureID)
	if err != nil {
		return SyncResult{}, err
	}
	if err := s.store.UpsertStudent(ctx, studentID, s.now()); err != nil {
		return SyncResult{}, err
	}

	// Catalog refresh. An unreachable upstream only costs freshness: a sync
	// that deactivated every question on fetch failure would wipe all
	// allocations.
	if s.catalog != nil {
		descs, err := s.catalog.FetchCurrentQuestions(ctx, lectureID)
		if err != nil {
			s.log.Warn("catalog fetch failed, keeping persisted questions",
				zap.String("lecture", lectureID), zap.Error(err))
		} else if err := s.SyncQuestions(ctx, lectureID, descs); err != nil {
			return SyncResult{}, err
		}
	}

	unlock := s.locks.Lock(studentID, lectureID)
	defer unlock()

	queue, accepted, err := s.mergeLocked(ctx, studentID, lectureID, req.AnswerQueue)
	if err != nil {
		return SyncResult{}, err
	}

	opts := allocOptsFromSettings(lec.Settings)
	// Resampling against the target difficulty only happens when this call
	// actually recorded answers; repeating a sync with nothing new must hand
	// back the same allocation identifiers.
	opts.Reallocate = opts.TargetDifficulty != nil && accepted > 0
	questions, err := s.allocateLocked(ctx, studentID, lectureID, opts)
	if err != nil {
		return SyncResult{}, err
	}

	return SyncResult{
		Title:       lec.Title,
		URI:         "/lectures/" + lectureID + "/sync",
		Settings:    lec.Settings,
		Questions:   questions,
		AnswerQueue: queue,
	}, nil
}

func (s *Service) questionURI(publicID string) string {
	return s.questionBase + "/" + publicID
}

func (s *Service) publicIDFromURI(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

func allocOptsFromSettings(settings map[string]string) AllocateOpts {
	questionCap := DefaultQuestionCap
	if v, ok := settings["question_cap"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			questionCap = n
		}
	}
	opts := AllocateOpts{
		Caps: map[QuestionType]int{TypeStandard: questionCap, TypeTemplate: questionCap},
	}
	if v, ok := settings["hist_sel"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.TargetDifficulty = &f
		}
	}
	return opts
}
