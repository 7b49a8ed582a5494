package quiz_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/mind-engage/quizsync/internal/quiz"

	"go.uber.org/zap"
)

func questionsByID(t *testing.T, store quiz.Store, lectureID string) map[string]quiz.Question {
	t.Helper()
	qs, err := store.QuestionsForLecture(context.Background(), lectureID)
	if err != nil {
		t.Fatalf("questions for lecture: %v", err)
	}
	out := map[string]quiz.Question{}
	for _, q := range qs {
		out[q.ID] = q
	}
	return out
}

func TestSyncQuestionsReconciles(t *testing.T) {
	svc, store, now := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 3)

	// Upstream drops qn2, keeps qn0/qn1 with fresh metadata, adds qn9.
	descs := stdQuestions("lec1", 2)
	descs[0].TimesAnswered = 7
	descs[0].TimesCorrect = 3
	descs = append(descs, quiz.QuestionDescriptor{
		ID: "lec1/qn9", Type: quiz.TypeTemplate, LastUpdate: *now,
	})
	if err := svc.SyncQuestions(ctx, "lec1", descs); err != nil {
		t.Fatalf("sync: %v", err)
	}

	qs := questionsByID(t, store, "lec1")
	if len(qs) != 4 {
		t.Fatalf("expected 4 rows (deactivated kept), got %d", len(qs))
	}
	if !qs["lec1/qn0"].Active || qs["lec1/qn0"].TimesAnswered != 7 || qs["lec1/qn0"].TimesCorrect != 3 {
		t.Fatalf("metadata not taken from upstream: %+v", qs["lec1/qn0"])
	}
	if dropped := qs["lec1/qn2"]; dropped.Active {
		t.Fatalf("removed question still active: %+v", dropped)
	} else if dropped.LastUpdate != *now {
		t.Fatalf("deactivation must stamp last_update: %+v", dropped)
	}
	if added := qs["lec1/qn9"]; !added.Active || added.Type != quiz.TypeTemplate {
		t.Fatalf("new question not inserted active: %+v", added)
	}

	// qn2 comes back upstream: reactivated, not duplicated.
	if err := svc.SyncQuestions(ctx, "lec1", stdQuestions("lec1", 3)); err != nil {
		t.Fatalf("resync: %v", err)
	}
	qs = questionsByID(t, store, "lec1")
	if len(qs) != 4 {
		t.Fatalf("reactivation duplicated rows: %d", len(qs))
	}
	if !qs["lec1/qn2"].Active {
		t.Fatalf("returned question not reactivated: %+v", qs["lec1/qn2"])
	}
}

type failingSource struct{}

func (failingSource) FetchCurrentQuestions(context.Context, string) ([]quiz.QuestionDescriptor, error) {
	return nil, errors.New("content system down")
}

func TestSyncSurvivesCatalogOutage(t *testing.T) {
	now := t0
	store := quiz.NewInMemoryStore()
	svc := quiz.NewService(store, failingSource{}, zap.NewNop(),
		quiz.WithClock(func() int64 { return now }),
		quiz.WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(42, 7)) }),
	)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 5)

	// The fetch fails every call; allocation still proceeds on persisted
	// questions instead of deactivating everything.
	res, err := svc.Sync(ctx, "arnold", "lec1", quiz.SyncRequest{})
	if err != nil {
		t.Fatalf("sync must fail soft on catalog outage: %v", err)
	}
	if len(res.Questions) != 5 {
		t.Fatalf("expected 5 allocations from persisted state, got %d", len(res.Questions))
	}

	res2, err := svc.Sync(ctx, "arnold", "lec1", quiz.SyncRequest{})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	for i := range res.Questions {
		if res.Questions[i].URI != res2.Questions[i].URI {
			t.Fatalf("allocations churned during outage: %q vs %q", res.Questions[i].URI, res2.Questions[i].URI)
		}
	}
}
