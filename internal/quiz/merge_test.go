package quiz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/quizsync/internal/quiz"
)

func allocateTwo(t *testing.T, svc *quiz.Service, student string) []string {
	t.Helper()
	views, err := svc.Allocate(context.Background(), student, "lec1", stdCaps(2))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(views))
	}
	return uris(views)
}

func TestMergeRunningTotals(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 2)
	qn := allocateTwo(t, svc, "arnold")

	// The second record claims junk in "correct"; the engine recomputes
	// correctness from the stored choices (index 2 is correct).
	queue := []quiz.IncomingAnswer{
		answer(qn[0], 0, 1377000000, 1377000010, 0.1),
		answer(qn[1], 2, 1377000020, 1377000030, 0.3),
	}
	queue[1].Correct = "wibble"

	merged, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", queue)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged answers, got %d", len(merged))
	}
	if merged[0].Correct || !merged[1].Correct {
		t.Fatalf("correctness not recomputed from stored choices: %+v", merged)
	}
	if merged[0].LecAnswered != 0 || merged[0].LecCorrect != 0 {
		t.Fatalf("running totals leaked onto a non-final event: %+v", merged[0])
	}
	if merged[1].LecAnswered != 2 || merged[1].LecCorrect != 1 {
		t.Fatalf("bad running totals: answered=%d correct=%d", merged[1].LecAnswered, merged[1].LecCorrect)
	}
	for _, m := range merged {
		if !m.Synced {
			t.Fatalf("merged history must come back synced: %+v", m)
		}
	}
}

func TestMergeIdempotence(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 2)
	qn := allocateTwo(t, svc, "arnold")

	queue := []quiz.IncomingAnswer{answer(qn[0], 2, 1377000000, 1377000010, 0.5)}
	if _, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", queue); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	// Same (allocation, quiz_time) again, marked synced the way a client
	// replays after a dropped response.
	queue[0].Synced = true
	merged, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", queue)
	if err != nil {
		t.Fatalf("replay merge: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("replay duplicated history: %d events", len(merged))
	}
	if merged[0].LecAnswered != 1 {
		t.Fatalf("bad totals after replay: %+v", merged[0])
	}
}

func TestMergePartialSuccess(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 2)
	qn := allocateTwo(t, svc, "arnold")

	queue := []quiz.IncomingAnswer{
		answer(qn[0], 0, 1377000000, 1377000010, 0.1),
		answer(qn[1], 99, 1377000020, 1377000030, 0.2), // out of range, dropped
		answer(qn[1], 2, 1377000040, 1377000050, 0.3),
	}
	merged, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", queue)
	if err != nil {
		t.Fatalf("merge must not fail on a bad sibling record: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(merged))
	}
	if merged[0].QuizTime != 1377000000 || merged[1].QuizTime != 1377000040 {
		t.Fatalf("wrong events persisted: %+v", merged)
	}
}

func TestMergeOrdersByQuizTime(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 2)
	qn := allocateTwo(t, svc, "arnold")

	// Client submits newest-first; history comes back time-ordered.
	queue := []quiz.IncomingAnswer{
		answer(qn[1], 2, 1377000040, 1377000050, 0.9),
		answer(qn[0], 0, 1377000000, 1377000010, 0.1),
	}
	merged, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", queue)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged[0].QuizTime != 1377000000 || merged[1].QuizTime != 1377000040 {
		t.Fatalf("history not ordered by quiz time: %+v", merged)
	}
	if merged[1].LecAnswered != 2 || merged[1].LecCorrect != 1 {
		t.Fatalf("totals must follow the time order: %+v", merged[1])
	}
}

func TestMergeOwnershipIsolation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 5)
	arnoldQn := allocateTwo(t, svc, "arnold")
	bettyQn := allocateTwo(t, svc, "betty")

	// Betty's queue references one of Arnold's allocations; that record is
	// dropped, her own record lands.
	merged, err := svc.MergeAnswerQueue(ctx, "betty", "lec1", []quiz.IncomingAnswer{
		answer(arnoldQn[0], 2, 1377000040, 1377000050, 0.3),
		answer(bettyQn[0], 2, 1377000041, 1377000051, 0.3),
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged) != 1 || merged[0].QuizTime != 1377000041 {
		t.Fatalf("expected only betty's own record, got %+v", merged)
	}

	// Arnold's history is untouched.
	arnoldHistory, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", nil)
	if err != nil {
		t.Fatalf("read arnold history: %v", err)
	}
	if len(arnoldHistory) != 0 {
		t.Fatalf("foreign record leaked into arnold's history: %+v", arnoldHistory)
	}
}

func TestSyncRejectsForeignUserClaim(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedLecture(t, svc, store, "lec1", 2)

	_, err := svc.Sync(context.Background(), "arnold", "lec1", quiz.SyncRequest{User: "betty"})
	if !errors.Is(err, quiz.ErrOwnership) {
		t.Fatalf("expected ErrOwnership, got %v", err)
	}
}

func TestSyncUnknownLecture(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Sync(context.Background(), "arnold", "nope", quiz.SyncRequest{})
	if !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSyncRoundTrip(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	if err := store.PutLecture(ctx, quiz.Lecture{
		ID:       "lec1",
		Title:    "Lecture lec1",
		Settings: map[string]string{"question_cap": "2", "value_a": "x"},
	}); err != nil {
		t.Fatalf("put lecture: %v", err)
	}
	if err := svc.SyncQuestions(ctx, "lec1", stdQuestions("lec1", 5)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.Sync(ctx, "arnold", "lec1", quiz.SyncRequest{})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Title != "Lecture lec1" {
		t.Fatalf("bad title %q", res.Title)
	}
	if res.Settings["value_a"] != "x" {
		t.Fatalf("settings not echoed: %+v", res.Settings)
	}
	if len(res.Questions) != 2 {
		t.Fatalf("question_cap setting ignored: %d questions", len(res.Questions))
	}
	if len(res.AnswerQueue) != 0 {
		t.Fatalf("fresh student has history: %+v", res.AnswerQueue)
	}

	// Posting a queue comes back merged and annotated.
	res2, err := svc.Sync(ctx, "arnold", "lec1", quiz.SyncRequest{
		User:        "arnold",
		AnswerQueue: []quiz.IncomingAnswer{answer(res.Questions[0].URI, 2, 1377000100, 1377000110, 0.4)},
	})
	if err != nil {
		t.Fatalf("sync with queue: %v", err)
	}
	if len(res2.AnswerQueue) != 1 || !res2.AnswerQueue[0].Synced {
		t.Fatalf("queue not merged: %+v", res2.AnswerQueue)
	}
	if res2.AnswerQueue[0].LecAnswered != 1 || res2.AnswerQueue[0].LecCorrect != 1 {
		t.Fatalf("bad totals: %+v", res2.AnswerQueue[0])
	}
}
