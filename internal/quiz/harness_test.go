package quiz_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/mind-engage/quizsync/internal/quiz"

	"go.uber.org/zap"
)

const t0 = int64(1377000000)

// newTestService wires the engine to the in-memory store with a settable
// clock and a deterministic per-call generator.
func newTestService(t *testing.T) (*quiz.Service, quiz.Store, *int64) {
	t.Helper()
	now := t0
	store := quiz.NewInMemoryStore()
	svc := quiz.NewService(store, nil, zap.NewNop(),
		quiz.WithClock(func() int64 { return now }),
		quiz.WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(42, 7)) }),
	)
	return svc, store, &now
}

// seedLecture puts a lecture plus n standard questions (4 choices, index 2
// correct) into the store.
func seedLecture(t *testing.T, svc *quiz.Service, store quiz.Store, lectureID string, n int) {
	t.Helper()
	ctx := context.Background()
	if err := store.PutLecture(ctx, quiz.Lecture{ID: lectureID, Title: "Lecture " + lectureID}); err != nil {
		t.Fatalf("put lecture: %v", err)
	}
	if err := svc.SyncQuestions(ctx, lectureID, stdQuestions(lectureID, n)); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
}

func stdQuestions(lectureID string, n int) []quiz.QuestionDescriptor {
	descs := make([]quiz.QuestionDescriptor, 0, n)
	for i := 0; i < n; i++ {
		descs = append(descs, quiz.QuestionDescriptor{
			ID:             fmt.Sprintf("%s/qn%d", lectureID, i),
			Type:           quiz.TypeStandard,
			LastUpdate:     t0 - 100,
			CorrectChoices: []int{2},
			ChoiceCount:    4,
		})
	}
	return descs
}

func stdCaps(n int) quiz.AllocateOpts {
	return quiz.AllocateOpts{Caps: map[quiz.QuestionType]int{quiz.TypeStandard: n}}
}

func uris(views []quiz.AllocationView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.URI
	}
	return out
}

func publicID(uri string) string {
	return uri[strings.LastIndex(uri, "/")+1:]
}

func answer(uri string, studentAnswer int, quizTime, answerTime int64, grade float64) quiz.IncomingAnswer {
	a := studentAnswer
	return quiz.IncomingAnswer{
		URI:           uri,
		StudentAnswer: &a,
		QuizTime:      quizTime,
		AnswerTime:    answerTime,
		GradeAfter:    grade,
	}
}
