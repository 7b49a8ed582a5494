package quiz_test

import (
	"context"
	"testing"

	"github.com/mind-engage/quizsync/internal/quiz"
)

func TestLatestGradePerLecture(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 2)
	seedLecture(t, svc, store, "lec2", 2)

	l1 := allocateTwo(t, svc, "arnold")
	views, err := svc.Allocate(ctx, "arnold", "lec2", stdCaps(2))
	if err != nil {
		t.Fatalf("allocate lec2: %v", err)
	}
	l2 := uris(views)

	// Interleaved submissions across two lectures; latest grade per lecture
	// must not depend on the interleaving.
	if _, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", []quiz.IncomingAnswer{
		answer(l1[0], 2, 1377000000, 1377000010, 0.3),
	}); err != nil {
		t.Fatalf("merge lec1: %v", err)
	}
	if _, err := svc.MergeAnswerQueue(ctx, "arnold", "lec2", []quiz.IncomingAnswer{
		answer(l2[0], 2, 1377000001, 1377000011, 0.31),
	}); err != nil {
		t.Fatalf("merge lec2: %v", err)
	}
	if _, err := svc.MergeAnswerQueue(ctx, "arnold", "lec2", []quiz.IncomingAnswer{
		answer(l2[1], 2, 1377000021, 1377000031, 0.91),
	}); err != nil {
		t.Fatalf("merge lec2 again: %v", err)
	}
	if _, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", []quiz.IncomingAnswer{
		answer(l1[1], 2, 1377000020, 1377000030, 0.9),
	}); err != nil {
		t.Fatalf("merge lec1 again: %v", err)
	}

	grades, err := svc.LatestGrades(ctx, []string{"arnold"}, []string{"lec1", "lec2"})
	if err != nil {
		t.Fatalf("latest grades: %v", err)
	}
	if g := grades[quiz.GradeKey{StudentID: "arnold", LectureID: "lec1"}]; g != 0.9 {
		t.Fatalf("lec1 grade = %v, want 0.9", g)
	}
	if g := grades[quiz.GradeKey{StudentID: "arnold", LectureID: "lec2"}]; g != 0.91 {
		t.Fatalf("lec2 grade = %v, want 0.91", g)
	}
}

func TestGradeTablePlaceholders(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedLecture(t, svc, store, "lec1", 2)
	qn := allocateTwo(t, svc, "arnold")

	if _, err := svc.MergeAnswerQueue(ctx, "arnold", "lec1", []quiz.IncomingAnswer{
		answer(qn[0], 2, 1377000000, 1377000010, 0.75),
	}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	rows, err := svc.GradeTable(ctx, []string{"arnold", "betty"}, []string{"lec1", "lec2"})
	if err != nil {
		t.Fatalf("grade table: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per student, got %d", len(rows))
	}
	if rows[0].Username != "arnold" || rows[0].Grades[0] != 0.75 || rows[0].Grades[1] != quiz.NoGrade {
		t.Fatalf("bad arnold row: %+v", rows[0])
	}
	if rows[1].Grades[0] != quiz.NoGrade || rows[1].Grades[1] != quiz.NoGrade {
		t.Fatalf("student without answers must get placeholders: %+v", rows[1])
	}
}

func TestLatestGradesEmptyInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	grades, err := svc.LatestGrades(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("latest grades: %v", err)
	}
	if len(grades) != 0 {
		t.Fatalf("expected empty map, got %v", grades)
	}
}
