package quiz

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memoryStore keeps everything in maps. Used by tests and offline single
// process runs; semantics mirror SQLStore, including ordering.
type memoryStore struct {
	mu        sync.RWMutex
	students  map[string]Student
	lectures  map[string]Lecture
	questions map[string]Question // id -> question
	allocs    map[string]Allocation
	answers   []AnswerEvent
	summaries map[GradeKey]AnswerSummary
	nextSeq   int64
}

func NewInMemoryStore() Store {
	return &memoryStore{
		students:  map[string]Student{},
		lectures:  map[string]Lecture{},
		questions: map[string]Question{},
		allocs:    map[string]Allocation{},
		summaries: map[GradeKey]AnswerSummary{},
	}
}

func (m *memoryStore) UpsertStudent(_ context.Context, id string, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		m.students[id] = Student{ID: id, CreatedAt: now}
	}
	return nil
}

func (m *memoryStore) GetLecture(_ context.Context, id string) (Lecture, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lec, ok := m.lectures[id]
	if !ok {
		return Lecture{}, fmt.Errorf("lecture %q: %w", id, ErrNotFound)
	}
	return lec, nil
}

func (m *memoryStore) PutLecture(_ context.Context, lec Lecture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lectures[lec.ID] = lec
	return nil
}

func (m *memoryStore) QuestionsForLecture(_ context.Context, lectureID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Question
	for _, q := range m.questions {
		if q.LectureID == lectureID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) ApplyCatalog(_ context.Context, lectureID string, upserts []Question, deactivate []string, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range upserts {
		q.LectureID = lectureID
		q.Active = true
		m.questions[q.ID] = q
	}
	for _, id := range deactivate {
		if q, ok := m.questions[id]; ok && q.LectureID == lectureID {
			q.Active = false
			q.LastUpdate = now
			m.questions[id] = q
		}
	}
	return nil
}

func (m *memoryStore) AllocationsForStudent(_ context.Context, studentID, lectureID string) ([]AllocationWithQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []AllocationWithQuestion
	for _, a := range m.allocs {
		if a.StudentID != studentID || a.LectureID != lectureID {
			continue
		}
		q, ok := m.questions[a.QuestionID]
		if !ok {
			continue
		}
		out = append(out, AllocationWithQuestion{Allocation: a, Question: q})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Allocation, out[j].Allocation
		if a.AllocationTime != b.AllocationTime {
			return a.AllocationTime < b.AllocationTime
		}
		return a.PublicID < b.PublicID
	})
	return out, nil
}

func (m *memoryStore) ApplyAllocationChanges(_ context.Context, deactivate []string, create []Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, publicID := range deactivate {
		if a, ok := m.allocs[publicID]; ok {
			a.Active = false
			m.allocs[publicID] = a
		}
	}
	for _, a := range create {
		m.allocs[a.PublicID] = a
	}
	return nil
}

func (m *memoryStore) AnswersFor(_ context.Context, studentID, lectureID string) ([]AnswerEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []AnswerEvent
	for _, ev := range m.answers {
		if ev.StudentID == studentID && ev.LectureID == lectureID {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QuizTime != out[j].QuizTime {
			return out[i].QuizTime < out[j].QuizTime
		}
		if out[i].AnswerTime != out[j].AnswerTime {
			return out[i].AnswerTime < out[j].AnswerTime
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (m *memoryStore) AppendAnswers(_ context.Context, events []AnswerEvent, summary AnswerSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		m.nextSeq++
		ev.Seq = m.nextSeq
		m.answers = append(m.answers, ev)
	}
	m.summaries[GradeKey{StudentID: summary.StudentID, LectureID: summary.LectureID}] = summary
	return nil
}

func (m *memoryStore) LatestGrades(_ context.Context, studentIDs, lectureIDs []string) (map[GradeKey]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wantStudent := map[string]bool{}
	for _, id := range studentIDs {
		wantStudent[id] = true
	}
	wantLecture := map[string]bool{}
	for _, id := range lectureIDs {
		wantLecture[id] = true
	}
	out := map[GradeKey]float64{}
	for key, sum := range m.summaries {
		if wantStudent[key.StudentID] && wantLecture[key.LectureID] {
			out[key] = sum.Grade
		}
	}
	return out, nil
}
