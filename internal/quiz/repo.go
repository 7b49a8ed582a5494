package quiz

import "context"

// Store is the persistence boundary for the engine. Implementations must
// make ApplyCatalog, ApplyAllocationChanges and AppendAnswers atomic: either
// every mutation in the call lands or none do.
type Store interface {
	UpsertStudent(ctx context.Context, id string, now int64) error

	GetLecture(ctx context.Context, id string) (Lecture, error)
	PutLecture(ctx context.Context, lec Lecture) error

	// QuestionsForLecture returns every question row of the lecture,
	// inactive ones included.
	QuestionsForLecture(ctx context.Context, lectureID string) ([]Question, error)

	// ApplyCatalog upserts the given question rows and deactivates the named
	// ids (stamping their last_update to now), in one transaction.
	ApplyCatalog(ctx context.Context, lectureID string, upserts []Question, deactivate []string, now int64) error

	// AllocationsForStudent returns the student's allocations for a lecture
	// joined to their questions, inactive rows included so old history still
	// resolves.
	AllocationsForStudent(ctx context.Context, studentID, lectureID string) ([]AllocationWithQuestion, error)

	// ApplyAllocationChanges deactivates and creates allocations in one
	// transaction.
	ApplyAllocationChanges(ctx context.Context, deactivate []string, create []Allocation) error

	// AnswersFor returns the student's persisted history for a lecture in
	// (quiz_time, answer_time, seq) ascending order.
	AnswersFor(ctx context.Context, studentID, lectureID string) ([]AnswerEvent, error)

	// AppendAnswers inserts the accepted events and replaces the summary row
	// in one transaction. Events must be passed in the order they should
	// receive insertion sequence numbers.
	AppendAnswers(ctx context.Context, events []AnswerEvent, summary AnswerSummary) error

	// LatestGrades returns the summary grade for every (student, lecture)
	// combination that has one, in a single round trip.
	LatestGrades(ctx context.Context, studentIDs, lectureIDs []string) (map[GradeKey]float64, error)
}
