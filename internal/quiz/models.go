package quiz

// QuestionType tags how a question is answered. Standard questions carry a
// fixed choice list with known correct indexes; template questions are
// generated client-side and have no stored answer key.
type QuestionType string

const (
	TypeStandard QuestionType = "standard"
	TypeTemplate QuestionType = "template"
)

type Student struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Lecture struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Settings map[string]string `json:"settings,omitempty"`
}

type Question struct {
	ID             string       `json:"id"`
	LectureID      string       `json:"lecture_id"`
	Type           QuestionType `json:"type"`
	Active         bool         `json:"active"`
	LastUpdate     int64        `json:"last_update"` // unix seconds
	CorrectChoices []int        `json:"correct_choices,omitempty"`
	ChoiceCount    int          `json:"choice_count"`
	TimesAnswered  int          `json:"times_answered"`
	TimesCorrect   int          `json:"times_correct"`
}

// Allocation binds one question to one student for one lecture. PublicID is
// the only identifier ever exposed outside the service; it stays stable for
// the allocation's lifetime. Rows are deactivated, never deleted, so old
// answer history still resolves.
type Allocation struct {
	PublicID       string `json:"public_id"`
	StudentID      string `json:"student_id"`
	LectureID      string `json:"lecture_id"`
	QuestionID     string `json:"question_id"`
	AllocationTime int64  `json:"allocation_time"`
	Active         bool   `json:"active"`
}

type AllocationWithQuestion struct {
	Allocation Allocation
	Question   Question
}

// QuestionDescriptor is one entry of the upstream catalog listing.
type QuestionDescriptor struct {
	ID             string       `json:"id"`
	Type           QuestionType `json:"type"`
	LastUpdate     int64        `json:"last_update"`
	CorrectChoices []int        `json:"correct_choices,omitempty"`
	ChoiceCount    int          `json:"choice_count"`
	TimesAnswered  int          `json:"times_answered"`
	TimesCorrect   int          `json:"times_correct"`
}

// AllocationView is what a client sees for one allocated question.
type AllocationView struct {
	Type       string `json:"_type,omitempty"` // "template" or empty
	URI        string `json:"uri"`
	Chosen     int    `json:"chosen"`
	Correct    int    `json:"correct"`
	OnlineOnly bool   `json:"online_only"`
}

// AnswerEvent is one persisted attempt. Immutable once written; Seq records
// insertion order and is the final tie-break after (QuizTime, AnswerTime).
type AnswerEvent struct {
	Seq           int64   `json:"-"`
	AllocationID  string  `json:"-"`
	StudentID     string  `json:"-"`
	LectureID     string  `json:"-"`
	QuestionID    string  `json:"-"`
	StudentAnswer int     `json:"student_answer"`
	Correct       bool    `json:"correct"`
	QuizTime      int64   `json:"quiz_time"`
	AnswerTime    int64   `json:"answer_time"`
	GradeAfter    float64 `json:"grade_after"`
}

// IncomingAnswer is one client-reported record from an answer queue. Correct
// is untyped because offline clients have been observed sending junk there;
// the merge recomputes it for standard questions anyway.
type IncomingAnswer struct {
	Synced        bool        `json:"synced"`
	URI           string      `json:"uri"`
	StudentAnswer *int        `json:"student_answer"`
	Correct       interface{} `json:"correct"`
	QuizTime      int64       `json:"quiz_time"`
	AnswerTime    int64       `json:"answer_time"`
	GradeAfter    float64     `json:"grade_after"`
}

// MergedAnswer is one entry of the returned, annotated history. Running
// totals are attached to the final entry only.
type MergedAnswer struct {
	Synced        bool    `json:"synced"`
	StudentAnswer int     `json:"student_answer"`
	Correct       bool    `json:"correct"`
	QuizTime      int64   `json:"quiz_time"`
	AnswerTime    int64   `json:"answer_time"`
	GradeAfter    float64 `json:"grade_after"`
	LecAnswered   int     `json:"lec_answered,omitempty"`
	LecCorrect    int     `json:"lec_correct,omitempty"`
}

// AnswerSummary is the per-(student, lecture) running-total row kept in step
// with the answers table. Grade is the latest event's grade_after.
type AnswerSummary struct {
	StudentID string  `json:"student_id"`
	LectureID string  `json:"lecture_id"`
	Answered  int     `json:"answered"`
	Correct   int     `json:"correct"`
	Grade     float64 `json:"grade"`
}

type GradeKey struct {
	StudentID string
	LectureID string
}
