package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) UpsertStudent(ctx context.Context, id string, now int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (id, created_at) VALUES ($1,$2)
		 ON CONFLICT (id) DO NOTHING`, id, now)
	return err
}

func (s *SQLStore) GetLecture(ctx context.Context, id string) (Lecture, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, settings_json FROM lectures WHERE id=$1`, id)
	var lec Lecture
	var settings string
	if err := row.Scan(&lec.ID, &lec.Title, &settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lecture{}, fmt.Errorf("lecture %q: %w", id, ErrNotFound)
		}
		return Lecture{}, err
	}
	if settings != "" {
		if err := json.Unmarshal([]byte(settings), &lec.Settings); err != nil {
			return Lecture{}, err
		}
	}
	return lec, nil
}

func (s *SQLStore) PutLecture(ctx context.Context, lec Lecture) error {
	settings, err := json.Marshal(lec.Settings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lectures (id, title, settings_json) VALUES ($1,$2,$3)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, settings_json=EXCLUDED.settings_json`,
		lec.ID, lec.Title, string(settings))
	return err
}

func (s *SQLStore) QuestionsForLecture(ctx context.Context, lectureID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lecture_id, qn_type, active, last_update, correct_choices_json, choice_count, times_answered, times_correct
		 FROM questions WHERE lecture_id=$1 ORDER BY id`, lectureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuestion(rows *sql.Rows) (Question, error) {
	var q Question
	var active int
	var choices string
	if err := rows.Scan(&q.ID, &q.LectureID, &q.Type, &active, &q.LastUpdate,
		&choices, &q.ChoiceCount, &q.TimesAnswered, &q.TimesCorrect); err != nil {
		return Question{}, err
	}
	q.Active = active != 0
	if choices != "" {
		if err := json.Unmarshal([]byte(choices), &q.CorrectChoices); err != nil {
			return Question{}, err
		}
	}
	return q, nil
}

func (s *SQLStore) ApplyCatalog(ctx context.Context, lectureID string, upserts []Question, deactivate []string, now int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range upserts {
		choices, err := json.Marshal(q.CorrectChoices)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, lecture_id, qn_type, active, last_update, correct_choices_json, choice_count, times_answered, times_correct)
			 VALUES ($1,$2,$3,1,$4,$5,$6,$7,$8)
			 ON CONFLICT (id) DO UPDATE SET
				qn_type=EXCLUDED.qn_type,
				active=1,
				last_update=EXCLUDED.last_update,
				correct_choices_json=EXCLUDED.correct_choices_json,
				choice_count=EXCLUDED.choice_count,
				times_answered=EXCLUDED.times_answered,
				times_correct=EXCLUDED.times_correct`,
			q.ID, lectureID, string(q.Type), q.LastUpdate, string(choices),
			q.ChoiceCount, q.TimesAnswered, q.TimesCorrect); err != nil {
			return err
		}
	}
	for _, id := range deactivate {
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET active=0, last_update=$1 WHERE id=$2 AND lecture_id=$3`,
			now, id, lectureID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) AllocationsForStudent(ctx context.Context, studentID, lectureID string) ([]AllocationWithQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.public_id, a.student_id, a.lecture_id, a.question_id, a.allocation_time, a.active,
		        q.id, q.lecture_id, q.qn_type, q.active, q.last_update, q.correct_choices_json, q.choice_count, q.times_answered, q.times_correct
		 FROM allocations a
		 JOIN questions q ON q.id = a.question_id
		 WHERE a.student_id=$1 AND a.lecture_id=$2
		 ORDER BY a.allocation_time, a.public_id`, studentID, lectureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AllocationWithQuestion
	for rows.Next() {
		var aq AllocationWithQuestion
		var allocActive, qnActive int
		var choices string
		if err := rows.Scan(
			&aq.Allocation.PublicID, &aq.Allocation.StudentID, &aq.Allocation.LectureID,
			&aq.Allocation.QuestionID, &aq.Allocation.AllocationTime, &allocActive,
			&aq.Question.ID, &aq.Question.LectureID, &aq.Question.Type, &qnActive,
			&aq.Question.LastUpdate, &choices, &aq.Question.ChoiceCount,
			&aq.Question.TimesAnswered, &aq.Question.TimesCorrect); err != nil {
			return nil, err
		}
		aq.Allocation.Active = allocActive != 0
		aq.Question.Active = qnActive != 0
		if choices != "" {
			if err := json.Unmarshal([]byte(choices), &aq.Question.CorrectChoices); err != nil {
				return nil, err
			}
		}
		out = append(out, aq)
	}
	return out, rows.Err()
}

func (s *SQLStore) ApplyAllocationChanges(ctx context.Context, deactivate []string, create []Allocation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, publicID := range deactivate {
		if _, err := tx.ExecContext(ctx,
			`UPDATE allocations SET active=0 WHERE public_id=$1`, publicID); err != nil {
			return err
		}
	}
	for _, a := range create {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO allocations (public_id, student_id, lecture_id, question_id, allocation_time, active)
			 VALUES ($1,$2,$3,$4,$5,1)`,
			a.PublicID, a.StudentID, a.LectureID, a.QuestionID, a.AllocationTime); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) AnswersFor(ctx context.Context, studentID, lectureID string) ([]AnswerEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, allocation_id, student_id, lecture_id, question_id, student_answer, correct, quiz_time, answer_time, grade_after
		 FROM answers WHERE student_id=$1 AND lecture_id=$2
		 ORDER BY quiz_time, answer_time, seq`, studentID, lectureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnswerEvent
	for rows.Next() {
		var ev AnswerEvent
		var correct int
		if err := rows.Scan(&ev.Seq, &ev.AllocationID, &ev.StudentID, &ev.LectureID,
			&ev.QuestionID, &ev.StudentAnswer, &correct, &ev.QuizTime, &ev.AnswerTime,
			&ev.GradeAfter); err != nil {
			return nil, err
		}
		ev.Correct = correct != 0
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendAnswers(ctx context.Context, events []AnswerEvent, summary AnswerSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		correct := 0
		if ev.Correct {
			correct = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO answers (allocation_id, student_id, lecture_id, question_id, student_answer, correct, quiz_time, answer_time, grade_after)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			ev.AllocationID, ev.StudentID, ev.LectureID, ev.QuestionID,
			ev.StudentAnswer, correct, ev.QuizTime, ev.AnswerTime, ev.GradeAfter); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO answer_summary (student_id, lecture_id, answered, correct, grade)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (student_id, lecture_id) DO UPDATE SET
			answered=EXCLUDED.answered, correct=EXCLUDED.correct, grade=EXCLUDED.grade`,
		summary.StudentID, summary.LectureID, summary.Answered, summary.Correct, summary.Grade); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) LatestGrades(ctx context.Context, studentIDs, lectureIDs []string) (map[GradeKey]float64, error) {
	args := make([]interface{}, 0, len(studentIDs)+len(lectureIDs))
	for _, id := range studentIDs {
		args = append(args, id)
	}
	for _, id := range lectureIDs {
		args = append(args, id)
	}
	query := fmt.Sprintf(
		`SELECT student_id, lecture_id, grade FROM answer_summary
		 WHERE student_id IN (%s) AND lecture_id IN (%s)`,
		placeholders(1, len(studentIDs)), placeholders(1+len(studentIDs), len(lectureIDs)))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[GradeKey]float64{}
	for rows.Next() {
		var key GradeKey
		var grade float64
		if err := rows.Scan(&key.StudentID, &key.LectureID, &grade); err != nil {
			return nil, err
		}
		out[key] = grade
	}
	return out, rows.Err()
}

// placeholders renders "$start,$start+1,..." for n parameters.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ",")
}
