package quiz

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// MergeAnswerQueue folds a client-recorded answer queue into the student's
// persisted history for a lecture and returns the whole history, annotated.
// Bad records are dropped with a diagnostic, never aborting their siblings;
// resubmitting the same (allocation, quiz_time) pair is a no-op.
func (s *Service) MergeAnswerQueue(ctx context.Context, studentID, lectureID string, incoming []IncomingAnswer) ([]MergedAnswer, error) {
	unlock := s.locks.Lock(studentID, lectureID)
	defer unlock()
	merged, _, err := s.mergeLocked(ctx, studentID, lectureID, incoming)
	return merged, err
}

func (s *Service) mergeLocked(ctx context.Context, studentID, lectureID string, incoming []IncomingAnswer) ([]MergedAnswer, int, error) {
	allocs, err := s.store.AllocationsForStudent(ctx, studentID, lectureID)
	if err != nil {
		return nil, 0, err
	}
	byPublicID := make(map[string]AllocationWithQuestion, len(allocs))
	for _, aq := range allocs {
		byPublicID[aq.Allocation.PublicID] = aq
	}

	existing, err := s.store.AnswersFor(ctx, studentID, lectureID)
	if err != nil {
		return nil, 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, ev := range existing {
		seen[answerKey(ev.AllocationID, ev.QuizTime)] = true
	}

	var accepted []AnswerEvent
	for _, in := range incoming {
		publicID := s.publicIDFromURI(in.URI)
		aq, ok := byPublicID[publicID]
		if !ok {
			s.log.Warn("no record of allocation for student",
				zap.String("allocation", publicID), zap.String("student", studentID))
			continue
		}

		q := aq.Question
		var answer int
		var correct bool
		switch q.Type {
		case TypeTemplate:
			// No stored answer key; keep the client's verdict.
			if in.StudentAnswer != nil {
				answer = *in.StudentAnswer
			}
			correct, _ = in.Correct.(bool)
		default:
			if in.StudentAnswer == nil || *in.StudentAnswer < 0 || *in.StudentAnswer >= q.ChoiceCount {
				s.log.Warn("student answer out of range",
					zap.String("answer", describeAnswer(in.StudentAnswer)),
					zap.String("allocation", publicID), zap.String("student", studentID))
				continue
			}
			answer = *in.StudentAnswer
			correct = containsInt(q.CorrectChoices, answer)
		}

		key := answerKey(publicID, in.QuizTime)
		if seen[key] {
			// Replay of something already persisted (or duplicated within
			// this very batch); history stays as it is.
			continue
		}
		if in.Synced {
			s.log.Warn("record claims to be synced but is not on file",
				zap.String("allocation", publicID), zap.Int64("quiz_time", in.QuizTime))
			continue
		}
		seen[key] = true
		accepted = append(accepted, AnswerEvent{
			AllocationID:  publicID,
			StudentID:     studentID,
			LectureID:     lectureID,
			QuestionID:    q.ID,
			StudentAnswer: answer,
			Correct:       correct,
			QuizTime:      in.QuizTime,
			AnswerTime:    in.AnswerTime,
			GradeAfter:    in.GradeAfter,
		})
	}

	merged := make([]AnswerEvent, 0, len(existing)+len(accepted))
	merged = append(merged, existing...)
	merged = append(merged, accepted...)
	// Stable sort keeps insertion order within (quiz_time, answer_time)
	// ties: persisted rows come back seq-ordered and accepted records stay
	// in submission order behind them.
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].QuizTime != merged[j].QuizTime {
			return merged[i].QuizTime < merged[j].QuizTime
		}
		return merged[i].AnswerTime < merged[j].AnswerTime
	})

	if len(accepted) > 0 {
		correctTotal := 0
		for _, ev := range merged {
			if ev.Correct {
				correctTotal++
			}
		}
		summary := AnswerSummary{
			StudentID: studentID,
			LectureID: lectureID,
			Answered:  len(merged),
			Correct:   correctTotal,
			Grade:     merged[len(merged)-1].GradeAfter,
		}
		if err := s.store.AppendAnswers(ctx, accepted, summary); err != nil {
			return nil, 0, err
		}
	}

	return annotate(merged), len(accepted), nil
}

// annotate marks every event synced and attaches the running totals to the
// final event only.
func annotate(history []AnswerEvent) []MergedAnswer {
	out := make([]MergedAnswer, len(history))
	correct := 0
	for i, ev := range history {
		if ev.Correct {
			correct++
		}
		out[i] = MergedAnswer{
			Synced:        true,
			StudentAnswer: ev.StudentAnswer,
			Correct:       ev.Correct,
			QuizTime:      ev.QuizTime,
			AnswerTime:    ev.AnswerTime,
			GradeAfter:    ev.GradeAfter,
		}
	}
	if len(out) > 0 {
		out[len(out)-1].LecAnswered = len(history)
		out[len(out)-1].LecCorrect = correct
	}
	return out
}

func answerKey(allocationID string, quizTime int64) string {
	return allocationID + "|" + strconv.FormatInt(quizTime, 10)
}

func describeAnswer(v *int) string {
	if v == nil {
		return "missing"
	}
	return strconv.Itoa(*v)
}

func containsInt(xs []int, n int) bool {
	for _, x := range xs {
		if x == n {
			return true
		}
	}
	return false
}
