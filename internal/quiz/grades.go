package quiz

import "context"

// NoGrade is the placeholder rendered for a (student, lecture) pair with no
// recorded answers.
const NoGrade = "-"

// LatestGrades returns the most recent grade_after per (student, lecture)
// pair, for every pair that has history. One store round trip regardless of
// how many pairs are asked for.
func (s *Service) LatestGrades(ctx context.Context, studentIDs, lectureIDs []string) (map[GradeKey]float64, error) {
	if len(studentIDs) == 0 || len(lectureIDs) == 0 {
		return map[GradeKey]float64{}, nil
	}
	return s.store.LatestGrades(ctx, studentIDs, lectureIDs)
}

// GradeRow is one line of a class results table: the student's latest grade
// per requested lecture, in lecture order, NoGrade where nothing exists.
type GradeRow struct {
	Username string        `json:"username"`
	Grades   []interface{} `json:"grades"`
}

// GradeTable projects the latest grades for a whole class in one pass.
func (s *Service) GradeTable(ctx context.Context, studentIDs, lectureIDs []string) ([]GradeRow, error) {
	grades, err := s.LatestGrades(ctx, studentIDs, lectureIDs)
	if err != nil {
		return nil, err
	}
	rows := make([]GradeRow, 0, len(studentIDs))
	for _, student := range studentIDs {
		row := GradeRow{Username: student, Grades: make([]interface{}, 0, len(lectureIDs))}
		for _, lecture := range lectureIDs {
			if g, ok := grades[GradeKey{StudentID: student, LectureID: lecture}]; ok {
				row.Grades = append(row.Grades, g)
			} else {
				row.Grades = append(row.Grades, NoGrade)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
