package quiz

import "context"

// SyncQuestions reconciles the upstream question listing into the questions
// table for one lecture. Questions that vanished upstream are deactivated,
// never deleted: existing allocations must still resolve them for history.
func (s *Service) SyncQuestions(ctx context.Context, lectureID string, descs []QuestionDescriptor) error {
	existing, err := s.store.QuestionsForLecture(ctx, lectureID)
	if err != nil {
		return err
	}

	byID := make(map[string]QuestionDescriptor, len(descs))
	for _, d := range descs {
		byID[d.ID] = d
	}

	var upserts []Question
	var deactivate []string
	for _, q := range existing {
		d, ok := byID[q.ID]
		if !ok {
			if q.Active {
				deactivate = append(deactivate, q.ID)
			}
			continue
		}
		// Still there (or returned): reactivate and take upstream metadata.
		q.Active = true
		q.Type = d.Type
		q.LastUpdate = d.LastUpdate
		q.CorrectChoices = d.CorrectChoices
		q.ChoiceCount = d.ChoiceCount
		q.TimesAnswered = d.TimesAnswered
		q.TimesCorrect = d.TimesCorrect
		upserts = append(upserts, q)
		delete(byID, q.ID)
	}

	// Whatever is left upstream is new to us.
	for _, d := range descs {
		if _, ok := byID[d.ID]; !ok {
			continue
		}
		upserts = append(upserts, Question{
			ID:             d.ID,
			LectureID:      lectureID,
			Type:           d.Type,
			Active:         true,
			LastUpdate:     d.LastUpdate,
			CorrectChoices: d.CorrectChoices,
			ChoiceCount:    d.ChoiceCount,
			TimesAnswered:  d.TimesAnswered,
			TimesCorrect:   d.TimesCorrect,
		})
	}

	return s.store.ApplyCatalog(ctx, lectureID, upserts, deactivate, s.now())
}
