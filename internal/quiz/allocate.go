package quiz

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
)

type AllocateOpts struct {
	// Caps is the maximum active allocation count per question type. A type
	// missing from the map gets no allocations.
	Caps map[QuestionType]int

	// TargetDifficulty, when set, biases replacement questions towards an
	// observed correct-ratio close to this value.
	TargetDifficulty *float64

	// Reallocate evicts the worst-fitting tenth of a full allocation set to
	// make room for resampling. Requires TargetDifficulty.
	Reallocate bool
}

// allocTypes fixes the per-type processing and return order. Every known
// type is visited even when the student holds nothing of it, otherwise
// shortfalls for that type would never be filled.
var allocTypes = []QuestionType{TypeStandard, TypeTemplate}

// Allocate brings the student's active allocation set for a lecture in line
// with the caps and returns a descriptor per surviving allocation. With no
// catalog change and no answers recorded in between, two successive calls
// return identical identifiers in identical order.
func (s *Service) Allocate(ctx context.Context, studentID, lectureID string, opts AllocateOpts) ([]AllocationView, error) {
	unlock := s.locks.Lock(studentID, lectureID)
	defer unlock()
	return s.allocateLocked(ctx, studentID, lectureID, opts)
}

func (s *Service) allocateLocked(ctx context.Context, studentID, lectureID string, opts AllocateOpts) ([]AllocationView, error) {
	if opts.Reallocate && opts.TargetDifficulty == nil {
		return nil, fmt.Errorf("reallocation needs a target difficulty to rank by: %w", ErrConfig)
	}

	current, err := s.store.AllocationsForStudent(ctx, studentID, lectureID)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.QuestionsForLecture(ctx, lectureID)
	if err != nil {
		return nil, err
	}

	var deactivate []string
	byType := map[QuestionType][]AllocationWithQuestion{}
	for _, t := range allocTypes {
		byType[t] = nil
	}
	for _, aq := range current {
		if !aq.Allocation.Active {
			continue
		}
		if !aq.Question.Active || aq.Allocation.AllocationTime < aq.Question.LastUpdate {
			// Question removed upstream, or changed after assignment.
			deactivate = append(deactivate, aq.Allocation.PublicID)
			continue
		}
		byType[aq.Question.Type] = append(byType[aq.Question.Type], aq)
	}

	r := s.newRand()
	now := s.now()
	var create []Allocation
	var views []AllocationView

	for _, qnType := range allocTypes {
		allocs := byType[qnType]
		questionCap := opts.Caps[qnType]

		// Over cap: evict uniformly, every survivor equally likely to go.
		if excess := len(allocs) - questionCap; excess > 0 {
			drop := sampleK(r, len(allocs), excess)
			sort.Sort(sort.Reverse(sort.IntSlice(drop)))
			for _, i := range drop {
				deactivate = append(deactivate, allocs[i].Allocation.PublicID)
				allocs = append(allocs[:i], allocs[i+1:]...)
			}
		}

		// Exactly at cap and resampling requested: evict the tenth (plus
		// one) whose observed difficulty fits the target worst.
		if opts.Reallocate && questionCap > 0 && len(allocs) == questionCap {
			target := *opts.TargetDifficulty
			suitability := make([]float64, len(allocs))
			for i, aq := range allocs {
				q := aq.Question
				if q.TimesAnswered == 0 {
					// Never-answered questions always rank as keepers.
					suitability[i] = 1
				} else {
					suitability[i] = 1 - math.Abs(target-float64(q.TimesCorrect)/float64(q.TimesAnswered))
				}
			}
			ranking := make([]int, len(allocs))
			for i := range ranking {
				ranking[i] = i
			}
			sort.SliceStable(ranking, func(a, b int) bool {
				return suitability[ranking[a]] < suitability[ranking[b]]
			})
			drop := append([]int(nil), ranking[:len(allocs)/10+1]...)
			sort.Sort(sort.Reverse(sort.IntSlice(drop)))
			for _, i := range drop {
				deactivate = append(deactivate, allocs[i].Allocation.PublicID)
				allocs = append(allocs[:i], allocs[i+1:]...)
			}
		}

		// Below cap: draw replacements from the active pool.
		if len(allocs) < questionCap {
			taken := map[string]bool{}
			for _, aq := range allocs {
				taken[aq.Question.ID] = true
			}
			var pool []Question
			for _, q := range questions {
				if q.Active && q.Type == qnType && !taken[q.ID] {
					pool = append(pool, q)
				}
			}
			orderCandidates(r, pool, opts.TargetDifficulty)
			for _, q := range pool[:min(questionCap-len(allocs), len(pool))] {
				alloc := Allocation{
					PublicID:       uuid.NewString(),
					StudentID:      studentID,
					LectureID:      lectureID,
					QuestionID:     q.ID,
					AllocationTime: now,
					Active:         true,
				}
				create = append(create, alloc)
				allocs = append(allocs, AllocationWithQuestion{Allocation: alloc, Question: q})
			}
		}

		// Deterministic return order, so an unchanged set comes back
		// identically ordered on every call.
		sort.Slice(allocs, func(i, j int) bool {
			a, b := allocs[i].Allocation, allocs[j].Allocation
			if a.AllocationTime != b.AllocationTime {
				return a.AllocationTime < b.AllocationTime
			}
			return a.PublicID < b.PublicID
		})

		for _, aq := range allocs {
			v := AllocationView{
				URI:        s.questionURI(aq.Allocation.PublicID),
				Chosen:     aq.Question.TimesAnswered,
				Correct:    aq.Question.TimesCorrect,
				OnlineOnly: aq.Question.Type == TypeTemplate,
			}
			if aq.Question.Type == TypeTemplate {
				v.Type = "template"
			}
			views = append(views, v)
		}
	}

	if len(deactivate) > 0 || len(create) > 0 {
		if err := s.store.ApplyAllocationChanges(ctx, deactivate, create); err != nil {
			return nil, err
		}
	}
	return views, nil
}

// ListAllocations returns the student's current active allocations for a
// lecture without mutating anything. Allocations whose question has been
// deactivated are left out, the same way a fresh Allocate would drop them.
func (s *Service) ListAllocations(ctx context.Context, studentID, lectureID string) ([]AllocationView, error) {
	if _, err := s.store.GetLecture(ctx, lectureID); err != nil {
		return nil, err
	}
	current, err := s.store.AllocationsForStudent(ctx, studentID, lectureID)
	if err != nil {
		return nil, err
	}
	views := []AllocationView{}
	for _, aq := range current {
		if !aq.Allocation.Active || !aq.Question.Active {
			continue
		}
		v := AllocationView{
			URI:        s.questionURI(aq.Allocation.PublicID),
			Chosen:     aq.Question.TimesAnswered,
			Correct:    aq.Question.TimesCorrect,
			OnlineOnly: aq.Question.Type == TypeTemplate,
		}
		if aq.Question.Type == TypeTemplate {
			v.Type = "template"
		}
		views = append(views, v)
	}
	return views, nil
}

// orderCandidates shuffles the pool, then, given a target, stably sorts by
// distance between the target and the observed correct ratio so equidistant
// questions stay in random order. Distance is taken at 1/50 resolution;
// never-answered questions sort ahead of everything.
func orderCandidates(r *rand.Rand, pool []Question, target *float64) {
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if target == nil {
		return
	}
	want := int(math.Round(*target * 50))
	dist := func(q Question) int {
		if q.TimesAnswered == 0 {
			return -1
		}
		got := int(math.Round(50 * float64(q.TimesCorrect) / float64(q.TimesAnswered)))
		if got > want {
			return got - want
		}
		return want - got
	}
	sort.SliceStable(pool, func(i, j int) bool { return dist(pool[i]) < dist(pool[j]) })
}
