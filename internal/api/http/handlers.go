package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/quizsync/internal/auth"
	"github.com/mind-engage/quizsync/internal/quiz"

	"github.com/go-chi/chi/v5"
)

// SyncLectureHandler drives one full client exchange for a lecture: catalog
// refresh, answer-queue merge (when a queue is posted) and allocation.
// GET syncs with an empty queue.
func SyncLectureHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		lectureID := chi.URLParam(r, "lectureID")

		var req quiz.SyncRequest
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}

		res, err := svc.Sync(r.Context(), studentID, lectureID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// ListAllocationsHandler returns the caller's active allocations for a
// lecture without running the allocation engine.
func ListAllocationsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		views, err := svc.ListAllocations(r.Context(), studentID, chi.URLParam(r, "lectureID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, views)
	}
}

// GradeTableHandler projects the latest grade per (student, lecture) for a
// whole class in one pass.
// POST /grades/table  { "students": [...], "lectures": [...] }
func GradeTableHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Students []string `json:"students"`
			Lectures []string `json:"lectures"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		rows, err := svc.GradeTable(r.Context(), req.Students, req.Lectures)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rows)
	}
}

// OwnGradesHandler returns the caller's latest grade for the requested
// lectures.
// GET /grades?lecture=lec1&lecture=lec2
func OwnGradesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		lectures := r.URL.Query()["lecture"]
		grades, err := svc.LatestGrades(r.Context(), []string{studentID}, lectures)
		if err != nil {
			writeError(w, err)
			return
		}
		out := map[string]interface{}{}
		for _, lec := range lectures {
			if g, ok := grades[quiz.GradeKey{StudentID: studentID, LectureID: lec}]; ok {
				out[lec] = g
			} else {
				out[lec] = quiz.NoGrade
			}
		}
		writeJSON(w, out)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrOwnership):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, quiz.ErrConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
