package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonathan/jobboard/internal/analysis"
	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/poller"
	"github.com/jonathan/jobboard/internal/session"
	"github.com/jonathan/jobboard/internal/types"
	"go.uber.org/zap"
)

// maxBulkUpload bounds the multipart body of a bulk analysis.
const maxBulkUpload = 64 << 20

// HomeResponse is the landing view.
type HomeResponse struct {
	User        UserResponse `json:"user"`
	UnreadCount *int         `json:"unread_count,omitempty"`
	Jobs        []types.Job  `json:"jobs"`
}

// NotificationsResponse is the notifications view.
type NotificationsResponse struct {
	Notifications []types.Notification     `json:"notifications"`
	Stats         *types.NotificationStats `json:"stats"`
}

// BulkAnalysisResponse is the processed bulk analysis view.
type BulkAnalysisResponse struct {
	Selection analysis.Selection     `json:"selection"`
	Summary   analysis.Summary       `json:"summary"`
	Results   []types.AnalysisResult `json:"results"`
	Errors    []types.BatchError     `json:"errors"`
}

// ProfileResponse is the profile view.
type ProfileResponse struct {
	User         UserResponse           `json:"user"`
	Profile      types.Profile          `json:"profile"`
	Stats        types.ApplicationStats `json:"stats"`
	Applications []types.Application    `json:"applications"`
	Jobs         []types.Job            `json:"jobs"`
}

func (s *Server) currentUser() UserResponse {
	sess, _ := s.sessions.Current()
	return UserResponse{Username: sess.Username, Email: sess.Email}
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, &ErrValidation{Field: "id", Message: fmt.Sprintf("invalid id %q", r.PathValue("id"))}
	}
	return id, nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.client.ListJobs(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp := HomeResponse{User: s.currentUser(), Jobs: jobs}
	if n, err := s.client.UnreadCount(r.Context()); err == nil {
		resp.UnreadCount = &n
	} else {
		s.logger.Debug("unread count unavailable", zap.Error(err))
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var jobs []types.Job
	var err error
	if r.URL.Query().Get("mine") == "true" {
		jobs, err = s.client.MyJobs(r.Context())
	} else {
		jobs, err = s.client.ListJobs(r.Context())
	}
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in types.JobInput
	if err := decodeBody(r, &in); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var job *types.Job
	err := s.tracker.Do("post-job", func() error {
		var err error
		job, err = s.client.CreateJob(r.Context(), in)
		return err
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var in types.JobInput
	if err := decodeBody(r, &in); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var job *types.Job
	err = s.tracker.Do(fmt.Sprintf("update-job:%d", id), func() error {
		var err error
		job, err = s.client.UpdateJob(r.Context(), id, in)
		return err
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	var apps []types.Application
	var err error
	if r.URL.Query().Get("mine") == "true" {
		apps, err = s.client.MyApplications(r.Context())
	} else {
		apps, err = s.client.JobApplications(r.Context())
	}
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apps)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var in types.StatusUpdate
	if err := decodeBody(r, &in); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var app *types.Application
	err = s.tracker.Do(fmt.Sprintf("status:%d", id), func() error {
		var err error
		app, err = s.client.UpdateApplicationStatus(r.Context(), id, in.Status)
		return err
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleAnalyzeApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var app *types.Application
	err = s.tracker.Do(fmt.Sprintf("analyze:%d", id), func() error {
		var err error
		app, err = s.client.AnalyzeApplication(r.Context(), id)
		return err
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	list, err := s.client.Notifications(r.Context(), unreadOnly)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	stats, err := s.client.NotificationStats(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, NotificationsResponse{Notifications: list, Stats: stats})
}

// parseSelection reads preset, then min and max, then sort, in the order a
// user would set them.
func parseSelection(q url.Values) (analysis.Selection, error) {
	sel := analysis.NewSelection()
	if p := q.Get("preset"); p != "" {
		if err := sel.SetPreset(p); err != nil {
			return sel, &ErrValidation{Field: "preset", Message: err.Error()}
		}
	}
	for _, bound := range []struct {
		name string
		set  func(float64) error
	}{{"min", sel.SetMin}, {"max", sel.SetMax}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sel, &ErrValidation{Field: bound.name, Message: fmt.Sprintf("invalid number %q", raw)}
		}
		if err := bound.set(v); err != nil {
			return sel, &ErrValidation{Field: bound.name, Message: err.Error()}
		}
	}
	key, err := analysis.ParseSortKey(q.Get("sort"))
	if err != nil {
		return sel, &ErrValidation{Field: "sort", Message: err.Error()}
	}
	sel.Sort = key
	return sel, nil
}

func (s *Server) handleBulkAnalysis(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBulkUpload)
	if err := r.ParseMultipartForm(maxBulkUpload); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "body", Message: "invalid multipart form: " + err.Error()})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	jobID, err := strconv.Atoi(r.FormValue("job_id"))
	if err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "job_id", Message: "please select a job"})
		return
	}

	uploads, err := readUploads(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var resp *types.BatchAnalysisResponse
	err = s.tracker.Do("bulk-analysis", func() error {
		var err error
		resp, err = s.client.BulkAnalyze(r.Context(), jobID, uploads)
		return err
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	shown := analysis.Apply(resp, sel)
	s.jsonResponse(w, http.StatusOK, BulkAnalysisResponse{
		Selection: sel,
		Summary:   analysis.Summarize(resp, shown),
		Results:   shown,
		Errors:    resp.Errors,
	})
}

// readUploads loads the "resumes" files of a parsed multipart form.
func readUploads(r *http.Request) ([]api.Upload, error) {
	headers := r.MultipartForm.File["resumes"]
	uploads := make([]api.Upload, 0, len(headers))
	for _, fh := range headers {
		if err := api.CheckResume(fh.Filename, fh.Size); err != nil {
			return nil, &ErrValidation{Field: "resumes", Message: err.Error()}
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, api.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser()
	activity, err := s.client.Activity(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, ProfileResponse{
		User:         user,
		Profile:      s.sessions.LoadProfile(user.Username),
		Stats:        types.CountApplications(activity.Applications),
		Applications: activity.Applications,
		Jobs:         activity.Jobs,
	})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser()
	profile := s.sessions.LoadProfile(user.Username)
	if err := decodeBody(r, &profile); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.sessions.SaveProfile(user.Username, profile); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleUnreadEvents streams the unread notification count until the client
// disconnects or the session ends.
func (s *Server) handleUnreadEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	unsubscribe := s.sessions.Subscribe(func(state session.State) {
		if state == session.Anonymous {
			cancel()
		}
	})
	defer unsubscribe()

	stream, err := openEventStream(w, s.pollInterval)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	updates := make(chan int, 1)
	p := poller.New(s.client.UnreadCount, s.pollInterval, s.logger)
	p.OnUpdate(func(n int) {
		select {
		case updates <- n:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- n
		}
	})
	h := p.Start(ctx)
	defer h.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.Context().Err() == nil {
				_ = stream.loggedOut()
			}
			return
		case n := <-updates:
			if err := stream.unread(n); err != nil {
				return
			}
		}
	}
}
