// Package proctorapitest provides an in-process fake of the proctoring backend. Test use only.
package proctorapitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/examguard/internal/domain"
)

// Backend routes.
const (
	RouteOffer        = "/webrtc/offer"
	RouteLastWarning  = "/proctor/last_warning"
	RouteLastCapture  = "/proctor/last_capture"
	RouteStatusStart  = "/update_exam_status_start"
	RouteStatusSubmit = "/update_exam_status_submit"
	RouteClassify     = "/classify_behavior_logs"
	RouteSubmitExam   = "/submit_exam"
	RouteBehaviorLogs = "/get_behavior_logs"
)

// Call is one request the fake received.
type Call struct {
	Method    string
	Path      string
	Query     url.Values
	Body      map[string]any
	UserAgent string
}

// Offer is the decoded body of an offer request.
type Offer struct {
	SDP       string `json:"sdp"`
	Type      string `json:"type"`
	StudentID string `json:"student_id"`
	ExamID    string `json:"exam_id"`
}

// Log is a behavior record as served by the fake. ExamID is any so tests can
// send numbers or strings.
type Log struct {
	ImagePath      string  `json:"image_path"`
	WarningType    string  `json:"warning_type"`
	Classification *string `json:"classification"`
	Timestamp      string  `json:"timestamp"`
	ExamID         any     `json:"exam_id"`
}

// Answerer turns an offer into an answer.
type Answerer func(offer Offer) (domain.SessionDescription, error)

type failure struct {
	status    int
	remaining int // < 0 means forever
}

// Server is a fake backend listening on a random local port.
type Server struct {
	URL string

	srv *httptest.Server

	mu        sync.Mutex
	calls     []Call
	warning   *string
	captureAt *float64
	logs      []Log
	failures  map[string]*failure
	answerer  Answerer
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{failures: make(map[string]*failure)}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record)

	e.POST(RouteOffer, s.handleOffer)
	e.GET(RouteLastWarning, s.handleLastWarning)
	e.GET(RouteLastCapture, s.handleLastCapture)
	e.POST(RouteStatusStart, s.handleAccepted)
	e.POST(RouteStatusSubmit, s.handleAccepted)
	e.POST(RouteClassify, s.handleAccepted)
	e.POST(RouteSubmitExam, s.handleAccepted)
	e.GET(RouteBehaviorLogs, s.handleBehaviorLogs)

	s.srv = httptest.NewServer(e)
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		call := Call{
			Method:    req.Method,
			Path:      req.URL.Path,
			Query:     req.URL.Query(),
			UserAgent: req.UserAgent(),
		}
		if req.Body != nil {
			data, _ := io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(data))
			if len(data) > 0 {
				_ = json.Unmarshal(data, &call.Body)
			}
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		f := s.failures[call.Path]
		status := 0
		if f != nil && f.remaining != 0 {
			status = f.status
			if f.remaining > 0 {
				f.remaining--
			}
		}
		s.mu.Unlock()

		if status != 0 {
			return c.String(status, http.StatusText(status))
		}
		return next(c)
	}
}

func (s *Server) handleOffer(c echo.Context) error {
	var offer Offer
	if err := c.Bind(&offer); err != nil {
		return c.String(http.StatusBadRequest, "bad offer")
	}

	s.mu.Lock()
	answerer := s.answerer
	s.mu.Unlock()

	if answerer == nil {
		return c.String(http.StatusServiceUnavailable, "no answerer")
	}
	answer, err := answerer(offer)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"sdp": answer.SDP, "type": answer.Type})
}

func (s *Server) handleLastWarning(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]*string{"warning": s.warning})
}

func (s *Server) handleLastCapture(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]*float64{"at": s.captureAt})
}

func (s *Server) handleAccepted(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBehaviorLogs(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := s.logs
	if logs == nil {
		logs = []Log{}
	}
	return c.JSON(http.StatusOK, logs)
}

// SetWarning sets the label served by the warning feed. "" serves null.
func (s *Server) SetWarning(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if label == "" {
		s.warning = nil
		return
	}
	s.warning = &label
}

// SetCaptureAt sets the timestamp served by the capture feed.
func (s *Server) SetCaptureAt(at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captureAt = &at
}

// SetLogs sets the behavior records served to every user.
func (s *Server) SetLogs(logs ...Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = logs
}

// OnOffer installs the answerer for offer requests.
func (s *Server) OnOffer(a Answerer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answerer = a
}

// Fail makes the next n requests to path fail with status. n < 0 fails forever.
func (s *Server) Fail(path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = &failure{status: status, remaining: n}
}

// Calls returns the recorded requests to path.
func (s *Server) Calls(path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of requests to path.
func (s *Server) Count(path string) int {
	return len(s.Calls(path))
}

// Paths returns the path of every recorded request in arrival order.
func (s *Server) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Path
	}
	return out
}
