package proctorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pscheid92/examguard/internal/domain"
	"github.com/pscheid92/examguard/internal/platform/retry"
)

type studentRequest struct {
	StudentID int64 `json:"student_id"`
}

type examRequest struct {
	UserID int64 `json:"user_id"`
	ExamID int64 `json:"exam_id"`
}

func (c *Client) UpdateStatusStart(ctx context.Context, studentID int64) error {
	return c.do(ctx, http.MethodPost, "/update_exam_status_start", nil, studentRequest{StudentID: studentID}, nil)
}

func (c *Client) UpdateStatusSubmit(ctx context.Context, studentID int64) error {
	return c.do(ctx, http.MethodPost, "/update_exam_status_submit", nil, studentRequest{StudentID: studentID}, nil)
}

func (c *Client) ClassifyBehaviorLogs(ctx context.Context, userID, examID int64) error {
	return c.do(ctx, http.MethodPost, "/classify_behavior_logs", nil, examRequest{UserID: userID, ExamID: examID}, nil)
}

func (c *Client) SubmitExam(ctx context.Context, userID, examID int64) error {
	return c.do(ctx, http.MethodPost, "/submit_exam", nil, examRequest{UserID: userID, ExamID: examID}, nil)
}

// BehaviorLogs fetches every behavior record of a user. Transient failures are retried.
func (c *Client) BehaviorLogs(ctx context.Context, userID int64) ([]domain.BehaviorLogEntry, error) {
	query := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}

	raw, err := retry.Do(ctx, c.readPolicy, classifyFor(ctx), func(ctx context.Context) ([]behaviorLog, error) {
		var logs []behaviorLog
		if err := c.do(ctx, http.MethodGet, "/get_behavior_logs", query, nil, &logs); err != nil {
			return nil, err
		}
		return logs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch behavior logs: %w", err)
	}

	entries := make([]domain.BehaviorLogEntry, 0, len(raw))
	for _, l := range raw {
		entries = append(entries, domain.BehaviorLogEntry{
			ImagePath:      l.ImagePath,
			WarningType:    l.WarningType,
			Classification: l.Classification,
			Timestamp:      l.Timestamp,
			ExamID:         int64(l.ExamID),
		})
	}
	return entries, nil
}

type behaviorLog struct {
	ImagePath      string     `json:"image_path"`
	WarningType    string     `json:"warning_type"`
	Classification *string    `json:"classification"`
	Timestamp      string     `json:"timestamp"`
	ExamID         flexibleID `json:"exam_id"`
}

// flexibleID accepts a numeric id sent either as a JSON number or a string.
type flexibleID int64

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", data, err)
	}
	*id = flexibleID(n)
	return nil
}
