package proctorapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func sessionQuery(studentID, examID int64) url.Values {
	return url.Values{
		"student_id": {strconv.FormatInt(studentID, 10)},
		"exam_id":    {strconv.FormatInt(examID, 10)},
	}
}

// LastWarning returns the latest warning label. A missing or null label is "".
func (c *Client) LastWarning(ctx context.Context, studentID, examID int64) (string, error) {
	var resp struct {
		Warning *string `json:"warning"`
	}
	err := c.poll(ctx, feedWarning, c.warningBreaker, func() error {
		return c.do(ctx, http.MethodGet, "/proctor/last_warning", sessionQuery(studentID, examID), nil, &resp)
	})
	if err != nil {
		return "", err
	}
	if resp.Warning == nil {
		return "", nil
	}
	return *resp.Warning, nil
}

// LastCapture returns the timestamp of the latest capture, 0 when there is none.
func (c *Client) LastCapture(ctx context.Context, studentID, examID int64) (float64, error) {
	var resp struct {
		At *float64 `json:"at"`
	}
	err := c.poll(ctx, feedCapture, c.captureBreaker, func() error {
		return c.do(ctx, http.MethodGet, "/proctor/last_capture", sessionQuery(studentID, examID), nil, &resp)
	})
	if err != nil {
		return 0, err
	}
	if resp.At == nil {
		return 0, nil
	}
	return *resp.At, nil
}
