package proctorapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/pscheid92/examguard/internal/domain"
)

type offerRequest struct {
	SDP       string `json:"sdp"`
	Type      string `json:"type"`
	StudentID string `json:"student_id"`
	ExamID    string `json:"exam_id"`
}

type sessionDescription struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

// SendOffer posts the local offer and returns the remote answer.
// Every failure is a *domain.SignalingError.
func (c *Client) SendOffer(ctx context.Context, studentID, examID int64, offer domain.SessionDescription) (domain.SessionDescription, error) {
	req := offerRequest{
		SDP:       offer.SDP,
		Type:      offer.Type,
		StudentID: strconv.FormatInt(studentID, 10),
		ExamID:    strconv.FormatInt(examID, 10),
	}

	var answer sessionDescription
	if err := c.do(ctx, http.MethodPost, "/webrtc/offer", nil, req, &answer); err != nil {
		var statusErr *domain.StatusError
		if errors.As(err, &statusErr) {
			return domain.SessionDescription{}, &domain.SignalingError{Status: statusErr.Status, Body: statusErr.Body, Err: err}
		}
		return domain.SessionDescription{}, &domain.SignalingError{Err: err}
	}

	if answer.SDP == "" {
		return domain.SessionDescription{}, &domain.SignalingError{Err: errors.New("answer has no sdp")}
	}
	if answer.Type == "" {
		answer.Type = "answer"
	}
	return domain.SessionDescription{SDP: answer.SDP, Type: answer.Type}, nil
}
