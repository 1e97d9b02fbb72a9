// Package dev provides in-process collaborator implementations for local
// development and tests. They log instead of calling providers and always
// succeed, so the funnel can run end to end without external credentials.
package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"hirefunnel/internal/collaborators"
	"hirefunnel/internal/funnel/models"
	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/pkg/email"
	"hirefunnel/pkg/requestcontext"
)

// Extraction parses raw submissions that are already JSON-shaped profiles.
type Extraction struct{}

func NewExtraction() *Extraction { return &Extraction{} }

func (e *Extraction) Extract(_ context.Context, rawProfile string) (*models.StructuredProfile, error) {
	var profile models.StructuredProfile
	if err := json.Unmarshal([]byte(rawProfile), &profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePermanent, "unparseable profile submission")
	}
	return &profile, nil
}

// Generation renders fixed templates with the candidate's derived name.
type Generation struct{}

func NewGeneration() *Generation { return &Generation{} }

var subjects = map[models.TemplateKind]string{
	models.TemplateInitialContact:      "An opportunity we think fits you",
	models.TemplateFollowUp:            "Following up on our last note",
	models.TemplateScreeningQuestions:  "A few questions about your background",
	models.TemplateInterviewInvitation: "Interview invitation",
	models.TemplateRejectionNotice:     "Update on your application",
	models.TemplateOffer:               "Your offer",
}

func (g *Generation) Render(_ context.Context, kind models.TemplateKind, candidateID id.CandidateID, jobID id.JobID) (collaborators.RenderedMessage, error) {
	subject, ok := subjects[kind]
	if !ok {
		return collaborators.RenderedMessage{}, dErrors.Newf(dErrors.CodePermanent,
			"no template for kind %q", kind)
	}
	return collaborators.RenderedMessage{
		Subject: subject,
		Body:    fmt.Sprintf("[%s] candidate=%s job=%s", kind, candidateID, jobID),
	}, nil
}

// Notification logs instead of sending.
type Notification struct {
	logger *slog.Logger
}

func NewNotification(logger *slog.Logger) *Notification {
	return &Notification{logger: logger}
}

func (n *Notification) SendEmail(ctx context.Context, messageID, recipient string, msg collaborators.RenderedMessage) error {
	n.logger.InfoContext(ctx, "dev email send",
		"message_id", messageID,
		"recipient", recipient,
		"recipient_name", email.DisplayName(recipient),
		"subject", msg.Subject,
	)
	return nil
}

func (n *Notification) NotifyHR(ctx context.Context, messageID, subject, note string) error {
	n.logger.InfoContext(ctx, "dev hr notification",
		"message_id", messageID,
		"subject", subject,
		"note", note,
	)
	return nil
}

// Calendar proposes two fixed slots starting two business days out.
type Calendar struct {
	interviewerID string
}

func NewCalendar(interviewerID string) *Calendar {
	return &Calendar{interviewerID: interviewerID}
}

func (c *Calendar) ProposeSlots(ctx context.Context, _ id.CandidateID, _ id.JobID) ([]models.InterviewSlot, error) {
	base := requestcontext.Now(ctx).Add(48 * time.Hour).Truncate(time.Hour)
	return []models.InterviewSlot{
		{
			Start:         base,
			End:           base.Add(time.Hour),
			InterviewerID: c.interviewerID,
			Status:        models.SlotProposed,
		},
		{
			Start:         base.Add(24 * time.Hour),
			End:           base.Add(25 * time.Hour),
			InterviewerID: c.interviewerID,
			Status:        models.SlotProposed,
		},
	}, nil
}
