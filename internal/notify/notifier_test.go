package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"intervuex/internal/config"
	"intervuex/internal/errs"
	"intervuex/internal/models"

	"go.uber.org/zap"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
	auth bool
}

func stubSendMail(t *testing.T, err error) *captured {
	t.Helper()
	c := &captured{}
	orig := sendMail
	t.Cleanup(func() { sendMail = orig })
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.from, c.to, c.msg, c.auth = addr, from, to, string(msg), a != nil
		return err
	}
	return c
}

func TestSMTPNotifier_Send(t *testing.T) {
	c := stubSendMail(t, nil)
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "bot", Password: "pw", From: "noreply@example.com", FromName: "IntervueX"})

	err := n.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", Body: "Body text"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if c.addr != "smtp.example.com:587" || c.from != "noreply@example.com" || !c.auth {
		t.Fatalf("unexpected envelope %+v", c)
	}
	if len(c.to) != 1 || c.to[0] != "ada@example.com" {
		t.Fatalf("unexpected recipients %v", c.to)
	}
	for _, want := range []string{"From: \"IntervueX\" <noreply@example.com>\r\n", "Subject: Hi\r\n", "\r\n\r\nBody text\r\n"} {
		if !strings.Contains(c.msg, want) {
			t.Fatalf("message missing %q:\n%s", want, c.msg)
		}
	}
}

func TestSMTPNotifier_Errors(t *testing.T) {
	stubSendMail(t, errors.New("connection refused"))
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 587})

	err := n.Send(context.Background(), Message{To: "ada@example.com"})
	var cerr *errs.CollaboratorError
	if !errors.As(err, &cerr) || cerr.Collaborator != "smtp" {
		t.Fatalf("expected smtp collaborator error, got %v", err)
	}

	var verr *errs.ValidationError
	if err := n.Send(context.Background(), Message{}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Send(ctx, Message{To: "ada@example.com"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(config.SMTPConfig{}, zap.NewNop()).(*LogNotifier); !ok {
		t.Fatal("expected log notifier without host")
	}
	if _, ok := New(config.SMTPConfig{Host: "smtp.example.com"}, nil).(*SMTPNotifier); !ok {
		t.Fatal("expected smtp notifier with host")
	}
	if err := NewLogNotifier(nil).Send(context.Background(), Message{To: "x"}); err != nil {
		t.Fatalf("log notifier: %v", err)
	}
}

func TestInvitation(t *testing.T) {
	from := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	until := from.Add(2 * time.Hour)
	cand := &models.Candidate{FullName: "Ada", Email: "ada@example.com"}

	msg := Invitation(cand, &models.InterviewSession{DurationSeconds: 1800, ValidFrom: &from, ValidUntil: &until}, "https://app/interview/tok")
	if msg.To != "ada@example.com" {
		t.Fatalf("to = %s", msg.To)
	}
	for _, want := range []string{"Hello Ada", "https://app/interview/tok", "30 minutes", "Available from Mon, 02 Mar 2026 09:00 UTC"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}

	expires := from.Add(24 * time.Hour)
	msg = Invitation(cand, &models.InterviewSession{DurationSeconds: 3600, ExpiresAt: &expires}, "link")
	if !strings.Contains(msg.Body, "expires on Tue, 03 Mar 2026 09:00 UTC") {
		t.Fatalf("expiry missing:\n%s", msg.Body)
	}
}

func TestCompletion(t *testing.T) {
	override := models.Review
	rec := &models.ScoreRecord{Final: 81, IntegrityRisk: 4, ShortlistStatus: models.Shortlisted, OverrideStatus: &override}
	msg := Completion(&models.Recruiter{FullName: "Grace", Email: "grace@example.com"}, &models.InterviewSession{EndReason: "timeout"}, "Ada", rec)

	if msg.To != "grace@example.com" || msg.Subject != "Interview completed: Ada" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.Body, "Final score: 81") || !strings.Contains(msg.Body, "Decision: REVIEW") {
		t.Fatalf("unexpected body:\n%s", msg.Body)
	}

	msg = Completion(&models.Recruiter{}, &models.InterviewSession{}, "Ada", nil)
	if !strings.Contains(msg.Body, "not available") {
		t.Fatalf("unexpected body:\n%s", msg.Body)
	}
}
