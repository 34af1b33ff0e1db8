package notify

import (
	"fmt"
	"strings"
	"time"

	"intervuex/internal/models"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

// Invitation is the email a candidate receives when an interview is scheduled.
func Invitation(candidate *models.Candidate, session *models.InterviewSession, link string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", candidate.FullName)
	b.WriteString("You have been invited to an online interview.\n\n")
	fmt.Fprintf(&b, "Interview link: %s\n", link)
	fmt.Fprintf(&b, "Duration: %d minutes\n", session.DurationSeconds/60)
	switch {
	case session.HasWindow():
		fmt.Fprintf(&b, "Available from %s until %s\n", session.ValidFrom.UTC().Format(timeLayout), session.ValidUntil.UTC().Format(timeLayout))
	case session.ExpiresAt != nil:
		fmt.Fprintf(&b, "The link expires on %s\n", session.ExpiresAt.UTC().Format(timeLayout))
	}
	b.WriteString("\nThe link works for a single attempt. Keep your camera and microphone on and stay on the interview tab.\n")
	return Message{
		To:      candidate.Email,
		Subject: "Your interview invitation",
		Body:    b.String(),
	}
}

// Completion tells the recruiter that a session finished and how it scored.
func Completion(recruiter *models.Recruiter, session *models.InterviewSession, candidateName string, rec *models.ScoreRecord) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", recruiter.FullName)
	fmt.Fprintf(&b, "The interview of %s has finished (%s).\n\n", candidateName, session.EndReason)
	if rec != nil {
		fmt.Fprintf(&b, "Final score: %d\n", rec.Final)
		fmt.Fprintf(&b, "Integrity risk: %d\n", rec.IntegrityRisk)
		fmt.Fprintf(&b, "Decision: %s\n", rec.EffectiveStatus())
	} else {
		b.WriteString("Scores are not available yet.\n")
	}
	if session.EndTime != nil {
		fmt.Fprintf(&b, "\nCompleted at %s\n", session.EndTime.UTC().Format(time.RFC3339))
	}
	return Message{
		To:      recruiter.Email,
		Subject: fmt.Sprintf("Interview completed: %s", candidateName),
		Body:    b.String(),
	}
}
