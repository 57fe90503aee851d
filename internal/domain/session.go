package domain

import "time"

// Step enumerates the onboarding progress of a conversation session.
type Step string

const (
	StepGreeting        Step = "GREETING"
	StepAwaitingExam    Step = "AWAITING_EXAM_CHOICE"
	StepAwaitingRole    Step = "AWAITING_ROLE_CHOICE"
	StepAwaitingSubject Step = "AWAITING_SUBJECT_CHOICE"
	StepAwaitingLevel   Step = "AWAITING_LEVEL"
	StepComplete        Step = "COMPLETE"
	StepGeneral         Step = "GENERAL"
)

// Profile holds the catalog values collected during onboarding.
type Profile struct {
	ExamType string
	Cargo    string
	Subject  string
	Level    string
}

// Session is the per-subscriber conversation state. It is owned by the session
// store; at most one exists per subscriber address. Step never regresses except
// on an explicit greeting reset.
type Session struct {
	Subscriber  string
	DisplayName string
	Step        Step
	Collected   Profile
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
