package conversation

import (
	"errors"
	"strings"

	"prepbot/internal/catalog"
	"prepbot/internal/domain"
)

// command is one entry of the global command layer. Commands are evaluated in
// order, first match wins, and apply regardless of the session's current step.
type command struct {
	name     string
	keywords []string
	run      func(m *Machine, sess *domain.Session) string
}

// Machine is the onboarding decision logic. Handle is a pure computation over
// the session and body; the caller owns locking and delivery.
type Machine struct {
	catalog  *catalog.Catalog
	composer *Composer
	commands []command
}

// NewMachine creates a Machine over the given catalog and composer.
func NewMachine(c *catalog.Catalog, composer *Composer) (*Machine, error) {
	if c == nil {
		return nil, errors.New("conversation: catalog must not be nil")
	}
	if composer == nil {
		return nil, errors.New("conversation: composer must not be nil")
	}
	return &Machine{
		catalog:  c,
		composer: composer,
		commands: []command{
			{
				name:     "greeting",
				keywords: []string{"oi", "olá", "ola", "hello", "hi", "começar", "comecar"},
				run:      (*Machine).startOnboarding,
			},
			{
				name:     "help",
				keywords: []string{"ajuda", "help"},
				run: func(m *Machine, _ *domain.Session) string {
					return m.composer.Help()
				},
			},
			{
				name:     "plans",
				keywords: []string{"planos", "plans"},
				run: func(m *Machine, _ *domain.Session) string {
					return m.composer.Plans()
				},
			},
			{
				name:     "upgrade",
				keywords: []string{"upgrade", "assinar"},
				run: func(m *Machine, _ *domain.Session) string {
					return m.composer.Upgrade()
				},
			},
			{
				name:     "profile",
				keywords: []string{"perfil", "profile"},
				run: func(m *Machine, sess *domain.Session) string {
					return m.composer.ProfileSummary(*sess)
				},
			},
			{
				name:     "status",
				keywords: []string{"status"},
				run: func(m *Machine, sess *domain.Session) string {
					return m.composer.Status(*sess)
				},
			},
		},
	}, nil
}

// StartsOnboarding reports whether the body is a greeting trigger, the only
// input that creates or resets a session.
func (m *Machine) StartsOnboarding(body string) bool {
	normalized := strings.ToLower(strings.TrimSpace(body))
	for _, cmd := range m.commands {
		if cmd.name != "greeting" {
			continue
		}
		for _, kw := range cmd.keywords {
			if normalized == kw {
				return true
			}
		}
	}
	return false
}

// Handle applies one inbound body to the session and returns the reply text.
// The command layer runs first; otherwise the current step decides how the
// body is interpreted. Every (step, body) pair yields a reply.
func (m *Machine) Handle(sess *domain.Session, body string) string {
	normalized := strings.ToLower(strings.TrimSpace(body))

	for _, cmd := range m.commands {
		for _, kw := range cmd.keywords {
			if normalized == kw {
				return cmd.run(m, sess)
			}
		}
	}

	switch sess.Step {
	case domain.StepAwaitingExam:
		return m.chooseExam(sess, normalized)
	case domain.StepAwaitingRole:
		return m.chooseCargo(sess, normalized)
	case domain.StepAwaitingSubject:
		return m.chooseSubject(sess, normalized)
	case domain.StepAwaitingLevel:
		return m.chooseLevel(sess, normalized)
	case domain.StepComplete, domain.StepGeneral:
		return m.composer.Ack()
	default: // StepGreeting
		return m.composer.Welcome(sess.DisplayName)
	}
}

// startOnboarding resets collected answers and presents the exam menu. This is
// the only path that regresses a session's step.
func (m *Machine) startOnboarding(sess *domain.Session) string {
	sess.Collected = domain.Profile{}
	sess.Step = domain.StepAwaitingExam
	return m.composer.ExamMenu()
}

func (m *Machine) chooseExam(sess *domain.Session, body string) string {
	idx, err := parseChoice(body, len(m.catalog.Exams))
	if err != nil {
		return m.composer.ExamMenu()
	}
	exam := m.catalog.Exams[idx]
	sess.Collected.ExamType = exam.Name
	sess.Step = domain.StepAwaitingRole
	return m.composer.CargoMenu(exam)
}

func (m *Machine) chooseCargo(sess *domain.Session, body string) string {
	exam, ok := m.catalog.Exam(sess.Collected.ExamType)
	if !ok {
		// Collected exam no longer resolves; restart rather than guess.
		return m.startOnboarding(sess)
	}
	idx, err := parseChoice(body, len(exam.Cargos))
	if err != nil {
		return m.composer.CargoMenu(exam)
	}
	cargo := exam.Cargos[idx]
	sess.Collected.Cargo = cargo.Name
	if len(cargo.Subjects) > 0 {
		sess.Step = domain.StepAwaitingSubject
		return m.composer.SubjectMenu(cargo)
	}
	sess.Step = domain.StepAwaitingLevel
	return m.composer.LevelMenu()
}

func (m *Machine) chooseSubject(sess *domain.Session, body string) string {
	cargo, ok := m.catalog.Cargo(sess.Collected.ExamType, sess.Collected.Cargo)
	if !ok {
		return m.startOnboarding(sess)
	}
	idx, err := parseChoice(body, len(cargo.Subjects))
	if err != nil {
		return m.composer.SubjectMenu(cargo)
	}
	sess.Collected.Subject = cargo.Subjects[idx]
	sess.Step = domain.StepAwaitingLevel
	return m.composer.LevelMenu()
}

func (m *Machine) chooseLevel(sess *domain.Session, body string) string {
	idx, err := parseChoice(body, len(m.catalog.Levels))
	if err != nil {
		return m.composer.LevelMenu()
	}
	sess.Collected.Level = m.catalog.Levels[idx]
	// COMPLETE is transient: the confirmation reply moves the session straight
	// into general mode.
	sess.Step = domain.StepGeneral
	return m.composer.Confirmation(sess.Collected)
}
