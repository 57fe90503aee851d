package conversation

import (
	"fmt"
	"strings"

	"prepbot/internal/catalog"
	"prepbot/internal/domain"
)

// Composer renders every outbound text from catalog data and session state.
// Rendering is pure: the same inputs always produce the same text, and menu
// labels follow the catalog slice order that parseChoice indexes.
type Composer struct {
	catalog *catalog.Catalog
}

// NewComposer creates a Composer over the given read-only catalog.
func NewComposer(c *catalog.Catalog) (*Composer, error) {
	if c == nil {
		return nil, fmt.Errorf("conversation: catalog must not be nil")
	}
	return &Composer{catalog: c}, nil
}

func menu(header string, options []string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "%s) %s\n", choiceLabel(i), opt)
	}
	b.WriteString("\nResponda com a letra da sua escolha.")
	return b.String()
}

// Welcome greets a subscriber that has not started onboarding yet.
func (c *Composer) Welcome(name string) string {
	greeting := "Olá"
	if name != "" {
		greeting = "Olá, " + name
	}
	return greeting + "! 👋 Eu sou o seu assistente de estudos.\n" +
		"Envie *oi* para montar o seu plano de estudos, ou *ajuda* para ver os comandos."
}

// ExamMenu lists the available exam boards.
func (c *Composer) ExamMenu() string {
	names := make([]string, len(c.catalog.Exams))
	for i, e := range c.catalog.Exams {
		names[i] = e.Name
	}
	return menu("Vamos começar! Para qual concurso você está estudando?", names)
}

// CargoMenu lists the cargos under the chosen exam board.
func (c *Composer) CargoMenu(exam catalog.Exam) string {
	names := make([]string, len(exam.Cargos))
	for i, cargo := range exam.Cargos {
		names[i] = cargo.Name
	}
	return menu(fmt.Sprintf("Ótima escolha: *%s*. Qual cargo você pretende disputar?", exam.Name), names)
}

// SubjectMenu lists the subjects of the chosen cargo.
func (c *Composer) SubjectMenu(cargo catalog.Cargo) string {
	return menu(fmt.Sprintf("Em qual matéria de *%s* você quer focar primeiro?", cargo.Name), cargo.Subjects)
}

// LevelMenu lists the study levels.
func (c *Composer) LevelMenu() string {
	return menu("Qual é o seu nível de preparação hoje?", c.catalog.Levels)
}

// Confirmation summarizes the completed profile and hands off to general mode.
func (c *Composer) Confirmation(p domain.Profile) string {
	var b strings.Builder
	b.WriteString("Perfeito! Seu plano de estudos está pronto. 🎯\n\n")
	fmt.Fprintf(&b, "📚 Concurso: %s\n", p.ExamType)
	fmt.Fprintf(&b, "💼 Cargo: %s\n", p.Cargo)
	if p.Subject != "" {
		fmt.Fprintf(&b, "📖 Matéria: %s\n", p.Subject)
	}
	fmt.Fprintf(&b, "📈 Nível: %s\n", p.Level)
	b.WriteString("\nA partir de agora você vai receber questões e resumos por aqui.\n")
	b.WriteString("Envie *planos* para conhecer os planos premium ou *ajuda* para ver os comandos.")
	return b.String()
}

// Help lists the global commands.
func (c *Composer) Help() string {
	return "Comandos disponíveis:\n\n" +
		"*oi* — começar ou recomeçar o seu plano de estudos\n" +
		"*planos* — ver os planos de assinatura\n" +
		"*upgrade* — assinar o plano premium\n" +
		"*perfil* — ver o seu perfil de estudos\n" +
		"*status* — ver onde você parou\n" +
		"*ajuda* — mostrar esta mensagem"
}

// Plans renders the fixed subscription plan table.
func (c *Composer) Plans() string {
	return "Nossos planos:\n\n" +
		"🆓 *Gratuito* — 5 questões por dia, 1 matéria\n" +
		"⭐ *Premium* — R$ 29,90/mês\n" +
		"   • Questões ilimitadas\n" +
		"   • Todas as matérias do seu cargo\n" +
		"   • Simulados semanais\n" +
		"   • Correção de redação\n\n" +
		"Envie *upgrade* para assinar o Premium."
}

// Upgrade points the subscriber at checkout.
func (c *Composer) Upgrade() string {
	return "Para assinar o *Premium* (R$ 29,90/mês), acesse o link de pagamento:\n\n" +
		"https://pay.prepbot.com.br/premium\n\n" +
		"Assim que o pagamento for confirmado, seu acesso é liberado automaticamente."
}

// ProfileSummary renders the collected answers so far.
func (c *Composer) ProfileSummary(sess domain.Session) string {
	if sess.Collected.ExamType == "" {
		return "Você ainda não montou o seu perfil. Envie *oi* para começar."
	}
	var b strings.Builder
	b.WriteString("Seu perfil de estudos:\n\n")
	fmt.Fprintf(&b, "📚 Concurso: %s\n", sess.Collected.ExamType)
	if sess.Collected.Cargo != "" {
		fmt.Fprintf(&b, "💼 Cargo: %s\n", sess.Collected.Cargo)
	}
	if sess.Collected.Subject != "" {
		fmt.Fprintf(&b, "📖 Matéria: %s\n", sess.Collected.Subject)
	}
	if sess.Collected.Level != "" {
		fmt.Fprintf(&b, "📈 Nível: %s\n", sess.Collected.Level)
	}
	if sess.Step != domain.StepGeneral && sess.Step != domain.StepComplete {
		b.WriteString("\nSeu cadastro ainda não terminou. Envie *status* para continuar.")
	}
	return b.String()
}

// Status tells the subscriber where onboarding stands.
func (c *Composer) Status(sess domain.Session) string {
	switch sess.Step {
	case domain.StepGreeting:
		return "Você ainda não começou o cadastro. Envie *oi* para montar o seu plano de estudos."
	case domain.StepGeneral, domain.StepComplete:
		return "Seu cadastro está completo. ✅ Envie *perfil* para rever suas escolhas."
	default:
		return "Seu cadastro está em andamento. Responda a última pergunta para continuar:\n\n" +
			c.Reprompt(sess)
	}
}

// Reprompt re-renders the menu for the session's current choice step.
func (c *Composer) Reprompt(sess domain.Session) string {
	switch sess.Step {
	case domain.StepAwaitingExam:
		return c.ExamMenu()
	case domain.StepAwaitingRole:
		if exam, ok := c.catalog.Exam(sess.Collected.ExamType); ok {
			return c.CargoMenu(exam)
		}
	case domain.StepAwaitingSubject:
		if cargo, ok := c.catalog.Cargo(sess.Collected.ExamType, sess.Collected.Cargo); ok {
			return c.SubjectMenu(cargo)
		}
	case domain.StepAwaitingLevel:
		return c.LevelMenu()
	}
	return c.ExamMenu()
}

// Ack acknowledges free text outside onboarding.
func (c *Composer) Ack() string {
	return "Recebido! 👍 Envie *ajuda* se quiser ver o que eu posso fazer."
}
