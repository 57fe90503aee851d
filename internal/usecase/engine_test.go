package usecase

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"prepbot/internal/catalog"
	"prepbot/internal/conversation"
	"prepbot/internal/domain"
	"prepbot/internal/session"
)

func newTestEngine(t *testing.T) (*Engine, *session.Store) {
	t.Helper()
	cat := &catalog.Catalog{
		Exams: []catalog.Exam{
			{Name: "Concurso A", Cargos: []catalog.Cargo{
				{Name: "Cargo A1", Subjects: []string{"Português"}},
			}},
			{Name: "Concurso B", Cargos: []catalog.Cargo{
				{Name: "Cargo B1"},
			}},
		},
		Levels: []string{"Iniciante", "Avançado"},
	}
	composer, err := conversation.NewComposer(cat)
	require.NoError(t, err)
	machine, err := conversation.NewMachine(cat, composer)
	require.NoError(t, err)
	store := session.NewStore()
	engine, err := NewEngine(store, machine, slog.Default())
	require.NoError(t, err)
	return engine, store
}

func msg(sender, body string) domain.InboundMessage {
	return domain.InboundMessage{Sender: sender, Body: body, Channel: domain.ChannelGateway}
}

func TestGreetingCreatesSession(t *testing.T) {
	engine, store := newTestEngine(t)

	out := engine.HandleMessage(msg("+551199", "oi"))

	require.Equal(t, "+551199", out.Recipient)
	require.Contains(t, out.Text, "A) Concurso A")
	sess, ok := store.Get("+551199")
	require.True(t, ok)
	require.Equal(t, domain.StepAwaitingExam, sess.Step)
}

// Commands and free text before any greeting are answered without creating a
// session.
func TestNonGreetingFirstContactIsStateless(t *testing.T) {
	engine, store := newTestEngine(t)

	for _, body := range []string{"planos", "ajuda", "qualquer coisa"} {
		out := engine.HandleMessage(msg("+551199", body))
		require.NotEmpty(t, out.Text, "body %q", body)
	}

	_, ok := store.Get("+551199")
	require.False(t, ok)
	require.Equal(t, 0, store.Len())
}

func TestDisplayNameIsRefreshed(t *testing.T) {
	engine, store := newTestEngine(t)

	engine.HandleMessage(domain.InboundMessage{Sender: "s", DisplayName: "Ana", Body: "oi"})
	engine.HandleMessage(domain.InboundMessage{Sender: "s", DisplayName: "Ana Paula", Body: "a"})

	sess, ok := store.Get("s")
	require.True(t, ok)
	require.Equal(t, "Ana Paula", sess.DisplayName)
}

// Messages from one subscriber are applied in order: the outcome equals
// replaying them sequentially on a fresh session.
func TestSequentialConsistencyPerSubscriber(t *testing.T) {
	engine, store := newTestEngine(t)

	engine.HandleMessage(msg("s", "oi"))
	engine.HandleMessage(msg("s", "a")) // Concurso A
	engine.HandleMessage(msg("s", "a")) // Cargo A1
	engine.HandleMessage(msg("s", "a")) // Português
	engine.HandleMessage(msg("s", "b")) // Avançado

	sess, ok := store.Get("s")
	require.True(t, ok)
	require.Equal(t, domain.StepGeneral, sess.Step)
	require.Equal(t, domain.Profile{
		ExamType: "Concurso A",
		Cargo:    "Cargo A1",
		Subject:  "Português",
		Level:    "Avançado",
	}, sess.Collected)
}

// Concurrent onboarding runs for different subscribers never interfere.
func TestCrossSubscriberIndependence(t *testing.T) {
	engine, store := newTestEngine(t)
	const subscribers = 8

	var wg sync.WaitGroup
	for i := 0; i < subscribers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := fmt.Sprintf("sub-%d", i)
			engine.HandleMessage(msg(sender, "oi"))
			engine.HandleMessage(msg(sender, "b")) // Concurso B
			engine.HandleMessage(msg(sender, "a")) // Cargo B1, no subjects
			engine.HandleMessage(msg(sender, "a")) // Iniciante
		}(i)
	}
	wg.Wait()

	require.Equal(t, subscribers, store.Len())
	for i := 0; i < subscribers; i++ {
		sess, ok := store.Get(fmt.Sprintf("sub-%d", i))
		require.True(t, ok)
		require.Equal(t, domain.StepGeneral, sess.Step)
		require.Equal(t, "Concurso B", sess.Collected.ExamType)
		require.Equal(t, "Cargo B1", sess.Collected.Cargo)
		require.Equal(t, "Iniciante", sess.Collected.Level)
	}
}

func TestRepromptDoesNotAdvance(t *testing.T) {
	engine, store := newTestEngine(t)

	engine.HandleMessage(msg("s", "oi"))
	first := engine.HandleMessage(msg("s", "zz"))
	second := engine.HandleMessage(msg("s", "99"))

	require.Equal(t, first.Text, second.Text)
	sess, _ := store.Get("s")
	require.Equal(t, domain.StepAwaitingExam, sess.Step)
}
