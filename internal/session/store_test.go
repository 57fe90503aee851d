package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"prepbot/internal/domain"
)

func TestWithCreatesSessionOnFirstUse(t *testing.T) {
	s := NewStore()

	var sawCreated bool
	s.With("+5511999990000", func(sess *domain.Session, created bool) {
		sawCreated = created
		require.Equal(t, domain.StepGreeting, sess.Step)
		sess.Step = domain.StepAwaitingExam
	})

	require.True(t, sawCreated)
	got, ok := s.Get("+5511999990000")
	require.True(t, ok)
	require.Equal(t, domain.StepAwaitingExam, got.Step)
	require.False(t, got.CreatedAt.IsZero())
	require.False(t, got.UpdatedAt.IsZero())
}

func TestWithReusesExistingSession(t *testing.T) {
	s := NewStore()

	s.With("sub", func(sess *domain.Session, created bool) {
		require.True(t, created)
		sess.Collected.ExamType = "Concurso A"
	})
	s.With("sub", func(sess *domain.Session, created bool) {
		require.False(t, created)
		require.Equal(t, "Concurso A", sess.Collected.ExamType)
	})

	require.Equal(t, 1, s.Len())
}

func TestGetUnknownSubscriber(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("nobody")

	require.False(t, ok)
}

func TestDelete(t *testing.T) {
	s := NewStore()
	s.With("sub", func(*domain.Session, bool) {})

	s.Delete("sub")

	_, ok := s.Get("sub")
	require.False(t, ok)
	require.Equal(t, 0, s.Len())
}

// Two messages applied in order by the same subscriber must observe each
// other's writes: With serializes per key.
func TestWithSerializesPerSubscriber(t *testing.T) {
	s := NewStore()
	const rounds = 200

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				s.With("sub", func(sess *domain.Session, _ bool) {
					// Non-atomic read-modify-write through a step marker; lost
					// updates would show up as a short final count.
					sess.Collected.ExamType += "x"
				})
			}
		}()
	}
	wg.Wait()

	got, ok := s.Get("sub")
	require.True(t, ok)
	require.Len(t, got.Collected.ExamType, 2*rounds)
}

// Concurrent traffic for distinct subscribers must never leak across sessions.
func TestSubscribersAreIndependent(t *testing.T) {
	s := NewStore()
	subscribers := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for _, sub := range subscribers {
		wg.Add(1)
		go func(sub string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.With(sub, func(sess *domain.Session, _ bool) {
					require.Equal(t, sub, sess.Subscriber)
					sess.Collected.ExamType = sub
				})
			}
		}(sub)
	}
	wg.Wait()

	for _, sub := range subscribers {
		got, ok := s.Get(sub)
		require.True(t, ok)
		require.Equal(t, sub, got.Collected.ExamType)
	}
}
