package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalia"
)

// gatedGenerator blocks the operations that have a gate until the gate is
// closed, and reports every call on started.
type gatedGenerator struct {
	inner   vitalia.Generator
	gates   map[vitalia.Operation]chan struct{}
	started chan vitalia.Operation
}

func newGatedGenerator(inner vitalia.Generator, ops ...vitalia.Operation) *gatedGenerator {
	g := &gatedGenerator{
		inner:   inner,
		gates:   make(map[vitalia.Operation]chan struct{}),
		started: make(chan vitalia.Operation, 16),
	}
	for _, op := range ops {
		g.gates[op] = make(chan struct{})
	}
	return g
}

func (g *gatedGenerator) Generate(ctx context.Context, prompt vitalia.Prompt) (string, error) {
	g.started <- prompt.Operation
	if gate, ok := g.gates[prompt.Operation]; ok {
		<-gate
	}
	return g.inner.Generate(ctx, prompt)
}

func newTestSession(t *testing.T, gen vitalia.Generator) *Session {
	t.Helper()
	return NewSession(newHarness(t, gen).coord)
}

func TestSession_InitialState(t *testing.T) {
	s := newTestSession(t, newMockGenerator(t))
	st := s.Snapshot()

	assert.Equal(t, vitalia.DefaultProfile(), st.Profile)
	assert.Empty(t, st.Ingredients)
	assert.Nil(t, st.Plan)
	assert.Nil(t, st.ShoppingList)
	assert.Equal(t, vitalia.NewTranscript(), st.Transcript)
	assert.Equal(t, 1534, st.DailyTarget)
	assert.Equal(t, 4, st.Timeline.Weeks)
	assert.Equal(t, "4 semanas", st.Timeline.Label)
	assert.False(t, st.Loading)
	assert.False(t, st.Typing)
	assert.Empty(t, st.Error)
}

func TestSession_Ingredients(t *testing.T) {
	s := newTestSession(t, newMockGenerator(t))

	s.AddIngredient("  huevo ")
	s.AddIngredient("   ")
	s.AddIngredient("arroz")
	st := s.AddIngredient("huevo")
	assert.Equal(t, []string{"huevo", "arroz", "huevo"}, st.Ingredients)

	st = s.RemoveIngredient(7)
	assert.Equal(t, []string{"huevo", "arroz", "huevo"}, st.Ingredients)
	st = s.RemoveIngredient(-1)
	assert.Len(t, st.Ingredients, 3)

	st = s.RemoveIngredient(0)
	assert.Equal(t, []string{"arroz", "huevo"}, st.Ingredients)

	st.Ingredients[0] = "changed"
	assert.Equal(t, []string{"arroz", "huevo"}, s.Snapshot().Ingredients)
}

func TestSession_UpdateProfile(t *testing.T) {
	s := newTestSession(t, newMockGenerator(t))

	bad := vitalia.DefaultProfile()
	bad.Age = 0
	st, err := s.UpdateProfile(bad)
	assert.ErrorContains(t, err, "invalid profile")
	assert.Equal(t, vitalia.DefaultProfile(), st.Profile)

	gain := vitalia.DefaultProfile()
	gain.TargetWeight = 75
	st, err = s.UpdateProfile(gain)
	require.NoError(t, err)
	assert.Equal(t, gain, st.Profile)
	assert.Equal(t, 2434, st.DailyTarget)
}

func TestSession_SetChatOpen(t *testing.T) {
	s := newTestSession(t, newMockGenerator(t))
	assert.True(t, s.SetChatOpen(true).ChatOpen)
	assert.False(t, s.SetChatOpen(false).ChatOpen)
}

func TestSession_GeneratePlan(t *testing.T) {
	t.Run("empty pantry", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)

		st, err := s.GeneratePlan(context.Background())
		assert.ErrorIs(t, err, vitalia.ErrEmptyPantry)
		assert.Equal(t, MsgEmptyPantry, st.Error)
		assert.Nil(t, st.Plan)
		assert.Empty(t, gen.Prompts())
	})

	t.Run("empty pantry keeps the previous plan", func(t *testing.T) {
		s := newTestSession(t, newMockGenerator(t))
		s.AddIngredient("huevo")
		_, err := s.GeneratePlan(context.Background())
		require.NoError(t, err)

		st := s.RemoveIngredient(0)
		require.NotNil(t, st.Plan)

		st, err = s.GeneratePlan(context.Background())
		assert.ErrorIs(t, err, vitalia.ErrEmptyPantry)
		assert.NotNil(t, st.Plan)
	})

	t.Run("success clears the shopping list", func(t *testing.T) {
		s := newTestSession(t, newMockGenerator(t))
		s.AddIngredient("huevo")

		st, err := s.GeneratePlan(context.Background())
		require.NoError(t, err)
		require.NotNil(t, st.Plan)
		assert.Len(t, st.Plan.Meals, 4)

		st, err = s.GenerateShoppingList(context.Background())
		require.NoError(t, err)
		require.NotNil(t, st.ShoppingList)

		st, err = s.GeneratePlan(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, st.Plan)
		assert.Nil(t, st.ShoppingList)
		assert.False(t, st.Loading)
		assert.Empty(t, st.LoadingText)
	})

	t.Run("failure sets the display message", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)
		s.AddIngredient("huevo")
		_, err := s.GeneratePlan(context.Background())
		require.NoError(t, err)

		gen.SetResponse(vitalia.OperationPlan, `{"plan_diario": {}}`)
		st, err := s.GeneratePlan(context.Background())

		var verr *vitalia.ValidationError
		assert.True(t, errors.As(err, &verr))
		assert.Equal(t, MsgPlanFailed, st.Error)
		assert.Nil(t, st.Plan)
		assert.False(t, st.Loading)
	})

	t.Run("loading while in flight", func(t *testing.T) {
		gen := newGatedGenerator(newMockGenerator(t), vitalia.OperationPlan)
		s := newTestSession(t, gen)
		s.AddIngredient("huevo")

		type result struct {
			st  State
			err error
		}
		done := make(chan result, 1)
		go func() {
			st, err := s.GeneratePlan(context.Background())
			done <- result{st, err}
		}()

		assert.Equal(t, vitalia.OperationPlan, <-gen.started)
		mid := s.Snapshot()
		assert.True(t, mid.Loading)
		assert.Equal(t, MsgLoading, mid.LoadingText)
		assert.Nil(t, mid.Plan)

		close(gen.gates[vitalia.OperationPlan])
		res := <-done
		require.NoError(t, res.err)
		assert.False(t, res.st.Loading)
		assert.NotNil(t, res.st.Plan)
	})
}

func TestSession_GenerateShoppingList(t *testing.T) {
	t.Run("no plan is a no-op", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)
		s.AddIngredient("huevo")
		before := s.Snapshot()

		st, err := s.GenerateShoppingList(context.Background())
		require.NoError(t, err)
		assert.Equal(t, before, st)
		assert.Empty(t, gen.Prompts())
	})

	t.Run("failure sets the display message and keeps the plan", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)
		s.AddIngredient("huevo")
		_, err := s.GeneratePlan(context.Background())
		require.NoError(t, err)

		gen.SetError(vitalia.OperationShoppingList, &vitalia.RequestError{Attempts: 6, Err: errors.New("503")})
		st, err := s.GenerateShoppingList(context.Background())
		assert.Error(t, err)
		assert.Equal(t, MsgShoppingFailed, st.Error)
		assert.NotNil(t, st.Plan)
		assert.Nil(t, st.ShoppingList)
		assert.False(t, st.Loading)
	})

	t.Run("list for a replaced plan is dropped", func(t *testing.T) {
		gen := newGatedGenerator(newMockGenerator(t), vitalia.OperationShoppingList)
		s := newTestSession(t, gen)
		s.AddIngredient("huevo")
		_, err := s.GeneratePlan(context.Background())
		require.NoError(t, err)
		<-gen.started

		done := make(chan State, 1)
		go func() {
			st, _ := s.GenerateShoppingList(context.Background())
			done <- st
		}()
		assert.Equal(t, vitalia.OperationShoppingList, <-gen.started)

		_, err = s.GeneratePlan(context.Background())
		require.NoError(t, err)
		<-gen.started

		close(gen.gates[vitalia.OperationShoppingList])
		st := <-done
		assert.NotNil(t, st.Plan)
		assert.Nil(t, st.ShoppingList)
	})
}

func TestSession_AnalyzePantry(t *testing.T) {
	t.Run("empty pantry is a no-op", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)

		st := s.AnalyzePantry(context.Background())
		assert.Empty(t, st.PantryAnalysis)
		assert.False(t, st.ChatOpen)
		assert.Empty(t, gen.Prompts())
	})

	t.Run("success overwrites the analysis and opens the chat", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)
		s.AddIngredient("pollo")

		gen.SetResponse(vitalia.OperationPantryAdvice, "primera")
		s.AnalyzePantry(context.Background())
		gen.SetResponse(vitalia.OperationPantryAdvice, "segunda")
		st := s.AnalyzePantry(context.Background())

		assert.Equal(t, "segunda", st.PantryAnalysis)
		assert.True(t, st.ChatOpen)
		assert.False(t, st.Typing)
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)
		s.AddIngredient("pollo")
		_, err := s.GeneratePlan(context.Background())
		require.NoError(t, err)
		s.RemoveIngredient(0)
		_, err = s.GeneratePlan(context.Background())
		require.ErrorIs(t, err, vitalia.ErrEmptyPantry)
		s.AddIngredient("pollo")

		gen.SetError(vitalia.OperationPantryAdvice, errors.New("boom"))
		st := s.AnalyzePantry(context.Background())
		assert.Empty(t, st.Error)
		assert.Empty(t, st.PantryAnalysis)
		assert.False(t, st.ChatOpen)
	})
}

func TestSession_SendTurn(t *testing.T) {
	t.Run("blank input is ignored", func(t *testing.T) {
		gen := newMockGenerator(t)
		s := newTestSession(t, gen)

		st := s.SendTurn(context.Background(), " \t\n")
		assert.Equal(t, vitalia.NewTranscript(), st.Transcript)
		assert.Empty(t, gen.Prompts())
	})

	t.Run("reply is appended after the user message", func(t *testing.T) {
		gen := newMockGenerator(t)
		gen.SetResponse(vitalia.OperationChatTurn, "Come más fibra.")
		s := newTestSession(t, gen)

		st := s.SendTurn(context.Background(), "  ¿Qué ceno? ")
		require.Len(t, st.Transcript, 3)
		assert.Equal(t, vitalia.Message{Role: vitalia.RoleUser, Text: "  ¿Qué ceno? "}, st.Transcript[1])
		require.Len(t, gen.Prompts(), 1)
		assert.Contains(t, gen.Prompts()[0].Text, `"  ¿Qué ceno? "`)
		assert.Equal(t, vitalia.Message{Role: vitalia.RoleAssistant, Text: "Come más fibra."}, st.Transcript[2])
		assert.False(t, st.Typing)
	})

	t.Run("failure appends the fallback", func(t *testing.T) {
		gen := newMockGenerator(t)
		gen.SetError(vitalia.OperationChatTurn, errors.New("offline"))
		s := newTestSession(t, gen)

		st := s.SendTurn(context.Background(), "hola")
		require.Len(t, st.Transcript, 3)
		assert.Equal(t, vitalia.Message{Role: vitalia.RoleAssistant, Text: MsgChatFallback}, st.Transcript[2])
		assert.Empty(t, st.Error)
	})

	t.Run("user message is visible while typing", func(t *testing.T) {
		gen := newGatedGenerator(newMockGenerator(t), vitalia.OperationChatTurn)
		s := newTestSession(t, gen)

		done := make(chan State, 1)
		go func() { done <- s.SendTurn(context.Background(), "hola") }()
		<-gen.started

		mid := s.Snapshot()
		assert.True(t, mid.Typing)
		require.Len(t, mid.Transcript, 2)
		assert.Equal(t, "hola", mid.Transcript[1].Text)

		close(gen.gates[vitalia.OperationChatTurn])
		st := <-done
		assert.False(t, st.Typing)
		assert.Len(t, st.Transcript, 3)
	})

	t.Run("a turn clears the previous error", func(t *testing.T) {
		s := newTestSession(t, newMockGenerator(t))
		st, _ := s.GeneratePlan(context.Background())
		require.Equal(t, MsgEmptyPantry, st.Error)

		st = s.SendTurn(context.Background(), "hola")
		assert.Empty(t, st.Error)
	})
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	s := newTestSession(t, newMockGenerator(t))
	s.AddIngredient("huevo")
	st, err := s.GeneratePlan(context.Background())
	require.NoError(t, err)

	st.Plan.Meals[0].Name = "changed"
	st.Transcript[0].Text = "changed"

	again := s.Snapshot()
	assert.NotEqual(t, "changed", again.Plan.Meals[0].Name)
	assert.Equal(t, vitalia.Greeting, again.Transcript[0].Text)
}
