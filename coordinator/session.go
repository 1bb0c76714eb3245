package coordinator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"vitalia"
	"vitalia/metabolic"
)

// State is everything the presentation layer reads. Values returned by
// Session are copies; mutating them does not affect the session.
type State struct {
	Profile        vitalia.Profile       `json:"profile"`
	Ingredients    []string              `json:"ingredients"`
	Plan           *vitalia.DailyPlan    `json:"plan"`
	ShoppingList   *vitalia.ShoppingList `json:"shoppingList"`
	PantryAnalysis string                `json:"pantryAnalysis"`
	Transcript     vitalia.Transcript    `json:"transcript"`
	ChatOpen       bool                  `json:"chatOpen"`
	Loading        bool                  `json:"loading"`
	LoadingText    string                `json:"loadingText,omitempty"`
	Typing         bool                  `json:"typing"`
	Error          string                `json:"error,omitempty"`

	// derived from Profile on every snapshot
	DailyTarget int                `json:"dailyTarget"`
	Timeline    metabolic.Timeline `json:"timeline"`
}

// Session owns the state of the single user. Operations may overlap; each
// applies its result under the lock when it completes, so the last one to
// finish wins.
type Session struct {
	coord *Coordinator

	mu      sync.Mutex
	state   State
	loading int
	typing  int
}

func NewSession(coord *Coordinator) *Session {
	return &Session{
		coord: coord,
		state: State{
			Profile:     vitalia.DefaultProfile(),
			Ingredients: []string{},
			Transcript:  vitalia.NewTranscript(),
		},
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	st := s.state
	st.Ingredients = append([]string{}, s.state.Ingredients...)
	st.Plan = s.state.Plan.Clone()
	st.ShoppingList = s.state.ShoppingList.Clone()
	st.Transcript = s.state.Transcript.Append()
	st.Loading = s.loading > 0
	st.Typing = s.typing > 0
	if st.Loading {
		st.LoadingText = MsgLoading
	}
	st.DailyTarget = metabolic.DailyTarget(st.Profile)
	st.Timeline = metabolic.EstimateTimeline(st.Profile)
	return st
}

// release decrements an in-flight counter.
func (s *Session) release(counter *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter--
}

func (s *Session) UpdateProfile(p vitalia.Profile) (State, error) {
	if err := p.Validate(); err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Profile = p
	slog.Info("SESSION: Profile updated", "weight", p.Weight, "target_weight", p.TargetWeight, "activity", p.ActivityLevel)
	return s.snapshotLocked(), nil
}

// AddIngredient ignores blank input.
func (s *Session) AddIngredient(name string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name = strings.TrimSpace(name); name != "" {
		s.state.Ingredients = append(s.state.Ingredients, name)
	}
	return s.snapshotLocked()
}

// RemoveIngredient ignores an out of range index.
func (s *Session) RemoveIngredient(i int) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i >= 0 && i < len(s.state.Ingredients) {
		s.state.Ingredients = append(s.state.Ingredients[:i:i], s.state.Ingredients[i+1:]...)
	}
	return s.snapshotLocked()
}

func (s *Session) SetChatOpen(open bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ChatOpen = open
	return s.snapshotLocked()
}

// GeneratePlan replaces the plan and clears the shopping list on success.
// An empty pantry returns vitalia.ErrEmptyPantry without touching the plan.
func (s *Session) GeneratePlan(ctx context.Context) (State, error) {
	s.mu.Lock()
	if len(s.state.Ingredients) == 0 {
		s.state.Error = MsgEmptyPantry
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st, vitalia.ErrEmptyPantry
	}
	s.state.Error = ""
	s.state.Plan = nil
	s.loading++
	profile := s.state.Profile
	ingredients := append([]string(nil), s.state.Ingredients...)
	s.mu.Unlock()

	plan, err := func() (vitalia.DailyPlan, error) {
		defer s.release(&s.loading)
		return s.coord.GeneratePlan(ctx, profile, ingredients)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state.Error = MsgPlanFailed
		return s.snapshotLocked(), err
	}

	s.state.Plan = &plan
	s.state.ShoppingList = nil
	return s.snapshotLocked(), nil
}

// GenerateShoppingList does nothing when there is no plan. A list for a plan
// that was replaced while the request was in flight is dropped.
func (s *Session) GenerateShoppingList(ctx context.Context) (State, error) {
	s.mu.Lock()
	current := s.state.Plan
	if current == nil {
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st, nil
	}
	s.state.Error = ""
	s.loading++
	plan := *current.Clone()
	s.mu.Unlock()

	list, err := func() (vitalia.ShoppingList, error) {
		defer s.release(&s.loading)
		return s.coord.GenerateShoppingList(ctx, plan)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state.Error = MsgShoppingFailed
		return s.snapshotLocked(), err
	}

	if s.state.Plan != current {
		slog.Warn("SESSION: Plan replaced during shopping list request, dropping list")
		return s.snapshotLocked(), nil
	}
	s.state.ShoppingList = &list
	return s.snapshotLocked(), nil
}

// AnalyzePantry does nothing when the pantry is empty. Failures are logged
// and never shown.
func (s *Session) AnalyzePantry(ctx context.Context) State {
	s.mu.Lock()
	if len(s.state.Ingredients) == 0 {
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st
	}
	s.state.Error = ""
	s.typing++
	profile := s.state.Profile
	ingredients := append([]string(nil), s.state.Ingredients...)
	s.mu.Unlock()

	advice, err := func() (string, error) {
		defer s.release(&s.typing)
		return s.coord.AnalyzePantry(ctx, profile, ingredients)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		slog.Error("SESSION: Pantry analysis failed", "error", err)
		return s.snapshotLocked()
	}

	s.state.PantryAnalysis = advice
	s.state.ChatOpen = true
	return s.snapshotLocked()
}

// SendTurn appends the user message before the request and then either the
// reply or the fallback message. Blank input is ignored; other input is kept
// as typed.
func (s *Session) SendTurn(ctx context.Context, text string) State {
	s.mu.Lock()
	if strings.TrimSpace(text) == "" {
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st
	}
	s.state.Error = ""
	s.state.Transcript = s.state.Transcript.Append(vitalia.Message{Role: vitalia.RoleUser, Text: text})
	s.typing++
	profile := s.state.Profile
	s.mu.Unlock()

	reply, err := func() (string, error) {
		defer s.release(&s.typing)
		return s.coord.Reply(ctx, profile, text)
	}()
	if err != nil {
		slog.Warn("SESSION: Chat turn failed, using fallback", "error", err)
		reply = MsgChatFallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Transcript = s.state.Transcript.Append(vitalia.Message{Role: vitalia.RoleAssistant, Text: reply})
	return s.snapshotLocked()
}
