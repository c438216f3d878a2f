package process

// Budget is a tuple of hard terminal limits. Zero means "no limit" for
// that dimension.
type Budget struct {
	MaxActions int
	MaxTokens  int
	MaxCost    float64
}

// Exceeded reports whether usage has exceeded any dimension of b.
func (b Budget) Exceeded(actionsRun, tokensUsed int, costSoFar float64) bool {
	if b.MaxActions > 0 && actionsRun >= b.MaxActions {
		return true
	}
	if b.MaxTokens > 0 && tokensUsed >= b.MaxTokens {
		return true
	}
	if b.MaxCost > 0 && costSoFar >= b.MaxCost {
		return true
	}
	return false
}

// Verbosity gates which events are published. All consumers gate on
// this at publish time; false values are the default (quiet).
type Verbosity struct {
	ShowPrompts      bool
	ShowLlmResponses bool
	ShowPlanning     bool
	Debug            bool
}

// EarlyTerminationPolicy is an abstract predicate over process state,
// checked between actions; returning true terminates the process as if
// budget-exhausted.
type EarlyTerminationPolicy func(p *AgentProcess) bool

// Options configures a single AgentProcess.
type Options struct {
	Budget                 Budget
	Verbosity              Verbosity
	Test                   bool
	InitialBindings        map[string]any
	AllowGoalChange        bool
	AvailableToolGroups    map[string]bool
	EarlyTerminationPolicy EarlyTerminationPolicy
	ToolDelayMs            int
	OperationDelayMs       int
}
