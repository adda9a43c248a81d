package domain

import (
	"fmt"
	"strings"
)

// Stage is a position in the sales pipeline. There is no closed-lost stage;
// a lost opportunity simply stops moving.
type Stage string

const (
	StageNewLead            Stage = "new_lead"
	StageInitialOutreach    Stage = "initial_outreach"
	StageSampleVisitOffered Stage = "sample_visit_offered"
	StageAwaitingResponse   Stage = "awaiting_response"
	StageFeedbackLogged     Stage = "feedback_logged"
	StageDemoScheduled      Stage = "demo_scheduled"
	StageClosedWon          Stage = "closed_won"
)

var orderedStages = []Stage{
	StageNewLead,
	StageInitialOutreach,
	StageSampleVisitOffered,
	StageAwaitingResponse,
	StageFeedbackLogged,
	StageDemoScheduled,
	StageClosedWon,
}

var stageDefaultProbability = map[Stage]int{
	StageNewLead:            10,
	StageInitialOutreach:    20,
	StageSampleVisitOffered: 30,
	StageAwaitingResponse:   45,
	StageFeedbackLogged:     60,
	StageDemoScheduled:      75,
	StageClosedWon:          100,
}

var stageLabels = map[Stage]string{
	StageNewLead:            "New Lead",
	StageInitialOutreach:    "Initial Outreach",
	StageSampleVisitOffered: "Sample/Visit Offered",
	StageAwaitingResponse:   "Awaiting Response",
	StageFeedbackLogged:     "Feedback Logged",
	StageDemoScheduled:      "Demo Scheduled",
	StageClosedWon:          "Closed-Won",
}

func (s Stage) String() string { return string(s) }

func (s Stage) IsValid() bool {
	_, ok := stageDefaultProbability[s]
	return ok
}

// DefaultProbability returns the close probability applied when an
// opportunity enters the stage. Unknown stages return 0.
func (s Stage) DefaultProbability() int {
	return stageDefaultProbability[s]
}

func (s Stage) Label() string {
	return stageLabels[s]
}

// IsTerminal reports whether no transition is defined out of the stage.
func (s Stage) IsTerminal() bool {
	return s == StageClosedWon
}

// Position returns the zero-based index of the stage in the pipeline, or -1.
func (s Stage) Position() int {
	for i, stage := range orderedStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Stages returns all stages in pipeline order.
func Stages() []Stage {
	stages := make([]Stage, len(orderedStages))
	copy(stages, orderedStages)
	return stages
}

func ParseStageFromString(s string) (Stage, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_", "/", "_").Replace(normalized)
	st := Stage(normalized)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid stage %q", ErrValidation, s)
	}
	return st, nil
}
