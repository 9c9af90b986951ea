// Package workflow is the phase state machine of a clearance session.
package workflow

type Phase string

const (
	PhaseOEM                  Phase = "oem"
	PhaseContract             Phase = "contract"
	PhaseDependency           Phase = "dependency"
	PhaseMainLicense          Phase = "main_license"
	PhaseCredential           Phase = "credential"
	PhaseSpecialCheck         Phase = "special_check"
	PhaseCompliance           Phase = "compliance"
	PhaseFinalList            Phase = "final_list"
	PhaseOSSGeneration        Phase = "oss_generation"
	PhaseProductOverview      Phase = "product_overview"
	PhaseComponentOverview    Phase = "component_overview"
	PhaseCommonRules          Phase = "common_rules"
	PhaseObligations          Phase = "obligations"
	PhaseInteraction          Phase = "interaction"
	PhaseCopyleft             Phase = "copyleft"
	PhaseSpecialConsideration Phase = "special_consideration"
	PhaseCompleted            Phase = "completed"
)

// Phases lists every phase from initial to terminal.
var Phases = []Phase{
	PhaseOEM,
	PhaseContract,
	PhaseDependency,
	PhaseMainLicense,
	PhaseCredential,
	PhaseSpecialCheck,
	PhaseCompliance,
	PhaseFinalList,
	PhaseOSSGeneration,
	PhaseProductOverview,
	PhaseComponentOverview,
	PhaseCommonRules,
	PhaseObligations,
	PhaseInteraction,
	PhaseCopyleft,
	PhaseSpecialConsideration,
	PhaseCompleted,
}

// Order returns the position of p in Phases, -1 if unknown.
func (p Phase) Order() int {
	for i, q := range Phases {
		if q == p {
			return i
		}
	}
	return -1
}

func (p Phase) String() string {
	return string(p)
}

type Event string

const (
	EventCompleted       Event = "completed"
	EventInProgress      Event = "in_progress"
	EventGenerateContent Event = "generate_content"
)
