package agents

import "github.com/yungbote/vaultvoice-backend/internal/types"

// order fixes how agents are listed to the router. general comes last so the
// instruction block reads as "otherwise".
var order = []types.AgentID{
	types.AgentSales,
	types.AgentPeptides,
	types.AgentNutrition,
	types.AgentFitness,
	types.AgentBreathwork,
	types.AgentJournal,
	types.AgentVision,
	types.AgentMemory,
	types.AgentSleep,
	types.AgentGeneral,
}

var registry = map[types.AgentID]func() Definition{
	types.AgentGeneral:    generalAgent,
	types.AgentSales:      salesAgent,
	types.AgentPeptides:   peptideAgent,
	types.AgentNutrition:  nutritionAgent,
	types.AgentFitness:    fitnessAgent,
	types.AgentBreathwork: breathworkAgent,
	types.AgentJournal:    journalAgent,
	types.AgentVision:     visionAgent,
	types.AgentMemory:     memoryAgent,
	types.AgentSleep:      sleepAgent,
}

// Fallback is the catch-all identifier.
const Fallback = types.AgentGeneral

func IDs() []types.AgentID {
	out := make([]types.AgentID, len(order))
	copy(out, order)
	return out
}

func Has(id types.AgentID) bool {
	_, ok := registry[id]
	return ok
}

func Lookup(id types.AgentID) (Definition, bool) {
	ctor, ok := registry[id]
	if !ok {
		return Definition{}, false
	}
	return ctor(), true
}

// New builds a fresh agent for id, or the catch-all when id is unknown.
func New(id types.AgentID, deps Deps) Agent {
	def, ok := Lookup(id)
	if !ok {
		def, _ = Lookup(Fallback)
	}
	return newPipelineAgent(def, deps)
}
