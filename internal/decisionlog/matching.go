package decisionlog

import (
	"slices"
	"strings"

	"github.com/plantops/linesight/internal/domain"
)

// agentAffinities maps source-agent name fragments to the action tags that
// agent is responsible for. A rule counts as relevant to a recommendation
// when its action is in the affinity set of the recommending agent.
var agentAffinities = map[string][]string{
	"maintenance": {domain.ActionDispatchMaintenance},
	"health":      {domain.ActionDispatchMaintenance},
	"production":  {domain.ActionReallocateLine},
	"inventory":   {domain.ActionRaiseSupplyAlert, domain.ActionSwitchSupplier},
	"supply":      {domain.ActionSwitchSupplier},
	"workforce":   {domain.ActionIncreaseShift},
}

// ruleMatches reports whether a triggered rule is relevant to a
// recommendation, by action words, rule name, or agent affinity.
func ruleMatches(r domain.RuleExcerpt, actionText, agentText string) bool {
	if strings.Contains(actionText, domain.ActionWords(r.Action)) ||
		strings.Contains(actionText, strings.ToLower(r.Name)) {
		return true
	}
	for fragment, actions := range agentAffinities {
		if strings.Contains(agentText, fragment) && slices.Contains(actions, r.Action) {
			return true
		}
	}
	return false
}

// keywordSet matches recommendation text against a prediction family.
type keywordSet struct {
	actions []string
	agents  []string
}

func (k keywordSet) match(actionText, agentText string) bool {
	for _, w := range k.actions {
		if strings.Contains(actionText, w) {
			return true
		}
	}
	for _, w := range k.agents {
		if strings.Contains(agentText, w) {
			return true
		}
	}
	return false
}

var (
	breakdownKeywords = keywordSet{
		actions: []string{"breakdown", "maintenance", "repair"},
		agents:  []string{"health"},
	}
	delayKeywords = keywordSet{
		actions: []string{"delay", "reorder"},
		agents:  []string{"inventory", "supply"},
	}
	supplierKeywords = keywordSet{
		actions: []string{"supplier"},
		agents:  []string{"supply"},
	}
)
