package domain

import (
	"fmt"
	"strings"
)

// ContextTag names the sales situation an opportunity was opened for. It
// selects the default naming template.
type ContextTag string

const (
	ContextTagNewLeadOutreach         ContextTag = "new-lead-outreach"
	ContextTagSampleFollowup          ContextTag = "sample-followup"
	ContextTagDemoFollowup            ContextTag = "demo-followup"
	ContextTagMenuPlacement           ContextTag = "menu-placement"
	ContextTagRenewal                 ContextTag = "renewal"
	ContextTagDistributorIntroduction ContextTag = "distributor-introduction"
	ContextTagTradeShowFollowup       ContextTag = "trade-show-followup"
)

// TemplateCustom is the name_template token recorded when a caller supplied
// its own template instead of a context tag default.
const TemplateCustom = "custom"

var contextTagLabels = map[ContextTag]string{
	ContextTagNewLeadOutreach:         "New Lead Outreach",
	ContextTagSampleFollowup:          "Sample Follow-up",
	ContextTagDemoFollowup:            "Demo Follow-up",
	ContextTagMenuPlacement:           "Menu Placement",
	ContextTagRenewal:                 "Renewal",
	ContextTagDistributorIntroduction: "Distributor Introduction",
	ContextTagTradeShowFollowup:       "Trade Show Follow-up",
}

func (c ContextTag) String() string { return string(c) }

func (c ContextTag) IsValid() bool {
	_, ok := contextTagLabels[c]
	return ok
}

func (c ContextTag) Label() string {
	return contextTagLabels[c]
}

func ParseContextTagFromString(s string) (ContextTag, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	tag := ContextTag(normalized)
	if !tag.IsValid() {
		return "", fmt.Errorf("%w: invalid context tag %q", ErrValidation, s)
	}
	return tag, nil
}

// IsKnownNameTemplate reports whether token is a valid name_template value.
func IsKnownNameTemplate(token string) bool {
	if token == TemplateCustom {
		return true
	}
	return ContextTag(token).IsValid()
}
