package entity

// Presentation is how a status or approval type is rendered
type Presentation struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

var instanceStatusPresentation = map[InstanceStatus]Presentation{
	InstanceStatusInProgress: {Label: "En cours", Color: "processing", Icon: "sync"},
	InstanceStatusApproved:   {Label: "Approuvé", Color: "success", Icon: "check-circle"},
	InstanceStatusRejected:   {Label: "Rejeté", Color: "error", Icon: "close-circle"},
	InstanceStatusCancelled:  {Label: "Annulé", Color: "default", Icon: "stop"},
	InstanceStatusUnknown:    {Label: "Statut inconnu", Color: "default", Icon: "question-circle"},
}

var approvalTypePresentation = map[ApprovalType]Presentation{
	ApprovalTypeSimple:   {Label: "Approbation simple", Color: "blue", Icon: "user"},
	ApprovalTypeMultiple: {Label: "Approbation multiple", Color: "purple", Icon: "team"},
	ApprovalTypeParallel: {Label: "Approbation parallèle", Color: "cyan", Icon: "apartment"},
	ApprovalTypeUnknown:  {Label: "Type non reconnu", Color: "default", Icon: "question-circle"},
}

var decisionPresentation = map[Decision]Presentation{
	DecisionApprove: {Label: "Approuvé", Color: "success", Icon: "check"},
	DecisionReject:  {Label: "Rejeté", Color: "error", Icon: "close"},
	DecisionPending: {Label: "En attente", Color: "warning", Icon: "clock-circle"},
	DecisionNone:    {Label: "Aucune décision", Color: "default"},
}

var priorityLabels = [...]string{"Très basse", "Basse", "Normale", "Haute", "Urgente"}

// Presentation returns the label/color for the status; unknown statuses get
// the generic fallback.
func (s InstanceStatus) Presentation() Presentation {
	if p, ok := instanceStatusPresentation[s]; ok {
		return p
	}
	return instanceStatusPresentation[InstanceStatusUnknown]
}

// Presentation returns the label/icon for the approval type; unknown types get
// the "Type non reconnu" fallback.
func (t ApprovalType) Presentation() Presentation {
	if p, ok := approvalTypePresentation[t]; ok {
		return p
	}
	return approvalTypePresentation[ApprovalTypeUnknown]
}

// Presentation returns the label/color for the decision
func (d Decision) Presentation() Presentation {
	if p, ok := decisionPresentation[d]; ok {
		return p
	}
	return decisionPresentation[DecisionNone]
}

// PriorityLabel returns the label for a 0-4 priority
func PriorityLabel(priority int) string {
	if priority < PriorityLowest {
		priority = PriorityLowest
	}
	if priority > PriorityHighest {
		priority = PriorityHighest
	}
	return priorityLabels[priority]
}
