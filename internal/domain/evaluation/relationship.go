package evaluation

import "evalsphere/internal/domain/org"

// Relationship is the organizational relation of an evaluator to the person
// they evaluated.
type Relationship string

const (
	RelationshipSelf        Relationship = "self"
	RelationshipSuperior    Relationship = "superior"
	RelationshipSubordinate Relationship = "subordinate"
	RelationshipPeer        Relationship = "peer"
	RelationshipUnknown     Relationship = "unknown"
)

// Label returns the Spanish display label used by the results UI.
func (r Relationship) Label() string {
	switch r {
	case RelationshipSelf:
		return "Autoevaluación"
	case RelationshipSuperior:
		return "Jefe"
	case RelationshipSubordinate:
		return "Subordinado"
	case RelationshipPeer:
		return "Colega"
	default:
		return "No especificado"
	}
}

// ClassifyPositions compares two positions within the same company.
// Relationships are only defined inside one department; any cross-department
// pair is Unknown, as is a pair where either position cannot be resolved.
//
// Hierarchy direction: a LOWER level number is MORE senior. An evaluator at
// level 1 looking at a target at level 2 is the target's Superior.
func ClassifyPositions(evaluatorPositionID, evaluatedPositionID string, positions map[string]org.Position) Relationship {
	evaluatorPos, ok := positions[evaluatorPositionID]
	if !ok {
		return RelationshipUnknown
	}
	evaluatedPos, ok := positions[evaluatedPositionID]
	if !ok {
		return RelationshipUnknown
	}

	if evaluatorPos.DepartmentID != evaluatedPos.DepartmentID {
		return RelationshipUnknown
	}

	switch {
	case evaluatorPos.Level < evaluatedPos.Level:
		return RelationshipSuperior
	case evaluatorPos.Level > evaluatedPos.Level:
		return RelationshipSubordinate
	default:
		return RelationshipPeer
	}
}

// Classify resolves the relationship between two employees. Self is decided
// on employee identity, never on positions: two distinct employees sharing a
// position at the same level are Peers.
func Classify(evaluator, evaluated org.Employee, positions map[string]org.Position) Relationship {
	if evaluator.ID != "" && evaluator.ID == evaluated.ID {
		return RelationshipSelf
	}
	return ClassifyPositions(evaluator.PositionID, evaluated.PositionID, positions)
}
