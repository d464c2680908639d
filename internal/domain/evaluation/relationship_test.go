package evaluation

import (
	"testing"

	"evalsphere/internal/domain/org"
)

func testPositions() map[string]org.Position {
	return map[string]org.Position{
		"manager": {ID: "manager", DepartmentID: "d1", Level: 1},
		"staff":   {ID: "staff", DepartmentID: "d1", Level: 2},
		"senior":  {ID: "senior", DepartmentID: "d1", Level: 2},
		"sales":   {ID: "sales", DepartmentID: "d2", Level: 1},
	}
}

// Lower level means more senior. This test pins the comparison direction;
// flipping it would silently swap every Jefe/Subordinado group in the UI.
func TestClassifyPositionsLevelDirection(t *testing.T) {
	positions := testPositions()

	if got := ClassifyPositions("manager", "staff", positions); got != RelationshipSuperior {
		t.Fatalf("level 1 evaluating level 2: expected superior, got %s", got)
	}
	if got := ClassifyPositions("staff", "manager", positions); got != RelationshipSubordinate {
		t.Fatalf("level 2 evaluating level 1: expected subordinate, got %s", got)
	}
}

func TestClassifyPositionsAntiSymmetry(t *testing.T) {
	positions := testPositions()

	for a := range positions {
		for b := range positions {
			forward := ClassifyPositions(a, b, positions)
			backward := ClassifyPositions(b, a, positions)
			if forward == RelationshipSuperior && backward != RelationshipSubordinate {
				t.Fatalf("%s->%s is superior but %s->%s is %s", a, b, b, a, backward)
			}
			if forward == RelationshipSubordinate && backward != RelationshipSuperior {
				t.Fatalf("%s->%s is subordinate but %s->%s is %s", a, b, b, a, backward)
			}
		}
	}
}

func TestClassifyPositionsSameLevel(t *testing.T) {
	positions := testPositions()

	if got := ClassifyPositions("staff", "senior", positions); got != RelationshipPeer {
		t.Fatalf("equal levels in the same department: expected peer, got %s", got)
	}
	// Two distinct employees sharing one position are peers, not self.
	if got := ClassifyPositions("staff", "staff", positions); got != RelationshipPeer {
		t.Fatalf("same position twice: expected peer, got %s", got)
	}
}

func TestClassifyPositionsCrossDepartment(t *testing.T) {
	positions := testPositions()

	if got := ClassifyPositions("manager", "sales", positions); got != RelationshipUnknown {
		t.Fatalf("cross-department: expected unknown, got %s", got)
	}
	if got := ClassifyPositions("staff", "sales", positions); got != RelationshipUnknown {
		t.Fatalf("cross-department with level gap: expected unknown, got %s", got)
	}
}

func TestClassifyPositionsMissingPosition(t *testing.T) {
	positions := testPositions()

	if got := ClassifyPositions("ghost", "staff", positions); got != RelationshipUnknown {
		t.Fatalf("missing evaluator position: expected unknown, got %s", got)
	}
	if got := ClassifyPositions("staff", "ghost", positions); got != RelationshipUnknown {
		t.Fatalf("missing evaluated position: expected unknown, got %s", got)
	}
}

func TestClassifySelfByEmployeeIdentity(t *testing.T) {
	positions := testPositions()
	alice := org.Employee{ID: "alice", PositionID: "staff"}
	bob := org.Employee{ID: "bob", PositionID: "staff"}

	if got := Classify(alice, alice, positions); got != RelationshipSelf {
		t.Fatalf("same employee: expected self, got %s", got)
	}
	if got := Classify(alice, bob, positions); got != RelationshipPeer {
		t.Fatalf("distinct employees sharing a position: expected peer, got %s", got)
	}
}

func TestRelationshipLabels(t *testing.T) {
	cases := map[Relationship]string{
		RelationshipSelf:        "Autoevaluación",
		RelationshipSuperior:    "Jefe",
		RelationshipSubordinate: "Subordinado",
		RelationshipPeer:        "Colega",
		RelationshipUnknown:     "No especificado",
	}
	for relationship, want := range cases {
		if got := relationship.Label(); got != want {
			t.Fatalf("label for %s: expected %q, got %q", relationship, want, got)
		}
	}
}
