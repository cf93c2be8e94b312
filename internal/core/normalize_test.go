package core

import (
	"reflect"
	"testing"
	"time"
)

var normalizeNow = time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

func TestNormalizeCreateSessionHappyPath(t *testing.T) {
	cmd, errs := normalizeCreateSession(map[string]any{
		"session": map[string]any{"title": "Dinner", "tax": 14, "service": "10", "discount": 0},
		"people": []any{
			map[string]any{"name": "Alice", "items": []any{
				map[string]any{"name": "Pasta", "price": 12.5, "quantity": 2},
			}},
			map[string]any{"name": "Bob"},
		},
	}, normalizeNow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.Title != "Dinner" || cmd.Tax != 14 || cmd.Service != 10 {
		t.Fatalf("session fields wrong: %+v", cmd)
	}
	if len(cmd.People) != 2 {
		t.Fatalf("expected 2 people, got %d", len(cmd.People))
	}
	if len(cmd.People[0].Items) != 1 || cmd.People[0].Items[0].Quantity != 2 {
		t.Fatalf("alice items wrong: %+v", cmd.People[0].Items)
	}
	if len(cmd.People[1].Items) != 0 {
		t.Fatalf("bob should have no items")
	}
}

func TestNormalizeCreateSessionDefaultsTitleFromClock(t *testing.T) {
	cmd, errs := normalizeCreateSession(map[string]any{
		"people": []any{map[string]any{"name": "Alice"}},
	}, normalizeNow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.Title != "Receipt - Mar 14" {
		t.Fatalf("default title wrong: %q", cmd.Title)
	}
}

func TestNormalizeCreateSessionAcceptsVATAlias(t *testing.T) {
	cmd, errs := normalizeCreateSession(map[string]any{
		"session": map[string]any{"vat": 14},
		"people":  []any{map[string]any{"name": "Alice"}},
	}, normalizeNow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.Tax != 14 {
		t.Fatalf("vat alias not applied: %+v", cmd)
	}
}

func TestNormalizeCreateSessionBadQuantityDefaultsToOne(t *testing.T) {
	cmd, errs := normalizeCreateSession(map[string]any{
		"people": []any{map[string]any{"name": "Alice", "items": []any{
			map[string]any{"name": "Tea", "price": 3, "quantity": "lots"},
		}}},
	}, normalizeNow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.People[0].Items[0].Quantity != 1 {
		t.Fatalf("expected quantity fallback to 1, got %d", cmd.People[0].Items[0].Quantity)
	}
}

func TestNormalizeCreateSessionErrors(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want string
	}{
		{"empty payload", map[string]any{}, "I couldn't understand the request. Try including at least one person name."},
		{"no people", map[string]any{"session": map[string]any{}}, "Please include at least one person name."},
		{"person not object", map[string]any{"people": []any{"Alice"}}, "Person #1 is invalid."},
		{"person missing name", map[string]any{"people": []any{map[string]any{"items": []any{}}}}, "Person #1 is missing a name."},
		{"items not list", map[string]any{"people": []any{map[string]any{"name": "Alice", "items": "Pasta"}}}, "Items for Alice must be a list."},
		{"item without price", map[string]any{"people": []any{map[string]any{"name": "Alice", "items": []any{map[string]any{"name": "Pasta"}}}}}, "Item 'Pasta' for Alice must have a positive price."},
		{"negative quantity", map[string]any{"people": []any{map[string]any{"name": "Alice", "items": []any{map[string]any{"name": "Pasta", "price": 5, "quantity": -1}}}}}, "Item 'Pasta' for Alice must have quantity >= 1."},
		{"tax out of range", map[string]any{"session": map[string]any{"tax": 150}, "people": []any{map[string]any{"name": "Alice"}}}, "tax must be between 0 and 100."},
		{"service not a number", map[string]any{"session": map[string]any{"service": "ten"}, "people": []any{map[string]any{"name": "Alice"}}}, "service fee must be a number."},
		{"only invalid people", map[string]any{"people": []any{map[string]any{}}}, "Please include at least one valid person name."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := normalizeCreateSession(tc.data, normalizeNow)
			if !containsString(errs, tc.want) {
				t.Fatalf("errors %v do not include %q", errs, tc.want)
			}
		})
	}
}

func TestNormalizeEditSession(t *testing.T) {
	cmd, errs := normalizeEditSession(map[string]any{
		"session_id": 3,
		"updates":    map[string]any{"title": "Team lunch", "discount": 5},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.SessionID != 3 || cmd.Updates.Title == nil || *cmd.Updates.Title != "Team lunch" {
		t.Fatalf("command wrong: %+v", cmd)
	}
	if cmd.Updates.Discount == nil || *cmd.Updates.Discount != 5 {
		t.Fatalf("discount missing: %+v", cmd.Updates)
	}
	if cmd.Updates.Tax != nil || cmd.Updates.Service != nil {
		t.Fatalf("absent fields must stay nil: %+v", cmd.Updates)
	}
}

func TestNormalizeEditSessionErrors(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want string
	}{
		{"empty", map[string]any{}, "Empty AI output."},
		{"bad session id", map[string]any{"session_id": "soon", "updates": map[string]any{"tax": 5}}, "session_id must be a positive integer."},
		{"no target", map[string]any{"updates": map[string]any{"tax": 5}}, "Missing session target. Provide session_id or session_query."},
		{"updates not object", map[string]any{"session_id": 1, "updates": []any{}}, "updates must be an object."},
		{"empty title", map[string]any{"session_id": 1, "updates": map[string]any{"title": "  "}}, "title cannot be empty."},
		{"no changes", map[string]any{"session_id": 1, "updates": map[string]any{}}, "No changes found. Tell me what to update (title, tax, service, discount)."},
		{"discount above bound", map[string]any{"session_id": 1, "updates": map[string]any{"discount": 150}}, "discount must be between 0 and 100."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := normalizeEditSession(tc.data)
			if !containsString(errs, tc.want) {
				t.Fatalf("errors %v do not include %q", errs, tc.want)
			}
		})
	}
}

func TestNormalizeEditPerson(t *testing.T) {
	cmd, errs := normalizeEditPerson(map[string]any{
		"session_id": 2, "operation": "add", "new_name": "Carol", "ref": "p1",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := EditPersonCommand{SessionID: 2, Operation: PersonOpAdd, NewName: "Carol", Ref: "p1"}
	if !reflect.DeepEqual(cmd, want) {
		t.Fatalf("got %+v want %+v", cmd, want)
	}
}

func TestNormalizeEditPersonErrors(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want string
	}{
		{"missing session", map[string]any{"operation": "add", "new_name": "X"}, "Missing or invalid session_id."},
		{"bad operation", map[string]any{"session_id": 1, "operation": "promote"}, "Invalid operation for edit_person."},
		{"rename without person id", map[string]any{"session_id": 1, "operation": "rename", "new_name": "X"}, "person_id is required for rename/delete."},
		{"add without name", map[string]any{"session_id": 1, "operation": "add"}, "new_name is required for add/rename."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := normalizeEditPerson(tc.data)
			if !containsString(errs, tc.want) {
				t.Fatalf("errors %v do not include %q", errs, tc.want)
			}
		})
	}
}

func TestNormalizeEditPersonDropsRefOutsideAdd(t *testing.T) {
	cmd, errs := normalizeEditPerson(map[string]any{
		"session_id": 1, "operation": "rename", "person_id": 4, "new_name": "Dee", "ref": "p1",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.Ref != "" {
		t.Fatalf("ref must be dropped for rename, got %q", cmd.Ref)
	}
}

func TestNormalizeEditItem(t *testing.T) {
	cmd, errs := normalizeEditItem(map[string]any{
		"session_id": 1, "operation": "add", "to_person_ref": "p1",
		"name": "Cake", "price": "4.5",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.ToPersonRef != "p1" || cmd.Price != 4.5 || cmd.Quantity != 1 {
		t.Fatalf("command wrong: %+v", cmd)
	}
}

func TestNormalizeEditItemUpdates(t *testing.T) {
	cmd, errs := normalizeEditItem(map[string]any{
		"session_id": 1, "operation": "update", "item_id": 9,
		"updates": map[string]any{"price": 6, "quantity": 3},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.Updates.Name != nil {
		t.Fatalf("name must stay nil")
	}
	if cmd.Updates.Price == nil || *cmd.Updates.Price != 6 {
		t.Fatalf("price wrong: %+v", cmd.Updates)
	}
	if cmd.Updates.Quantity == nil || *cmd.Updates.Quantity != 3 {
		t.Fatalf("quantity wrong: %+v", cmd.Updates)
	}
}

func TestNormalizeEditItemErrors(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want string
	}{
		{"empty", map[string]any{}, "Empty AI output."},
		{"missing session", map[string]any{"operation": "delete", "item_id": 1}, "Missing session_id (open the session page and try again)."},
		{"bad operation", map[string]any{"session_id": 1, "operation": "duplicate"}, "Invalid operation for editing items."},
		{"move without item", map[string]any{"session_id": 1, "operation": "move", "to_person_id": 2}, "item_id is required for update/delete/move."},
		{"add without target", map[string]any{"session_id": 1, "operation": "add", "name": "Cake", "price": 4}, "to_person_id or to_person_ref is required for add/move."},
		{"add without name", map[string]any{"session_id": 1, "operation": "add", "to_person_id": 2, "price": 4}, "Item name is required for add."},
		{"add with zero price", map[string]any{"session_id": 1, "operation": "add", "to_person_id": 2, "name": "Cake", "price": 0}, "Item price must be a number greater than 0."},
		{"add with zero quantity", map[string]any{"session_id": 1, "operation": "add", "to_person_id": 2, "name": "Cake", "price": 4, "quantity": 0}, "Item quantity must be an integer >= 1."},
		{"update empty name", map[string]any{"session_id": 1, "operation": "update", "item_id": 1, "updates": map[string]any{"name": ""}}, "Updated name cannot be empty."},
		{"update bad price", map[string]any{"session_id": 1, "operation": "update", "item_id": 1, "updates": map[string]any{"price": -2}}, "Updated price must be > 0."},
		{"update bad quantity", map[string]any{"session_id": 1, "operation": "update", "item_id": 1, "updates": map[string]any{"quantity": "many"}}, "Updated quantity must be an integer >= 1."},
		{"update without fields", map[string]any{"session_id": 1, "operation": "update", "item_id": 1, "updates": map[string]any{}}, "updates must include at least one of: name, price, quantity."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := normalizeEditItem(tc.data)
			if !containsString(errs, tc.want) {
				t.Fatalf("errors %v do not include %q", errs, tc.want)
			}
		})
	}
}

func TestNormalizeBatch(t *testing.T) {
	cmd, errs := normalizeBatch(map[string]any{
		"session_id": 5,
		"operations": []any{
			map[string]any{"intent": "edit_person", "operation": "add", "new_name": "Eve", "ref": "p1"},
			map[string]any{"intent": "edit_item", "operation": "add", "to_person_ref": "p1", "name": "Pie", "price": 3},
		},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(cmd.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(cmd.Operations))
	}
	if cmd.Operations[0].Person == nil || cmd.Operations[0].Person.SessionID != 5 {
		t.Fatalf("sub-operation did not inherit session id: %+v", cmd.Operations[0])
	}
	if cmd.Operations[1].Item == nil || cmd.Operations[1].Item.SessionID != 5 {
		t.Fatalf("item sub-operation did not inherit session id: %+v", cmd.Operations[1])
	}
}

func TestNormalizeBatchInheritsOverEmptySessionID(t *testing.T) {
	for _, placeholder := range []any{nil, 0, 0.0, "", false} {
		cmd, errs := normalizeBatch(map[string]any{
			"session_id": 7,
			"operations": []any{
				map[string]any{"intent": "edit_person", "operation": "add", "new_name": "Eve", "session_id": placeholder},
			},
		})
		if len(errs) != 0 {
			t.Fatalf("placeholder %v: unexpected errors: %v", placeholder, errs)
		}
		if cmd.Operations[0].Person.SessionID != 7 {
			t.Fatalf("placeholder %v: session id not inherited: %+v", placeholder, cmd.Operations[0])
		}
	}
}

func TestNormalizeBatchErrors(t *testing.T) {
	sixteen := make([]any, MaxBatchOperations+1)
	for i := range sixteen {
		sixteen[i] = map[string]any{"intent": "edit_person", "operation": "add", "new_name": "X"}
	}
	cases := []struct {
		name string
		data map[string]any
		want string
	}{
		{"empty", map[string]any{}, "Empty AI output."},
		{"missing operations", map[string]any{"session_id": 1}, "operations must be a non-empty list."},
		{"too many", map[string]any{"session_id": 1, "operations": sixteen}, "Too many operations in one request (max 15)."},
		{"operation not object", map[string]any{"session_id": 1, "operations": []any{"add Eve"}}, "Operation #1 is not a valid object."},
		{"wrong intent", map[string]any{"session_id": 1, "operations": []any{map[string]any{"intent": "create_session"}}}, "Operation #1: intent must be edit_person or edit_item."},
		{"nested errors aggregated", map[string]any{"session_id": 1, "operations": []any{map[string]any{"intent": "edit_item", "operation": "add"}}}, "Operation #1 (edit_item): to_person_id or to_person_ref is required for add/move. | Item name is required for add. | Item price must be a number greater than 0."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := normalizeBatch(tc.data)
			if !containsString(errs, tc.want) {
				t.Fatalf("errors %v do not include %q", errs, tc.want)
			}
		})
	}
}

func TestNormalizeGeneralInquiry(t *testing.T) {
	if _, errs := normalizeGeneralInquiry(map[string]any{}); !containsString(errs, "answer is required for general_inquiry.") {
		t.Fatalf("missing answer not rejected: %v", errs)
	}
	cmd, errs := normalizeGeneralInquiry(map[string]any{"answer": " Split by heads. "})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cmd.Answer != "Split by heads." {
		t.Fatalf("answer not trimmed: %q", cmd.Answer)
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
