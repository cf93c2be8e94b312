package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxBatchOperations caps edit_session_entities batches; larger requests are
// rejected before any execution.
const MaxBatchOperations = 15

// The normalizer converts untyped payloads into commands or a list of
// human-readable error strings. It never returns a structural error to the
// caller: a payload either normalizes fully or fails closed with messages.

func cleanString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// asNumber coerces JSON numbers and numeric strings. The producer emits both.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asInt coerces integers, truncating fractional JSON numbers the way the
// producer expects; non-integer strings are rejected.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// emptySessionID reports whether a session_id value is a placeholder that
// should be treated as absent: nil, false, zero, or an empty string.
func emptySessionID(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	default:
		id, ok := asInt(v)
		return ok && id == 0
	}
}

// percentField reads a percent value under its canonical key, falling back to
// the legacy "vat" spelling for tax. Missing fields default to zero.
func percentField(data map[string]any, key string) (any, bool) {
	if v, ok := data[key]; ok && v != nil {
		return v, true
	}
	if key == "tax" {
		if v, ok := data["vat"]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

var percentLabels = map[string]string{
	"tax":      "tax",
	"service":  "service fee",
	"discount": "discount",
}

func normalizeCreateSession(data map[string]any, now time.Time) (CreateSessionCommand, []string) {
	var errs []string
	if len(data) == 0 {
		return CreateSessionCommand{}, []string{"I couldn't understand the request. Try including at least one person name."}
	}

	sessionIn, _ := asMap(data["session"])

	title := cleanString(sessionIn["title"])
	if title == "" {
		title = fmt.Sprintf("Receipt - %s", now.Format("Jan 02"))
	}

	cmd := CreateSessionCommand{Title: title}
	for key, dst := range map[string]*float64{"tax": &cmd.Tax, "service": &cmd.Service, "discount": &cmd.Discount} {
		raw, present := percentField(sessionIn, key)
		if !present {
			continue
		}
		val, ok := asNumber(raw)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s must be a number.", percentLabels[key]))
			continue
		}
		if val < 0 || val > 100 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 100.", percentLabels[key]))
			continue
		}
		*dst = val
	}

	peopleIn, ok := asList(data["people"])
	if !ok || len(peopleIn) == 0 {
		errs = append(errs, "Please include at least one person name.")
		return CreateSessionCommand{}, errs
	}

	for pIdx, rawPerson := range peopleIn {
		person, ok := asMap(rawPerson)
		if !ok {
			errs = append(errs, fmt.Sprintf("Person #%d is invalid.", pIdx+1))
			continue
		}
		name := cleanString(person["name"])
		if name == "" {
			errs = append(errs, fmt.Sprintf("Person #%d is missing a name.", pIdx+1))
			continue
		}

		var itemsIn []any
		if raw, present := person["items"]; present && raw != nil {
			if list, ok := asList(raw); ok {
				itemsIn = list
			} else {
				errs = append(errs, fmt.Sprintf("Items for %s must be a list.", name))
			}
		}

		normalized := NewPerson{Name: name}
		for iIdx, rawItem := range itemsIn {
			item, ok := asMap(rawItem)
			if !ok {
				errs = append(errs, fmt.Sprintf("Item #%d for %s is invalid.", iIdx+1, name))
				continue
			}
			itemName := cleanString(item["name"])
			if itemName == "" {
				errs = append(errs, fmt.Sprintf("An item for %s is missing a name.", name))
				continue
			}
			price, ok := asNumber(item["price"])
			if !ok || price <= 0 {
				errs = append(errs, fmt.Sprintf("Item '%s' for %s must have a positive price.", itemName, name))
				continue
			}
			qty := int64(1)
			if raw, present := item["quantity"]; present && raw != nil {
				q, ok := asInt(raw)
				if !ok {
					q = 1
				}
				qty = q
			}
			if qty < 1 {
				errs = append(errs, fmt.Sprintf("Item '%s' for %s must have quantity >= 1.", itemName, name))
				continue
			}
			normalized.Items = append(normalized.Items, NewItem{Name: itemName, Price: price, Quantity: int(qty)})
		}

		// A person with zero valid items is still accepted.
		cmd.People = append(cmd.People, normalized)
	}

	if len(cmd.People) == 0 {
		errs = append(errs, "Please include at least one valid person name.")
		return CreateSessionCommand{}, errs
	}
	if len(errs) > 0 {
		return CreateSessionCommand{}, errs
	}
	return cmd, nil
}

func normalizeEditSession(data map[string]any) (EditSessionCommand, []string) {
	var errs []string
	if len(data) == 0 {
		return EditSessionCommand{}, []string{"Empty AI output."}
	}

	cmd := EditSessionCommand{SessionQuery: cleanString(data["session_query"])}

	if raw, present := data["session_id"]; present && raw != nil {
		id, ok := asInt(raw)
		if !ok || id < 1 {
			errs = append(errs, "session_id must be a positive integer.")
		} else {
			cmd.SessionID = id
		}
	}
	if cmd.SessionID == 0 && cmd.SessionQuery == "" {
		errs = append(errs, "Missing session target. Provide session_id or session_query.")
	}

	updatesIn, ok := asMap(data["updates"])
	if raw, present := data["updates"]; present && raw != nil && !ok {
		errs = append(errs, "updates must be an object.")
	}

	if raw, present := updatesIn["title"]; present && raw != nil {
		title := cleanString(raw)
		if title == "" {
			errs = append(errs, "title cannot be empty.")
		} else {
			cmd.Updates.Title = &title
		}
	}
	for key, dst := range map[string]**float64{"tax": &cmd.Updates.Tax, "service": &cmd.Updates.Service, "discount": &cmd.Updates.Discount} {
		raw, present := percentField(updatesIn, key)
		if !present {
			continue
		}
		val, ok := asNumber(raw)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s must be a number.", percentLabels[key]))
			continue
		}
		if val < 0 || val > 100 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 100.", percentLabels[key]))
			continue
		}
		v := val
		*dst = &v
	}

	if cmd.Updates.Empty() {
		errs = append(errs, "No changes found. Tell me what to update (title, tax, service, discount).")
	}
	if len(errs) > 0 {
		return EditSessionCommand{}, errs
	}
	return cmd, nil
}

func normalizeEditPerson(data map[string]any) (EditPersonCommand, []string) {
	var errs []string

	cmd := EditPersonCommand{
		Operation: PersonOperation(cleanString(data["operation"])),
		NewName:   cleanString(data["new_name"]),
	}

	if id, ok := asInt(data["session_id"]); ok && id > 0 {
		cmd.SessionID = id
	} else {
		errs = append(errs, "Missing or invalid session_id.")
	}

	switch cmd.Operation {
	case PersonOpAdd, PersonOpRename, PersonOpDelete:
	default:
		errs = append(errs, "Invalid operation for edit_person.")
	}

	if cmd.Operation == PersonOpRename || cmd.Operation == PersonOpDelete {
		if id, ok := asInt(data["person_id"]); ok && id > 0 {
			cmd.PersonID = id
		} else {
			errs = append(errs, "person_id is required for rename/delete.")
		}
	}
	if cmd.Operation == PersonOpAdd || cmd.Operation == PersonOpRename {
		if cmd.NewName == "" {
			errs = append(errs, "new_name is required for add/rename.")
		}
	}

	// ref is only meaningful for add; silently dropped otherwise.
	if cmd.Operation == PersonOpAdd {
		if ref, ok := data["ref"].(string); ok {
			cmd.Ref = strings.TrimSpace(ref)
		}
	}

	if len(errs) > 0 {
		return EditPersonCommand{}, errs
	}
	return cmd, nil
}

func normalizeEditItem(data map[string]any) (EditItemCommand, []string) {
	var errs []string
	if len(data) == 0 {
		return EditItemCommand{}, []string{"Empty AI output."}
	}

	cmd := EditItemCommand{Operation: ItemOperation(cleanString(data["operation"]))}

	if id, ok := asInt(data["session_id"]); ok && id > 0 {
		cmd.SessionID = id
	} else {
		errs = append(errs, "Missing session_id (open the session page and try again).")
	}

	switch cmd.Operation {
	case ItemOpAdd, ItemOpUpdate, ItemOpDelete, ItemOpMove:
	default:
		errs = append(errs, "Invalid operation for editing items.")
	}

	if id, ok := asInt(data["item_id"]); ok && id > 0 {
		cmd.ItemID = id
	}
	if id, ok := asInt(data["to_person_id"]); ok && id > 0 {
		cmd.ToPersonID = id
	}
	if ref, ok := data["to_person_ref"].(string); ok {
		cmd.ToPersonRef = strings.TrimSpace(ref)
	}

	switch cmd.Operation {
	case ItemOpUpdate, ItemOpDelete, ItemOpMove:
		if cmd.ItemID == 0 {
			errs = append(errs, "item_id is required for update/delete/move.")
		}
	}
	switch cmd.Operation {
	case ItemOpAdd, ItemOpMove:
		if cmd.ToPersonID == 0 && cmd.ToPersonRef == "" {
			errs = append(errs, "to_person_id or to_person_ref is required for add/move.")
		}
	}

	if cmd.Operation == ItemOpAdd {
		cmd.Name = cleanString(data["name"])
		if cmd.Name == "" {
			errs = append(errs, "Item name is required for add.")
		}
		price, ok := asNumber(data["price"])
		if !ok || price <= 0 {
			errs = append(errs, "Item price must be a number greater than 0.")
		} else {
			cmd.Price = price
		}
		qty := int64(1)
		if raw, present := data["quantity"]; present && raw != nil {
			q, ok := asInt(raw)
			if !ok {
				q = 1
			}
			qty = q
		}
		if qty < 1 {
			errs = append(errs, "Item quantity must be an integer >= 1.")
		} else {
			cmd.Quantity = int(qty)
		}
	}

	if cmd.Operation == ItemOpUpdate {
		updatesIn, ok := asMap(data["updates"])
		if raw, present := data["updates"]; present && raw != nil && !ok {
			errs = append(errs, "updates must be an object.")
		}
		if raw, present := updatesIn["name"]; present {
			name := cleanString(raw)
			if name == "" {
				errs = append(errs, "Updated name cannot be empty.")
			} else {
				cmd.Updates.Name = &name
			}
		}
		if raw, present := updatesIn["price"]; present {
			price, ok := asNumber(raw)
			if !ok || price <= 0 {
				errs = append(errs, "Updated price must be > 0.")
			} else {
				cmd.Updates.Price = &price
			}
		}
		if raw, present := updatesIn["quantity"]; present {
			qty, ok := asInt(raw)
			if !ok || qty < 1 {
				errs = append(errs, "Updated quantity must be an integer >= 1.")
			} else {
				q := int(qty)
				cmd.Updates.Quantity = &q
			}
		}
		if cmd.Updates.Empty() {
			errs = append(errs, "updates must include at least one of: name, price, quantity.")
		}
	}

	if len(errs) > 0 {
		return EditItemCommand{}, errs
	}
	return cmd, nil
}

func normalizeBatch(data map[string]any) (BatchCommand, []string) {
	var errs []string
	if len(data) == 0 {
		return BatchCommand{}, []string{"Empty AI output."}
	}

	cmd := BatchCommand{}
	if id, ok := asInt(data["session_id"]); ok && id > 0 {
		cmd.SessionID = id
	} else {
		errs = append(errs, "Missing session_id (open the session page and try again).")
	}

	opsIn, ok := asList(data["operations"])
	if !ok || len(opsIn) == 0 {
		errs = append(errs, "operations must be a non-empty list.")
	}
	if len(errs) > 0 {
		return BatchCommand{}, errs
	}
	if len(opsIn) > MaxBatchOperations {
		return BatchCommand{}, []string{fmt.Sprintf("Too many operations in one request (max %d).", MaxBatchOperations)}
	}

	for idx, rawOp := range opsIn {
		op, ok := asMap(rawOp)
		if !ok {
			errs = append(errs, fmt.Sprintf("Operation #%d is not a valid object.", idx+1))
			continue
		}
		opIntent := Intent(cleanString(op["intent"]))
		if opIntent != IntentEditPerson && opIntent != IntentEditItem {
			errs = append(errs, fmt.Sprintf("Operation #%d: intent must be edit_person or edit_item.", idx+1))
			continue
		}

		// Sub-operations inherit the parent session id when they omit it
		// or carry an empty placeholder such as 0 or "".
		if sid, present := op["session_id"]; !present || emptySessionID(sid) {
			withSession := make(map[string]any, len(op)+1)
			for k, v := range op {
				withSession[k] = v
			}
			withSession["session_id"] = cmd.SessionID
			op = withSession
		}

		switch opIntent {
		case IntentEditPerson:
			person, opErrs := normalizeEditPerson(op)
			if len(opErrs) > 0 {
				errs = append(errs, fmt.Sprintf("Operation #%d (edit_person): %s", idx+1, strings.Join(opErrs, " | ")))
				continue
			}
			cmd.Operations = append(cmd.Operations, BatchOperation{Intent: IntentEditPerson, Person: &person})
		case IntentEditItem:
			item, opErrs := normalizeEditItem(op)
			if len(opErrs) > 0 {
				errs = append(errs, fmt.Sprintf("Operation #%d (edit_item): %s", idx+1, strings.Join(opErrs, " | ")))
				continue
			}
			cmd.Operations = append(cmd.Operations, BatchOperation{Intent: IntentEditItem, Item: &item})
		}
	}

	if len(errs) > 0 {
		return BatchCommand{}, errs
	}
	return cmd, nil
}

func normalizeGeneralInquiry(data map[string]any) (GeneralInquiryCommand, []string) {
	answer := cleanString(data["answer"])
	if answer == "" {
		return GeneralInquiryCommand{}, []string{"answer is required for general_inquiry."}
	}
	return GeneralInquiryCommand{Answer: answer}, nil
}
