package core

// Normalized commands: one strictly-typed, defaulted, range-checked value per
// intent. They exist only between normalization and execution and are never
// persisted.

// NewItem is a line item inside a create_session payload.
type NewItem struct {
	Name     string
	Price    float64
	Quantity int
}

// NewPerson is a participant inside a create_session payload. Zero items is
// explicitly allowed.
type NewPerson struct {
	Name  string
	Items []NewItem
}

// CreateSessionCommand creates a session with its people and items in one shot.
type CreateSessionCommand struct {
	Title    string
	Tax      float64
	Service  float64
	Discount float64
	People   []NewPerson
}

// SessionUpdates carries the subset of session fields an edit touches. Nil
// means "leave unchanged".
type SessionUpdates struct {
	Title    *string
	Tax      *float64
	Service  *float64
	Discount *float64
}

// Empty reports whether no field is set.
func (u SessionUpdates) Empty() bool {
	return u.Title == nil && u.Tax == nil && u.Service == nil && u.Discount == nil
}

// EditSessionCommand updates session-level fields, targeting the session by id
// or by free-text query (exactly one of the two).
type EditSessionCommand struct {
	SessionID    int64
	SessionQuery string
	Updates      SessionUpdates
}

// PersonOperation enumerates edit_person sub-operations.
type PersonOperation string

const (
	PersonOpAdd    PersonOperation = "add"
	PersonOpRename PersonOperation = "rename"
	PersonOpDelete PersonOperation = "delete"
)

// EditPersonCommand adds, renames, or deletes one person in a session. Ref is
// an optional symbolic token bound to the created person id when the command
// runs inside a batch; it is only meaningful for add.
type EditPersonCommand struct {
	SessionID int64
	Operation PersonOperation
	PersonID  int64
	NewName   string
	Ref       string
}

// ItemOperation enumerates edit_item sub-operations.
type ItemOperation string

const (
	ItemOpAdd    ItemOperation = "add"
	ItemOpUpdate ItemOperation = "update"
	ItemOpDelete ItemOperation = "delete"
	ItemOpMove   ItemOperation = "move"
)

// ItemUpdates carries the subset of item fields an update touches.
type ItemUpdates struct {
	Name     *string
	Price    *float64
	Quantity *int
}

// Empty reports whether no field is set.
func (u ItemUpdates) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Quantity == nil
}

// EditItemCommand adds, updates, deletes, or moves one item. The target person
// for add/move is either a concrete id or a symbolic ref from earlier in the
// same batch.
type EditItemCommand struct {
	SessionID   int64
	Operation   ItemOperation
	ItemID      int64
	ToPersonID  int64
	ToPersonRef string
	Name        string
	Price       float64
	Quantity    int
	Updates     ItemUpdates
}

// BatchOperation is one entry of an edit_session_entities batch: exactly one
// of Person or Item is set, matching Intent.
type BatchOperation struct {
	Intent Intent
	Person *EditPersonCommand
	Item   *EditItemCommand
}

// BatchCommand sequences heterogeneous person/item operations against one
// session. Order is caller-authoritative.
type BatchCommand struct {
	SessionID  int64
	Operations []BatchOperation
}

// GeneralInquiryCommand carries a pass-through answer and no mutation.
type GeneralInquiryCommand struct {
	Answer string
}
