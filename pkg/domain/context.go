package domain

// ItemContext is the wire form of an item inside a session context.
type ItemContext struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

// PersonContext is the wire form of a person with their items and computed
// amounts.
type PersonContext struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Items       []ItemContext `json:"items"`
	Amount      float64       `json:"amount"`
	TaxedAmount float64       `json:"taxed_amount"`
}

// SessionContext is the full people/items tree for one session, used by the
// upstream producer to ground free-text references in concrete ids. A context
// for an unknown session carries the requested id and no people.
type SessionContext struct {
	SessionID int64           `json:"session_id"`
	Title     string          `json:"title,omitempty"`
	Tax       float64         `json:"tax,omitempty"`
	Service   float64         `json:"service,omitempty"`
	Discount  float64         `json:"discount,omitempty"`
	People    []PersonContext `json:"people"`
	Subtotal  float64         `json:"subtotal,omitempty"`
	Total     float64         `json:"total,omitempty"`
}

// BuildSessionContext assembles the context tree for a session from a
// read-only view. People and items are ordered by id.
func BuildSessionContext(view TransactionView, sessionID int64) SessionContext {
	ctx := SessionContext{SessionID: sessionID, People: []PersonContext{}}
	session, ok := view.FindSession(sessionID)
	if !ok {
		return ctx
	}
	ctx.Title = session.Title
	ctx.Tax = session.Tax
	ctx.Service = session.Service
	ctx.Discount = session.Discount

	var subtotal float64
	for _, person := range view.PeopleBySession(sessionID) {
		pc := PersonContext{ID: person.ID, Name: person.Name, Items: []ItemContext{}}
		for _, item := range view.ItemsByPerson(person.ID) {
			pc.Items = append(pc.Items, ItemContext{
				ID:       item.ID,
				Name:     item.Name,
				Price:    item.Price,
				Quantity: item.Quantity,
				Total:    item.Total(),
			})
			pc.Amount += item.Total()
		}
		pc.TaxedAmount = session.Taxed(pc.Amount)
		subtotal += pc.Amount
		ctx.People = append(ctx.People, pc)
	}
	ctx.Subtotal = subtotal
	ctx.Total = session.Taxed(subtotal)
	return ctx
}
