package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"splitcore/pkg/domain"
)

// The executor applies one normalized, resolved command inside a single store
// transaction. Any failure rolls the transaction back and surfaces as an
// OK=false result; cross-session references fail as "not found" without
// revealing whether the row exists elsewhere.

// userMessage translates engine errors into the message shown to the end user.
func userMessage(err error) string {
	var nf NotFoundError
	if errors.As(err, &nf) {
		switch nf.Entity {
		case domain.EntitySession:
			return "I couldn't find that session."
		case domain.EntityPerson:
			return "Person not found."
		case domain.EntityItem:
			return "Item not found."
		}
	}
	var rv domain.RuleViolationError
	if errors.As(err, &rv) {
		var msgs []string
		for _, v := range rv.Result.Violations {
			if v.Severity == domain.SeverityBlock {
				msgs = append(msgs, v.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, " ")
		}
	}
	return err.Error()
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Service) executeCreateSession(ctx context.Context, cmd CreateSessionCommand) Result {
	created := Created{}
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		session, err := tx.CreateSession(Session{
			Title:    cmd.Title,
			Tax:      cmd.Tax,
			Service:  cmd.Service,
			Discount: cmd.Discount,
		})
		if err != nil {
			return err
		}
		created.SessionID = session.ID
		for _, p := range cmd.People {
			person, err := tx.CreatePerson(Person{SessionID: session.ID, Name: p.Name})
			if err != nil {
				return err
			}
			created.People++
			for _, it := range p.Items {
				if _, err := tx.CreateItem(Item{
					PersonID: person.ID,
					Name:     it.Name,
					Price:    it.Price,
					Quantity: it.Quantity,
				}); err != nil {
					return err
				}
				created.Items++
			}
		}
		return nil
	})
	if err != nil {
		return failure(userMessage(err))
	}
	msg := fmt.Sprintf("Created session '%s' with %d people", cmd.Title, created.People)
	if created.Items > 0 {
		msg += fmt.Sprintf(" and %d items.", created.Items)
	} else {
		msg += " (no items yet)."
	}
	return Result{OK: true, Message: msg, SessionID: created.SessionID, Created: &created}
}

func (s *Service) executeEditSession(ctx context.Context, cmd EditSessionCommand) Result {
	var sessionID int64
	var changed []string
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		session, err := resolveSession(tx.Snapshot(), cmd.SessionID, cmd.SessionQuery)
		if err != nil {
			return err
		}
		sessionID = session.ID
		updated, err := tx.UpdateSession(session.ID, func(sess *Session) error {
			if cmd.Updates.Title != nil {
				sess.Title = *cmd.Updates.Title
			}
			if cmd.Updates.Tax != nil {
				sess.Tax = *cmd.Updates.Tax
			}
			if cmd.Updates.Service != nil {
				sess.Service = *cmd.Updates.Service
			}
			if cmd.Updates.Discount != nil {
				sess.Discount = *cmd.Updates.Discount
			}
			return nil
		})
		if err != nil {
			return err
		}
		if cmd.Updates.Title != nil {
			changed = append(changed, fmt.Sprintf("title='%s'", updated.Title))
		}
		if cmd.Updates.Tax != nil {
			changed = append(changed, fmt.Sprintf("tax=%s%%", formatPercent(updated.Tax)))
		}
		if cmd.Updates.Service != nil {
			changed = append(changed, fmt.Sprintf("service=%s%%", formatPercent(updated.Service)))
		}
		if cmd.Updates.Discount != nil {
			changed = append(changed, fmt.Sprintf("discount=%s%%", formatPercent(updated.Discount)))
		}
		return nil
	})
	if err != nil {
		return failure(userMessage(err))
	}
	if len(changed) == 0 {
		return Result{OK: true, Message: "No changes applied.", SessionID: sessionID}
	}
	return Result{OK: true, Message: "Updated session: " + strings.Join(changed, ", "), SessionID: sessionID}
}

// executeEditPerson runs one person operation. On add, the created person id
// is reported so a batch can bind the command's ref token.
func (s *Service) executeEditPerson(ctx context.Context, cmd EditPersonCommand) Result {
	created := Created{}
	var message string
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindSession(cmd.SessionID); !ok {
			return NotFoundError{Entity: domain.EntitySession, ID: cmd.SessionID}
		}
		switch cmd.Operation {
		case PersonOpAdd:
			person, err := tx.CreatePerson(Person{SessionID: cmd.SessionID, Name: cmd.NewName})
			if err != nil {
				return err
			}
			created.PersonID = person.ID
			message = fmt.Sprintf("Added person '%s'.", person.Name)
			return nil
		case PersonOpRename:
			person, err := s.personInSession(tx, cmd.SessionID, cmd.PersonID)
			if err != nil {
				return err
			}
			if _, err := tx.UpdatePerson(person.ID, func(p *Person) error {
				p.Name = cmd.NewName
				return nil
			}); err != nil {
				return err
			}
			message = fmt.Sprintf("Renamed person to '%s'.", cmd.NewName)
			return nil
		case PersonOpDelete:
			person, err := s.personInSession(tx, cmd.SessionID, cmd.PersonID)
			if err != nil {
				return err
			}
			if err := tx.DeletePerson(person.ID); err != nil {
				return err
			}
			message = fmt.Sprintf("Deleted person '%s'.", person.Name)
			return nil
		default:
			return fmt.Errorf("invalid person operation %q", cmd.Operation)
		}
	})
	if err != nil {
		return failure(userMessage(err))
	}
	res := Result{OK: true, Message: message, SessionID: cmd.SessionID}
	if created.PersonID != 0 {
		res.Created = &created
	}
	return res
}

// personInSession looks a person up and verifies session ownership. A person
// from another session is reported as missing.
func (s *Service) personInSession(tx Transaction, sessionID, personID int64) (Person, error) {
	person, ok := tx.FindPerson(personID)
	if !ok || person.SessionID != sessionID {
		return Person{}, NotFoundError{Entity: domain.EntityPerson, ID: personID}
	}
	return person, nil
}

// itemInSession looks an item up through its owning person and verifies the
// chain lands in the stated session.
func (s *Service) itemInSession(tx Transaction, sessionID, itemID int64) (Item, error) {
	item, ok := tx.FindItem(itemID)
	if !ok {
		return Item{}, NotFoundError{Entity: domain.EntityItem, ID: itemID}
	}
	owner, ok := tx.FindPerson(item.PersonID)
	if !ok || owner.SessionID != sessionID {
		return Item{}, NotFoundError{Entity: domain.EntityItem, ID: itemID}
	}
	return item, nil
}

// executeEditItem runs one item operation. refs supplies batch-scoped person
// ref bindings; outside a batch it is nil and any symbolic ref fails.
func (s *Service) executeEditItem(ctx context.Context, cmd EditItemCommand, refs *refTable) Result {
	created := Created{}
	var message string
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindSession(cmd.SessionID); !ok {
			return NotFoundError{Entity: domain.EntitySession, ID: cmd.SessionID}
		}

		targetPerson := func() (Person, error) {
			personID := cmd.ToPersonID
			if cmd.ToPersonRef != "" && personID == 0 {
				id, err := refs.Lookup(cmd.ToPersonRef)
				if err != nil {
					return Person{}, err
				}
				personID = id
			}
			return s.personInSession(tx, cmd.SessionID, personID)
		}

		switch cmd.Operation {
		case ItemOpAdd:
			person, err := targetPerson()
			if err != nil {
				return err
			}
			item, err := tx.CreateItem(Item{
				PersonID: person.ID,
				Name:     cmd.Name,
				Price:    cmd.Price,
				Quantity: cmd.Quantity,
			})
			if err != nil {
				return err
			}
			created.ItemID = item.ID
			message = fmt.Sprintf("Added item '%s' for %s.", item.Name, person.Name)
			return nil
		case ItemOpUpdate:
			item, err := s.itemInSession(tx, cmd.SessionID, cmd.ItemID)
			if err != nil {
				return err
			}
			updated, err := tx.UpdateItem(item.ID, func(it *Item) error {
				if cmd.Updates.Name != nil {
					it.Name = *cmd.Updates.Name
				}
				if cmd.Updates.Price != nil {
					it.Price = *cmd.Updates.Price
				}
				if cmd.Updates.Quantity != nil {
					it.Quantity = *cmd.Updates.Quantity
				}
				return nil
			})
			if err != nil {
				return err
			}
			message = fmt.Sprintf("Updated item '%s'.", updated.Name)
			return nil
		case ItemOpDelete:
			item, err := s.itemInSession(tx, cmd.SessionID, cmd.ItemID)
			if err != nil {
				return err
			}
			if err := tx.DeleteItem(item.ID); err != nil {
				return err
			}
			message = fmt.Sprintf("Deleted item '%s'.", item.Name)
			return nil
		case ItemOpMove:
			item, err := s.itemInSession(tx, cmd.SessionID, cmd.ItemID)
			if err != nil {
				return err
			}
			person, err := targetPerson()
			if err != nil {
				return err
			}
			if _, err := tx.UpdateItem(item.ID, func(it *Item) error {
				it.PersonID = person.ID
				return nil
			}); err != nil {
				return err
			}
			message = fmt.Sprintf("Moved item '%s' to %s.", item.Name, person.Name)
			return nil
		default:
			return fmt.Errorf("invalid item operation %q", cmd.Operation)
		}
	})
	if err != nil {
		return failure(userMessage(err))
	}
	res := Result{OK: true, Message: message, SessionID: cmd.SessionID}
	if created.ItemID != 0 {
		res.Created = &created
	}
	return res
}

func (s *Service) executeGeneralInquiry(cmd GeneralInquiryCommand) Result {
	return Result{OK: true, Message: cmd.Answer}
}
