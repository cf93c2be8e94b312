package core

// Created reports ids and counts produced by a mutating operation.
type Created struct {
	SessionID int64 `json:"session_id,omitempty"`
	PersonID  int64 `json:"person_id,omitempty"`
	ItemID    int64 `json:"item_id,omitempty"`
	People    int   `json:"people,omitempty"`
	Items     int   `json:"items,omitempty"`
}

// Result is the single outcome shape every Execute call returns. Failures of
// any kind (envelope, validation, resolution, execution, batch) surface here
// as OK=false with a message; no error escapes as a fault.
type Result struct {
	OK        bool     `json:"ok"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	SessionID int64    `json:"session_id,omitempty"`
	Created   *Created `json:"created,omitempty"`
}

func failure(message string, errs ...string) Result {
	return Result{OK: false, Message: message, Errors: errs}
}

func validationFailure(errs []string) Result {
	return Result{OK: false, Message: "Validation failed.", Errors: errs}
}
