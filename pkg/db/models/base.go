package models

import "github.com/google/uuid"

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&Withdrawal{},
		&Review{},
		&Activity{},
		&StatusPost{},
		&SystemSetting{},
		&OutboxEvent{},
	}
}
