package models

// All returns every model managed by AutoMigrate
func All() []any {
	return []any{
		&User{},
		&Agent{},
		&Conversation{},
		&Message{},
		&NicheProfile{},
		&UsageRecord{},
		&Subscription{},
	}
}
