package models

import "github.com/google/uuid"

// assignID fills a zero primary key so inserts behave the same on postgres
// and sqlite, where gen_random_uuid() is unavailable.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
