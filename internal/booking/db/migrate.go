package db

import (
	"context"
	"log"

	"ms-busbooking/internal/models"

	"github.com/uptrace/bun"
)

// Migrate creates the booking tables if they do not exist yet.
func Migrate(bunDB *bun.DB) {
	ctx := context.Background()

	for _, model := range []interface{}{
		(*models.Schedule)(nil),
		(*models.Seat)(nil),
		(*models.Ticket)(nil),
		(*models.Passenger)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("create table failed: %v", err)
		}
	}

	log.Println("✅ booking tables ready")
}
