package model

import (
	"time"

	"github.com/google/uuid"
)

// OdometerReading is one recorded odometer value for a contract's vehicle.
// Readings are owned by the vehicle module; billing only reads them.
type OdometerReading struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	VehicleID  uuid.UUID
	RecordedAt time.Time
	Value      int64
}
