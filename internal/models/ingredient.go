package models

// Ingredient is reference data. Names are not unique: the same name may
// exist with different measurement units.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"not null;size:200;index" json:"name"`
	MeasurementUnit string `gorm:"not null;size:200" json:"measurement_unit"`
}
