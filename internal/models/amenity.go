package models

// Amenity is a feature a property can offer (pool, garage, ...)
type Amenity struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Category string `gorm:"type:varchar(50);index" json:"category"`
	Icon     string `gorm:"type:varchar(50)" json:"icon,omitempty"`
}

// TableName specifies the table name
func (Amenity) TableName() string {
	return "amenities"
}

// PropertyAmenity is the join row between properties and amenities
type PropertyAmenity struct {
	PropertyID uint `gorm:"primaryKey"`
	AmenityID  uint `gorm:"primaryKey;index"`
}

// TableName specifies the table name
func (PropertyAmenity) TableName() string {
	return "property_amenities"
}
