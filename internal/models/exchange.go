package models

// Exchange is a trading venue whose currency and pair listings are ingested.
type Exchange struct {
	Base
	Name string `gorm:"not null;uniqueIndex:uq_exchanges_name" json:"name"`
}
