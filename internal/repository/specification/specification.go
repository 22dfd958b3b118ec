package specification

import "gorm.io/gorm"

// Specification narrows a query. Repositories accept any number of them.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// ApplyAll applies specs in order.
func ApplyAll(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, s := range specs {
		if s != nil {
			db = s.Apply(db)
		}
	}
	return db
}
