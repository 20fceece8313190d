package specification

import "gorm.io/gorm"

// Specification is a composable query predicate. Repositories accept a
// variadic list of these and AND them onto the base query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
