package scope

import "gorm.io/gorm"

// OrderByPosition keeps rows in the order they were imported.
func OrderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func OrderByName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}
