package specification

import (
	"oss-clearance-be/pkg/knowledge"

	"gorm.io/gorm"
)

// normalizedColumn mirrors knowledge.Normalize in SQL.
func normalizedColumn(column string) string {
	return "regexp_replace(lower(" + column + "), '[^a-z0-9]+', '', 'g')"
}

// ComponentNameLike keeps components whose normalized name contains the
// normalized search, or is contained in it.
type ComponentNameLike struct {
	Name string
}

func (s ComponentNameLike) Apply(db *gorm.DB) *gorm.DB {
	n := knowledge.Normalize(s.Name)
	col := normalizedColumn("knowledge_components.name")
	// normalized strings hold no LIKE wildcards
	return db.Where(col+" <> '' AND ("+col+" LIKE ? OR ? LIKE '%' || "+col+" || '%')", "%"+n+"%", n)
}

// HasLicense keeps components declaring a license equal to License once
// normalized.
type HasLicense struct {
	License string
}

func (s HasLicense) Apply(db *gorm.DB) *gorm.DB {
	sub := db.Session(&gorm.Session{NewDB: true}).
		Table("knowledge_licenses").
		Select("component_id").
		Where(normalizedColumn("name")+" = ?", knowledge.Normalize(s.License))
	return db.Where("knowledge_components.id IN (?)", sub)
}

type NoteOf struct {
	Kind    knowledge.NoteKind
	License string
}

func (s NoteOf) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ? AND license = ?", string(s.Kind), s.License)
}
