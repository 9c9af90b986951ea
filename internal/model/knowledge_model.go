package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ComponentObligation is one obligation topic recorded on a component.
type ComponentObligation struct {
	Topic    string   `json:"topic"`
	Licenses []string `json:"licenses"`
}

type KnowledgeComponent struct {
	Id                uuid.UUID                                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string                                   `gorm:"type:varchar(255);not null;index"`
	Version           string                                   `gorm:"type:varchar(100)"`
	COTS              bool                                     `gorm:"column:cots;default:false"`
	GeneralAssessment string                                   `gorm:"type:text"`
	AdditionalNotes   string                                   `gorm:"type:text"`
	Obligations       datatypes.JSONSlice[ComponentObligation] `gorm:"type:jsonb"`
	Licenses          []KnowledgeLicense                       `gorm:"foreignKey:ComponentId;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time                                `gorm:"autoCreateTime"`
	UpdatedAt         time.Time                                `gorm:"autoUpdateTime"`
}

func (KnowledgeComponent) TableName() string {
	return "knowledge_components"
}

type KnowledgeLicense struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComponentId uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"default:0"`
	Name        string    `gorm:"type:varchar(255);not null;index"`
	Type        string    `gorm:"type:varchar(50)"`
	Content     string    `gorm:"type:text"`
}

func (KnowledgeLicense) TableName() string {
	return "knowledge_licenses"
}

// LicenseNote is a row of the obligation or risk tables.
type LicenseNote struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Kind        string    `gorm:"type:varchar(20);not null;index:idx_license_notes_kind_license"`
	License     string    `gorm:"type:varchar(255);not null;index:idx_license_notes_kind_license"`
	Position    int       `gorm:"default:0"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (LicenseNote) TableName() string {
	return "license_notes"
}
