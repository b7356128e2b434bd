package models

import (
	"gorm.io/gorm"
)

// Institution kinds recognised by the audit programme.
const (
	InstitutionKindSchool    = "school"
	InstitutionKindChildcare = "childcare"
	InstitutionKindCareHome  = "care_home"
	InstitutionKindGeriatric = "geriatric"
	InstitutionKindOther     = "other"
)

// InstitutionKinds lists every valid institution kind.
var InstitutionKinds = []string{
	InstitutionKindSchool,
	InstitutionKindChildcare,
	InstitutionKindCareHome,
	InstitutionKindGeriatric,
	InstitutionKindOther,
}

// Institution is an audited site: a school, childcare centre, care home or
// similar. Institutions cannot be deleted while visits still reference them.
type Institution struct {
	gorm.Model
	Code         string `gorm:"uniqueIndex;not null" json:"code"`
	Name         string `gorm:"not null" json:"name"`
	Kind         string `gorm:"type:varchar(32);not null" json:"kind"`
	Address      string `json:"address"`
	Neighborhood string `gorm:"type:varchar(100)" json:"neighborhood"`
	District     string `gorm:"type:varchar(50)" json:"district"`
	Active       bool   `gorm:"not null;default:true" json:"active"`

	Visits []Visit `gorm:"foreignKey:InstitutionID" json:"visits,omitempty"`
}

// ValidInstitutionKind reports whether kind is one of the recognised values.
func ValidInstitutionKind(kind string) bool {
	for _, k := range InstitutionKinds {
		if k == kind {
			return true
		}
	}
	return false
}
