package model

// swagger:model Subject
type Subject struct {
	BaseModel
	Name      string `gorm:"size:255;not null" json:"name"`
	ShortName string `gorm:"size:50" json:"shortName"`
}

func (Subject) TableName() string {
	return "subjects"
}

// swagger:model Group
type Group struct {
	BaseModel
	Name string `gorm:"size:100;not null" json:"name"`
}

func (Group) TableName() string {
	return "student_groups"
}

// SubjectGroup 学科向小组开放的关联
// swagger:model SubjectGroup
type SubjectGroup struct {
	BaseModel
	SubjectID uint `gorm:"not null;uniqueIndex:idx_subject_group" json:"subjectId"`
	GroupID   uint `gorm:"not null;uniqueIndex:idx_subject_group;index" json:"groupId"`
}

func (SubjectGroup) TableName() string {
	return "subject_groups"
}
