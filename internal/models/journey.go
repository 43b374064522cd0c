package models

// JourneyModel is an ordered trail of memories. Step ordering lives on the
// member memories (journey_id + journey_step); the journey row itself only
// carries presentation fields.
type JourneyModel struct {
	Base
	OwnerID     string `json:"owner_id"    gorm:"index;not null"`
	Title       string `json:"title"       gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	CoverAsset  string `json:"cover_asset"`
}

func (JourneyModel) TableName() string { return "journeys" }
