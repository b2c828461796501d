package po

import "time"

// SequenceCounterPO holds the last value issued for one named sequence.
type SequenceCounterPO struct {
	Name         string    `gorm:"primaryKey;size:64"`
	CurrentValue int64     `gorm:"column:current_value;not null"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (SequenceCounterPO) TableName() string {
	return "sequence_counters"
}
