package db

import "time"

// PostBatch groups the LinkedIn posts generated for one product in a
// single run. Batches are created atomically with all posts unclaimed
// and are never deleted.
type PostBatch struct {
	ID          string `gorm:"primaryKey"`
	ProductName string `gorm:"not null"`
	ProductURL  string
	Posts       []BatchPost `gorm:"foreignKey:BatchID;references:ID"`
	CreatedAt   time.Time
}

// BatchPost is one generated post inside a batch. CopiedBy is empty
// until a team member claims the post; once set it never changes.
type BatchPost struct {
	ID       uint   `gorm:"primaryKey"`
	BatchID  string `gorm:"index:idx_batch_position,unique"`
	Position int    `gorm:"index:idx_batch_position,unique"`
	Content  string
	Hook     string
	CopiedBy string
	CopiedAt *time.Time
}

// Claimed reports whether the post has already been taken.
func (p BatchPost) Claimed() bool {
	return p.CopiedBy != ""
}
