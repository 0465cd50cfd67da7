package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/civicsite/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBatchNotFound       = errors.New("post batch not found")
	ErrPostIndexOutOfRange = errors.New("post index out of range")
	// ErrAlreadyClaimed 表示该帖子已被他人认领，先到先得。
	ErrAlreadyClaimed = errors.New("post already claimed")
)

// BatchPostInput is one generated post handed in when saving a batch.
type BatchPostInput struct {
	Content string
	Hook    string
}

// PostBatchService is the batch store and claim workflow for generated
// LinkedIn posts. A post may be claimed by exactly one person; the
// check-and-set runs as a single conditional UPDATE so concurrent
// claimers cannot both win.
type PostBatchService struct {
	db *gorm.DB
}

// NewPostBatchService creates a PostBatchService instance.
func NewPostBatchService(gdb *gorm.DB) *PostBatchService {
	return &PostBatchService{db: gdb}
}

// Save creates a batch with all posts unclaimed, atomically.
func (s *PostBatchService) Save(productName, productURL string, posts []BatchPostInput) (*db.PostBatch, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return nil, errors.New("product name is required")
	}
	link := strings.TrimSpace(productURL)
	if link != "" {
		parsed, err := url.Parse(link)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid product url %q", link)
		}
	}
	if len(posts) == 0 {
		return nil, errors.New("a batch requires at least one post")
	}

	batch := db.PostBatch{
		ID:          uuid.NewString(),
		ProductName: name,
		ProductURL:  link,
		CreatedAt:   time.Now().UTC(),
	}
	for i, post := range posts {
		content := strings.TrimSpace(post.Content)
		if content == "" {
			return nil, fmt.Errorf("post %d has no content", i)
		}
		batch.Posts = append(batch.Posts, db.BatchPost{
			Position: i,
			Content:  content,
			Hook:     strings.TrimSpace(post.Hook),
		})
	}

	if err := s.db.Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("store post batch: %w", err)
	}
	return &batch, nil
}

// List returns all batches, newest first, with posts in position order.
func (s *PostBatchService) List() ([]db.PostBatch, error) {
	var batches []db.PostBatch
	err := s.db.
		Preload("Posts", func(gdb *gorm.DB) *gorm.DB { return gdb.Order("position asc") }).
		Order("created_at desc").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// Get fetches one batch by id with posts in position order.
func (s *PostBatchService) Get(id string) (*db.PostBatch, error) {
	var batch db.PostBatch
	err := s.db.
		Preload("Posts", func(gdb *gorm.DB) *gorm.DB { return gdb.Order("position asc") }).
		First(&batch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// Claim assigns the post at the given index to claimant, first claim
// wins. The claim is a conditional UPDATE on copied_by being empty;
// when zero rows match, somebody else already claimed the post (even a
// repeat claim by the same name fails, the rule is first-wins, not
// per-person idempotent). Callers must check the claim result before
// performing any side effect the claim gates.
func (s *PostBatchService) Claim(batchID string, postIndex int, claimant string) (*db.BatchPost, error) {
	name := strings.TrimSpace(claimant)
	if name == "" {
		return nil, errors.New("claimant name is required")
	}

	var post db.BatchPost
	err := s.db.First(&post, "batch_id = ? AND position = ?", batchID, postIndex).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, batchErr := s.Get(batchID); batchErr != nil {
				return nil, batchErr
			}
			return nil, ErrPostIndexOutOfRange
		}
		return nil, err
	}
	if post.Claimed() {
		return nil, ErrAlreadyClaimed
	}

	now := time.Now().UTC()
	result := s.db.Model(&db.BatchPost{}).
		Where("id = ? AND (copied_by IS NULL OR copied_by = '')", post.ID).
		Updates(map[string]any{"copied_by": name, "copied_at": now})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// lost the race to a concurrent claim
		return nil, ErrAlreadyClaimed
	}

	post.CopiedBy = name
	post.CopiedAt = &now
	return &post, nil
}
