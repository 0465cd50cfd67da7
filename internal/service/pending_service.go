package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicsite/internal/db"
	"github.com/civicsite/internal/document"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPendingNotFound = errors.New("pending post not found")
	// ErrRemoveConflict 表示并发的审核操作已抢先删除该记录。
	ErrRemoveConflict       = errors.New("pending post was removed by a concurrent operation")
	ErrInvalidPublishStatus = errors.New("publish status must be draft or published")
)

// PendingPostInput carries the fields accepted when queueing a draft
// for moderation. BodyMarkdown is converted once at creation time.
type PendingPostInput struct {
	Title        string
	Slug         string
	Category     string
	Excerpt      string
	BodyMarkdown string
	Tags         []string
	ReadTime     string
	AuthorID     string
	ImageRef     string
}

// ApproveResult reports the permanent CMS document created on approval.
type ApproveResult struct {
	DocumentID string
	Slug       string
	Title      string
}

// PendingPostService is the moderation store and workflow for
// AI-generated blog drafts. Records only ever leave the store through
// Approve (after a successful CMS write) or Reject.
type PendingPostService struct {
	db  *gorm.DB
	cms CMSPublisher
}

// NewPendingPostService creates a PendingPostService instance.
func NewPendingPostService(gdb *gorm.DB, cms CMSPublisher) *PendingPostService {
	return &PendingPostService{db: gdb, cms: cms}
}

// Add converts the draft body and persists it with a fresh id. Ids are
// random UUIDs, so an id is never reused even after deletion.
func (s *PendingPostService) Add(input PendingPostInput) (*db.PendingPost, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}

	post := db.PendingPost{
		ID:            uuid.NewString(),
		Title:         title,
		Slug:          slug,
		Category:      strings.TrimSpace(input.Category),
		Excerpt:       strings.TrimSpace(input.Excerpt),
		BodyMarkdown:  input.BodyMarkdown,
		BodyDocument:  document.Convert(input.BodyMarkdown),
		Tags:          input.Tags,
		ReadTime:      strings.TrimSpace(input.ReadTime),
		AuthorID:      strings.TrimSpace(input.AuthorID),
		ImageRef:      strings.TrimSpace(input.ImageRef),
		PublishStatus: db.PublishStatusDraft,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("store pending post: %w", err)
	}
	return &post, nil
}

// List returns all pending posts, newest first. The snapshot is stable
// within one read.
func (s *PendingPostService) List() ([]db.PendingPost, error) {
	var posts []db.PendingPost
	if err := s.db.Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Get fetches one pending post by id.
func (s *PendingPostService) Get(id string) (*db.PendingPost, error) {
	var post db.PendingPost
	if err := s.db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, err
	}
	return &post, nil
}

// remove deletes a pending post and reports whether a row was deleted.
func (s *PendingPostService) remove(id string) (bool, error) {
	result := s.db.Delete(&db.PendingPost{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Approve publishes a pending post to the CMS, then removes the local
// record. The two steps are deliberately not atomic: a failed CMS write
// leaves the record pending and safely retryable, and the local delete
// only happens after the write succeeded.
func (s *PendingPostService) Approve(ctx context.Context, id, publishStatus string) (*ApproveResult, error) {
	if publishStatus != db.PublishStatusDraft && publishStatus != db.PublishStatusPublished {
		return nil, ErrInvalidPublishStatus
	}

	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	doc := CMSDocument{
		Title:    post.Title,
		Slug:     post.Slug,
		AuthorID: post.AuthorID,
		Category: post.Category,
		Excerpt:  post.Excerpt,
		ReadTime: post.ReadTime,
		Body:     post.BodyDocument,
		Tags:     post.Tags,
		ImageRef: post.ImageRef,
	}
	if publishStatus == db.PublishStatusPublished {
		now := time.Now().UTC()
		doc.PublishedAt = &now
	}

	docID, err := s.cms.CreateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("publish to cms: %w", err)
	}

	// The document now exists in the CMS; a delete failure here leaves an
	// orphaned pending record, which a later reject can clean up.
	if _, err := s.remove(id); err != nil {
		return nil, fmt.Errorf("remove pending post after publish: %w", err)
	}

	return &ApproveResult{DocumentID: docID, Slug: post.Slug, Title: post.Title}, nil
}

// Reject deletes a pending post without publishing it. Losing a race
// with a concurrent approve or reject surfaces ErrRemoveConflict.
func (s *PendingPostService) Reject(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	removed, err := s.remove(id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrRemoveConflict
	}
	return nil
}
