package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE CATEGORY COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateCategoryCommand adds an assessment category to a school's registry.
type CreateCategoryCommand struct {
	TenantID  shared.TenantID
	Code      string
	Name      string
	Type      assessment.CategoryType
	SortOrder int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateCategoryCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("create_category: valid tenant_id is required")
	}
	if c.Code == "" {
		return errors.New("create_category: code is required")
	}
	if c.Name == "" {
		return errors.New("create_category: name is required")
	}
	return nil
}

// CreateCategoryResult contains the result of category creation.
type CreateCategoryResult struct {
	// CategoryID is the ID of the created category.
	CategoryID string

	// Code is the normalized category code.
	Code string
}

// CreateCategoryHandler handles the CreateCategoryCommand.
type CreateCategoryHandler struct {
	categoryRepo   assessment.CategoryRepository
	eventPublisher shared.EventPublisher
}

// NewCreateCategoryHandler creates a new CreateCategoryHandler.
func NewCreateCategoryHandler(categoryRepo assessment.CategoryRepository, eventPublisher shared.EventPublisher) *CreateCategoryHandler {
	return &CreateCategoryHandler{
		categoryRepo:   categoryRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create category command.
func (h *CreateCategoryHandler) Handle(ctx context.Context, cmd CreateCategoryCommand) (*CreateCategoryResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_category: validation failed: %w", err)
	}

	cat, err := assessment.NewCategory(assessment.NewCategoryParams{
		ID:        uuid.NewString(),
		TenantID:  cmd.TenantID,
		Code:      shared.Code(cmd.Code),
		Name:      cmd.Name,
		Type:      cmd.Type,
		SortOrder: cmd.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("create_category: %w", err)
	}

	if err := h.categoryRepo.Create(ctx, cat); err != nil {
		return nil, fmt.Errorf("create_category: failed to save category: %w", err)
	}

	h.publishConfigChanged(cmd.TenantID, shared.ConfigModelCategory, cmd.CorrelationID)

	return &CreateCategoryResult{CategoryID: cat.ID, Code: cat.Code.String()}, nil
}

func (h *CreateCategoryHandler) publishConfigChanged(tenantID shared.TenantID, model, correlationID string) {
	event := shared.NewConfigChangedEvent(tenantID.String(), model)
	if correlationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(correlationID)
	}
	_ = h.eventPublisher.Publish(event)
}

// ══════════════════════════════════════════════════════════════════════════════
// REORDER CATEGORIES COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ReorderCategoriesCommand rewrites the display order of a school's
// categories. IDs that do not belong to the school are skipped silently.
type ReorderCategoriesCommand struct {
	TenantID   shared.TenantID
	OrderedIDs []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ReorderCategoriesCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("reorder_categories: valid tenant_id is required")
	}
	if len(c.OrderedIDs) == 0 {
		return errors.New("reorder_categories: ordered_ids is required")
	}
	return nil
}

// ReorderCategoriesHandler handles the ReorderCategoriesCommand.
type ReorderCategoriesHandler struct {
	categoryRepo   assessment.CategoryRepository
	eventPublisher shared.EventPublisher
}

// NewReorderCategoriesHandler creates a new ReorderCategoriesHandler.
func NewReorderCategoriesHandler(categoryRepo assessment.CategoryRepository, eventPublisher shared.EventPublisher) *ReorderCategoriesHandler {
	return &ReorderCategoriesHandler{
		categoryRepo:   categoryRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the reorder categories command.
func (h *ReorderCategoriesHandler) Handle(ctx context.Context, cmd ReorderCategoriesCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("reorder_categories: validation failed: %w", err)
	}

	if err := h.categoryRepo.UpdateOrder(ctx, cmd.TenantID, cmd.OrderedIDs); err != nil {
		return fmt.Errorf("reorder_categories: %w", err)
	}

	event := shared.NewConfigChangedEvent(cmd.TenantID.String(), shared.ConfigModelCategory)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SET FULL MARKS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SetFullMarksCommand upserts the full marks for one distribution cell.
type SetFullMarksCommand struct {
	TenantID   shared.TenantID
	ClassID    string
	CategoryID string
	Kind       assessment.SubjectKind

	// SubjectID optionally narrows the cell to one subject.
	SubjectID string

	FullMarks int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SetFullMarksCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("set_full_marks: valid tenant_id is required")
	}
	if c.ClassID == "" || c.CategoryID == "" {
		return errors.New("set_full_marks: class_id and category_id are required")
	}
	if !c.Kind.IsValid() {
		return errors.New("set_full_marks: valid kind is required")
	}
	if c.FullMarks < 0 {
		return errors.New("set_full_marks: full_marks cannot be negative")
	}
	return nil
}

// SetFullMarksHandler handles the SetFullMarksCommand.
type SetFullMarksHandler struct {
	categoryRepo     assessment.CategoryRepository
	distributionRepo assessment.DistributionRepository
	eventPublisher   shared.EventPublisher
}

// NewSetFullMarksHandler creates a new SetFullMarksHandler.
func NewSetFullMarksHandler(
	categoryRepo assessment.CategoryRepository,
	distributionRepo assessment.DistributionRepository,
	eventPublisher shared.EventPublisher,
) *SetFullMarksHandler {
	return &SetFullMarksHandler{
		categoryRepo:     categoryRepo,
		distributionRepo: distributionRepo,
		eventPublisher:   eventPublisher,
	}
}

// Handle executes the set full marks command.
func (h *SetFullMarksHandler) Handle(ctx context.Context, cmd SetFullMarksCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("set_full_marks: validation failed: %w", err)
	}

	// The category must exist in this school's registry.
	if _, err := h.categoryRepo.GetByID(ctx, cmd.TenantID, cmd.CategoryID); err != nil {
		return fmt.Errorf("set_full_marks: %w", err)
	}

	dist, err := assessment.NewDistribution(assessment.NewDistributionParams{
		ID:         uuid.NewString(),
		TenantID:   cmd.TenantID,
		ClassID:    cmd.ClassID,
		CategoryID: cmd.CategoryID,
		Kind:       cmd.Kind,
		SubjectID:  cmd.SubjectID,
		FullMarks:  shared.Marks(cmd.FullMarks),
	})
	if err != nil {
		return fmt.Errorf("set_full_marks: %w", err)
	}

	if err := h.distributionRepo.Upsert(ctx, dist); err != nil {
		return fmt.Errorf("set_full_marks: failed to save distribution: %w", err)
	}

	event := shared.NewConfigChangedEvent(cmd.TenantID.String(), shared.ConfigModelDistribution)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPLACE DISTRIBUTIONS COMMAND
// Bulk configuration: the (class, kind) cell set is replaced wholesale,
// delete-then-insert in one transaction.
// ══════════════════════════════════════════════════════════════════════════════

// DistributionRow is one cell of a bulk replacement.
type DistributionRow struct {
	CategoryID string
	SubjectID  string
	FullMarks  int
}

// ReplaceDistributionsCommand replaces all distributions of a (class, kind).
type ReplaceDistributionsCommand struct {
	TenantID shared.TenantID
	ClassID  string
	Kind     assessment.SubjectKind
	Rows     []DistributionRow

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ReplaceDistributionsCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("replace_distributions: valid tenant_id is required")
	}
	if c.ClassID == "" {
		return errors.New("replace_distributions: class_id is required")
	}
	if !c.Kind.IsValid() {
		return errors.New("replace_distributions: valid kind is required")
	}
	for _, row := range c.Rows {
		if row.CategoryID == "" {
			return errors.New("replace_distributions: every row needs a category_id")
		}
		if row.FullMarks < 0 {
			return errors.New("replace_distributions: full_marks cannot be negative")
		}
	}
	return nil
}

// ReplaceDistributionsHandler handles the ReplaceDistributionsCommand.
type ReplaceDistributionsHandler struct {
	distributionRepo assessment.DistributionRepository
	eventPublisher   shared.EventPublisher
}

// NewReplaceDistributionsHandler creates a new ReplaceDistributionsHandler.
func NewReplaceDistributionsHandler(
	distributionRepo assessment.DistributionRepository,
	eventPublisher shared.EventPublisher,
) *ReplaceDistributionsHandler {
	return &ReplaceDistributionsHandler{
		distributionRepo: distributionRepo,
		eventPublisher:   eventPublisher,
	}
}

// Handle executes the replace distributions command. An empty Rows slice
// clears the (class, kind) configuration.
func (h *ReplaceDistributionsHandler) Handle(ctx context.Context, cmd ReplaceDistributionsCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("replace_distributions: validation failed: %w", err)
	}

	rows := make([]*assessment.MarksDistribution, 0, len(cmd.Rows))
	for _, row := range cmd.Rows {
		dist, err := assessment.NewDistribution(assessment.NewDistributionParams{
			ID:         uuid.NewString(),
			TenantID:   cmd.TenantID,
			ClassID:    cmd.ClassID,
			CategoryID: row.CategoryID,
			Kind:       cmd.Kind,
			SubjectID:  row.SubjectID,
			FullMarks:  shared.Marks(row.FullMarks),
		})
		if err != nil {
			return fmt.Errorf("replace_distributions: %w", err)
		}
		rows = append(rows, dist)
	}

	if err := h.distributionRepo.ReplaceForClassKind(ctx, cmd.TenantID, cmd.ClassID, cmd.Kind, rows); err != nil {
		return fmt.Errorf("replace_distributions: %w", err)
	}

	event := shared.NewConfigChangedEvent(cmd.TenantID.String(), shared.ConfigModelDistribution)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}
