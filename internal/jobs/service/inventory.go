package service

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// ItemListing is the active inventory of a job plus every number it has used.
type ItemListing struct {
	Items             []domain.Item
	HistoricalNumbers []string
	ItemsVersion      int64
}

// BulkSaveRequest is the full item set submitted by one inventory screen.
type BulkSaveRequest struct {
	Phase domain.Phase
	Items []domain.Item
	// ExpectedVersion, when set, must equal the job's current ItemsVersion.
	ExpectedVersion *int64
}

// BulkSaveResult reports what a bulk save changed.
type BulkSaveResult struct {
	Items        []domain.Item
	ItemsVersion int64
	Inserted     int
	Updated      int
	Deleted      int
}

// Inventory manages the items of a job.
type Inventory struct {
	store    repository.TxStore
	taxonomy TaxonomyLookup
	log      *logger.Logger
	now      func() time.Time
}

// NewInventory creates the inventory service. taxonomy may be nil, in which
// case category ids are stored unchecked.
func NewInventory(store repository.TxStore, taxonomy TaxonomyLookup, log *logger.Logger) *Inventory {
	return &Inventory{store: store, taxonomy: taxonomy, log: log, now: time.Now}
}

// ListForJob returns active items and the numbers of all items ever created.
func (s *Inventory) ListForJob(ctx context.Context, jobID uuid.UUID) (*ItemListing, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListItems(ctx, jobID, true)
	if err != nil {
		return nil, err
	}
	return &ItemListing{
		Items:             activeOnly(all),
		HistoricalNumbers: domain.HistoricalNumbers(all),
		ItemsVersion:      job.ItemsVersion,
	}, nil
}

// ListFor is ListForJob restricted to actors who may view the job.
func (s *Inventory) ListFor(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*ItemListing, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireOwnerOr(job, domain.CanViewAllJobs); err != nil {
		return nil, err
	}
	return s.ListForJob(ctx, jobID)
}

// GenerateItemNumber returns the lowest number not used by the job nor
// listed in reserved. The number is only a suggestion: BulkSave assigns
// numbers authoritatively under the job lock.
func (s *Inventory) GenerateItemNumber(ctx context.Context, jobID uuid.UUID, reserved []string) (string, error) {
	pool, err := s.numberPool(ctx, s.store, jobID, reserved)
	if err != nil {
		return "", err
	}
	return pool.Next(), nil
}

// Expand splits the active item itemNumber into single-quantity items. The
// result is not persisted; callers fold it into the next BulkSave. reserved
// lists numbers the caller already holds unsaved.
func (s *Inventory) Expand(ctx context.Context, actor domain.Actor, jobID uuid.UUID, itemNumber string, reserved []string) ([]domain.Item, error) {
	if err := actor.Require(domain.CanManageItems); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListItems(ctx, jobID, true)
	if err != nil {
		return nil, err
	}

	pool := domain.NewNumberPool(job.JobID, domain.HistoricalNumbers(all))
	for _, n := range reserved {
		pool.Reserve(n)
	}
	for _, it := range all {
		if it.ItemNumber == itemNumber && it.IsActive() {
			return domain.Expand(it, pool)
		}
	}
	return nil, apperr.NotFound(itemNotFoundMsg)
}

// BulkSave reconciles the submitted item set with the stored one in a
// single transaction. Matching active numbers are updated, unknown or blank
// numbers are inserted and active items missing from the set are
// soft-deleted. Duplicate numbers abort the save before any write.
//
// A submitted row with an ID must carry that row's stored number. A row
// without an ID is new, so its number must be free unless the stored item
// already holds identical attributes.
func (s *Inventory) BulkSave(ctx context.Context, actor domain.Actor, jobID uuid.UUID, req BulkSaveRequest) (*BulkSaveResult, error) {
	if err := actor.Require(domain.CanManageItems); err != nil {
		return nil, err
	}
	phase, err := domain.ParsePhase(string(req.Phase))
	if err != nil {
		return nil, err
	}
	req.Phase = phase
	if err := checkIncomingDuplicates(req.Items); err != nil {
		return nil, err
	}

	incoming := s.prepareItems(ctx, req.Items)

	var result *BulkSaveResult
	err = s.store.InTx(ctx, func(st repository.Store) error {
		job, err := st.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if !job.Status.AllowsItemChanges(req.Phase) {
			return apperr.NotEditable(fmt.Sprintf("items cannot be changed from %s while job is %q", req.Phase, job.Status))
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != job.ItemsVersion {
			return staleItemsError(job.ItemsVersion)
		}

		r, err := s.reconcile(ctx, st, job, req.Phase, incoming)
		if err != nil {
			return err
		}

		if r.Inserted+r.Updated+r.Deleted > 0 {
			job.ItemsVersion++
			job.UpdatedAt = s.now()
			if err := st.UpdateJob(ctx, job); err != nil {
				return err
			}
			summary := fmt.Sprintf("%s (%d added, %d updated, %d removed)", domain.AuditItemsSaved, r.Inserted, r.Updated, r.Deleted)
			if _, err := appendAudit(ctx, st, s.now(), job.ID, nil, summary, true); err != nil {
				return err
			}
		}

		items, err := st.ListItems(ctx, job.ID, false)
		if err != nil {
			return err
		}
		r.Items = items
		r.ItemsVersion = job.ItemsVersion
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("items saved",
		"job_id", jobID, "inserted", result.Inserted, "updated", result.Updated, "deleted", result.Deleted)
	return result, nil
}

func (s *Inventory) reconcile(ctx context.Context, st repository.Store, job *domain.Job, phase domain.Phase, incoming []domain.Item) (*BulkSaveResult, error) {
	existing, err := st.ListItems(ctx, job.ID, true)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[string]domain.Item, len(existing))
	byID := make(map[uuid.UUID]domain.Item, len(existing))
	for _, it := range existing {
		byNumber[it.ItemNumber] = it
		byID[it.ID] = it
	}

	if err := resolveSavedRows(byID, incoming); err != nil {
		return nil, err
	}
	if err := checkIncomingDuplicates(incoming); err != nil {
		return nil, err
	}

	submitted := make(map[string]bool, len(incoming))
	for _, it := range incoming {
		if it.ItemNumber == "" {
			continue
		}
		if _, ok := domain.ParseItemNumber(job.JobID, it.ItemNumber); !ok {
			return nil, apperr.Validation("item number does not belong to this job").
				WithDetails(map[string]string{"itemNumber": it.ItemNumber})
		}
		if prev, ok := byNumber[it.ItemNumber]; ok {
			if !prev.IsActive() {
				return nil, apperr.DuplicateItemNumber("item number belongs to a removed item").
					WithDetails(map[string]string{"itemNumber": it.ItemNumber})
			}
			if it.ID == uuid.Nil && !sameAttributes(prev, it) {
				return nil, apperr.DuplicateItemNumber("item number is already used by another item").
					WithDetails(map[string]string{"itemNumber": it.ItemNumber})
			}
		}
		submitted[it.ItemNumber] = true
	}

	var removals []domain.Item
	for _, it := range existing {
		if !it.IsActive() || submitted[it.ItemNumber] {
			continue
		}
		if phase == domain.PhaseProcessing && it.Added == domain.PhaseCollection {
			return nil, apperr.Validation("collection items cannot be removed during processing").
				WithDetails(map[string]string{"itemNumber": it.ItemNumber})
		}
		removals = append(removals, it)
	}

	pool := domain.NewNumberPool(job.JobID, domain.HistoricalNumbers(existing))
	for n := range submitted {
		pool.Reserve(n)
	}

	now := s.now()
	res := &BulkSaveResult{}
	for _, in := range incoming {
		if prev, ok := byNumber[in.ItemNumber]; ok && in.ItemNumber != "" {
			if sameAttributes(prev, in) {
				continue
			}
			merged := mergeItem(prev, in)
			merged.UpdatedAt = now
			if err := st.UpdateItem(ctx, &merged); err != nil {
				return nil, err
			}
			res.Updated++
			continue
		}

		item := in
		item.ID = uuid.New()
		item.JobID = job.ID
		if item.ItemNumber == "" {
			item.ItemNumber = pool.Next()
		}
		item.Added = phase
		item.State = domain.Active{}
		item.CreatedAt = now
		item.UpdatedAt = now
		if err := st.InsertItem(ctx, &item); err != nil {
			return nil, err
		}
		res.Inserted++
	}

	for _, it := range removals {
		if err := st.SoftDeleteItem(ctx, job.ID, it.ID, now); err != nil {
			return nil, err
		}
		res.Deleted++
	}
	return res, nil
}

// SoftDelete removes one item from a job.
func (s *Inventory) SoftDelete(ctx context.Context, jobID, itemID uuid.UUID, actor domain.Actor) error {
	if err := actor.Require(domain.CanManageItems); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(st repository.Store) error {
		job, err := st.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		items, err := st.ListItems(ctx, jobID, false)
		if err != nil {
			return err
		}

		var target *domain.Item
		for i := range items {
			if items[i].ID == itemID {
				target = &items[i]
				break
			}
		}
		if target == nil {
			return apperr.NotFound(itemNotFoundMsg)
		}

		phase := domain.PhaseCollection
		if job.Status.AllowsItemChanges(domain.PhaseProcessing) {
			phase = domain.PhaseProcessing
		}
		if !job.Status.AllowsItemChanges(phase) {
			return apperr.NotEditable(fmt.Sprintf("items cannot be removed while job is %q", job.Status))
		}
		if phase == domain.PhaseProcessing && target.Added == domain.PhaseCollection {
			return apperr.Validation("collection items cannot be removed during processing")
		}

		now := s.now()
		if err := st.SoftDeleteItem(ctx, jobID, itemID, now); err != nil {
			return err
		}
		job.ItemsVersion++
		job.UpdatedAt = now
		if err := st.UpdateJob(ctx, job); err != nil {
			return err
		}
		_, err = appendAudit(ctx, st, now, jobID, nil, fmt.Sprintf("%s: %s", domain.AuditItemRemoved, target.ItemNumber), true)
		return err
	})
}

func (s *Inventory) numberPool(ctx context.Context, st repository.Store, jobID uuid.UUID, reserved []string) (*domain.NumberPool, error) {
	job, err := st.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	all, err := st.ListItems(ctx, jobID, true)
	if err != nil {
		return nil, err
	}
	pool := domain.NewNumberPool(job.JobID, domain.HistoricalNumbers(all))
	for _, n := range reserved {
		pool.Reserve(n)
	}
	return pool, nil
}

// prepareItems normalises quantities and text and drops taxonomy ids that do
// not resolve. Lookups run before the transaction opens.
func (s *Inventory) prepareItems(ctx context.Context, items []domain.Item) []domain.Item {
	categories := map[int64]bool{}
	subCategories := map[int64]bool{}

	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		it.ItemNumber = strings.TrimSpace(it.ItemNumber)
		it.Quantity = domain.NormalizeQuantity(it.Quantity)
		it.CategoryID = s.knownID(ctx, it.CategoryID, categories, s.categoryExists)
		it.SubCategoryID = s.knownID(ctx, it.SubCategoryID, subCategories, s.subCategoryExists)
		out = append(out, it)
	}
	return out
}

func (s *Inventory) categoryExists(ctx context.Context, id int64) (bool, error) {
	return s.taxonomy.CategoryExists(ctx, id)
}

func (s *Inventory) subCategoryExists(ctx context.Context, id int64) (bool, error) {
	return s.taxonomy.SubCategoryExists(ctx, id)
}

func (s *Inventory) knownID(ctx context.Context, id *int64, seen map[int64]bool, exists func(context.Context, int64) (bool, error)) *int64 {
	if id == nil || s.taxonomy == nil {
		return id
	}
	ok, cached := seen[*id]
	if !cached {
		var err error
		ok, err = exists(ctx, *id)
		if err != nil {
			// Keep the submitted id when the lookup itself fails.
			s.log.WithContext(ctx).Warn("taxonomy lookup failed", "id", *id, "error", err)
			ok = true
		}
		seen[*id] = ok
	}
	if !ok {
		return nil
	}
	v := *id
	return &v
}

// resolveSavedRows checks every submitted row that carries an ID against
// the stored row and fills in a blank number from it.
func resolveSavedRows(byID map[uuid.UUID]domain.Item, incoming []domain.Item) error {
	seen := make(map[uuid.UUID]bool, len(incoming))
	for i := range incoming {
		in := &incoming[i]
		if in.ID == uuid.Nil {
			continue
		}
		if seen[in.ID] {
			return apperr.Validation("item submitted more than once").
				WithDetails(map[string]string{"id": in.ID.String()})
		}
		seen[in.ID] = true

		prev, ok := byID[in.ID]
		if !ok {
			return apperr.NotFound(itemNotFoundMsg).WithDetails(map[string]string{"id": in.ID.String()})
		}
		if !prev.IsActive() {
			return apperr.Conflict("item was removed since it was loaded").
				WithDetails(map[string]string{"itemNumber": prev.ItemNumber})
		}
		if in.ItemNumber == "" {
			in.ItemNumber = prev.ItemNumber
		}
		if in.ItemNumber != prev.ItemNumber {
			return apperr.DuplicateItemNumber("item number does not match the saved item").
				WithDetails(map[string]string{"itemNumber": in.ItemNumber, "savedItemNumber": prev.ItemNumber})
		}
	}
	return nil
}

func checkIncomingDuplicates(items []domain.Item) error {
	seen := make(map[string]bool, len(items))
	var dups []string
	for _, it := range items {
		n := strings.TrimSpace(it.ItemNumber)
		if n == "" {
			continue
		}
		if seen[n] {
			dups = append(dups, n)
		}
		seen[n] = true
	}
	if len(dups) > 0 {
		return apperr.DuplicateItemNumber("duplicate item numbers in request").
			WithDetails(map[string][]string{"itemNumbers": dups})
	}
	return nil
}

// mergeItem copies editable attributes of in onto prev, keeping identity,
// number, phase and state.
func mergeItem(prev, in domain.Item) domain.Item {
	out := prev
	out.OriginalItemNumber = in.OriginalItemNumber
	out.Quantity = in.Quantity
	out.CategoryID = in.CategoryID
	out.SubCategoryID = in.SubCategoryID
	out.Make = in.Make
	out.Model = in.Model
	out.Specification = in.Specification
	out.ErasureRequired = in.ErasureRequired
	out.ProcessingMake = in.ProcessingMake
	out.ProcessingModel = in.ProcessingModel
	out.ProcessingSpecification = in.ProcessingSpecification
	out.ProcessingErasureRequired = in.ProcessingErasureRequired
	out.ProcessingDataStatus = in.ProcessingDataStatus
	out.SerialNumber = in.SerialNumber
	out.AssetTag = in.AssetTag
	return out
}

func sameAttributes(prev, in domain.Item) bool {
	merged := mergeItem(prev, in)
	return equalStringPtr(prev.OriginalItemNumber, merged.OriginalItemNumber) &&
		prev.Quantity == merged.Quantity &&
		equalInt64Ptr(prev.CategoryID, merged.CategoryID) &&
		equalInt64Ptr(prev.SubCategoryID, merged.SubCategoryID) &&
		prev.Make == merged.Make &&
		prev.Model == merged.Model &&
		prev.Specification == merged.Specification &&
		prev.ErasureRequired == merged.ErasureRequired &&
		prev.ProcessingMake == merged.ProcessingMake &&
		prev.ProcessingModel == merged.ProcessingModel &&
		maps.Equal(prev.ProcessingSpecification, merged.ProcessingSpecification) &&
		prev.ProcessingErasureRequired == merged.ProcessingErasureRequired &&
		prev.ProcessingDataStatus == merged.ProcessingDataStatus &&
		prev.SerialNumber == merged.SerialNumber &&
		prev.AssetTag == merged.AssetTag
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func activeOnly(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.IsActive() {
			out = append(out, it)
		}
	}
	return out
}

func staleItemsError(current int64) error {
	return apperr.Conflict("items changed since they were loaded").
		WithDetails(map[string]int64{"itemsVersion": current})
}

const itemNotFoundMsg = "item not found"
