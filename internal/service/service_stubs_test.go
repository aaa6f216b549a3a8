package service

import (
	"context"
	"database/sql"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/repository"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

func sptr(s string) *string { return &s }

func i64ptr(v int64) *int64 { return &v }

func studentClaims(userID int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Username: "student", Role: models.RoleStudent}
}

func lecturerClaims(userID int64, departmentID *int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Username: "lecturer", Role: models.RoleLecturer, DepartmentID: departmentID}
}

func adminClaims(userID int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Username: "admin", Role: models.RoleAdmin}
}

// itemStoreStub backs every item-tree interface with in-memory maps.
// grants points at the share stub when a test needs shared-item listings.
type itemStoreStub struct {
	items  map[string]*models.DriveItem
	metas  map[string]*models.FileMetadata
	grants *shareStoreStub
}

func newItemStoreStub() *itemStoreStub {
	return &itemStoreStub{
		items: make(map[string]*models.DriveItem),
		metas: make(map[string]*models.FileMetadata),
	}
}

func (s *itemStoreStub) add(item *models.DriveItem) *models.DriveItem {
	if item.ItemID == "" {
		item.ItemID = uuid.NewString()
	}
	if item.RepositoryType == "" {
		item.RepositoryType = models.RepositoryPersonal
	}
	s.items[item.ItemID] = item
	if item.Metadata != nil {
		meta := *item.Metadata
		meta.ItemID = item.ItemID
		s.metas[item.ItemID] = &meta
	}
	return item
}

func (s *itemStoreStub) hasConflict(ownerID int64, parentID *string, name, excludeID string) bool {
	for _, existing := range s.items {
		if existing.ItemID == excludeID || existing.IsTrashed {
			continue
		}
		if existing.OwnerID == ownerID && existing.Name == name && equalParent(existing.ParentID, parentID) {
			return true
		}
	}
	return false
}

func (s *itemStoreStub) Create(ctx context.Context, item *models.DriveItem) error {
	if s.hasConflict(item.OwnerID, item.ParentID, item.Name, "") {
		return repository.ErrNameConflict
	}
	if item.ItemID == "" {
		item.ItemID = uuid.NewString()
	}
	if item.RepositoryType == "" {
		item.RepositoryType = models.RepositoryPersonal
	}
	copy := *item
	s.items[item.ItemID] = &copy
	return nil
}

func (s *itemStoreStub) CreateFile(ctx context.Context, item *models.DriveItem, meta *models.FileMetadata) error {
	if err := s.Create(ctx, item); err != nil {
		return err
	}
	meta.ItemID = item.ItemID
	if meta.Version <= 0 {
		meta.Version = 1
	}
	metaCopy := *meta
	s.metas[item.ItemID] = &metaCopy
	item.Metadata = meta
	return nil
}

func (s *itemStoreStub) GetByID(ctx context.Context, itemID string) (*models.DriveItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *item
	if meta, ok := s.metas[itemID]; ok {
		metaCopy := *meta
		copy.Metadata = &metaCopy
	}
	return &copy, nil
}

func (s *itemStoreStub) BumpFileVersion(ctx context.Context, itemID string, sizeBytes int64, updatedAt time.Time) error {
	meta, ok := s.metas[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	meta.SizeBytes = sizeBytes
	meta.Version++
	if item, ok := s.items[itemID]; ok {
		item.UpdatedAt = updatedAt
	}
	return nil
}

func (s *itemStoreStub) ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.DriveItem, error) {
	var result []models.DriveItem
	for _, item := range s.items {
		if item.OwnerID == ownerID && !item.IsTrashed && equalParent(item.ParentID, parentID) {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *itemStoreStub) ListByRepository(ctx context.Context, repoType models.RepositoryType, contextID int64, parentID *string) ([]models.DriveItem, error) {
	var result []models.DriveItem
	for _, item := range s.items {
		if item.RepositoryType != repoType || item.IsTrashed {
			continue
		}
		if item.RepositoryContextID == nil || *item.RepositoryContextID != contextID {
			continue
		}
		if equalParent(item.ParentID, parentID) {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *itemStoreStub) FindRepositoryRoot(ctx context.Context, repoType models.RepositoryType, contextID int64) (*models.DriveItem, error) {
	for _, item := range s.items {
		if item.RepositoryType == repoType && item.RepositoryContextID != nil && *item.RepositoryContextID == contextID &&
			item.ParentID == nil && item.IsSystemGenerated {
			copy := *item
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *itemStoreStub) UpdateNameParent(ctx context.Context, itemID, name string, parentID *string, updatedAt time.Time) error {
	item, ok := s.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	if !item.IsTrashed && s.hasConflict(item.OwnerID, parentID, name, itemID) {
		return repository.ErrNameConflict
	}
	item.Name = name
	item.ParentID = parentID
	item.UpdatedAt = updatedAt
	return nil
}

func (s *itemStoreStub) IsDescendant(ctx context.Context, ancestorID, candidateID string) (bool, error) {
	current := candidateID
	for {
		if current == ancestorID {
			return true, nil
		}
		item, ok := s.items[current]
		if !ok || item.ParentID == nil {
			return false, nil
		}
		current = *item.ParentID
	}
}

func (s *itemStoreStub) HasLiveSibling(ctx context.Context, ownerID int64, parentID *string, name, excludeItemID string) (bool, error) {
	return s.hasConflict(ownerID, parentID, name, excludeItemID), nil
}

func (s *itemStoreStub) Search(ctx context.Context, userID int64, query models.SearchQuery) ([]models.DriveItem, error) {
	var result []models.DriveItem
	for _, item := range s.items {
		if item.OwnerID == userID && !item.IsTrashed {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *itemStoreStub) ListSharedWith(ctx context.Context, userID int64) ([]models.DriveItem, error) {
	var result []models.DriveItem
	if s.grants == nil {
		return result, nil
	}
	for itemID, byUser := range s.grants.shares {
		if _, ok := byUser[userID]; !ok {
			continue
		}
		if item, ok := s.items[itemID]; ok && !item.IsTrashed {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *itemStoreStub) subtreeIDs(rootID string) []string {
	ids := []string{rootID}
	for i := 0; i < len(ids); i++ {
		for _, item := range s.items {
			if item.ParentID != nil && *item.ParentID == ids[i] {
				ids = append(ids, item.ItemID)
			}
		}
	}
	return ids
}

func (s *itemStoreStub) TrashSubtree(ctx context.Context, itemID string, trashedAt time.Time) (int64, error) {
	var affected int64
	for _, id := range s.subtreeIDs(itemID) {
		item := s.items[id]
		if item != nil && !item.IsTrashed {
			at := trashedAt
			item.IsTrashed = true
			item.TrashedAt = &at
			affected++
		}
	}
	return affected, nil
}

func (s *itemStoreStub) RestoreSubtree(ctx context.Context, itemID string, restoredAt time.Time) (int64, error) {
	var affected int64
	for _, id := range s.subtreeIDs(itemID) {
		item := s.items[id]
		if item != nil && item.IsTrashed {
			item.IsTrashed = false
			item.TrashedAt = nil
			item.UpdatedAt = restoredAt
			affected++
		}
	}
	return affected, nil
}

func (s *itemStoreStub) CollectSubtree(ctx context.Context, itemID string) ([]repository.SubtreeNode, error) {
	depths := map[string]int{itemID: 0}
	ids := []string{itemID}
	for i := 0; i < len(ids); i++ {
		for _, item := range s.items {
			if item.ParentID != nil && *item.ParentID == ids[i] {
				if _, seen := depths[item.ItemID]; !seen {
					depths[item.ItemID] = depths[ids[i]] + 1
					ids = append(ids, item.ItemID)
				}
			}
		}
	}
	nodes := make([]repository.SubtreeNode, 0, len(ids))
	for _, id := range ids {
		item := s.items[id]
		if item == nil {
			continue
		}
		node := repository.SubtreeNode{ItemID: id, ItemType: item.ItemType, Depth: depths[id]}
		if meta, ok := s.metas[id]; ok {
			path := meta.StoragePath
			node.StoragePath = &path
		}
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Depth > nodes[j].Depth })
	return nodes, nil
}

func (s *itemStoreStub) DeleteSubtree(ctx context.Context, nodes []repository.SubtreeNode) error {
	for _, node := range nodes {
		delete(s.items, node.ItemID)
		delete(s.metas, node.ItemID)
	}
	return nil
}

func (s *itemStoreStub) ListTrashed(ctx context.Context, ownerID int64) ([]models.DriveItem, error) {
	var result []models.DriveItem
	for _, item := range s.items {
		if item.OwnerID == ownerID && item.IsTrashed {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *itemStoreStub) ListTrashedRoots(ctx context.Context, ownerID int64) ([]models.DriveItem, error) {
	var result []models.DriveItem
	for _, item := range s.items {
		if item.OwnerID != ownerID || !item.IsTrashed {
			continue
		}
		if item.ParentID == nil {
			result = append(result, *item)
			continue
		}
		parent, ok := s.items[*item.ParentID]
		if !ok || !parent.IsTrashed {
			result = append(result, *item)
		}
	}
	return result, nil
}

// shareStoreStub keeps grants keyed by item and grantee.
type shareStoreStub struct {
	shares map[string]map[int64]*models.SharePermission
}

func newShareStoreStub() *shareStoreStub {
	return &shareStoreStub{shares: make(map[string]map[int64]*models.SharePermission)}
}

func (s *shareStoreStub) Upsert(ctx context.Context, share *models.SharePermission) error {
	if share.ShareID == "" {
		share.ShareID = uuid.NewString()
	}
	if s.shares[share.ItemID] == nil {
		s.shares[share.ItemID] = make(map[int64]*models.SharePermission)
	}
	copy := *share
	s.shares[share.ItemID][share.SharedWithUserID] = &copy
	return nil
}

func (s *shareStoreStub) Get(ctx context.Context, itemID string, userID int64) (*models.SharePermission, error) {
	if grants, ok := s.shares[itemID]; ok {
		if share, ok := grants[userID]; ok {
			copy := *share
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *shareStoreStub) ListForItem(ctx context.Context, itemID string) ([]models.SharePermission, error) {
	var result []models.SharePermission
	for _, share := range s.shares[itemID] {
		result = append(result, *share)
	}
	return result, nil
}

func (s *shareStoreStub) Delete(ctx context.Context, itemID string, userID int64) error {
	if grants, ok := s.shares[itemID]; ok {
		if _, ok := grants[userID]; ok {
			delete(grants, userID)
			return nil
		}
	}
	return sql.ErrNoRows
}

// rosterStub answers teaches-class checks from a fixed set.
type rosterStub struct {
	teaches map[int64]map[int64]bool
	err     error
	calls   int
}

func newRosterStub() *rosterStub {
	return &rosterStub{teaches: make(map[int64]map[int64]bool)}
}

func (r *rosterStub) allow(lecturerID, classID int64) {
	if r.teaches[lecturerID] == nil {
		r.teaches[lecturerID] = make(map[int64]bool)
	}
	r.teaches[lecturerID][classID] = true
}

func (r *rosterStub) CheckLecturerTeachesClass(ctx context.Context, token string, lecturerID, classID int64) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	return r.teaches[lecturerID][classID], nil
}

// cacheStub is a map-backed permission cache.
type cacheStub struct {
	values map[string]bool
}

func newCacheStub() *cacheStub {
	return &cacheStub{values: make(map[string]bool)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if b, ok := dest.(*bool); ok {
		*b = value
	}
	return nil
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if b, ok := value.(bool); ok {
		c.values[key] = b
	}
	return nil
}

// byteStoreStub records writes and deletions without touching disk.
type byteStoreStub struct {
	saved     map[string][]byte
	deleted   []string
	deleteErr error
}

func newByteStoreStub() *byteStoreStub {
	return &byteStoreStub{saved: make(map[string][]byte)}
}

func (s *byteStoreStub) Save(relPath string, data []byte) (string, error) {
	s.saved[relPath] = data
	return relPath, nil
}

func (s *byteStoreStub) SaveStream(relPath string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[relPath] = data
	return relPath, nil
}

func (s *byteStoreStub) Open(relPath string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (s *byteStoreStub) Delete(relPath string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, relPath)
	delete(s.saved, relPath)
	return nil
}

// notifierStub records dispatched notifications.
type notifierStub struct {
	users   []integration.Notification
	classes []int64
}

func (n *notifierStub) NotifyUser(token string, notification integration.Notification) {
	n.users = append(n.users, notification)
}

func (n *notifierStub) NotifyClass(token string, classID int64, title, message, notifType string, metadata map[string]interface{}) {
	n.classes = append(n.classes, classID)
}

// signingStoreStub keeps signing requests in memory with guarded
// transitions. Like the real repository, Create refuses a second active
// request for the same item. staleReads makes FindActiveForItem return
// nothing, modelling a reader that misses a concurrent insert.
type signingStoreStub struct {
	requests   map[string]*models.SigningRequest
	staleReads bool
}

func newSigningStoreStub() *signingStoreStub {
	return &signingStoreStub{requests: make(map[string]*models.SigningRequest)}
}

func (s *signingStoreStub) Create(ctx context.Context, req *models.SigningRequest) error {
	for _, existing := range s.requests {
		if existing.DriveItemID == req.DriveItemID && !existing.Status.Terminal() {
			return repository.ErrActiveRequestExists
		}
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.SigningDraft
	}
	copy := *req
	s.requests[req.RequestID] = &copy
	return nil
}

func (s *signingStoreStub) GetByID(ctx context.Context, requestID string) (*models.SigningRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *req
	return &copy, nil
}

func (s *signingStoreStub) FindActiveForItem(ctx context.Context, itemID string) (*models.SigningRequest, error) {
	if s.staleReads {
		return nil, nil
	}
	for _, req := range s.requests {
		if req.DriveItemID == itemID && !req.Status.Terminal() {
			copy := *req
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *signingStoreStub) ListByRequester(ctx context.Context, requesterID int64) ([]models.SigningRequest, error) {
	var result []models.SigningRequest
	for _, req := range s.requests {
		if req.RequesterID == requesterID {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (s *signingStoreStub) ListByStatus(ctx context.Context, status models.SigningStatus) ([]models.SigningRequest, error) {
	var result []models.SigningRequest
	for _, req := range s.requests {
		if req.Status == status {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (s *signingStoreStub) Transition(ctx context.Context, requestID string, from, to models.SigningStatus, update repository.TransitionUpdate) error {
	req, ok := s.requests[requestID]
	if !ok || req.Status != from {
		return repository.ErrStaleStatus
	}
	req.Status = to
	if update.ApproverID != nil {
		req.ApproverID = update.ApproverID
	}
	if update.AdminComment != nil {
		req.AdminComment = update.AdminComment
	}
	if update.SignedFilePath != nil {
		req.SignedFilePath = update.SignedFilePath
	}
	if update.ApprovedAt != nil {
		req.ApprovedAt = update.ApprovedAt
	}
	return nil
}

// catalogStub serves canned courses, classes and departments.
type catalogStub struct {
	courses     map[int64][]integration.Course
	coursesErr  error
	classes     map[int64][]integration.ClassSummary
	classesErr  error
	departments map[int64]*integration.Department
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		courses:     make(map[int64][]integration.Course),
		classes:     make(map[int64][]integration.ClassSummary),
		departments: make(map[int64]*integration.Department),
	}
}

func (c *catalogStub) GetLecturerClasses(ctx context.Context, token string, lecturerID int64) ([]integration.ClassSummary, error) {
	if c.classesErr != nil {
		return nil, c.classesErr
	}
	return c.classes[lecturerID], nil
}

func (c *catalogStub) GetCourses(ctx context.Context, token string, filter integration.CourseFilter) ([]integration.Course, error) {
	if c.coursesErr != nil {
		return nil, c.coursesErr
	}
	if filter.SemesterID == nil {
		return nil, nil
	}
	return c.courses[*filter.SemesterID], nil
}

func (c *catalogStub) GetDepartment(ctx context.Context, token string, departmentID int64) (*integration.Department, error) {
	dept, ok := c.departments[departmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return dept, nil
}
