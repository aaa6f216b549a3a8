package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-drive-api/internal/models"
)

// ErrNameConflict is returned when an insert or update trips the partial
// unique index on (owner_id, parent_id, name) among live items. The index is
// the serialization point for concurrent creates on the same parent.
var ErrNameConflict = errors.New("sibling name conflict")

const driveItemColumns = `i.item_id, i.name, i.item_type, i.owner_id, i.owner_type, i.parent_id,
       i.repository_type, i.repository_context_id, i.process_status,
       i.is_system_generated, i.is_locked, i.is_trashed, i.trashed_at,
       i.created_at, i.updated_at`

const metadataColumns = `m.mime_type AS meta_mime_type, m.size_bytes AS meta_size_bytes,
       m.storage_path AS meta_storage_path, m.version AS meta_version`

// DriveItemRepository persists the hierarchical item namespace.
type DriveItemRepository struct {
	db *sqlx.DB
}

// NewDriveItemRepository constructs the repository.
func NewDriveItemRepository(db *sqlx.DB) *DriveItemRepository {
	return &DriveItemRepository{db: db}
}

type driveItemRow struct {
	models.DriveItem
	MetaMimeType    *string `db:"meta_mime_type"`
	MetaSizeBytes   *int64  `db:"meta_size_bytes"`
	MetaStoragePath *string `db:"meta_storage_path"`
	MetaVersion     *int    `db:"meta_version"`
}

func (r driveItemRow) toModel() models.DriveItem {
	item := r.DriveItem
	if item.ItemType == models.ItemTypeFile && r.MetaMimeType != nil {
		item.Metadata = &models.FileMetadata{
			ItemID:      item.ItemID,
			MimeType:    *r.MetaMimeType,
			SizeBytes:   derefInt64(r.MetaSizeBytes),
			StoragePath: derefString(r.MetaStoragePath),
			Version:     derefInt(r.MetaVersion),
		}
	}
	return item
}

// Create inserts a bare item node (folders, or files whose metadata is
// written separately inside CreateFile).
func (r *DriveItemRepository) Create(ctx context.Context, item *models.DriveItem) error {
	prepareItem(item)
	const query = `INSERT INTO drive_items
	(item_id, name, item_type, owner_id, owner_type, parent_id, repository_type, repository_context_id,
	 process_status, is_system_generated, is_locked, is_trashed, trashed_at, created_at, updated_at)
	VALUES (:item_id, :name, :item_type, :owner_id, :owner_type, :parent_id, :repository_type, :repository_context_id,
	 :process_status, :is_system_generated, :is_locked, :is_trashed, :trashed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		if isUniqueViolation(err) {
			return ErrNameConflict
		}
		return fmt.Errorf("create drive item: %w", err)
	}
	return nil
}

// CreateFile atomically inserts a FILE item together with its metadata row.
func (r *DriveItemRepository) CreateFile(ctx context.Context, item *models.DriveItem, meta *models.FileMetadata) (err error) {
	prepareItem(item)
	meta.ItemID = item.ItemID
	if meta.Version <= 0 {
		meta.Version = 1
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = item.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create file tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const itemQuery = `INSERT INTO drive_items
	(item_id, name, item_type, owner_id, owner_type, parent_id, repository_type, repository_context_id,
	 process_status, is_system_generated, is_locked, is_trashed, trashed_at, created_at, updated_at)
	VALUES (:item_id, :name, :item_type, :owner_id, :owner_type, :parent_id, :repository_type, :repository_context_id,
	 :process_status, :is_system_generated, :is_locked, :is_trashed, :trashed_at, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, itemQuery, item); err != nil {
		if isUniqueViolation(err) {
			err = ErrNameConflict
			return err
		}
		return fmt.Errorf("create file item: %w", err)
	}

	const metaQuery = `INSERT INTO file_metadata (item_id, mime_type, size_bytes, storage_path, version, created_at)
	VALUES (:item_id, :mime_type, :size_bytes, :storage_path, :version, :created_at)`
	if _, err = tx.NamedExecContext(ctx, metaQuery, meta); err != nil {
		return fmt.Errorf("create file metadata: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create file tx: %w", err)
	}
	item.Metadata = meta
	return nil
}

// GetByID fetches one item with metadata joined. Callers decide visibility.
func (r *DriveItemRepository) GetByID(ctx context.Context, itemID string) (*models.DriveItem, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM drive_items i
	LEFT JOIN file_metadata m ON m.item_id = i.item_id
	WHERE i.item_id = $1`, driveItemColumns, metadataColumns)
	var row driveItemRow
	if err := r.db.GetContext(ctx, &row, query, itemID); err != nil {
		return nil, err
	}
	item := row.toModel()
	return &item, nil
}

// ListChildren returns live items under a parent for one owner, folders
// before files, then by name.
func (r *DriveItemRepository) ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.DriveItem, error) {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, `SELECT %s, %s FROM drive_items i
	LEFT JOIN file_metadata m ON m.item_id = i.item_id
	WHERE i.owner_id = $1 AND i.is_trashed = FALSE`, driveItemColumns, metadataColumns)
	args := []interface{}{ownerID}
	if parentID != nil {
		args = append(args, *parentID)
		fmt.Fprintf(&builder, " AND i.parent_id = $%d", len(args))
	} else {
		builder.WriteString(" AND i.parent_id IS NULL")
	}
	builder.WriteString(" ORDER BY i.item_type DESC, i.name ASC")

	var rows []driveItemRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return rowsToModels(rows), nil
}

// ListByRepository returns live items for a class or department repository
// under the given parent (nil parent means repository root level).
func (r *DriveItemRepository) ListByRepository(ctx context.Context, repoType models.RepositoryType, contextID int64, parentID *string) ([]models.DriveItem, error) {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, `SELECT %s, %s FROM drive_items i
	LEFT JOIN file_metadata m ON m.item_id = i.item_id
	WHERE i.repository_type = $1 AND i.repository_context_id = $2 AND i.is_trashed = FALSE`, driveItemColumns, metadataColumns)
	args := []interface{}{repoType, contextID}
	if parentID != nil {
		args = append(args, *parentID)
		fmt.Fprintf(&builder, " AND i.parent_id = $%d", len(args))
	} else {
		builder.WriteString(" AND i.parent_id IS NULL")
	}
	builder.WriteString(" ORDER BY i.item_type DESC, i.name ASC")

	var rows []driveItemRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list repository items: %w", err)
	}
	return rowsToModels(rows), nil
}

// FindRepositoryRoot locates the provisioned root folder of a class or
// department repository, trashed or not. Used for provisioning idempotency.
func (r *DriveItemRepository) FindRepositoryRoot(ctx context.Context, repoType models.RepositoryType, contextID int64) (*models.DriveItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM drive_items i
	WHERE i.repository_type = $1 AND i.repository_context_id = $2
	  AND i.parent_id IS NULL AND i.is_system_generated = TRUE
	LIMIT 1`, driveItemColumns)
	var item models.DriveItem
	if err := r.db.GetContext(ctx, &item, query, repoType, contextID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find repository root: %w", err)
	}
	return &item, nil
}

// UpdateNameParent applies a rename and/or move in one statement.
func (r *DriveItemRepository) UpdateNameParent(ctx context.Context, itemID, name string, parentID *string, updatedAt time.Time) error {
	const query = `UPDATE drive_items SET name = $2, parent_id = $3, updated_at = $4 WHERE item_id = $1`
	res, err := r.db.ExecContext(ctx, query, itemID, name, parentID, updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameConflict
		}
		return fmt.Errorf("update drive item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check drive item update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasLiveSibling reports whether a live item with the name already exists
// under the parent for the owner, excluding the item itself.
func (r *DriveItemRepository) HasLiveSibling(ctx context.Context, ownerID int64, parentID *string, name, excludeItemID string) (bool, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT COUNT(1) FROM drive_items
	WHERE owner_id = $1 AND name = $2 AND is_trashed = FALSE AND item_id <> $3`)
	args := []interface{}{ownerID, name, excludeItemID}
	if parentID != nil {
		args = append(args, *parentID)
		fmt.Fprintf(&builder, " AND parent_id = $%d", len(args))
	} else {
		builder.WriteString(" AND parent_id IS NULL")
	}
	var count int
	if err := r.db.GetContext(ctx, &count, builder.String(), args...); err != nil {
		return false, fmt.Errorf("check sibling name: %w", err)
	}
	return count > 0, nil
}

// IsDescendant reports whether candidateID sits in the subtree rooted at
// ancestorID (inclusive). Used to reject folder moves that would form a
// cycle.
func (r *DriveItemRepository) IsDescendant(ctx context.Context, ancestorID, candidateID string) (bool, error) {
	const query = `WITH RECURSIVE subtree AS (
		SELECT item_id FROM drive_items WHERE item_id = $1
		UNION ALL
		SELECT c.item_id FROM drive_items c JOIN subtree s ON c.parent_id = s.item_id
	)
	SELECT COUNT(1) FROM subtree WHERE item_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, ancestorID, candidateID); err != nil {
		return false, fmt.Errorf("check descendant: %w", err)
	}
	return count > 0, nil
}

// TrashSubtree marks the item and every descendant trashed with a single
// timestamp. One statement so concurrent readers never observe a
// half-trashed tree. Locked descendants are swept along deliberately.
func (r *DriveItemRepository) TrashSubtree(ctx context.Context, itemID string, trashedAt time.Time) (int64, error) {
	const query = `WITH RECURSIVE subtree AS (
		SELECT item_id FROM drive_items WHERE item_id = $1
		UNION ALL
		SELECT c.item_id FROM drive_items c JOIN subtree s ON c.parent_id = s.item_id
	)
	UPDATE drive_items SET is_trashed = TRUE, trashed_at = $2, updated_at = $2
	WHERE item_id IN (SELECT item_id FROM subtree) AND is_trashed = FALSE`
	res, err := r.db.ExecContext(ctx, query, itemID, trashedAt)
	if err != nil {
		return 0, fmt.Errorf("trash subtree: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check trash rows: %w", err)
	}
	return affected, nil
}

// RestoreSubtree clears the trash flag on the item and its trashed
// descendants. The partial unique index re-applies on restore, so a name
// collision at the destination surfaces as ErrNameConflict.
func (r *DriveItemRepository) RestoreSubtree(ctx context.Context, itemID string, restoredAt time.Time) (int64, error) {
	const query = `WITH RECURSIVE subtree AS (
		SELECT item_id FROM drive_items WHERE item_id = $1
		UNION ALL
		SELECT c.item_id FROM drive_items c JOIN subtree s ON c.parent_id = s.item_id
	)
	UPDATE drive_items SET is_trashed = FALSE, trashed_at = NULL, updated_at = $2
	WHERE item_id IN (SELECT item_id FROM subtree) AND is_trashed = TRUE`
	res, err := r.db.ExecContext(ctx, query, itemID, restoredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrNameConflict
		}
		return 0, fmt.Errorf("restore subtree: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check restore rows: %w", err)
	}
	return affected, nil
}

// SubtreeNode is one entry of a collected subtree, deepest first.
type SubtreeNode struct {
	ItemID      string          `db:"item_id"`
	ItemType    models.ItemType `db:"item_type"`
	Depth       int             `db:"depth"`
	StoragePath *string         `db:"storage_path"`
}

// CollectSubtree returns the item and all descendants ordered leaves first,
// with storage paths for FILE nodes so physical content can be removed
// before the rows go away.
func (r *DriveItemRepository) CollectSubtree(ctx context.Context, itemID string) ([]SubtreeNode, error) {
	const query = `WITH RECURSIVE subtree AS (
		SELECT item_id, item_type, 0 AS depth FROM drive_items WHERE item_id = $1
		UNION ALL
		SELECT c.item_id, c.item_type, s.depth + 1 FROM drive_items c JOIN subtree s ON c.parent_id = s.item_id
	)
	SELECT s.item_id, s.item_type, s.depth, m.storage_path
	FROM subtree s
	LEFT JOIN file_metadata m ON m.item_id = s.item_id
	ORDER BY s.depth DESC, s.item_id`
	var nodes []SubtreeNode
	if err := r.db.SelectContext(ctx, &nodes, query, itemID); err != nil {
		return nil, fmt.Errorf("collect subtree: %w", err)
	}
	return nodes, nil
}

// DeleteSubtree permanently removes the given nodes and their dependent
// rows. Items are deleted deepest-depth first so no parent row ever
// outlives its children mid-transaction.
func (r *DriveItemRepository) DeleteSubtree(ctx context.Context, nodes []SubtreeNode) (err error) {
	if len(nodes) == 0 {
		return nil
	}
	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ItemID)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin purge tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM share_permissions WHERE item_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("purge share permissions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM signing_requests WHERE drive_item_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("purge signing requests: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM file_metadata WHERE item_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("purge file metadata: %w", err)
	}

	// nodes arrive deepest first; delete depth layers in that order.
	for start := 0; start < len(nodes); {
		end := start
		for end < len(nodes) && nodes[end].Depth == nodes[start].Depth {
			end++
		}
		layer := make([]string, 0, end-start)
		for _, node := range nodes[start:end] {
			layer = append(layer, node.ItemID)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM drive_items WHERE item_id = ANY($1)`, pq.Array(layer)); err != nil {
			return fmt.Errorf("purge drive items: %w", err)
		}
		start = end
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit purge tx: %w", err)
	}
	return nil
}

// ListTrashed returns every trashed item of the owner, newest trash first.
func (r *DriveItemRepository) ListTrashed(ctx context.Context, ownerID int64) ([]models.DriveItem, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM drive_items i
	LEFT JOIN file_metadata m ON m.item_id = i.item_id
	WHERE i.owner_id = $1 AND i.is_trashed = TRUE
	ORDER BY i.trashed_at DESC, i.name ASC`, driveItemColumns, metadataColumns)
	var rows []driveItemRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	return rowsToModels(rows), nil
}

// ListTrashedRoots returns the owner's top-level trashed subtrees: trashed
// items whose parent is missing or not itself trashed. emptyTrash purges
// exactly these so covered descendants are never purged twice.
func (r *DriveItemRepository) ListTrashedRoots(ctx context.Context, ownerID int64) ([]models.DriveItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM drive_items i
	LEFT JOIN drive_items p ON p.item_id = i.parent_id
	WHERE i.owner_id = $1 AND i.is_trashed = TRUE
	  AND (i.parent_id IS NULL OR p.is_trashed = FALSE)
	ORDER BY i.trashed_at DESC`, driveItemColumns)
	var items []models.DriveItem
	if err := r.db.SelectContext(ctx, &items, query, ownerID); err != nil {
		return nil, fmt.Errorf("list trash roots: %w", err)
	}
	return items, nil
}

// Search matches live items the user owns or that are shared with them.
func (r *DriveItemRepository) Search(ctx context.Context, userID int64, query models.SearchQuery) ([]models.DriveItem, error) {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, `SELECT DISTINCT %s, %s FROM drive_items i
	LEFT JOIN file_metadata m ON m.item_id = i.item_id
	LEFT JOIN share_permissions sp ON sp.item_id = i.item_id
	WHERE i.is_trashed = FALSE AND (i.owner_id = $1 OR sp.shared_with_user_id = $1)`, driveItemColumns, metadataColumns)
	args := []interface{}{userID}
	if query.Name != "" {
		args = append(args, "%"+query.Name+"%")
		fmt.Fprintf(&builder, " AND i.name ILIKE $%d", len(args))
	}
	if query.ItemType != "" {
		args = append(args, query.ItemType)
		fmt.Fprintf(&builder, " AND i.item_type = $%d", len(args))
	}
	if query.MimeType != "" {
		args = append(args, "%"+query.MimeType+"%")
		fmt.Fprintf(&builder, " AND m.mime_type ILIKE $%d", len(args))
	}
	builder.WriteString(" ORDER BY i.name ASC")

	var rows []driveItemRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return rowsToModels(rows), nil
}

// ListSharedWith returns live items other users have granted to userID,
// alphabetically.
func (r *DriveItemRepository) ListSharedWith(ctx context.Context, userID int64) ([]models.DriveItem, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM drive_items i
	JOIN share_permissions sp ON sp.item_id = i.item_id
	LEFT JOIN file_metadata m ON m.item_id = i.item_id
	WHERE sp.shared_with_user_id = $1 AND i.is_trashed = FALSE
	ORDER BY i.name ASC`, driveItemColumns, metadataColumns)
	var rows []driveItemRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list shared items: %w", err)
	}
	return rowsToModels(rows), nil
}

// AdminList returns all items newest first, regardless of owner.
func (r *DriveItemRepository) AdminList(ctx context.Context, limit, offset int) ([]models.DriveItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s, %s FROM drive_items i
	LEFT JOIN file_metadata m ON m.item_id = i.item_id
	ORDER BY i.created_at DESC
	LIMIT %d OFFSET %d`, driveItemColumns, metadataColumns, limit, offset)
	var rows []driveItemRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("admin list items: %w", err)
	}
	return rowsToModels(rows), nil
}

// BumpFileVersion increments the metadata version counter after a content
// replace.
func (r *DriveItemRepository) BumpFileVersion(ctx context.Context, itemID string, sizeBytes int64, updatedAt time.Time) error {
	const query = `UPDATE file_metadata SET version = version + 1, size_bytes = $2, updated_at = $3 WHERE item_id = $1`
	res, err := r.db.ExecContext(ctx, query, itemID, sizeBytes, updatedAt)
	if err != nil {
		return fmt.Errorf("bump file version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check version rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func prepareItem(item *models.DriveItem) {
	if item.ItemID == "" {
		item.ItemID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	if item.ProcessStatus == "" {
		item.ProcessStatus = models.ProcessReady
	}
	if item.RepositoryType == "" {
		item.RepositoryType = models.RepositoryPersonal
	}
}

func rowsToModels(rows []driveItemRow) []models.DriveItem {
	items := make([]models.DriveItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
