package dto

// ListRepositoryItemsQuery scopes class or department storage listings.
// A nil parent lists the children of the provisioned root folder.
type ListRepositoryItemsQuery struct {
	ParentID *string `form:"parent_id" binding:"omitempty,uuid"`
}

// RepositoryUploadRequest carries the multipart fields for uploads into
// class or department storage.
type RepositoryUploadRequest struct {
	ParentID *string `form:"parent_id" binding:"omitempty,uuid"`
	Notify   bool    `form:"notify"`
}

// ProvisionResult summarises what a provisioning run created.
type ProvisionResult struct {
	RootItemID     string `json:"root_item_id"`
	FoldersCreated int    `json:"folders_created"`
}
