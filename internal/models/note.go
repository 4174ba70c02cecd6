// Package models defines the domain records persisted by PulpitGraph.
package models

import "time"

// Folder is a node in the folder forest. ParentID is nil for root folders.
type Folder struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
	Expanded bool    `json:"expanded"`
}

// IsRoot reports whether the folder has no parent.
func (f Folder) IsRoot() bool {
	return f.ParentID == nil || *f.ParentID == ""
}

// Note is a Markdown-like document. Content may embed [[Wiki Link]] tokens.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FolderID  *string   `json:"folderId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InFolder reports whether the note is filed under folderID.
func (n Note) InFolder(folderID string) bool {
	return n.FolderID != nil && *n.FolderID == folderID
}

// Verse is a scripture reference from the static catalog.
type Verse struct {
	ID    string `json:"id"`
	Ref   string `json:"ref"`
	Text  string `json:"text"`
	Theme string `json:"theme,omitempty"`
}

// StringPtr returns nil for an empty string, otherwise a pointer to a copy of s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
