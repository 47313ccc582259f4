package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	uploadedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	doc := NewDocument("doc-1", "ws-1", "Handbook", "upload", "elements/doc-1.json", uploadedAt)

	assert.Equal(t, DocumentStatusUnchunked, doc.Status)
	assert.Equal(t, int64(0), doc.Generation)
	assert.Equal(t, DefaultChunkConfig(), doc.Config)
	assert.Equal(t, uploadedAt, doc.UploadedAt)
	require.NoError(t, ValidateDocument(doc))
}

func TestDocumentLifecycleTransitions(t *testing.T) {
	tests := []struct {
		from    DocumentStatus
		to      DocumentStatus
		allowed bool
	}{
		{DocumentStatusUnchunked, DocumentStatusChunking, true},
		{DocumentStatusUnchunked, DocumentStatusChunked, false},
		{DocumentStatusUnchunked, DocumentStatusDeleted, true},
		{DocumentStatusChunking, DocumentStatusChunked, true},
		{DocumentStatusChunking, DocumentStatusUnchunked, true}, // failed first run reverts
		{DocumentStatusChunking, DocumentStatusRechunking, false},
		{DocumentStatusChunked, DocumentStatusRechunking, true},
		{DocumentStatusChunked, DocumentStatusChunking, false},
		{DocumentStatusChunked, DocumentStatusDeleted, true},
		{DocumentStatusRechunking, DocumentStatusChunked, true},
		{DocumentStatusRechunking, DocumentStatusUnchunked, false},
		{DocumentStatusDeleted, DocumentStatusUnchunked, false},
		{DocumentStatusDeleted, DocumentStatusChunking, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			doc := Document{Status: tt.from}
			assert.Equal(t, tt.allowed, doc.CanTransition(tt.to))
		})
	}
}

func TestValidateDocument(t *testing.T) {
	valid := NewDocument("doc-1", "ws-1", "Handbook", "upload", "key", time.Now())
	assert.NoError(t, ValidateDocument(valid))

	assert.Error(t, ValidateDocument(nil))

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing id", func(d *Document) { d.ID = "" }},
		{"missing workspace", func(d *Document) { d.WorkspaceID = "" }},
		{"missing name", func(d *Document) { d.Name = "" }},
		{"bad status", func(d *Document) { d.Status = "archived" }},
		{"negative generation", func(d *Document) { d.Generation = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := *valid
			tt.mutate(&doc)
			assert.Error(t, ValidateDocument(&doc))
		})
	}
}
