package harvest

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/pathing"
	"github.com/kabuto-group/disclosure-cli/internal/storage"
)

// BuildMetadata assembles the per-date sidecar from the documents a run
// discovered. Every document is recorded with its deterministic storage
// key, whether or not its transfer succeeded, so reruns can reconcile.
func BuildMetadata(date string, docs []model.Document) model.DateMetadata {
	meta := model.DateMetadata{
		RunID:          uuid.NewString(),
		Date:           date,
		TotalDocuments: len(docs),
		DocumentTypes:  make(map[string]int),
		Companies:      make(map[string]int),
		Documents:      make([]model.DocumentRecord, 0, len(docs)),
	}

	for _, doc := range docs {
		meta.DocumentTypes[string(doc.DocType)]++
		meta.Companies[doc.Code]++
		meta.Documents = append(meta.Documents, model.DocumentRecord{
			Time:        doc.Time,
			Code:        doc.Code,
			CompanyName: doc.CompanyName,
			Title:       doc.Title,
			DocType:     doc.DocType,
			StorageKey:  doc.StorageKey,
		})
	}
	return meta
}

// WriteMetadata uploads the sidecar to its key under base.
func WriteMetadata(ctx context.Context, store storage.BlobStore, base string, meta model.DateMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return eris.Wrap(err, "harvest: marshal metadata")
	}

	key := pathing.MetadataKey(base, meta.Date)
	if err := store.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return eris.Wrapf(err, "harvest: upload metadata %s", key)
	}
	return nil
}
