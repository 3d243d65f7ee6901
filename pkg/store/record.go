package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/go-go-golems/parley/pkg/conversation"
)

// Record is the durable unit of state: one transcript plus its metadata.
//
// StorageKey is the store-assigned handle and is canonical for all store
// operations; ID is an opaque public identifier assigned once at creation and
// never used to address files.
type Record struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Created    time.Time                 `json:"created"`
	Updated    time.Time                 `json:"updated"`
	Messages   conversation.Conversation `json:"messages"`
	StorageKey string                    `json:"storageKey"`
}

// Summary is the listing projection of a record.
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StorageKey   string    `json:"storageKey"`
	Updated      time.Time `json:"updated"`
	MessageCount int       `json:"messageCount"`
}

// document is the on-disk shape of a record. It is the store's durable
// contract: other tools may read these files, so the layout round-trips
// exactly.
type document struct {
	Meta     documentMeta              `json:"meta"`
	Messages conversation.Conversation `json:"messages"`
}

type documentMeta struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

func encodeRecord(rec *Record) ([]byte, error) {
	doc := document{
		Meta: documentMeta{
			ID:      rec.ID,
			Name:    rec.Name,
			Created: rec.Created,
			Updated: rec.Updated,
		},
		Messages: rec.Messages,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "could not encode conversation record")
	}
	return data, nil
}

func decodeRecord(data []byte, storageKey string) (*Record, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "could not decode conversation record %s", storageKey)
	}

	name := doc.Meta.Name
	if name == "" {
		name = conversation.DeriveName(doc.Messages)
	}

	return &Record{
		ID:         doc.Meta.ID,
		Name:       name,
		Created:    doc.Meta.Created,
		Updated:    doc.Meta.Updated,
		Messages:   doc.Messages,
		StorageKey: storageKey,
	}, nil
}
