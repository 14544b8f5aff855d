package events

import (
	"encoding/json"
	"fmt"

	"github.com/broady/mxapi/mxid"
)

const msgTypeFile = "m.file"

// MediaSource locates media: a plain mxc URI or an encrypted file.
// It is embedded into its owner, so its members appear at the owner's level.
type MediaSource struct {
	URL  mxid.MxcURI    `json:"url,omitempty"`
	File *EncryptedFile `json:"file,omitempty"`
}

// Encrypted reports whether the source is an encrypted file.
func (s MediaSource) Encrypted() bool { return s.File != nil }

// EncryptedFile describes an attachment encrypted with AES-CTR.
type EncryptedFile struct {
	URL    mxid.MxcURI       `json:"url"`
	Key    JSONWebKey        `json:"key"`
	IV     string            `json:"iv"`
	Hashes map[string]string `json:"hashes"`
	V      string            `json:"v"`
}

type JSONWebKey struct {
	Kty    string   `json:"kty"`
	KeyOps []string `json:"key_ops"`
	Alg    string   `json:"alg"`
	K      string   `json:"k"`
	Ext    bool     `json:"ext"`
}

// FileMessageEventContent is the content of an m.room.message event with
// msgtype m.file.
type FileMessageEventContent struct {
	// Body is a human-readable description, usually the upload's filename.
	Body     string  `json:"body"`
	Filename *string `json:"filename,omitempty"`
	MediaSource
	Info *FileInfo `json:"info,omitempty"`
}

// NewPlainFile returns content for an unencrypted upload.
func NewPlainFile(body string, url mxid.MxcURI, info *FileInfo) *FileMessageEventContent {
	return &FileMessageEventContent{Body: body, MediaSource: MediaSource{URL: url}, Info: info}
}

// NewEncryptedFile returns content for an encrypted upload.
func NewEncryptedFile(body string, file *EncryptedFile) *FileMessageEventContent {
	return &FileMessageEventContent{Body: body, MediaSource: MediaSource{File: file}}
}

func (*FileMessageEventContent) EventType() string { return TypeRoomMessage }

// MsgType is always m.file.
func (*FileMessageEventContent) MsgType() string { return msgTypeFile }

func (c FileMessageEventContent) MarshalJSON() ([]byte, error) {
	type plain FileMessageEventContent
	return json.Marshal(struct {
		MsgType string `json:"msgtype"`
		plain
	}{msgTypeFile, plain(c)})
}

func (c *FileMessageEventContent) UnmarshalJSON(data []byte) error {
	type plain FileMessageEventContent
	var v struct {
		MsgType string `json:"msgtype"`
		plain
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.MsgType != msgTypeFile {
		return fmt.Errorf("events: msgtype %q is not %s", v.MsgType, msgTypeFile)
	}
	*c = FileMessageEventContent(v.plain)
	return nil
}

// FileInfo is metadata about a file. The thumbnail source is stored as
// thumbnail_url or thumbnail_file.
type FileInfo struct {
	Mimetype      string         `json:"mimetype,omitempty"`
	Size          *uint64        `json:"size,omitempty"`
	ThumbnailInfo *ThumbnailInfo `json:"thumbnail_info,omitempty"`
	ThumbnailURL  mxid.MxcURI    `json:"thumbnail_url,omitempty"`
	ThumbnailFile *EncryptedFile `json:"thumbnail_file,omitempty"`
}

// ThumbnailSource returns the thumbnail's media source, or nil.
func (i *FileInfo) ThumbnailSource() *MediaSource {
	if i.ThumbnailURL == "" && i.ThumbnailFile == nil {
		return nil
	}
	return &MediaSource{URL: i.ThumbnailURL, File: i.ThumbnailFile}
}

type ThumbnailInfo struct {
	Height   *uint64 `json:"h,omitempty"`
	Width    *uint64 `json:"w,omitempty"`
	Mimetype string  `json:"mimetype,omitempty"`
	Size     *uint64 `json:"size,omitempty"`
}
