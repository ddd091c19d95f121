package queue

import (
	"encoding/json"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/teacurran/WireTuner/worker-export/id"
	"github.com/teacurran/WireTuner/worker-export/job"
)

// Codec defines the serialization contract for queued jobs. The producer
// and the worker must be configured with the same codec.
type Codec interface {
	// Marshal serializes a job to bytes.
	Marshal(j *job.Job) ([]byte, error)

	// Unmarshal deserializes bytes into a job.
	Unmarshal(data []byte) (*job.Job, error)

	// Name returns the codec identifier (e.g., "json", "msgpack").
	Name() string
}

// CodecName constants for configuration.
const (
	CodecNameJSON    = "json"
	CodecNameMsgpack = "msgpack"
)

// GetCodec returns a codec by name. Defaults to JSON.
func GetCodec(name string) Codec {
	switch name {
	case CodecNameMsgpack:
		return &MsgpackCodec{}
	case CodecNameJSON, "":
		return &JSONCodec{}
	default:
		return &JSONCodec{}
	}
}

// JSONCodec encodes jobs as JSON, the wire format shared with the
// producing API server. This is the default.
type JSONCodec struct{}

func (c *JSONCodec) Marshal(j *job.Job) ([]byte, error) {
	return json.Marshal(j)
}

func (c *JSONCodec) Unmarshal(data []byte) (*job.Job, error) {
	var j job.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *JSONCodec) Name() string { return CodecNameJSON }

// wireJob is the msgpack wire representation. The ID travels as its
// string form because msgpack reflection cannot see inside id.ID.
type wireJob struct {
	ID         string       `msgpack:"job_id"`
	DocumentID string       `msgpack:"document_id"`
	SVGContent string       `msgpack:"svg_content"`
	OutputPath string       `msgpack:"output_path"`
	Metadata   wireMetadata `msgpack:"metadata"`
	Status     string       `msgpack:"status"`
	RetryCount int          `msgpack:"retry_count"`
	CreatedAt  time.Time    `msgpack:"created_at"`
	UpdatedAt  time.Time    `msgpack:"updated_at"`
	Error      string       `msgpack:"error,omitempty"`
}

type wireMetadata struct {
	ArtboardIDs   []string `msgpack:"artboard_ids"`
	ExportScope   string   `msgpack:"export_scope"`
	ClientVersion string   `msgpack:"client_version"`
	UserID        string   `msgpack:"user_id,omitempty"`
}

// MsgpackCodec encodes jobs as MessagePack. Smaller payloads than JSON
// for large SVG content, at the cost of human readability in redis-cli.
type MsgpackCodec struct{}

func (c *MsgpackCodec) Marshal(j *job.Job) ([]byte, error) {
	return msgpack.Marshal(&wireJob{
		ID:         j.ID.String(),
		DocumentID: j.DocumentID,
		SVGContent: j.SVGContent,
		OutputPath: j.OutputPath,
		Metadata: wireMetadata{
			ArtboardIDs:   j.Metadata.ArtboardIDs,
			ExportScope:   j.Metadata.ExportScope,
			ClientVersion: j.Metadata.ClientVersion,
			UserID:        j.Metadata.UserID,
		},
		Status:     j.Status.String(),
		RetryCount: j.RetryCount,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
		Error:      j.Error,
	})
}

func (c *MsgpackCodec) Unmarshal(data []byte) (*job.Job, error) {
	var w wireJob
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	jobID, err := id.ParseJobID(w.ID)
	if err != nil {
		return nil, err
	}

	return &job.Job{
		ID:         jobID,
		DocumentID: w.DocumentID,
		SVGContent: w.SVGContent,
		OutputPath: w.OutputPath,
		Metadata: job.Metadata{
			ArtboardIDs:   w.Metadata.ArtboardIDs,
			ExportScope:   w.Metadata.ExportScope,
			ClientVersion: w.Metadata.ClientVersion,
			UserID:        w.Metadata.UserID,
		},
		Status:     job.Status(w.Status),
		RetryCount: w.RetryCount,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
		Error:      w.Error,
	}, nil
}

func (c *MsgpackCodec) Name() string { return CodecNameMsgpack }
