// Package telemetry decodes NAS telemetry messages into panel state.
package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
)

// ErrMalformedPayload is returned when a message is not a JSON object.
var ErrMalformedPayload = errors.New("malformed telemetry payload")

// Payload is the wire shape published by the NAS. Decode does not use it
// directly so that missing or mistyped fields degrade to zero values instead
// of failing the message; publishers use it to build messages.
type Payload struct {
	Hostname string         `json:"hostname"`
	IP       string         `json:"ip"`
	CPU      SensorPayload  `json:"cpu"`
	Memory   SensorPayload  `json:"memory"`
	Storage  StoragePayload `json:"storage"`
	Network  NetworkPayload `json:"network"`
}

// SensorPayload is a usage percentage plus a temperature.
type SensorPayload struct {
	Usage       float64 `json:"usage"`
	Temperature float64 `json:"temperature"`
}

// StoragePayload describes the storage pool.
type StoragePayload struct {
	Capacity float64       `json:"capacity"`
	Used     float64       `json:"used"`
	Disks    []DiskPayload `json:"disks"`
}

// DiskPayload is one disk entry. ID is informational only.
type DiskPayload struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
}

// NetworkPayload is throughput in bytes per second.
type NetworkPayload struct {
	Upload   float64 `json:"upload"`
	Download float64 `json:"download"`
}

// Decode turns a raw message into a complete new state. Disk slots the
// message does not mention keep their value from prev. prev is never
// modified; on error the zero state is returned and the caller keeps its own.
func Decode(raw []byte, prev model.NasState, now time.Time) (model.NasState, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return model.NasState{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return model.NasState{}, fmt.Errorf("%w: top level is %s, not an object", ErrMalformedPayload, jsonKind(doc))
	}

	next := model.NasState{
		Hostname:  str(root, "hostname"),
		IPAddress: str(root, "ip"),
		CPU: model.CPUStats{
			UsagePercent: num(root, "cpu", "usage"),
			TemperatureC: num(root, "cpu", "temperature"),
		},
		Memory: model.MemoryStats{
			UsagePercent: num(root, "memory", "usage"),
			TemperatureC: num(root, "memory", "temperature"),
		},
		Storage: model.StorageStats{
			CapacityBytes: num(root, "storage", "capacity"),
			UsedBytes:     num(root, "storage", "used"),
			Disks:         prev.Storage.Disks,
		},
		Network: model.NetworkStats{
			UploadBytesPerSec:   num(root, "network", "upload"),
			DownloadBytesPerSec: num(root, "network", "download"),
		},
		LastUpdate: now,
		Valid:      true,
	}

	disks, _ := lookup(root, "storage", "disks").([]any)
	for i := 0; i < len(disks) && i < model.MaxDisks; i++ {
		entry, _ := disks[i].(map[string]any)
		next.Storage.Disks[i] = model.ParseDiskStatus(str(entry, "status"))
	}

	return next, nil
}

// parseDocument decodes one JSON value, keeping numbers as json.Number so
// that a number outside float64 range is not a syntax failure.
func parseDocument(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after top-level value")
	}
	return doc, nil
}

// lookup walks nested objects, returning nil when any step is missing.
func lookup(obj map[string]any, path ...string) any {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// num returns the number at path. Numbers outside float64 range read as 0.
func num(obj map[string]any, path ...string) float64 {
	n, ok := lookup(obj, path...).(json.Number)
	if !ok {
		return 0
	}
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}

func str(obj map[string]any, path ...string) string {
	v, _ := lookup(obj, path...).(string)
	return v
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
