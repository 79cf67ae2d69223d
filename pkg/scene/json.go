package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// recordFile is the on-disk shape of a record set.
type recordFile struct {
	Records []Record `json:"records"`
}

// MarshalRecords converts a record set to pretty-printed JSON bytes.
func MarshalRecords(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeRecordsTo(records, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteRecords writes a record set as JSON to an io.Writer.
func WriteRecords(records []Record, w io.Writer) error {
	return writeRecordsTo(records, w)
}

// WriteRecordsFile writes a record set to a JSON file.
// The file is created with 0644 permissions.
func WriteRecordsFile(records []Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeRecordsTo(records, f)
}

// ReadRecords decodes a JSON record set from an io.Reader.
// Records without an explicit ID get the conventional group+node ID.
func ReadRecords(r io.Reader) ([]Record, error) {
	var data recordFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i := range data.Records {
		if data.Records[i].ID == "" {
			data.Records[i].ID = data.Records[i].Group + data.Records[i].Node
		}
	}
	return data.Records, nil
}

// ReadRecordsFile reads a JSON file and returns the decoded record set.
func ReadRecordsFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f)
}

func writeRecordsTo(records []Record, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recordFile{Records: records}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
