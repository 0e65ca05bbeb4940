package sweep

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteUserFile overwrites path with the enumerated users as a pretty-printed
// JSON array. An empty enumeration still writes "[]".
func WriteUserFile(path string, users []UserRecord) error {
	if users == nil {
		users = []UserRecord{}
	}
	b, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("writing user snapshot: %w", err)
	}
	return nil
}
