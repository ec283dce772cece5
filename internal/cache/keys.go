package cache

import "fmt"

const KeyLatest = "snapshot:latest"

func KeySnapshot(fingerprint string) string {
	return fmt.Sprintf("snapshot:%s", fingerprint)
}
