package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteSigToLabel writes the family signature to integer label mapping as a
// human-readable JSON side file in dir. The file is for reporting only; it is
// not part of the binary store format.
func WriteSigToLabel(dir string, sigToLabel map[string]int) error {
	data, err := json.MarshalIndent(sigToLabel, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SigToLabelFileName), data, 0o644)
}

// ReadSigToLabel reads the side file written by WriteSigToLabel.
func ReadSigToLabel(dir string) (map[string]int, error) {
	data, err := os.ReadFile(filepath.Join(dir, SigToLabelFileName))
	if err != nil {
		return nil, err
	}
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// LabelToSig inverts a signature to label mapping for reporting.
func LabelToSig(sigToLabel map[string]int) map[int]string {
	inv := make(map[int]string, len(sigToLabel))
	for sig, label := range sigToLabel {
		inv[label] = sig
	}
	return inv
}
