package httpapi

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/agriscope/agriscope/internal/properties"
	"github.com/agriscope/agriscope/internal/utils"
)

type visitorState struct {
	Total  int64           `json:"total"`
	Unique map[string]bool `json:"unique"`
}

// VisitorCounter tracks dashboard usage across restarts in a small JSON
// file. Counts are best-effort; a failed write never blocks a request.
type VisitorCounter struct {
	path  string
	state visitorState
}

func NewVisitorCounter() *VisitorCounter {
	vc := &VisitorCounter{
		path:  filepath.Join(properties.RootPath(), "data", "visitors.json"),
		state: visitorState{Unique: make(map[string]bool)},
	}
	if data, err := os.ReadFile(vc.path); err == nil {
		var loaded visitorState
		if json.Unmarshal(data, &loaded) == nil && loaded.Unique != nil {
			vc.state = loaded
		}
	}
	return vc
}

func (vc *VisitorCounter) Record(ip string) {
	utils.ExecuteWithMutex(func() {
		vc.state.Total++
		if ip != "" {
			vc.state.Unique[ip] = true
		}
		vc.persist()
	})
}

func (vc *VisitorCounter) Counts() (total int64, unique int) {
	utils.ExecuteWithMutex(func() {
		total = vc.state.Total
		unique = len(vc.state.Unique)
	})
	return total, unique
}

func (vc *VisitorCounter) persist() {
	if err := os.MkdirAll(filepath.Dir(vc.path), 0755); err != nil {
		return
	}
	data, err := json.Marshal(vc.state)
	if err != nil {
		return
	}
	os.WriteFile(vc.path, data, 0644)
}
