package memory

import (
	"testing"

	"github.com/soitgoes511/graph-network-visualizer/pkg/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, NewMemoryStore())
}
