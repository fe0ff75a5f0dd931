package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ifconcept/gvail/internal/keys"
)

func TestViewGroupsShortcutsByConcern(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	out := m.View()

	for _, label := range []string{"Navigate", "Inbox", "Address", "App"} {
		assert.Contains(t, out, label)
	}
	assert.Contains(t, out, "copy address")
	assert.Contains(t, out, "customize address")
	assert.Contains(t, out, "toggle theme")
}
