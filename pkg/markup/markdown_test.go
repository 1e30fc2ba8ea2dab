package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, "", r.HTML("   "))
	assert.Contains(t, r.HTML("Bring the **Czerny** book"), "<strong>Czerny</strong>")

	out := r.HTML("<script>alert(1)</script>")
	assert.NotContains(t, out, "<script>")
}
